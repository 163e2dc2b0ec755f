package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type CalculatorTestSuite struct {
	suite.Suite
}

func TestCalculatorSuite(t *testing.T) {
	suite.Run(t, new(CalculatorTestSuite))
}

func (suite *CalculatorTestSuite) TestSMA() {
	v, err := CalculateSMA([]float64{1, 2, 3, 4, 5}, 3)
	suite.NoError(err)
	suite.Equal(4.0, v)

	_, err = CalculateSMA([]float64{1, 2}, 3)
	suite.Error(err)

	_, err = CalculateSMA([]float64{1, 2}, 0)
	suite.Error(err)
}

func (suite *CalculatorTestSuite) TestEMASeededWithFirstPrice() {
	// mult = 2/3: 1 -> 5/3 -> 23/9
	v, err := CalculateEMA([]float64{1, 2, 3}, 2)
	suite.NoError(err)
	suite.InDelta(23.0/9.0, v, 1e-12)

	_, err = CalculateEMA([]float64{1, 2, 3}, 4)
	suite.Error(err)
}

func (suite *CalculatorTestSuite) TestEMADependsOnFullHistory() {
	tail := []float64{10, 11, 12, 13}
	long := append([]float64{50, 40, 30}, tail...)

	short, err := CalculateEMA(tail, 3)
	suite.NoError(err)
	full, err := CalculateEMA(long, 3)
	suite.NoError(err)
	suite.NotEqual(short, full)
}

func (suite *CalculatorTestSuite) TestRSIAllGainsIsExactly100() {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	v, err := CalculateRSI(prices, 14)
	suite.NoError(err)
	suite.Equal(100.0, v)
	suite.False(math.IsNaN(v))
}

func (suite *CalculatorTestSuite) TestRSIMixedDeltas() {
	// 14 deltas alternating +2 / -1: avgGain 1, avgLoss 0.5, RS 2
	prices := []float64{100}
	for i := 0; i < 14; i++ {
		last := prices[len(prices)-1]
		if i%2 == 0 {
			prices = append(prices, last+2)
		} else {
			prices = append(prices, last-1)
		}
	}
	v, err := CalculateRSI(prices, 14)
	suite.NoError(err)
	suite.InDelta(100.0-100.0/3.0, v, 1e-9)
}

func (suite *CalculatorTestSuite) TestRSIAllLossesIsZero() {
	prices := make([]float64, 15)
	for i := range prices {
		prices[i] = 100 - float64(i)
	}
	v, err := CalculateRSI(prices, 14)
	suite.NoError(err)
	suite.Equal(0.0, v)
}

func (suite *CalculatorTestSuite) TestRSIOnlyUsesLastWindow() {
	// an early crash must not affect RSI over the last 14 deltas
	prices := []float64{200, 100}
	for i := 0; i < 14; i++ {
		prices = append(prices, 100+float64(i+1))
	}
	v, err := CalculateRSI(prices, 14)
	suite.NoError(err)
	suite.Equal(100.0, v)

	_, err = CalculateRSI(prices[:14], 14)
	suite.Error(err)
}

func (suite *CalculatorTestSuite) TestMACDFlatSeries() {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 42
	}
	m, err := CalculateMACD(prices, 12, 26, 9)
	suite.NoError(err)
	suite.InDelta(0, m.Line, 1e-12)
	suite.InDelta(0, m.Signal, 1e-12)
	suite.InDelta(0, m.Histogram, 1e-12)
}

func (suite *CalculatorTestSuite) TestMACDSignalIsMeanOfTrailingPrefixes() {
	prices := make([]float64, 80)
	for i := range prices {
		prices[i] = 100 + float64(i) + 3*math.Sin(float64(i)/4)
	}
	m, err := CalculateMACD(prices, 12, 26, 9)
	suite.NoError(err)

	// 80 points: prefixes of length 31..80 (50 of them)
	sum := 0.0
	for end := 31; end <= 80; end++ {
		f, _ := CalculateEMA(prices[:end], 12)
		s, _ := CalculateEMA(prices[:end], 26)
		sum += f - s
	}
	suite.InDelta(sum/50, m.Signal, 1e-12)

	f, _ := CalculateEMA(prices, 12)
	s, _ := CalculateEMA(prices, 26)
	suite.InDelta(f-s, m.Line, 1e-12)
	suite.InDelta(m.Line-m.Signal, m.Histogram, 1e-12)
}

func (suite *CalculatorTestSuite) TestMACDShortSeriesSkipsShortPrefixes() {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	m, err := CalculateMACD(prices, 12, 26, 9)
	suite.NoError(err)

	sum := 0.0
	for end := 26; end <= 30; end++ {
		f, _ := CalculateEMA(prices[:end], 12)
		s, _ := CalculateEMA(prices[:end], 26)
		sum += f - s
	}
	suite.InDelta(sum/5, m.Signal, 1e-12)
	// rising series: MACD line keeps growing, so it sits above its trailing mean
	suite.Greater(m.Histogram, 0.0)
}

func (suite *CalculatorTestSuite) TestMACDErrors() {
	_, err := CalculateMACD(make([]float64, 25), 12, 26, 9)
	suite.Error(err)
	_, err = CalculateMACD(make([]float64, 60), 26, 12, 9)
	suite.Error(err)
}

func (suite *CalculatorTestSuite) TestBollinger() {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = float64(i + 1)
	}
	b, err := CalculateBollinger(prices, 20, 2)
	suite.NoError(err)
	std := math.Sqrt((20.0*20.0 - 1) / 12)
	suite.InDelta(10.5, b.Middle, 1e-12)
	suite.InDelta(10.5+2*std, b.Upper, 1e-9)
	suite.InDelta(10.5-2*std, b.Lower, 1e-9)

	flat := []float64{5, 5, 5, 5}
	b, err = CalculateBollinger(flat, 4, 2)
	suite.NoError(err)
	suite.Equal(b.Upper, b.Lower)

	_, err = CalculateBollinger(flat, 5, 2)
	suite.Error(err)
}

var testEpoch = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
