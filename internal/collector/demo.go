package collector

import (
	"context"
	"math"
	"strings"
	"time"

	"SignalSentinel/internal/errors"
	"SignalSentinel/internal/model"
)

// DemoName is the Name() of the demo fetcher. Series it produces are tagged demo.
const DemoName = "demo"

// DemoEpoch is the date of the last bar the demo fetcher produces.
var DemoEpoch = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

// DemoFetcher returns deterministic synthetic bars for development and testing.
type DemoFetcher struct {
	Prices map[string]float64 // base price per symbol
	Epoch  time.Time
}

// NewDemoFetcher creates a demo fetcher with a small built-in universe.
func NewDemoFetcher() *DemoFetcher {
	return &DemoFetcher{
		Prices: map[string]float64{
			"AAPL":   190,
			"MSFT":   420,
			"NVDA":   120,
			"SPY":    540,
			"SPX500": 5400,
			"PENNY":  2.5,
		},
		Epoch: DemoEpoch,
	}
}

func (f *DemoFetcher) Name() string { return DemoName }

func (f *DemoFetcher) FetchDailyBars(_ context.Context, symbol string, days int) ([]model.PriceBar, error) {
	base, ok := f.Prices[strings.ToUpper(symbol)]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeInvalidTicker, "demo: unknown symbol %s", symbol)
	}
	return generateDemoBars(base, days, f.Epoch), nil
}

// generateDemoBars draws a gentle uptrend with a slow oscillation on top,
// one bar per calendar day ending at end.
func generateDemoBars(basePrice float64, count int, end time.Time) []model.PriceBar {
	bars := make([]model.PriceBar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.002 + 0.02*math.Sin(float64(i)/6))
		bars[i] = model.PriceBar{
			Time:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
