package strategy

import (
	"fmt"
	"math"

	"SignalSentinel/internal/model"
)

// Weight table. Each factor's weight is capped at its Max* value.
const (
	MaxCrossoverWeight = 0.30
	CrossoverScale     = 10.0

	MaxRSIWeight     = 0.25
	RSIOversold      = 30.0
	RSIOverbought    = 70.0
	RSINeutralWeight = 0.10

	MaxMACDWeight = 0.25
	MACDScale     = 10.0

	MaxBollingerWeight     = 0.20
	BollingerScale         = 2.0
	BollingerNeutralWeight = 0.05
)

// Factor names.
const (
	FactorCrossover = "ma_crossover"
	FactorRSI       = "rsi"
	FactorMACD      = "macd"
	FactorBollinger = "bollinger"
)

// scoreCrossover compares SMA20 with SMA50.
// Weight: min(0.3, relativeDiff*10), relativeDiff taken against the smaller average.
func scoreCrossover(ind model.IndicatorSnapshot) (model.FactorScore, bool) {
	if ind.SMA20.IsNone() || ind.SMA50.IsNone() {
		return model.FactorScore{}, false
	}
	fast, slow := ind.SMA20.Unwrap(), ind.SMA50.Unwrap()
	if fast == slow {
		return model.FactorScore{}, false
	}
	relDiff := math.Abs(fast-slow) / math.Min(fast, slow)
	weight := math.Min(MaxCrossoverWeight, relDiff*CrossoverScale)

	if fast > slow {
		return model.FactorScore{
			Name:        FactorCrossover,
			Direction:   model.DirectionBullish,
			Weight:      weight,
			Explanation: fmt.Sprintf("SMA20 above SMA50 by %.2f%%", relDiff*100),
		}, true
	}
	return model.FactorScore{
		Name:        FactorCrossover,
		Direction:   model.DirectionBearish,
		Weight:      weight,
		Explanation: fmt.Sprintf("SMA20 below SMA50 by %.2f%%", relDiff*100),
	}, true
}

// scoreRSI maps RSI(14) onto oversold / overbought / neutral.
// Weight scales linearly to 0.25 at RSI 0 (or 100); neutral band is 0.1.
func scoreRSI(ind model.IndicatorSnapshot) (model.FactorScore, bool) {
	if ind.RSI14.IsNone() {
		return model.FactorScore{}, false
	}
	rsi := ind.RSI14.Unwrap()

	switch {
	case rsi < RSIOversold:
		return model.FactorScore{
			Name:        FactorRSI,
			Direction:   model.DirectionBullish,
			Weight:      math.Min(MaxRSIWeight, (RSIOversold-rsi)/RSIOversold*MaxRSIWeight),
			Explanation: fmt.Sprintf("RSI %.1f oversold", rsi),
		}, true
	case rsi > RSIOverbought:
		return model.FactorScore{
			Name:        FactorRSI,
			Direction:   model.DirectionBearish,
			Weight:      math.Min(MaxRSIWeight, (rsi-RSIOverbought)/(100-RSIOverbought)*MaxRSIWeight),
			Explanation: fmt.Sprintf("RSI %.1f overbought", rsi),
		}, true
	default:
		return model.FactorScore{
			Name:        FactorRSI,
			Direction:   model.DirectionNeutral,
			Weight:      RSINeutralWeight,
			Explanation: fmt.Sprintf("RSI %.1f in neutral range", rsi),
		}, true
	}
}

// scoreMACD compares the MACD line with its signal line.
// Weight: min(0.25, |MACD-signal|/price*10).
func scoreMACD(ind model.IndicatorSnapshot) (model.FactorScore, bool) {
	if ind.MACDLine.IsNone() || ind.MACDSignal.IsNone() || ind.CurrentPrice <= 0 {
		return model.FactorScore{}, false
	}
	line, signal := ind.MACDLine.Unwrap(), ind.MACDSignal.Unwrap()
	if line == signal {
		return model.FactorScore{}, false
	}
	weight := math.Min(MaxMACDWeight, math.Abs(line-signal)/ind.CurrentPrice*MACDScale)

	if line > signal {
		return model.FactorScore{
			Name:        FactorMACD,
			Direction:   model.DirectionBullish,
			Weight:      weight,
			Explanation: fmt.Sprintf("MACD %.4f above signal %.4f", line, signal),
		}, true
	}
	return model.FactorScore{
		Name:        FactorMACD,
		Direction:   model.DirectionBearish,
		Weight:      weight,
		Explanation: fmt.Sprintf("MACD %.4f below signal %.4f", line, signal),
	}, true
}

// scoreBollinger locates the current price relative to the bands.
// Weight outside the bands: min(0.2, distance/middle*2); inside: 0.05 neutral.
func scoreBollinger(ind model.IndicatorSnapshot) (model.FactorScore, bool) {
	if ind.BollingerUpper.IsNone() || ind.BollingerMiddle.IsNone() || ind.BollingerLower.IsNone() {
		return model.FactorScore{}, false
	}
	upper, middle, lower := ind.BollingerUpper.Unwrap(), ind.BollingerMiddle.Unwrap(), ind.BollingerLower.Unwrap()
	if middle <= 0 {
		return model.FactorScore{}, false
	}
	price := ind.CurrentPrice

	switch {
	case price < lower:
		return model.FactorScore{
			Name:        FactorBollinger,
			Direction:   model.DirectionBullish,
			Weight:      math.Min(MaxBollingerWeight, (lower-price)/middle*BollingerScale),
			Explanation: fmt.Sprintf("price %.2f below lower band %.2f", price, lower),
		}, true
	case price > upper:
		return model.FactorScore{
			Name:        FactorBollinger,
			Direction:   model.DirectionBearish,
			Weight:      math.Min(MaxBollingerWeight, (price-upper)/middle*BollingerScale),
			Explanation: fmt.Sprintf("price %.2f above upper band %.2f", price, upper),
		}, true
	default:
		return model.FactorScore{
			Name:        FactorBollinger,
			Direction:   model.DirectionNeutral,
			Weight:      BollingerNeutralWeight,
			Explanation: fmt.Sprintf("price %.2f inside bands", price),
		}, true
	}
}
