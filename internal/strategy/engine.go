package strategy

import (
	"math"

	"SignalSentinel/internal/config"
	"SignalSentinel/internal/model"
)

const (
	// DirectionalThreshold is the bucket sum a bullish or bearish call must exceed.
	DirectionalThreshold = 0.3
	// BaselineConfidence is reported when no indicator could be scored.
	BaselineConfidence = 0.5

	moderateConfidence = 0.60
	strongConfidence   = 0.75
)

var assumptions = []string{
	"historical price patterns persist over the declared horizon",
	"price series is split-adjusted and ordered oldest to newest",
}

var limitations = []string{
	"single instrument only; no market or sector context",
	"technical indicators only; no fundamental or news data",
}

type scorer struct {
	name  string
	score func(model.IndicatorSnapshot) (model.FactorScore, bool)
}

var scorers = []scorer{
	{FactorCrossover, scoreCrossover},
	{FactorRSI, scoreRSI},
	{FactorMACD, scoreMACD},
	{FactorBollinger, scoreBollinger},
}

// Generate evaluates the snapshot against the rule table and returns a signal.
// It never fails: with no computable indicator the signal is neutral at 0.5.
func Generate(ind model.IndicatorSnapshot, horizon model.TimeHorizon, cfg config.Engine) model.Signal {
	var factors []model.FactorScore
	lim := append([]string(nil), limitations...)

	for _, s := range scorers {
		f, ok := s.score(ind)
		if !ok {
			lim = append(lim, s.name+" not scored: indicator unavailable or flat")
			continue
		}
		factors = append(factors, f)
	}

	direction, confidence := aggregate(factors, cfg.ConfidenceCap)

	return model.Signal{
		Ticker:      ind.Ticker,
		Timestamp:   ind.Timestamp,
		Direction:   direction,
		Confidence:  confidence,
		Strength:    ClassifyStrength(confidence),
		Rationale:   buildRationale(factors, direction, lim),
		TimeHorizon: horizon,
		Factors:     factors,
	}
}

// aggregate sums factor weights per direction and picks the winning bucket.
// A directional bucket wins only when it is strictly the largest and exceeds
// DirectionalThreshold; otherwise the call is neutral.
func aggregate(factors []model.FactorScore, confidenceCap float64) (model.Direction, float64) {
	var bull, bear, neutral float64
	for _, f := range factors {
		switch f.Direction {
		case model.DirectionBullish:
			bull += f.Weight
		case model.DirectionBearish:
			bear += f.Weight
		case model.DirectionNeutral:
			neutral += f.Weight
		}
	}
	total := bull + bear + neutral
	if total <= 0 {
		return model.DirectionNeutral, math.Min(BaselineConfidence, confidenceCap)
	}

	direction, winner := model.DirectionNeutral, neutral
	switch {
	case bull > bear && bull > neutral && bull > DirectionalThreshold:
		direction, winner = model.DirectionBullish, bull
	case bear > bull && bear > neutral && bear > DirectionalThreshold:
		direction, winner = model.DirectionBearish, bear
	}
	return direction, math.Min(winner/total, confidenceCap)
}

// ClassifyStrength maps a confidence onto weak / moderate / strong.
func ClassifyStrength(confidence float64) model.Strength {
	switch {
	case confidence < moderateConfidence:
		return model.StrengthWeak
	case confidence < strongConfidence:
		return model.StrengthModerate
	default:
		return model.StrengthStrong
	}
}

func buildRationale(factors []model.FactorScore, direction model.Direction, lim []string) model.Rationale {
	r := model.Rationale{
		PrimaryFactors:       []string{},
		ContradictingFactors: []string{},
		Assumptions:          append([]string(nil), assumptions...),
		Limitations:          lim,
	}
	for _, f := range factors {
		switch {
		case f.Direction == direction:
			r.PrimaryFactors = append(r.PrimaryFactors, f.Explanation)
		case f.Direction != model.DirectionNeutral:
			r.ContradictingFactors = append(r.ContradictingFactors, f.Explanation)
		}
	}
	return r
}
