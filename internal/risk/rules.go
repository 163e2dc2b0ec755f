package risk

import (
	"fmt"
	"math"

	"github.com/moznion/go-optional"

	"SignalSentinel/internal/config"
	"SignalSentinel/internal/model"
)

// Rule thresholds. Volatility and RSI boundaries are exclusive.
const (
	ModerateConfidence = 0.70

	ModerateVolatilityRatio = 0.10
	HighVolatilityRatio     = 0.15

	ExhaustionRSI = 85.0
	PanicRSI      = 15.0

	MixedSignalCount = 2
)

// Factor names.
const (
	FactorLowConfidence     = "low_confidence"
	FactorVolatility        = "volatility"
	FactorExtremeRSI        = "extreme_rsi"
	FactorMixedSignals      = "mixed_signals"
	FactorRestrictedHorizon = "restricted_horizon"
	FactorSingleInstrument  = "single_instrument_context"
	FactorVolatilityProfile = "profile_volatility_limit"
	FactorPennyStock        = "profile_penny_stock"
)

type rule func(sig model.Signal, ind model.IndicatorSnapshot, cfg config.Engine) (model.RiskFactor, bool)

var rules = []rule{
	checkConfidence,
	checkVolatility,
	checkExtremeRSI,
	checkContradictions,
	checkHorizon,
	checkContext,
}

// checkConfidence flags signals below the actionable or the moderate band.
func checkConfidence(sig model.Signal, _ model.IndicatorSnapshot, cfg config.Engine) (model.RiskFactor, bool) {
	confidence := math.Min(sig.Confidence, cfg.ConfidenceCap)
	switch {
	case confidence < cfg.MinActionableConfidence:
		return model.RiskFactor{
			Name:        FactorLowConfidence,
			Level:       model.RiskHigh,
			Description: fmt.Sprintf("confidence %.2f below actionable minimum %.2f", confidence, cfg.MinActionableConfidence),
			Mitigation:  optional.Some("wait for confirmation from additional indicators"),
		}, true
	case confidence < ModerateConfidence:
		return model.RiskFactor{
			Name:        FactorLowConfidence,
			Level:       model.RiskModerate,
			Description: fmt.Sprintf("confidence %.2f below %.2f", confidence, ModerateConfidence),
			Mitigation:  optional.Some("reduce position size"),
		}, true
	}
	return model.RiskFactor{}, false
}

// checkVolatility uses the Bollinger width ratio (upper-lower)/middle.
func checkVolatility(_ model.Signal, ind model.IndicatorSnapshot, _ config.Engine) (model.RiskFactor, bool) {
	ratio := ind.BollingerWidthRatio()
	if ratio.IsNone() {
		return model.RiskFactor{}, false
	}
	r := ratio.Unwrap()
	switch {
	case r > HighVolatilityRatio:
		return model.RiskFactor{
			Name:        FactorVolatility,
			Level:       model.RiskHigh,
			Description: fmt.Sprintf("Bollinger width ratio %.4f above %.2f", r, HighVolatilityRatio),
			Mitigation:  optional.Some("use wider stops and smaller size"),
		}, true
	case r > ModerateVolatilityRatio:
		return model.RiskFactor{
			Name:        FactorVolatility,
			Level:       model.RiskModerate,
			Description: fmt.Sprintf("Bollinger width ratio %.4f above %.2f", r, ModerateVolatilityRatio),
			Mitigation:  optional.Some("use wider stops"),
		}, true
	}
	return model.RiskFactor{}, false
}

func checkExtremeRSI(_ model.Signal, ind model.IndicatorSnapshot, _ config.Engine) (model.RiskFactor, bool) {
	if ind.RSI14.IsNone() {
		return model.RiskFactor{}, false
	}
	rsi := ind.RSI14.Unwrap()
	switch {
	case rsi > ExhaustionRSI:
		return model.RiskFactor{
			Name:        FactorExtremeRSI,
			Level:       model.RiskHigh,
			Description: fmt.Sprintf("RSI %.1f: overbought exhaustion", rsi),
			Mitigation:  optional.None[string](),
		}, true
	case rsi < PanicRSI:
		return model.RiskFactor{
			Name:        FactorExtremeRSI,
			Level:       model.RiskHigh,
			Description: fmt.Sprintf("RSI %.1f: oversold panic", rsi),
			Mitigation:  optional.None[string](),
		}, true
	}
	return model.RiskFactor{}, false
}

func checkContradictions(sig model.Signal, _ model.IndicatorSnapshot, _ config.Engine) (model.RiskFactor, bool) {
	n := len(sig.Rationale.ContradictingFactors)
	if n < MixedSignalCount {
		return model.RiskFactor{}, false
	}
	return model.RiskFactor{
		Name:        FactorMixedSignals,
		Level:       model.RiskModerate,
		Description: fmt.Sprintf("mixed signals: %d contradicting factors", n),
		Mitigation:  optional.Some("wait for indicators to align"),
	}, true
}

// checkHorizon blocks horizons switched off in configuration.
func checkHorizon(sig model.Signal, _ model.IndicatorSnapshot, cfg config.Engine) (model.RiskFactor, bool) {
	if cfg.HorizonEnabled(sig.TimeHorizon) {
		return model.RiskFactor{}, false
	}
	return model.RiskFactor{
		Name:        FactorRestrictedHorizon,
		Level:       model.RiskCritical,
		Description: fmt.Sprintf("time horizon %s is disabled", sig.TimeHorizon),
		Mitigation:  optional.None[string](),
	}, true
}

func checkContext(_ model.Signal, _ model.IndicatorSnapshot, _ config.Engine) (model.RiskFactor, bool) {
	return model.RiskFactor{
		Name:        FactorSingleInstrument,
		Level:       model.RiskLow,
		Description: "analysis covers a single instrument without portfolio or market context",
		Mitigation:  optional.Some("review portfolio exposure before acting"),
	}, true
}

// checkProfile applies the user's volatility and penny-stock limits.
func checkProfile(p model.UserProfile, ind model.IndicatorSnapshot, cfg config.Engine) []model.RiskFactor {
	var factors []model.RiskFactor

	if ratio := ind.BollingerWidthRatio(); !p.AllowHighVolatility && ratio.IsSome() && ratio.Unwrap() > HighVolatilityRatio {
		factors = append(factors, model.RiskFactor{
			Name:        FactorVolatilityProfile,
			Level:       model.RiskCritical,
			Description: fmt.Sprintf("width ratio %.4f exceeds profile volatility tolerance", ratio.Unwrap()),
			Mitigation:  optional.None[string](),
		})
	}
	if !p.AllowPennyStocks && ind.CurrentPrice < cfg.PennyStockPrice {
		factors = append(factors, model.RiskFactor{
			Name:        FactorPennyStock,
			Level:       model.RiskCritical,
			Description: fmt.Sprintf("price %.2f below %.2f; profile excludes low-priced instruments", ind.CurrentPrice, cfg.PennyStockPrice),
			Mitigation:  optional.None[string](),
		})
	}
	return factors
}
