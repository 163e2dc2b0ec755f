package pipeline

import (
	"github.com/shopspring/decimal"

	"SignalSentinel/internal/config"
	"SignalSentinel/internal/model"
)

// ApplyDataQualityPenalty returns a copy of sig with its confidence reduced
// for degraded data: stale cache and error fallback are penalized, every
// other tag passes through. The result is clamped to [floor, cap].
func ApplyDataQualityPenalty(sig model.Signal, tag model.Freshness, cfg config.Engine) model.Signal {
	var penalty float64
	switch tag {
	case model.FreshnessCacheStale:
		penalty = cfg.StalePenalty
	case model.FreshnessErrorFallback:
		penalty = cfg.ErrorFallbackPenalty
	default:
		return sig
	}

	confidence := decimal.NewFromFloat(sig.Confidence).Sub(decimal.NewFromFloat(penalty))
	confidence = decimal.Max(confidence, decimal.NewFromFloat(cfg.ConfidenceFloor))
	confidence = decimal.Min(confidence, decimal.NewFromFloat(cfg.ConfidenceCap))

	f, _ := confidence.Float64()
	return sig.WithConfidence(f)
}
