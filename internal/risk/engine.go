package risk

import (
	"fmt"

	"github.com/moznion/go-optional"

	"SignalSentinel/internal/config"
	"SignalSentinel/internal/model"
)

// Engine applies the deterministic risk rules to a signal.
type Engine struct {
	cfg config.Engine
}

// NewEngine creates a risk engine for the given thresholds.
func NewEngine(cfg config.Engine) *Engine {
	return &Engine{cfg: cfg}
}

// Assess evaluates every rule and the optional user profile, then gates
// actionability on direction, overall risk and tolerance. It never fails;
// a signal that fires no rule other than the context disclosure is low risk.
func (e *Engine) Assess(sig model.Signal, ind model.IndicatorSnapshot, tolerance model.RiskTolerance, profile optional.Option[model.UserProfile]) model.RiskAssessment {
	var factors []model.RiskFactor
	for _, r := range rules {
		if f, ok := r(sig, ind, e.cfg); ok {
			factors = append(factors, f)
		}
	}

	warnings := []string{}
	if profile.IsSome() {
		p := profile.Unwrap()
		factors = append(factors, checkProfile(p, ind, e.cfg)...)

		profileTolerance := p.RiskTolerance
		if profileTolerance == "" {
			profileTolerance = tolerance
		}
		if profileTolerance == model.ToleranceConservative {
			warnings = append(warnings, "conservative profile: keep position size small relative to capital")
		}
		if p.MaxPositionPct > e.cfg.MaxPositionPct {
			warnings = append(warnings, fmt.Sprintf("profile position limit %.1f%% exceeds recommended %.1f%%",
				p.MaxPositionPct, e.cfg.MaxPositionPct))
		}
	}
	for _, f := range factors {
		if f.Level >= model.RiskHigh {
			warnings = append(warnings, f.Description)
		}
	}

	overall := OverallLevel(factors)

	return model.RiskAssessment{
		OverallRisk:  overall,
		Factors:      factors,
		IsActionable: IsActionable(sig.Direction, overall, tolerance),
		Warnings:     warnings,
		AppliedConstraints: []string{
			model.ConstraintConfidenceCap,
			model.ConstraintDisclaimer,
			model.ConstraintPositionSizing,
		},
	}
}

// OverallLevel returns the highest level among factors, or RiskLow if none fired.
func OverallLevel(factors []model.RiskFactor) model.RiskLevel {
	overall := model.RiskLow
	for _, f := range factors {
		if f.Level > overall {
			overall = f.Level
		}
	}
	return overall
}

// IsActionable gates a signal:
// neutral and critical are never actionable; high needs an aggressive
// tolerance; moderate is blocked only for conservative tolerance; low passes.
func IsActionable(direction model.Direction, overall model.RiskLevel, tolerance model.RiskTolerance) bool {
	if direction == model.DirectionNeutral {
		return false
	}
	switch overall {
	case model.RiskCritical:
		return false
	case model.RiskHigh:
		return tolerance == model.ToleranceAggressive
	case model.RiskModerate:
		return tolerance != model.ToleranceConservative
	default:
		return true
	}
}
