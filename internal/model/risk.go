package model

import (
	"fmt"

	"github.com/moznion/go-optional"
)

// RiskLevel is totally ordered: Low < Moderate < High < Critical.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskModerate
	RiskHigh
	RiskCritical
)

func (l RiskLevel) String() string {
	switch l {
	case RiskLow:
		return "low"
	case RiskModerate:
		return "moderate"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return fmt.Sprintf("RiskLevel(%d)", int(l))
	}
}

// MarshalText encodes the level by name.
func (l RiskLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes a level name.
func (l *RiskLevel) UnmarshalText(text []byte) error {
	switch string(text) {
	case "low":
		*l = RiskLow
	case "moderate":
		*l = RiskModerate
	case "high":
		*l = RiskHigh
	case "critical":
		*l = RiskCritical
	default:
		return fmt.Errorf("unknown risk level %q", string(text))
	}
	return nil
}

// RiskTolerance is the caller's declared appetite for risk.
type RiskTolerance string

const (
	ToleranceConservative RiskTolerance = "conservative"
	ToleranceModerate     RiskTolerance = "moderate"
	ToleranceAggressive   RiskTolerance = "aggressive"
)

// RiskFactor is a single fired risk rule.
type RiskFactor struct {
	Name        string                  `json:"name"`
	Level       RiskLevel               `json:"level"`
	Description string                  `json:"description"`
	Mitigation  optional.Option[string] `json:"mitigation"`
}

// Constraint names recorded on every assessment.
const (
	ConstraintConfidenceCap  = "confidence_cap"
	ConstraintDisclaimer     = "disclaimer_attached"
	ConstraintPositionSizing = "position_sizing_reminder"
)

// RiskAssessment is the output of the risk engine.
type RiskAssessment struct {
	OverallRisk        RiskLevel    `json:"overall_risk"`
	Factors            []RiskFactor `json:"factors"`
	IsActionable       bool         `json:"is_actionable"`
	Warnings           []string     `json:"warnings"`
	AppliedConstraints []string     `json:"applied_constraints"`
}

// UserProfile carries per-user risk preferences.
type UserProfile struct {
	RiskTolerance       RiskTolerance `json:"risk_tolerance" validate:"omitempty,oneof=conservative moderate aggressive"`
	AllowHighVolatility bool          `json:"allow_high_volatility"`
	AllowPennyStocks    bool          `json:"allow_penny_stocks"`
	MaxPositionPct      float64       `json:"max_position_pct" validate:"gte=0,lte=100"`
	MaxCapital          float64       `json:"max_capital" validate:"gte=0"`
}

// AnalysisRequest describes one analysis call.
type AnalysisRequest struct {
	Ticker        string        `json:"ticker" validate:"required,max=16"`
	TimeHorizon   TimeHorizon   `json:"time_horizon" validate:"required,oneof=short_term medium_term long_term"`
	RiskTolerance RiskTolerance `json:"risk_tolerance" validate:"required,oneof=conservative moderate aggressive"`
	LookbackDays  int           `json:"lookback_days" validate:"gte=30,lte=365"`
}
