package model

import (
	"slices"
	"time"
)

// Direction is the directional call of a signal.
type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
	DirectionNeutral Direction = "neutral"
)

// Strength classifies a signal by its confidence band.
type Strength string

const (
	StrengthWeak     Strength = "weak"
	StrengthModerate Strength = "moderate"
	StrengthStrong   Strength = "strong"
)

// TimeHorizon is the holding horizon declared by the caller.
type TimeHorizon string

const (
	HorizonShortTerm  TimeHorizon = "short_term"
	HorizonMediumTerm TimeHorizon = "medium_term"
	HorizonLongTerm   TimeHorizon = "long_term"
)

// Horizons lists every supported horizon.
var Horizons = []TimeHorizon{HorizonShortTerm, HorizonMediumTerm, HorizonLongTerm}

// FactorScore is the contribution of one indicator to a signal.
type FactorScore struct {
	Name        string    `json:"name"`
	Direction   Direction `json:"direction"`
	Weight      float64   `json:"weight"`
	Explanation string    `json:"explanation"`
}

// Rationale explains which factors drove a signal.
type Rationale struct {
	PrimaryFactors       []string `json:"primary_factors"`
	ContradictingFactors []string `json:"contradicting_factors"`
	Assumptions          []string `json:"assumptions"`
	Limitations          []string `json:"limitations"`
}

// Signal is the output of the signal generator.
type Signal struct {
	Ticker      string        `json:"ticker"`
	Timestamp   time.Time     `json:"timestamp"`
	Direction   Direction     `json:"direction"`
	Confidence  float64       `json:"confidence"`
	Strength    Strength      `json:"strength"`
	Rationale   Rationale     `json:"rationale"`
	TimeHorizon TimeHorizon   `json:"time_horizon"`
	Factors     []FactorScore `json:"factors"`
}

// WithConfidence returns a copy of the signal carrying the given confidence.
// Strength is left as classified by the generator.
func (s Signal) WithConfidence(confidence float64) Signal {
	s.Confidence = confidence
	s.Rationale = s.Rationale.clone()
	s.Factors = slices.Clone(s.Factors)
	return s
}

func (r Rationale) clone() Rationale {
	return Rationale{
		PrimaryFactors:       slices.Clone(r.PrimaryFactors),
		ContradictingFactors: slices.Clone(r.ContradictingFactors),
		Assumptions:          slices.Clone(r.Assumptions),
		Limitations:          slices.Clone(r.Limitations),
	}
}
