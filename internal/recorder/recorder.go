package recorder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"

	"SignalSentinel/internal/model"
	"SignalSentinel/internal/pipeline"
)

// AnalysisRecord is one persisted analysis, successful or not.
// Signal and risk fields are zero for failed analyses.
type AnalysisRecord struct {
	ID          string              `json:"id"`
	RecordedAt  time.Time           `json:"recorded_at"`
	Ticker      string              `json:"ticker"`
	Horizon     model.TimeHorizon   `json:"horizon"`
	Tolerance   model.RiskTolerance `json:"tolerance"`
	Freshness   model.Freshness     `json:"freshness"`
	Success     bool                `json:"success"`
	Reason      string              `json:"reason,omitempty"`
	ElapsedMS   int64               `json:"elapsed_ms"`

	CurrentPrice   float64                  `json:"current_price,omitempty"`
	SMA20          optional.Option[float64] `json:"sma20"`
	SMA50          optional.Option[float64] `json:"sma50"`
	RSI14          optional.Option[float64] `json:"rsi14"`
	MACDHistogram  optional.Option[float64] `json:"macd_histogram"`
	BollingerWidth optional.Option[float64] `json:"bollinger_width"`

	Direction    model.Direction    `json:"direction,omitempty"`
	Confidence   float64            `json:"confidence,omitempty"`
	Strength     model.Strength     `json:"strength,omitempty"`
	OverallRisk  model.RiskLevel    `json:"overall_risk"`
	IsActionable bool               `json:"is_actionable"`
	RiskFactors  []model.RiskFactor `json:"risk_factors,omitempty"`
}

// NewAnalysisRecord flattens a pipeline outcome into a record with a fresh ID.
func NewAnalysisRecord(req model.AnalysisRequest, freshness model.Freshness, out pipeline.Outcome, at time.Time) *AnalysisRecord {
	rec := &AnalysisRecord{
		ID:         uuid.NewString(),
		RecordedAt: at,
		Ticker:     req.Ticker,
		Horizon:    req.TimeHorizon,
		Tolerance:  req.RiskTolerance,
		Freshness:  freshness,
		Success:    out.Success,
		Reason:     out.Reason(),
		ElapsedMS:  out.Elapsed.Milliseconds(),
	}
	if !out.Success || out.Result == nil {
		return rec
	}

	snap, sig, risk := out.Result.Snapshot, out.Result.Signal, out.Result.Risk
	rec.CurrentPrice = snap.CurrentPrice
	rec.SMA20 = snap.SMA20
	rec.SMA50 = snap.SMA50
	rec.RSI14 = snap.RSI14
	rec.MACDHistogram = snap.MACDHistogram
	rec.BollingerWidth = snap.BollingerWidthRatio()
	rec.Direction = sig.Direction
	rec.Confidence = sig.Confidence
	rec.Strength = sig.Strength
	rec.OverallRisk = risk.OverallRisk
	rec.IsActionable = risk.IsActionable
	rec.RiskFactors = risk.Factors
	return rec
}

// Recorder persists analyses for later review.
type Recorder interface {
	RecordAnalysis(ctx context.Context, rec *AnalysisRecord) error
	History(ctx context.Context, ticker string, limit int) ([]AnalysisRecord, error)
	Close() error
}
