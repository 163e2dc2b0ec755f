// Package pipeline sequences the indicator, signal and risk stages for one
// analysis request and turns every failure into a typed Outcome.
package pipeline

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"SignalSentinel/internal/calculator"
	"SignalSentinel/internal/config"
	"SignalSentinel/internal/errors"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/risk"
	"SignalSentinel/internal/strategy"
)

// Result bundles the three artifacts of a successful analysis.
type Result struct {
	Snapshot model.IndicatorSnapshot `json:"snapshot"`
	Signal   model.Signal            `json:"signal"`
	Risk     model.RiskAssessment    `json:"risk"`
}

// Outcome is returned for every request. Result is set only on success;
// Err only on failure. Elapsed is always set.
type Outcome struct {
	Success bool          `json:"success"`
	Result  *Result       `json:"result,omitempty"`
	Err     error         `json:"-"`
	Elapsed time.Duration `json:"elapsed"`
}

// Reason returns the machine-readable failure reason, or "" on success.
func (o Outcome) Reason() string {
	if o.Success {
		return ""
	}
	return errors.GetCode(o.Err).Reason()
}

// Coordinator runs the analysis stages in order.
type Coordinator struct {
	cfg      config.Engine
	risk     *risk.Engine
	validate *validator.Validate
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock sets the clock used to measure elapsed time.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// New creates a coordinator for the given engine configuration.
func New(cfg config.Engine, opts ...Option) *Coordinator {
	c := &Coordinator{
		cfg:      cfg,
		risk:     risk.NewEngine(cfg),
		validate: validator.New(),
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Analyze validates the request and series, computes indicators, generates
// a signal, penalizes it for the series' freshness and assesses its risk.
// It never panics on bad input and never returns a partial result.
func (c *Coordinator) Analyze(req model.AnalysisRequest, series model.PriceSeries, profile optional.Option[model.UserProfile]) Outcome {
	start := c.now()
	fail := func(err error) Outcome {
		elapsed := c.now().Sub(start)
		c.logger.Debug("analysis failed",
			zap.String("ticker", req.Ticker),
			zap.String("reason", errors.GetCode(err).Reason()),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return Outcome{Err: err, Elapsed: elapsed}
	}

	if err := c.checkInput(req, series, profile); err != nil {
		return fail(err)
	}

	snap, err := calculator.Compute(req.Ticker, series.Bars, c.cfg)
	if err != nil {
		return fail(err)
	}

	sig := strategy.Generate(snap, req.TimeHorizon, c.cfg)
	sig = ApplyDataQualityPenalty(sig, series.Freshness, c.cfg)
	assessment := c.risk.Assess(sig, snap, req.RiskTolerance, profile)

	elapsed := c.now().Sub(start)
	c.logger.Debug("analysis complete",
		zap.String("ticker", req.Ticker),
		zap.String("freshness", string(series.Freshness)),
		zap.String("direction", string(sig.Direction)),
		zap.Float64("confidence", sig.Confidence),
		zap.Stringer("risk", assessment.OverallRisk),
		zap.Duration("elapsed", elapsed))

	return Outcome{
		Success: true,
		Result: &Result{
			Snapshot: snap,
			Signal:   sig,
			Risk:     assessment,
		},
		Elapsed: elapsed,
	}
}

func (c *Coordinator) checkInput(req model.AnalysisRequest, series model.PriceSeries, profile optional.Option[model.UserProfile]) error {
	if strings.TrimSpace(req.Ticker) == "" {
		return errors.New(errors.ErrCodeInvalidTicker, "ticker is required")
	}
	if err := c.validate.Struct(req); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRequest, "invalid analysis request", err)
	}
	if profile.IsSome() {
		if err := c.validate.Struct(profile.Unwrap()); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidRequest, "invalid user profile", err)
		}
	}
	if series.Ticker != "" && !strings.EqualFold(series.Ticker, req.Ticker) {
		return errors.Newf(errors.ErrCodeInvalidTicker, "series is for %s, request is for %s", series.Ticker, req.Ticker)
	}
	if len(series.Bars) == 0 {
		return errors.Newf(errors.ErrCodeNoData, "no price bars for %s", req.Ticker)
	}
	for i, bar := range series.Bars {
		if err := c.validate.Struct(bar); err != nil {
			return errors.Wrap(errors.ErrCodeMalformedData, "bar "+bar.Time.Format("2006-01-02"), err)
		}
		if err := bar.CheckRange(); err != nil {
			return errors.Wrap(errors.ErrCodeMalformedData, "bar out of range", err)
		}
		if i > 0 && !bar.Time.After(series.Bars[i-1].Time) {
			return errors.Newf(errors.ErrCodeMalformedData, "bars not in ascending time order at index %d", i)
		}
	}
	return nil
}
