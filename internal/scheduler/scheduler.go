package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/config"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/pipeline"
	"SignalSentinel/internal/recorder"
)

// TickerResult is the outcome of one collect-and-analyze run.
type TickerResult struct {
	Ticker    string           `json:"ticker"`
	Freshness model.Freshness  `json:"freshness,omitempty"`
	Outcome   pipeline.Outcome `json:"outcome"`
	RecordID  string           `json:"record_id,omitempty"`
}

// Scheduler runs the watchlist analysis on a cron schedule.
type Scheduler struct {
	Cron        *cron.Cron
	Collector   *collector.Collector
	Coordinator *pipeline.Coordinator
	Recorder    recorder.Recorder
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	Ctx         context.Context

	schedule config.Schedule
	now      func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, schedule config.Schedule, col *collector.Collector, coord *pipeline.Coordinator,
	rec recorder.Recorder, m *metrics.Metrics, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds()),
		Collector:   col,
		Coordinator: coord,
		Recorder:    rec,
		Metrics:     m,
		Logger:      logger,
		Ctx:         ctx,
		schedule:    schedule,
		now:         time.Now,
	}
}

// Register adds the watchlist analysis job.
func (s *Scheduler) Register() error {
	if len(s.schedule.Watchlist) == 0 {
		return fmt.Errorf("register analysis task: watchlist is empty")
	}
	if _, err := s.Cron.AddFunc(s.schedule.AnalysisCron, s.analysisTask); err != nil {
		return fmt.Errorf("register analysis task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started",
		zap.String("cron", s.schedule.AnalysisCron),
		zap.Strings("watchlist", s.schedule.Watchlist))
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

func (s *Scheduler) analysisTask() {
	results, err := s.RunNow(s.Ctx)
	if err != nil {
		s.Logger.Error("analysis task aborted", zap.Error(err))
		return
	}
	var ok int
	for _, r := range results {
		if r.Outcome.Success {
			ok++
		}
	}
	s.Logger.Info("analysis task finished", zap.Int("tickers", len(results)), zap.Int("succeeded", ok))
}

// RunNow analyses every watchlist ticker immediately, at most
// schedule.Concurrency at a time. Per-ticker failures are reported in the
// results; the error is non-nil only when ctx is cancelled.
func (s *Scheduler) RunNow(ctx context.Context) ([]TickerResult, error) {
	results := make([]TickerResult, len(s.schedule.Watchlist))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.schedule.Concurrency, 1))
	for i, ticker := range s.schedule.Watchlist {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			req := model.AnalysisRequest{
				Ticker:        strings.ToUpper(strings.TrimSpace(ticker)),
				TimeHorizon:   s.schedule.Horizon,
				RiskTolerance: s.schedule.Tolerance,
				LookbackDays:  s.schedule.LookbackDays,
			}
			results[i] = s.Analyze(gctx, req, optional.None[model.UserProfile]())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Analyze collects the series for one request, runs the pipeline, records
// the outcome and updates the metrics. Collection failures become failed
// outcomes so they are recorded like any other.
func (s *Scheduler) Analyze(ctx context.Context, req model.AnalysisRequest, profile optional.Option[model.UserProfile]) TickerResult {
	result := TickerResult{Ticker: req.Ticker}

	series, err := s.Collector.Collect(ctx, req.Ticker, req.LookbackDays)
	if err != nil {
		result.Outcome = pipeline.Outcome{Err: err}
		s.Logger.Warn("collect failed",
			zap.String("ticker", req.Ticker),
			zap.String("reason", result.Outcome.Reason()),
			zap.Error(err))
	} else {
		result.Freshness = series.Freshness
		s.Metrics.ObserveCollect(series.Freshness)
		result.Outcome = s.Coordinator.Analyze(req, series, profile)
	}
	s.Metrics.ObserveOutcome(result.Outcome)

	rec := recorder.NewAnalysisRecord(req, result.Freshness, result.Outcome, s.now().UTC())
	if err := s.Recorder.RecordAnalysis(ctx, rec); err != nil {
		s.Logger.Error("record analysis", zap.String("ticker", req.Ticker), zap.Error(err))
	} else {
		result.RecordID = rec.ID
	}

	fields := []zap.Field{
		zap.String("ticker", req.Ticker),
		zap.String("freshness", string(result.Freshness)),
		zap.Duration("elapsed", result.Outcome.Elapsed),
	}
	if result.Outcome.Success {
		sig := result.Outcome.Result.Signal
		s.Logger.Info("analysis complete", append(fields,
			zap.String("direction", string(sig.Direction)),
			zap.Float64("confidence", sig.Confidence),
			zap.Stringer("risk", result.Outcome.Result.Risk.OverallRisk),
			zap.Bool("actionable", result.Outcome.Result.Risk.IsActionable))...)
	} else {
		s.Logger.Warn("analysis failed", append(fields, zap.String("reason", result.Outcome.Reason()))...)
	}
	return result
}
