package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/config"
	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/pipeline"
	"SignalSentinel/internal/recorder"
	"SignalSentinel/internal/scheduler"
)

// runtime holds the wired collaborators shared by every command.
type runtime struct {
	cfg       *config.Config
	log       *logger.Logger
	recorder  recorder.Recorder
	metrics   *metrics.Metrics
	scheduler *scheduler.Scheduler
	closers   []func() error
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	switch cfg.DataSource.Provider {
	case "demo":
		return collector.NewDemoFetcher()
	case "vstrader":
		return collector.NewVsTraderFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.DataSource.Proxy)
	default:
		return collector.NewYahooFetcher(cfg.DataSource.Proxy)
	}
}

// newRuntime wires fetcher, cache, collector, pipeline, recorder, metrics
// and scheduler from the configuration. logOutput is where logs go.
func newRuntime(ctx context.Context, cfg *config.Config, logOutput string) (*runtime, error) {
	log, err := logger.NewLogger(cfg.Log.Level, logOutput)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	rt := &runtime{cfg: cfg, log: log, metrics: metrics.NewMetrics()}

	fetcher := newFetcher(cfg)
	log.Info("data source", zap.String("fetcher", fetcher.Name()))

	var cache collector.SeriesCache = collector.NewMemoryCache()
	if cfg.Cache.RedisAddr != "" {
		rc, err := collector.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.Retention)
		if err != nil {
			log.Warn("init redis cache failed, using memory cache", zap.Error(err))
		} else {
			cache = rc
			rt.closers = append(rt.closers, rc.Close)
		}
	}

	col := collector.NewCollector(fetcher,
		collector.WithCache(cache),
		collector.WithFreshTTL(cfg.Cache.FreshTTL),
		collector.WithRateLimit(cfg.DataSource.RatePerMinute),
		collector.WithBreakerFailures(cfg.DataSource.BreakerFailures),
		collector.WithLogger(log.Logger),
	)

	rt.recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log.Logger)
		if err != nil {
			log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		} else {
			rt.recorder = sr
			rt.closers = append(rt.closers, sr.Close)
		}
	}

	coord := pipeline.New(cfg.Engine, pipeline.WithLogger(log.Logger))
	rt.scheduler = scheduler.NewScheduler(ctx, cfg.Schedule, col, coord, rt.recorder, rt.metrics, log.Logger)
	return rt, nil
}

func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.log.Warn("close", zap.Error(err))
		}
	}
	_ = rt.log.Sync()
}
