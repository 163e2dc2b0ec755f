package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"SignalSentinel/internal/model"
)

// Engine holds the thresholds and feature flags consumed by the analysis core.
// It is passed by value into every component call.
type Engine struct {
	ConfidenceCap           float64                    `yaml:"confidence_cap" validate:"gt=0,lt=1"`
	MinActionableConfidence float64                    `yaml:"min_actionable_confidence" validate:"gte=0,lt=1"`
	MinHistoryBars          int                        `yaml:"min_history_bars" validate:"gte=1"`
	StalePenalty            float64                    `yaml:"stale_penalty" validate:"gte=0,lt=1"`
	ErrorFallbackPenalty    float64                    `yaml:"error_fallback_penalty" validate:"gte=0,lt=1"`
	ConfidenceFloor         float64                    `yaml:"confidence_floor" validate:"gte=0,lt=1"`
	PennyStockPrice         float64                    `yaml:"penny_stock_price" validate:"gte=0"`
	MaxPositionPct          float64                    `yaml:"max_position_pct" validate:"gte=0,lte=100"`
	Horizons                map[model.TimeHorizon]bool `yaml:"horizons"`
}

// DefaultEngine returns the engine configuration used when nothing is set.
func DefaultEngine() Engine {
	return Engine{
		ConfidenceCap:           0.95,
		MinActionableConfidence: 0.60,
		MinHistoryBars:          50,
		StalePenalty:            0.10,
		ErrorFallbackPenalty:    0.15,
		ConfidenceFloor:         0.10,
		PennyStockPrice:         5.0,
		MaxPositionPct:          10,
		Horizons: map[model.TimeHorizon]bool{
			model.HorizonShortTerm:  true,
			model.HorizonMediumTerm: true,
			model.HorizonLongTerm:   true,
		},
	}
}

// HorizonEnabled reports whether analyses for h may be surfaced.
// Horizons missing from the map are enabled.
func (e Engine) HorizonEnabled(h model.TimeHorizon) bool {
	enabled, ok := e.Horizons[h]
	return !ok || enabled
}

// WithHorizon returns a copy of e with horizon h switched on or off.
func (e Engine) WithHorizon(h model.TimeHorizon, enabled bool) Engine {
	horizons := make(map[model.TimeHorizon]bool, len(e.Horizons)+1)
	for k, v := range e.Horizons {
		horizons[k] = v
	}
	horizons[h] = enabled
	e.Horizons = horizons
	return e
}

// Schedule configures the periodic watchlist analysis.
type Schedule struct {
	AnalysisCron string              `yaml:"analysis_cron"`
	Watchlist    []string            `yaml:"watchlist"`
	Horizon      model.TimeHorizon   `yaml:"horizon" validate:"oneof=short_term medium_term long_term"`
	Tolerance    model.RiskTolerance `yaml:"tolerance" validate:"oneof=conservative moderate aggressive"`
	LookbackDays int                 `yaml:"lookback_days" validate:"gte=30,lte=365"`
	Concurrency  int                 `yaml:"concurrency" validate:"gte=1"`
}

// Config holds all application configuration.
type Config struct {
	Engine     Engine `yaml:"engine"`
	DataSource struct {
		Provider        string  `yaml:"provider" validate:"oneof=yahoo vstrader demo"`
		BaseURL         string  `yaml:"base_url"`
		APIKey          string  `yaml:"api_key"`
		Proxy           string  `yaml:"proxy"`
		RatePerMinute   float64 `yaml:"rate_per_minute" validate:"gt=0"`
		BreakerFailures uint32  `yaml:"breaker_failures" validate:"gte=1"`
	} `yaml:"data_source"`
	Cache struct {
		RedisAddr string        `yaml:"redis_addr"`
		FreshTTL  time.Duration `yaml:"fresh_ttl" validate:"gt=0"`
		Retention time.Duration `yaml:"retention" validate:"gtefield=FreshTTL"`
	} `yaml:"cache"`
	Schedule Schedule `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Log struct {
		Level string `yaml:"level" validate:"oneof=debug info warn error"`
	} `yaml:"log"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{Engine: DefaultEngine()}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SENTINEL_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("SENTINEL_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("SENTINEL_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.DataSource.Proxy = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CRON_ANALYSIS"); v != "" {
		cfg.Schedule.AnalysisCron = v
	}
	if v := os.Getenv("SENTINEL_DISABLED_HORIZONS"); v != "" {
		for _, h := range strings.Split(v, ",") {
			if h = strings.TrimSpace(h); h != "" {
				cfg.Engine = cfg.Engine.WithHorizon(model.TimeHorizon(h), false)
			}
		}
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		if cfg.DataSource.BaseURL != "" {
			cfg.DataSource.Provider = "vstrader"
		} else {
			cfg.DataSource.Provider = "yahoo"
		}
	}
	if cfg.DataSource.RatePerMinute == 0 {
		cfg.DataSource.RatePerMinute = 30
	}
	if cfg.DataSource.BreakerFailures == 0 {
		cfg.DataSource.BreakerFailures = 3
	}
	if cfg.Cache.FreshTTL == 0 {
		cfg.Cache.FreshTTL = 15 * time.Minute
	}
	if cfg.Cache.Retention == 0 {
		cfg.Cache.Retention = 72 * time.Hour
	}
	if cfg.Schedule.AnalysisCron == "" {
		cfg.Schedule.AnalysisCron = "0 30 22 * * 1-5"
	}
	if cfg.Schedule.Horizon == "" {
		cfg.Schedule.Horizon = model.HorizonMediumTerm
	}
	if cfg.Schedule.Tolerance == "" {
		cfg.Schedule.Tolerance = model.ToleranceModerate
	}
	if cfg.Schedule.LookbackDays == 0 {
		cfg.Schedule.LookbackDays = 180
	}
	if cfg.Schedule.Concurrency == 0 {
		cfg.Schedule.Concurrency = 4
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/signal_sentinel.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks field ranges and cross-field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if c.DataSource.Provider == "vstrader" && c.DataSource.BaseURL == "" {
		return fmt.Errorf("data_source.base_url is required for provider vstrader")
	}
	return nil
}

// Validate checks the engine thresholds.
func (e Engine) Validate() error {
	if err := validator.New().Struct(e); err != nil {
		return fmt.Errorf("invalid engine config: %w", err)
	}
	if e.MinActionableConfidence > e.ConfidenceCap {
		return fmt.Errorf("engine.min_actionable_confidence %.2f exceeds confidence_cap %.2f",
			e.MinActionableConfidence, e.ConfidenceCap)
	}
	if e.ConfidenceFloor > e.ConfidenceCap {
		return fmt.Errorf("engine.confidence_floor %.2f exceeds confidence_cap %.2f",
			e.ConfidenceFloor, e.ConfidenceCap)
	}
	for h := range e.Horizons {
		switch h {
		case model.HorizonShortTerm, model.HorizonMediumTerm, model.HorizonLongTerm:
		default:
			return fmt.Errorf("engine.horizons: unknown horizon %q", h)
		}
	}
	return nil
}
