package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalSentinel/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"SENTINEL_PROVIDER", "SENTINEL_BASE_URL", "SENTINEL_API_KEY", "HTTPS_PROXY",
		"REDIS_ADDR", "SQLITE_PATH", "METRICS_ADDR", "LOG_LEVEL", "CRON_ANALYSIS", "SENTINEL_DISABLED_HORIZONS"} {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultEngine(), cfg.Engine)
	assert.Equal(t, "yahoo", cfg.DataSource.Provider)
	assert.Equal(t, 30.0, cfg.DataSource.RatePerMinute)
	assert.Equal(t, uint32(3), cfg.DataSource.BreakerFailures)
	assert.Equal(t, 15*time.Minute, cfg.Cache.FreshTTL)
	assert.Equal(t, 72*time.Hour, cfg.Cache.Retention)
	assert.Equal(t, model.HorizonMediumTerm, cfg.Schedule.Horizon)
	assert.Equal(t, model.ToleranceModerate, cfg.Schedule.Tolerance)
	assert.Equal(t, 180, cfg.Schedule.LookbackDays)
	assert.Equal(t, 4, cfg.Schedule.Concurrency)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ParsesYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
engine:
  confidence_cap: 0.90
  min_actionable_confidence: 0.60
  min_history_bars: 50
  stale_penalty: 0.10
  error_fallback_penalty: 0.15
  confidence_floor: 0.10
  penny_stock_price: 5
  max_position_pct: 10
  horizons:
    short_term: false
data_source:
  provider: demo
cache:
  fresh_ttl: 5m
  retention: 24h
schedule:
  analysis_cron: "0 0 22 * * 1-5"
  watchlist: [AAPL, MSFT]
  lookback_days: 120
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.90, cfg.Engine.ConfidenceCap)
	assert.False(t, cfg.Engine.HorizonEnabled(model.HorizonShortTerm))
	assert.True(t, cfg.Engine.HorizonEnabled(model.HorizonLongTerm))
	assert.Equal(t, "demo", cfg.DataSource.Provider)
	assert.Equal(t, 5*time.Minute, cfg.Cache.FreshTTL)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Schedule.Watchlist)
	assert.Equal(t, 120, cfg.Schedule.LookbackDays)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SENTINEL_BASE_URL", "http://bars.local")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("SENTINEL_DISABLED_HORIZONS", "short_term, long_term")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "vstrader", cfg.DataSource.Provider)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.False(t, cfg.Engine.HorizonEnabled(model.HorizonShortTerm))
	assert.False(t, cfg.Engine.HorizonEnabled(model.HorizonLongTerm))
	assert.True(t, cfg.Engine.HorizonEnabled(model.HorizonMediumTerm))
	assert.True(t, DefaultEngine().HorizonEnabled(model.HorizonShortTerm))
}

func TestLoad_DisabledHorizonsSkipsBlankEntries(t *testing.T) {
	clearEnv(t)
	t.Setenv("SENTINEL_DISABLED_HORIZONS", "short_term, ,")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.False(t, cfg.Engine.HorizonEnabled(model.HorizonShortTerm))
	assert.True(t, cfg.Engine.HorizonEnabled(model.HorizonMediumTerm))
	assert.NotContains(t, cfg.Engine.Horizons, model.TimeHorizon(""))
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "engine: [not a map"))
	assert.Error(t, err)
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"vstrader without base url", func(c *Config) { c.DataSource.Provider = "vstrader" }},
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "bloomberg" }},
		{"min actionable above cap", func(c *Config) { c.Engine.MinActionableConfidence = 0.99 }},
		{"floor above cap", func(c *Config) {
			c.Engine.ConfidenceCap = 0.50
			c.Engine.MinActionableConfidence = 0.40
			c.Engine.ConfidenceFloor = 0.60
		}},
		{"unknown horizon", func(c *Config) { c.Engine = c.Engine.WithHorizon("intraday", true) }},
		{"lookback too short", func(c *Config) { c.Schedule.LookbackDays = 7 }},
		{"retention shorter than fresh ttl", func(c *Config) { c.Cache.Retention = time.Minute }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestWithHorizon_DoesNotMutateReceiver(t *testing.T) {
	base := DefaultEngine()
	off := base.WithHorizon(model.HorizonLongTerm, false)

	assert.True(t, base.HorizonEnabled(model.HorizonLongTerm))
	assert.False(t, off.HorizonEnabled(model.HorizonLongTerm))
	assert.True(t, Engine{}.HorizonEnabled(model.HorizonShortTerm))
}
