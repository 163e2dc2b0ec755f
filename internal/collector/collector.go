package collector

import (
	"context"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"SignalSentinel/internal/errors"
	"SignalSentinel/internal/model"
)

const (
	defaultFreshTTL        = 15 * time.Minute
	defaultRatePerMinute   = 30
	defaultBreakerFailures = 3
	breakerOpenTimeout     = time.Minute
)

// Collector fetches price series and tags them with their freshness.
// It fronts the fetcher with a cache, a rate limiter and a circuit breaker.
type Collector struct {
	fetcher  Fetcher
	cache    SeriesCache
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	freshTTL time.Duration
	failures uint32
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures a Collector.
type Option func(*Collector)

// WithCache sets the series cache. The default is an in-memory cache.
func WithCache(cache SeriesCache) Option {
	return func(c *Collector) { c.cache = cache }
}

// WithFreshTTL sets how long a cached series is served without a live call.
func WithFreshTTL(ttl time.Duration) Option {
	return func(c *Collector) { c.freshTTL = ttl }
}

// WithRateLimit limits live fetches to perMinute calls.
func WithRateLimit(perMinute float64) Option {
	return func(c *Collector) { c.limiter = newLimiter(perMinute) }
}

// WithLimiter sets the rate limiter directly.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Collector) { c.limiter = l }
}

// WithBreakerFailures sets the consecutive failures that open the circuit.
func WithBreakerFailures(n uint32) Option {
	return func(c *Collector) { c.failures = n }
}

// WithClock sets the clock used to age cache entries.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Collector) { c.logger = l }
}

func newLimiter(perMinute float64) *rate.Limiter {
	burst := int(perMinute / 6)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perMinute/60), burst)
}

// NewCollector creates a new Collector around fetcher.
func NewCollector(fetcher Fetcher, opts ...Option) *Collector {
	c := &Collector{
		fetcher:  fetcher,
		cache:    NewMemoryCache(),
		limiter:  newLimiter(defaultRatePerMinute),
		freshTTL: defaultFreshTTL,
		failures: defaultBreakerFailures,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	failures := c.failures
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    fetcher.Name(),
		Timeout: breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// An unknown symbol is a caller error, not a provider outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.HasCode(err, errors.ErrCodeInvalidTicker)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("fetcher circuit state changed",
				zap.String("fetcher", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return c
}

// FetcherName returns the name of the underlying fetcher.
func (c *Collector) FetcherName() string {
	return c.fetcher.Name()
}

// Collect returns the daily series for ticker, choosing between cache and a
// live call:
//
//	demo fetcher                              -> demo
//	cached and younger than the fresh TTL     -> cache_fresh
//	rate limited with a cached entry          -> cache_stale
//	live fetch succeeded                      -> live
//	live fetch failed with a cached entry     -> cache_error_fallback
func (c *Collector) Collect(ctx context.Context, ticker string, lookbackDays int) (model.PriceSeries, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return model.PriceSeries{}, errors.New(errors.ErrCodeInvalidTicker, "ticker is required")
	}

	if c.fetcher.Name() == DemoName {
		bars, err := c.fetcher.FetchDailyBars(ctx, ticker, lookbackDays)
		if err != nil {
			return model.PriceSeries{}, err
		}
		return c.series(ticker, bars, model.FreshnessDemo, DemoName, c.now()), nil
	}

	cached, hit, err := c.cache.Get(ctx, ticker, lookbackDays)
	if err != nil {
		c.logger.Warn("series cache read failed", zap.String("ticker", ticker), zap.Error(err))
		hit = false
	}
	if hit && c.now().Sub(cached.FetchedAt) < c.freshTTL {
		return c.series(ticker, cached.Bars, model.FreshnessCacheFresh, cached.Source, cached.FetchedAt), nil
	}

	if !c.limiter.Allow() {
		if hit {
			c.logger.Info("rate limited, serving stale series", zap.String("ticker", ticker))
			return c.series(ticker, cached.Bars, model.FreshnessCacheStale, cached.Source, cached.FetchedAt), nil
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return model.PriceSeries{}, errors.Wrap(errors.ErrCodeFetchFailed, "rate limit wait", err)
		}
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetcher.FetchDailyBars(ctx, ticker, lookbackDays)
	})
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeInvalidTicker) {
			return model.PriceSeries{}, err
		}
		if hit {
			c.logger.Warn("live fetch failed, serving cached series",
				zap.String("ticker", ticker),
				zap.String("fetcher", c.fetcher.Name()),
				zap.Error(err))
			return c.series(ticker, cached.Bars, model.FreshnessErrorFallback, cached.Source, cached.FetchedAt), nil
		}
		if errors.GetCode(err) == errors.ErrCodeUnknown {
			err = errors.Wrap(errors.ErrCodeFetchFailed, c.fetcher.Name(), err)
		}
		return model.PriceSeries{}, err
	}

	bars, _ := result.([]model.PriceBar)
	fetchedAt := c.now()
	if len(bars) > 0 {
		entry := CachedSeries{Bars: bars, Source: c.fetcher.Name(), FetchedAt: fetchedAt}
		if err := c.cache.Put(ctx, ticker, lookbackDays, entry); err != nil {
			c.logger.Warn("series cache write failed", zap.String("ticker", ticker), zap.Error(err))
		}
	}
	return c.series(ticker, bars, model.FreshnessLive, c.fetcher.Name(), fetchedAt), nil
}

func (c *Collector) series(ticker string, bars []model.PriceBar, freshness model.Freshness, source string, fetchedAt time.Time) model.PriceSeries {
	return model.PriceSeries{
		Ticker:    ticker,
		Bars:      bars,
		Freshness: freshness,
		Source:    source,
		FetchedAt: fetchedAt,
	}
}
