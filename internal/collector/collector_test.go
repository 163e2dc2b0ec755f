package collector

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/time/rate"

	"SignalSentinel/internal/errors"
	"SignalSentinel/internal/model"
	"SignalSentinel/mocks"
)

type CollectorTestSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	fetcher *mocks.MockFetcher
	cache   *MemoryCache
	now     time.Time
	ctx     context.Context
}

func TestCollectorSuite(t *testing.T) {
	suite.Run(t, new(CollectorTestSuite))
}

func (suite *CollectorTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.fetcher = mocks.NewMockFetcher(suite.ctrl)
	suite.fetcher.EXPECT().Name().Return("stub").AnyTimes()
	suite.cache = NewMemoryCache()
	suite.now = time.Date(2025, 6, 30, 16, 0, 0, 0, time.UTC)
	suite.ctx = context.Background()
}

func (suite *CollectorTestSuite) newCollector(limiter *rate.Limiter) *Collector {
	return NewCollector(suite.fetcher,
		WithCache(suite.cache),
		WithLimiter(limiter),
		WithFreshTTL(15*time.Minute),
		WithBreakerFailures(3),
		WithClock(func() time.Time { return suite.now }),
	)
}

func sampleBars(n int) []model.PriceBar {
	return generateDemoBars(100, n, DemoEpoch)
}

func (suite *CollectorTestSuite) TestLiveThenCacheFresh() {
	c := suite.newCollector(rate.NewLimiter(rate.Inf, 1))
	suite.fetcher.EXPECT().FetchDailyBars(gomock.Any(), "AAPL", 90).Return(sampleBars(60), nil).Times(1)

	series, err := c.Collect(suite.ctx, "aapl", 90)
	suite.Require().NoError(err)
	suite.Equal(model.FreshnessLive, series.Freshness)
	suite.Equal("AAPL", series.Ticker)
	suite.Equal("stub", series.Source)
	suite.Len(series.Bars, 60)

	suite.now = suite.now.Add(10 * time.Minute)
	series, err = c.Collect(suite.ctx, "AAPL", 90)
	suite.Require().NoError(err)
	suite.Equal(model.FreshnessCacheFresh, series.Freshness)
	suite.Len(series.Bars, 60)
}

func (suite *CollectorTestSuite) TestRateLimitedServesStale() {
	suite.Require().NoError(suite.cache.Put(suite.ctx, "AAPL", 90, CachedSeries{
		Bars:      sampleBars(60),
		Source:    "stub",
		FetchedAt: suite.now.Add(-time.Hour),
	}))
	c := suite.newCollector(rate.NewLimiter(0, 0))

	series, err := c.Collect(suite.ctx, "AAPL", 90)
	suite.Require().NoError(err)
	suite.Equal(model.FreshnessCacheStale, series.Freshness)
}

func (suite *CollectorTestSuite) TestRateLimitedWithoutCacheFails() {
	c := suite.newCollector(rate.NewLimiter(0, 0))

	_, err := c.Collect(suite.ctx, "AAPL", 90)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeFetchFailed))
}

func (suite *CollectorTestSuite) TestFetchErrorFallsBackToCache() {
	suite.Require().NoError(suite.cache.Put(suite.ctx, "AAPL", 90, CachedSeries{
		Bars:      sampleBars(60),
		Source:    "stub",
		FetchedAt: suite.now.Add(-time.Hour),
	}))
	c := suite.newCollector(rate.NewLimiter(rate.Inf, 1))
	suite.fetcher.EXPECT().FetchDailyBars(gomock.Any(), "AAPL", 90).Return(nil, fmt.Errorf("connection reset"))

	series, err := c.Collect(suite.ctx, "AAPL", 90)
	suite.Require().NoError(err)
	suite.Equal(model.FreshnessErrorFallback, series.Freshness)
	suite.Len(series.Bars, 60)
}

func (suite *CollectorTestSuite) TestFetchErrorWithoutCache() {
	c := suite.newCollector(rate.NewLimiter(rate.Inf, 1))
	suite.fetcher.EXPECT().FetchDailyBars(gomock.Any(), "AAPL", 90).Return(nil, fmt.Errorf("connection reset"))

	_, err := c.Collect(suite.ctx, "AAPL", 90)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeFetchFailed))
}

func (suite *CollectorTestSuite) TestInvalidTickerIsNotMaskedByCache() {
	suite.Require().NoError(suite.cache.Put(suite.ctx, "ZZZZ", 90, CachedSeries{
		Bars:      sampleBars(60),
		FetchedAt: suite.now.Add(-time.Hour),
	}))
	c := suite.newCollector(rate.NewLimiter(rate.Inf, 1))
	suite.fetcher.EXPECT().FetchDailyBars(gomock.Any(), "ZZZZ", 90).
		Return(nil, errors.New(errors.ErrCodeInvalidTicker, "unknown symbol")).Times(4)

	for i := 0; i < 4; i++ {
		_, err := c.Collect(suite.ctx, "ZZZZ", 90)
		suite.True(errors.HasCode(err, errors.ErrCodeInvalidTicker))
	}
}

func (suite *CollectorTestSuite) TestBlankTicker() {
	c := suite.newCollector(rate.NewLimiter(rate.Inf, 1))
	_, err := c.Collect(suite.ctx, "  ", 90)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTicker))
}

func (suite *CollectorTestSuite) TestBreakerOpensAfterConsecutiveFailures() {
	c := suite.newCollector(rate.NewLimiter(rate.Inf, 1))
	suite.fetcher.EXPECT().FetchDailyBars(gomock.Any(), "AAPL", 90).
		Return(nil, fmt.Errorf("upstream 503")).Times(3)

	for i := 0; i < 3; i++ {
		_, err := c.Collect(suite.ctx, "AAPL", 90)
		suite.Error(err)
	}

	// circuit is open: no further call reaches the fetcher
	_, err := c.Collect(suite.ctx, "AAPL", 90)
	suite.True(errors.HasCode(err, errors.ErrCodeFetchFailed))
}

func (suite *CollectorTestSuite) TestDemoFetcher() {
	c := NewCollector(NewDemoFetcher(), WithClock(func() time.Time { return suite.now }))

	series, err := c.Collect(suite.ctx, "AAPL", 120)
	suite.Require().NoError(err)
	suite.Equal(model.FreshnessDemo, series.Freshness)
	suite.Equal(DemoName, series.Source)
	suite.Len(series.Bars, 120)
	suite.Equal(DemoEpoch, series.Bars[119].Time)

	again, err := c.Collect(suite.ctx, "AAPL", 120)
	suite.Require().NoError(err)
	suite.Equal(series.Bars, again.Bars)

	for _, b := range series.Bars {
		suite.NoError(b.CheckRange())
	}

	_, err = c.Collect(suite.ctx, "NOPE", 120)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTicker))
}
