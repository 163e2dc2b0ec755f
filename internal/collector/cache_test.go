package collector

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalSentinel/internal/errors"
)

func TestRedisCache_Get(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisCacheWithClient(db, 72*time.Hour)
	ctx := context.Background()

	t.Run("miss", func(t *testing.T) {
		mock.ExpectGet("sentinel:series:AAPL:90").RedisNil()

		_, hit, err := cache.Get(ctx, "aapl", 90)
		require.NoError(t, err)
		assert.False(t, hit)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("hit", func(t *testing.T) {
		entry := CachedSeries{
			Bars:      sampleBars(5),
			Source:    "yahoo",
			FetchedAt: time.Date(2025, 6, 30, 16, 0, 0, 0, time.UTC),
		}
		data, err := json.Marshal(entry)
		require.NoError(t, err)
		mock.ExpectGet("sentinel:series:AAPL:90").SetVal(string(data))

		got, hit, err := cache.Get(ctx, "AAPL", 90)
		require.NoError(t, err)
		assert.True(t, hit)
		assert.Equal(t, "yahoo", got.Source)
		assert.True(t, entry.FetchedAt.Equal(got.FetchedAt))
		require.Len(t, got.Bars, 5)
		assert.Equal(t, entry.Bars[4].Close, got.Bars[4].Close)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupt entry", func(t *testing.T) {
		mock.ExpectGet("sentinel:series:AAPL:90").SetVal("{not json")

		_, hit, err := cache.Get(ctx, "AAPL", 90)
		assert.False(t, hit)
		assert.True(t, errors.HasCode(err, errors.ErrCodeCacheFailed))
	})

	t.Run("redis error", func(t *testing.T) {
		mock.ExpectGet("sentinel:series:AAPL:90").SetErr(redis.TxFailedErr)

		_, _, err := cache.Get(ctx, "AAPL", 90)
		assert.True(t, errors.HasCode(err, errors.ErrCodeCacheFailed))
	})
}

func TestRedisCache_Put(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisCacheWithClient(db, 72*time.Hour)
	ctx := context.Background()

	entry := CachedSeries{Bars: sampleBars(3), Source: "vstrader", FetchedAt: DemoEpoch}
	data, err := json.Marshal(entry)
	require.NoError(t, err)

	mock.ExpectSet("sentinel:series:MSFT:30", string(data), 72*time.Hour).SetVal("OK")
	require.NoError(t, cache.Put(ctx, "MSFT", 30, entry))

	mock.ExpectSet("sentinel:series:MSFT:30", string(data), 72*time.Hour).SetErr(redis.TxFailedErr)
	err = cache.Put(ctx, "MSFT", 30, entry)
	assert.True(t, errors.HasCode(err, errors.ErrCodeCacheFailed))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	_, hit, err := cache.Get(ctx, "AAPL", 90)
	require.NoError(t, err)
	assert.False(t, hit)

	bars := sampleBars(3)
	require.NoError(t, cache.Put(ctx, "AAPL", 90, CachedSeries{Bars: bars, FetchedAt: DemoEpoch}))
	bars[0].Close = -1

	got, hit, err := cache.Get(ctx, "aapl", 90)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.NotEqual(t, -1.0, got.Bars[0].Close)

	_, hit, _ = cache.Get(ctx, "AAPL", 180)
	assert.False(t, hit)
}
