package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"SignalSentinel/internal/errors"
	"SignalSentinel/internal/model"
)

// CachedSeries is a previously fetched bar series.
type CachedSeries struct {
	Bars      []model.PriceBar `json:"bars"`
	Source    string           `json:"source"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// SeriesCache stores the last successful fetch per ticker and lookback.
// A miss is (zero, false, nil).
type SeriesCache interface {
	Get(ctx context.Context, ticker string, days int) (CachedSeries, bool, error)
	Put(ctx context.Context, ticker string, days int, entry CachedSeries) error
}

func cacheKey(ticker string, days int) string {
	return fmt.Sprintf("sentinel:series:%s:%d", strings.ToUpper(ticker), days)
}

// RedisCache implements SeriesCache on Redis. Entries expire after the
// retention period, which bounds how old a fallback series can be.
type RedisCache struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, addr string, retention time.Duration) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, errors.Wrap(errors.ErrCodeCacheFailed, "redis connection failed", err)
	}
	return NewRedisCacheWithClient(rdb, retention), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client *redis.Client, retention time.Duration) *RedisCache {
	return &RedisCache{client: client, retention: retention}
}

func (r *RedisCache) Get(ctx context.Context, ticker string, days int) (CachedSeries, bool, error) {
	val, err := r.client.Get(ctx, cacheKey(ticker, days)).Result()
	if err == redis.Nil {
		return CachedSeries{}, false, nil
	}
	if err != nil {
		return CachedSeries{}, false, errors.Wrap(errors.ErrCodeCacheFailed, "redis get", err)
	}
	var entry CachedSeries
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return CachedSeries{}, false, errors.Wrap(errors.ErrCodeCacheFailed, "decode cached series", err)
	}
	return entry, true, nil
}

func (r *RedisCache) Put(ctx context.Context, ticker string, days int, entry CachedSeries) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCacheFailed, "encode series", err)
	}
	if err := r.client.Set(ctx, cacheKey(ticker, days), string(data), r.retention).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeCacheFailed, "redis set", err)
	}
	return nil
}

// Close closes the Redis client.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// MemoryCache is an in-process SeriesCache used when no Redis is configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]CachedSeries
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]CachedSeries)}
}

func (m *MemoryCache) Get(_ context.Context, ticker string, days int) (CachedSeries, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[cacheKey(ticker, days)]
	return entry, ok, nil
}

func (m *MemoryCache) Put(_ context.Context, ticker string, days int, entry CachedSeries) error {
	entry.Bars = append([]model.PriceBar(nil), entry.Bars...)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[cacheKey(ticker, days)] = entry
	return nil
}
