package model

import (
	"fmt"
	"math"
	"time"
)

// PriceBar represents a single daily OHLCV bar.
type PriceBar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open" validate:"gt=0"`
	High   float64   `json:"high" validate:"gt=0"`
	Low    float64   `json:"low" validate:"gt=0"`
	Close  float64   `json:"close" validate:"gt=0"`
	Volume float64   `json:"volume" validate:"gte=0"`
}

// CheckRange reports whether every value is finite and the bar's high and
// low envelope its open and close.
func (b PriceBar) CheckRange() error {
	for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("bar %s: non-finite value %v", b.Time.Format("2006-01-02"), v)
		}
	}
	if b.High < b.Open || b.High < b.Close || b.High < b.Low {
		return fmt.Errorf("bar %s: high %.4f below open/close/low", b.Time.Format("2006-01-02"), b.High)
	}
	if b.Low > b.Open || b.Low > b.Close {
		return fmt.Errorf("bar %s: low %.4f above open/close", b.Time.Format("2006-01-02"), b.Low)
	}
	return nil
}

// Freshness tags where a price series came from.
type Freshness string

const (
	FreshnessLive          Freshness = "live"
	FreshnessCacheFresh    Freshness = "cache_fresh"
	FreshnessCacheStale    Freshness = "cache_stale"
	FreshnessErrorFallback Freshness = "cache_error_fallback"
	FreshnessDemo          Freshness = "demo"
)

// PriceSeries holds an ordered (oldest first) bar sequence for one ticker.
type PriceSeries struct {
	Ticker    string     `json:"ticker"`
	Bars      []PriceBar `json:"bars"`
	Freshness Freshness  `json:"freshness"`
	Source    string     `json:"source"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// Closes returns the close prices of the series in order.
func (s PriceSeries) Closes() []float64 {
	return Closes(s.Bars)
}

// Closes extracts close prices from bars.
func Closes(bars []PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
