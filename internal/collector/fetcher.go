package collector

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"time"

	"SignalSentinel/internal/model"
)

// Fetcher defines the interface for fetching daily market data.
// Bars are returned oldest first. An unknown symbol is reported with
// errors.ErrCodeInvalidTicker.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.PriceBar, error)
	Name() string
}

const fetchTimeout = 30 * time.Second

// newHTTPClient returns a client for the HTTP fetchers, routed through
// proxyURL when it parses.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{Timeout: fetchTimeout, Transport: transport}
}

// chronological sorts bars oldest first and keeps at most the newest limit.
func chronological(bars []model.PriceBar, limit int) []model.PriceBar {
	slices.SortFunc(bars, func(a, b model.PriceBar) int { return a.Time.Compare(b.Time) })
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars
}
