package collector

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"SignalSentinel/internal/errors"
	"SignalSentinel/internal/model"
)

// VsTraderFetcher reads daily bars from a vstrader REST deployment.
type VsTraderFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewVsTraderFetcher(baseURL, apiKey, proxyURL string) *VsTraderFetcher {
	return &VsTraderFetcher{BaseURL: baseURL, APIKey: apiKey, Client: newHTTPClient(proxyURL)}
}

func (f *VsTraderFetcher) Name() string { return "vstrader" }

type vsDailyBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

func (b vsDailyBar) priceBar() model.PriceBar {
	return model.PriceBar{
		Time:   time.Unix(b.Timestamp, 0).UTC(),
		Open:   b.Open,
		High:   b.High,
		Low:    b.Low,
		Close:  b.Close,
		Volume: b.Volume,
	}
}

func (f *VsTraderFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.PriceBar, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("limit", strconv.Itoa(days))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+"/api/v1/bars/daily?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFetchFailed, "vstrader request", err)
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFetchFailed, "vstrader fetch bars", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.Newf(errors.ErrCodeInvalidTicker, "vstrader: unknown symbol %s", symbol)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Newf(errors.ErrCodeFetchFailed, "vstrader: status %d: %s", resp.StatusCode, body)
	}

	var raw []vsDailyBar
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFetchFailed, "vstrader decode bars", err)
	}
	bars := make([]model.PriceBar, 0, len(raw))
	for _, b := range raw {
		bars = append(bars, b.priceBar())
	}
	return chronological(bars, 0), nil
}
