package collector

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"SignalSentinel/internal/errors"
	"SignalSentinel/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher reads daily bars from the public Yahoo Finance chart API.
// Index aliases such as SPX500 are translated through SymbolMap.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string
}

func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		Client:  newHTTPClient(proxyURL),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) resolve(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// bars converts the columnar quote arrays into bars. Rows with any null
// open, high, low or close (market holidays, partial prints) are dropped.
func (r chartResult) bars() []model.PriceBar {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	q := r.Indicators.Quote[0]
	out := make([]model.PriceBar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if !present(q.Open, i) || !present(q.High, i) || !present(q.Low, i) || !present(q.Close, i) {
			continue
		}
		out = append(out, model.PriceBar{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   valueAt(q.Open, i),
			High:   valueAt(q.High, i),
			Low:    valueAt(q.Low, i),
			Close:  valueAt(q.Close, i),
			Volume: valueAt(q.Volume, i),
		})
	}
	return out
}

func present(vs []*float64, i int) bool {
	return i < len(vs) && vs[i] != nil
}

func valueAt(vs []*float64, i int) float64 {
	if i >= len(vs) || vs[i] == nil {
		return 0
	}
	return *vs[i]
}

// yahooRange picks the smallest chart range covering the requested days.
func yahooRange(days int) string {
	switch {
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	default:
		return "2y"
	}
}

func (f *YahooFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.PriceBar, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("range", yahooRange(days))
	endpoint := f.BaseURL + "/v8/finance/chart/" + url.PathEscape(f.resolve(symbol)) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFetchFailed, "yahoo request", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFetchFailed, "yahoo fetch", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFetchFailed, "yahoo read body", err)
	}

	var chart chartResponse
	decodeErr := json.Unmarshal(body, &chart)
	apiErr := chart.Chart.Error
	if resp.StatusCode == http.StatusNotFound || (decodeErr == nil && apiErr != nil && apiErr.Code == "Not Found") {
		return nil, errors.Newf(errors.ErrCodeInvalidTicker, "yahoo: unknown symbol %s", symbol)
	}
	switch {
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Newf(errors.ErrCodeFetchFailed, "yahoo: status %d", resp.StatusCode)
	case decodeErr != nil:
		return nil, errors.Wrap(errors.ErrCodeFetchFailed, "yahoo decode", decodeErr)
	case apiErr != nil:
		return nil, errors.Newf(errors.ErrCodeFetchFailed, "yahoo: %s", apiErr.Description)
	case len(chart.Chart.Result) == 0:
		return nil, nil
	}
	return chronological(chart.Chart.Result[0].bars(), days), nil
}
