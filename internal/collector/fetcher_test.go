package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalSentinel/internal/errors"
)

const yahooBody = `{"chart":{"result":[{"timestamp":[1735776000,1735862400,1735948800,1736035200],
"indicators":{"quote":[{"open":[100,null,102,null],"high":[101,null,103,105],"low":[99,null,101,103],
"close":[100.5,null,102.5,104],"volume":[1000,null,1200,900]}]}}],"error":null}}`

func TestYahooFetcher_FetchDailyBars(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		fmt.Fprint(w, yahooBody)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	bars, err := f.FetchDailyBars(context.Background(), "SPX500", 60)
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/^GSPC", gotPath)
	assert.Equal(t, "interval=1d&range=3mo", gotQuery)

	// the null bar and the bar missing its open are both skipped
	require.Len(t, bars, 2)
	assert.Equal(t, 100.5, bars[0].Close)
	assert.Equal(t, 102.5, bars[1].Close)
	assert.True(t, bars[0].Time.Before(bars[1].Time))
	for _, b := range bars {
		assert.NoError(t, b.CheckRange())
	}

	bars, err = f.FetchDailyBars(context.Background(), "SPX500", 1)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 102.5, bars[0].Close)
}

func TestYahooFetcher_UnknownSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	_, err := f.FetchDailyBars(context.Background(), "ZZZZ", 60)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidTicker))
}

func TestYahooFetcher_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	_, err := f.FetchDailyBars(context.Background(), "AAPL", 60)
	assert.True(t, errors.HasCode(err, errors.ErrCodeFetchFailed))
}

func TestVsTraderFetcher_FetchDailyBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch r.URL.Query().Get("symbol") {
		case "AAPL":
			assert.Equal(t, "90", r.URL.Query().Get("limit"))
			fmt.Fprint(w, `[{"timestamp":1735862400,"open":2,"high":3,"low":1,"close":2.5,"volume":10},
{"timestamp":1735776000,"open":1,"high":2,"low":0.5,"close":1.5,"volume":10}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f := NewVsTraderFetcher(srv.URL, "secret", "")

	bars, err := f.FetchDailyBars(context.Background(), "AAPL", 90)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 1.5, bars[0].Close)
	assert.Equal(t, 2.5, bars[1].Close)

	_, err = f.FetchDailyBars(context.Background(), "ZZZZ", 90)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidTicker))
}
