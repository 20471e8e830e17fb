package yahoo_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"housetrades/src/clients/yahoo"
	"housetrades/src/config"
	"housetrades/src/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2023-01-03 and 2023-01-04 14:30 UTC, the NYSE open.
const chartBody = `{"chart": {"result": [{
  "meta": {"symbol": "BRK-B", "currency": "USD", "exchangeTimezoneName": "America/New_York", "gmtoffset": -18000},
  "timestamp": [1672756200, 1672842600],
  "indicators": {"quote": [{
    "open": [300.1, 301.0], "high": [305.0, 306.0], "low": [299.0, null],
    "close": [302.5, null], "volume": [1000, 2000]
  }]}
}], "error": null}}`

const summaryBody = `{"quoteSummary": {"result": [{
  "assetProfile": {"sector": "Financial Services", "industry": "Insurance", "country": "United States",
                   "website": "https://example.com", "longBusinessSummary": "Holding company."},
  "price": {"longName": "Berkshire Hathaway Inc.", "exchangeName": "NYSE", "currency": "USD",
            "marketCap": {"raw": 780000000000, "fmt": "780B"}}
}], "error": null}}`

func newClient(t *testing.T, handler http.HandlerFunc) *yahoo.YahooClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{}
	cfg.ExternalClients.Yahoo.BaseURL = server.URL
	cfg.ExternalClients.Yahoo.UserAgent = "housetrades-test"
	client := yahoo.NewClient(cfg)
	client.Backoff = time.Millisecond
	return client
}

func TestSymbol(t *testing.T) {
	assert.Equal(t, "BRK-B", yahoo.Symbol("brk.b"))
	assert.Equal(t, "AAPL", yahoo.Symbol(" AAPL "))
}

func TestGetDailyPrices(t *testing.T) {
	t.Run("maps bars to exchange dates", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v8/finance/chart/BRK-B", r.URL.Path)
			assert.Equal(t, "1d", r.URL.Query().Get("interval"))
			assert.Equal(t, "housetrades-test", r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte(chartBody))
		})

		start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
		prices, err := client.GetDailyPrices(context.Background(), "BRK.B", start, start.AddDate(0, 0, 7))
		require.NoError(t, err)
		require.Len(t, prices, 2)

		assert.Equal(t, "BRK.B", prices[0].Ticker)
		assert.Equal(t, time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC), prices[0].Date)
		assert.Equal(t, 302.5, *prices[0].Close)
		assert.Nil(t, prices[1].Close)
		assert.Nil(t, prices[1].Low)
		assert.Equal(t, int64(2000), *prices[1].Volume)
	})

	t.Run("empty result is an error", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"chart": {"result": [], "error": null}}`))
		})
		_, err := client.GetDailyPrices(context.Background(), "ZZZZ", time.Now().AddDate(0, -1, 0), time.Now())
		assert.ErrorIs(t, err, yahoo.ErrNoData)
	})

	t.Run("api error body", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}}}`))
		})
		_, err := client.GetDailyPrices(context.Background(), "ZZZZ", time.Now().AddDate(0, -1, 0), time.Now())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "delisted")
	})

	t.Run("retries rate limiting", func(t *testing.T) {
		var calls int32
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte(chartBody))
		})
		prices, err := client.GetDailyPrices(context.Background(), "BRK.B", time.Now().AddDate(0, -1, 0), time.Now())
		require.NoError(t, err)
		assert.Len(t, prices, 2)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls int32
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusNotFound)
		})
		_, err := client.GetDailyPrices(context.Background(), "ZZZZ", time.Now().AddDate(0, -1, 0), time.Now())
		var httpErr *utils.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusNotFound, httpErr.Code)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})
}

func TestGetDetails(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v10/finance/quoteSummary/BRK-B", r.URL.Path)
		assert.Equal(t, "assetProfile,price", r.URL.Query().Get("modules"))
		_, _ = w.Write([]byte(summaryBody))
	})

	security, err := client.GetDetails(context.Background(), "BRK.B")
	require.NoError(t, err)
	assert.Equal(t, "BRK.B", security.Ticker)
	assert.Equal(t, "Berkshire Hathaway Inc.", *security.CompanyName)
	assert.Equal(t, "Financial Services", *security.Sector)
	assert.Equal(t, "Insurance", *security.Industry)
	assert.Equal(t, int64(780000000000), *security.MarketCap)
	assert.Equal(t, "NYSE", *security.Exchange)
	require.NotNil(t, security.LastUpdatedDate)
}
