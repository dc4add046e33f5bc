// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dailyBody = `{
  "Meta Data": {
    "1. Information": "Daily Prices (open, high, low, close) and Volumes",
    "2. Symbol": "AAPL",
    "3. Last Refreshed": "2024-01-04"
  },
  "Time Series (Daily)": {
    "2024-01-04": {"1. open": "182.15", "2. high": "183.09", "3. low": "180.88", "4. close": "181.91", "5. volume": "71983570"},
    "2024-01-02": {"1. open": "187.15", "2. high": "188.44", "3. low": "183.89", "4. close": "185.64", "5. volume": "82488674"},
    "2024-01-03": {"1. open": "184.22", "2. high": "185.88", "3. low": "183.43", "4. close": "184.25", "5. volume": "58414460"}
  }
}`

func TestNormalize_SortsAscending(t *testing.T) {
	series := map[string]map[string]string{
		"2024-03-01": {"1. open": "3", "2. high": "3", "3. low": "3", "4. close": "3", "5. volume": "300"},
		"2024-02-01": {"1. open": "2", "2. high": "2", "3. low": "2", "4. close": "2", "5. volume": "200"},
		"2024-01-01": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "100"},
	}

	bars := Normalize(series)
	require.Len(t, bars, 3)
	assert.Equal(t, "2024-01-01", bars[0].Day())
	assert.Equal(t, "2024-02-01", bars[1].Day())
	assert.Equal(t, "2024-03-01", bars[2].Day())
	assert.Equal(t, 3.0, bars[2].Close)
	assert.Equal(t, 300.0, bars[2].Volume)
}

func TestNormalize_DropsBadEntries(t *testing.T) {
	good := map[string]string{"1. open": "1", "2. high": "2", "3. low": "0.5", "4. close": "1.5", "5. volume": "10"}
	series := map[string]map[string]string{
		"2024-01-02": good,
		"not-a-date": good,
		"2024-01-03": {"1. open": "1", "2. high": "2", "3. low": "0.5", "5. volume": "10"},
		"2024-01-04": {"1. open": "1", "2. high": "2", "3. low": "0.5", "4. close": "n/a", "5. volume": "10"},
	}

	bars := Normalize(series)
	require.Len(t, bars, 1)
	assert.Equal(t, "2024-01-02", bars[0].Day())
	assert.Equal(t, 1.5, bars[0].Close)
}

func TestParse(t *testing.T) {
	result, err := Parse("AAPL", []byte(dailyBody))
	require.NoError(t, err)
	assert.Equal(t, "AAPL", result.Symbol)
	assert.Equal(t, "2024-01-04", result.LastRefreshed)
	require.Len(t, result.Series, 3)
	assert.Equal(t, 185.64, result.Series[0].Close)
	assert.Equal(t, 181.91, result.Series[2].Close)
}

func TestParse_KeepsGoodRowsAlongsideOddOnes(t *testing.T) {
	body := `{"Time Series (Daily)": {
		"2024-01-02": {"1. open": "1", "2. high": "2", "3. low": "0.5", "4. close": "1.5", "5. volume": "10"},
		"2024-01-03": {"1. open": 2, "2. high": 3, "3. low": 1.5, "4. close": 2.5, "5. volume": 20},
		"2024-01-04": {"1. open": true, "2. high": "2", "3. low": "0.5", "4. close": "1.5", "5. volume": "10"},
		"2024-01-05": {"1. open": "1", "2. high": "2", "3. low": "0.5", "4. close": "NaN", "5. volume": "10"},
		"2024-01-08": {"1. open": "1", "2. high": "Inf", "3. low": "0.5", "4. close": "1.5", "5. volume": "10"},
		"2024-01-09": "garbage"
	}}`

	result, err := Parse("AAPL", []byte(body))
	require.NoError(t, err)
	require.Len(t, result.Series, 2)
	assert.Equal(t, "2024-01-02", result.Series[0].Day())
	assert.Equal(t, "2024-01-03", result.Series[1].Day())
	assert.Equal(t, 2.5, result.Series[1].Close)
	assert.Equal(t, 20.0, result.Series[1].Volume)
}

func TestNormalize_RejectsNonFinite(t *testing.T) {
	series := map[string]map[string]string{
		"2024-01-02": {"1. open": "1", "2. high": "2", "3. low": "0.5", "4. close": "NaN", "5. volume": "10"},
		"2024-01-03": {"1. open": "1", "2. high": "+Inf", "3. low": "0.5", "4. close": "1", "5. volume": "10"},
		"2024-01-04": {"1. open": "1", "2. high": "2", "3. low": "0.5", "4. close": "1", "5. volume": "10"},
	}

	bars := Normalize(series)
	require.Len(t, bars, 1)
	assert.Equal(t, "2024-01-04", bars[0].Day())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"unknown symbol", `{"Error Message": "Invalid API call."}`, ErrSymbolNotFound},
		{"note", `{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute"}`, ErrRateLimited},
		{"information", `{"Information": "rate limit"}`, ErrRateLimited},
		{"no series", `{"Meta Data": {}}`, ErrNoSeries},
		{"only bad rows", `{"Time Series (Daily)": {"bad-date": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "1"}, "2024-01-02": {"1. open": "1"}}}`, ErrNoSeries},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse("ZZZZ", []byte(tc.body))
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := Parse("AAPL", []byte("not json"))
	assert.Error(t, err)
}

func TestClient_Daily(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "TIME_SERIES_DAILY", r.URL.Query().Get("function"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "demo", r.URL.Query().Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(dailyBody))
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, APIKey: "demo"})
	assert.True(t, client.HasAPIKey())

	result, err := client.Daily(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, result.Series, 3)
	assert.Equal(t, "2024-01-02", result.Series[0].Day())
}

func TestClient_DailyHTTPErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"too many requests", http.StatusTooManyRequests, ErrRateLimited},
		{"server error", http.StatusInternalServerError, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			client := NewClient(Options{BaseURL: server.URL})
			_, err := client.Daily(context.Background(), "AAPL")
			require.Error(t, err)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestClient_RateLimiterHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(dailyBody))
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, RequestsPerMinute: 1})
	_, err := client.Daily(context.Background(), "AAPL")
	require.NoError(t, err)

	// The single token is spent; the next call must wait about a minute.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Daily(ctx, "AAPL")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRateLimited))
}
