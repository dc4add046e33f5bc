// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package market

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/marketchat/internal/model"
)

var (
	// ErrSymbolNotFound is returned when the service rejects the symbol.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrRateLimited is returned when the service reports its call quota.
	ErrRateLimited = errors.New("market data rate limit reached")

	// ErrNoSeries is returned when a response carries no daily series.
	ErrNoSeries = errors.New("response has no daily time series")
)

// Field names used by the daily series endpoint.
const (
	seriesKey        = "Time Series (Daily)"
	lastRefreshedKey = "3. Last Refreshed"
	symbolKey        = "2. Symbol"

	fieldOpen   = "1. open"
	fieldHigh   = "2. high"
	fieldLow    = "3. low"
	fieldClose  = "4. close"
	fieldVolume = "5. volume"
)

type dailyResponse struct {
	MetaData     map[string]string            `json:"Meta Data"`
	Series       map[string]json.RawMessage `json:"Time Series (Daily)"`
	ErrorMessage string                     `json:"Error Message"`
	Note         string                     `json:"Note"`
	Information  string                     `json:"Information"`
}

// Parse decodes a daily series response body for symbol.
func Parse(symbol string, body []byte) (*model.ToolResult, error) {
	var resp dailyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode market response: %w", err)
	}

	switch {
	case resp.ErrorMessage != "":
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	case resp.Note != "":
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, resp.Note)
	case resp.Information != "":
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, resp.Information)
	case resp.Series == nil:
		return nil, fmt.Errorf("%w for %s", ErrNoSeries, symbol)
	}

	bars := Normalize(decodeRows(resp.Series))
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoSeries, symbol)
	}

	result := &model.ToolResult{
		Symbol: symbol,
		Series: bars,
	}
	if s := strings.TrimSpace(resp.MetaData[symbolKey]); s != "" {
		result.Symbol = strings.ToUpper(s)
	}
	result.LastRefreshed = resp.MetaData[lastRefreshedKey]
	return result, nil
}

// decodeRows flattens each raw row into string fields. Numbers keep their
// literal text; rows that are not objects and fields of any other JSON type
// are left out so parseBar drops them.
func decodeRows(raw map[string]json.RawMessage) map[string]map[string]string {
	series := make(map[string]map[string]string, len(raw))
	for date, row := range raw {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(row, &fields); err != nil {
			continue
		}
		values := make(map[string]string, len(fields))
		for key, field := range fields {
			if v, ok := fieldText(field); ok {
				values[key] = v
			}
		}
		series[date] = values
	}
	return series
}

func fieldText(field json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(field, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(field, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

// Normalize converts the date-keyed series into bars ordered oldest to
// newest. Entries with an unparseable date or a missing, non-numeric or
// non-finite field are dropped.
func Normalize(series map[string]map[string]string) []model.Bar {
	bars := make([]model.Bar, 0, len(series))
	for date, fields := range series {
		bar, ok := parseBar(date, fields)
		if !ok {
			continue
		}
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})
	return bars
}

func parseBar(date string, fields map[string]string) (model.Bar, bool) {
	day, err := time.Parse(model.DateLayout, strings.TrimSpace(date))
	if err != nil {
		return model.Bar{}, false
	}

	var vals [5]float64
	for i, key := range [...]string{fieldOpen, fieldHigh, fieldLow, fieldClose, fieldVolume} {
		raw, ok := fields[key]
		if !ok {
			return model.Bar{}, false
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return model.Bar{}, false
		}
		vals[i] = v
	}

	return model.Bar{
		Date:   day,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, true
}
