// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// DateLayout is the layout of series dates on the wire and on screen.
const DateLayout = "2006-01-02"

// Bar is one trading day of price data.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Day returns the bar date formatted with DateLayout.
func (b Bar) Day() string {
	return b.Date.Format(DateLayout)
}

// ToolResult is the structured payload of a stock lookup.
// Series is ordered oldest to newest.
type ToolResult struct {
	Symbol        string `json:"symbol"`
	Series        []Bar  `json:"series"`
	LastRefreshed string `json:"last_refreshed,omitempty"`
}

// Latest returns the most recent bar.
func (r *ToolResult) Latest() (Bar, bool) {
	if r == nil || len(r.Series) == 0 {
		return Bar{}, false
	}
	return r.Series[len(r.Series)-1], true
}

// Change returns the difference between the two most recent closes and the
// percentage change relative to the earlier one. ok is false when fewer
// than two bars exist.
func (r *ToolResult) Change() (delta, percent float64, ok bool) {
	if r == nil || len(r.Series) < 2 {
		return 0, 0, false
	}
	last := r.Series[len(r.Series)-1].Close
	prev := r.Series[len(r.Series)-2].Close
	delta = last - prev
	if prev != 0 {
		percent = delta / prev * 100
	}
	return delta, percent, true
}

// CloseRange returns the lowest and highest close in the series.
func (r *ToolResult) CloseRange() (lo, hi float64) {
	if r == nil || len(r.Series) == 0 {
		return 0, 0
	}
	lo, hi = r.Series[0].Close, r.Series[0].Close
	for _, b := range r.Series[1:] {
		if b.Close < lo {
			lo = b.Close
		}
		if b.Close > hi {
			hi = b.Close
		}
	}
	return lo, hi
}
