// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jeranaias/marketchat/internal/model"
)

// StockToolName is the function name of the stock lookup.
const StockToolName = "get_stock"

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.\-]{1,10}$`)

// StockFetcher looks up a daily price series. market.Client implements it.
type StockFetcher interface {
	Daily(ctx context.Context, symbol string) (*model.ToolResult, error)
}

type stockArgs struct {
	Ticker string `json:"ticker"`
}

// NormalizeTicker upper-cases and validates a ticker symbol.
func NormalizeTicker(raw string) (string, error) {
	ticker := strings.ToUpper(strings.TrimSpace(raw))
	if ticker == "" {
		return "", errors.New("ticker is empty")
	}
	if !tickerPattern.MatchString(ticker) {
		return "", fmt.Errorf("invalid ticker %q", raw)
	}
	return ticker, nil
}

// NewStockTool creates the get_stock tool backed by fetcher.
func NewStockTool(fetcher StockFetcher) *Tool {
	return &Tool{
		Name:        StockToolName,
		Description: "Fetch the daily price series for a stock ticker",
		Parameters: []Parameter{
			{Name: "ticker", Type: "string", Required: true, Description: "Ticker symbol, e.g. AAPL"},
		},
		Executor: ExecutorFunc(func(ctx context.Context, call Call) (*model.ToolResult, error) {
			var args stockArgs
			if err := call.Decode(&args); err != nil {
				return nil, err
			}
			ticker, err := NormalizeTicker(args.Ticker)
			if err != nil {
				return nil, malformed(call.Function, err)
			}

			result, err := fetcher.Daily(ctx, ticker)
			if err != nil {
				return nil, &CallError{Kind: KindFetch, Function: call.Function, Err: err}
			}
			if result == nil {
				return nil, &CallError{Kind: KindFetch, Function: call.Function, Err: errors.New("empty response")}
			}
			if result.Symbol == "" {
				result.Symbol = ticker
			}
			return result, nil
		}),
	}
}
