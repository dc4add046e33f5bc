// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package market fetches daily price series from an Alpha Vantage style
// market-data service and normalizes them into model.ToolResult values.
//
// Requests are rate limited on the client side because the free tier of
// the upstream service allows only a handful of calls per minute.
package market
