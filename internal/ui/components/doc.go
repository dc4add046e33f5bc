// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for marketchat.
//
// # Components
//
//   - StockChart: area chart of daily closes with change header and volume
//   - CodeBlock: chroma-highlighted fenced code with line numbers
//   - MessageHeader: role label and timestamp above each message
//   - StatusBar: streaming state, response stats, and key hints
//   - Header: title bar with the completion or agent badge
//   - Spinner: pending market lookups, advanced by the owner's timer
//
// SplitFences separates language-tagged code fences from surrounding
// markdown so each part can be rendered by the right engine.
package components
