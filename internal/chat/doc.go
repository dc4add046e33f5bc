// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat folds a completion stream into a transcript.
//
// The Reducer is a per-prompt state machine with no I/O: it appends the
// user prompt and an empty assistant placeholder, extends the placeholder
// with each text event, reports function calls for the caller to run, and
// stops at the sentinel. Tool results are appended as their own messages
// after the placeholder, which keeps receiving text.
//
// Every transcript mutation must happen on one goroutine. In the TUI that
// is the Bubble Tea update loop; headless callers use Session, which runs
// the stream and tool lookups concurrently and applies their outcomes from
// a single consumer loop in arrival order.
package chat
