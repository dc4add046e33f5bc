// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tools turns function-call events from the completion stream into
// side effects.
//
// A call payload names a function and its arguments:
//
//	{"function": "get_stock", "args": {"ticker": "AAPL"}}
//
// The Registry maps function names to tools. Unknown functions are a
// named no-op (ErrUnknownTool); malformed payloads and failed lookups are
// reported as *CallError so the caller can surface them without touching
// the transcript.
package tools
