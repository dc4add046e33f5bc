// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for transcripts and messages.
//
// # Key Types
//
//   - Transcript: Append-only ordered list of messages
//   - Message: One entry, either user text, assistant text, or a tool result
//   - ToolResult: A stock symbol with its daily price series
//   - Bar: One trading day (date, open, high, low, close, volume)
//
// # Usage
//
//	t := model.NewTranscript()
//	t.Append(model.NewUserMessage("How is AAPL doing?"))
//	id := t.Append(model.NewAssistantMessage(""))
//	_ = t.AppendText(id, "Looking it up")
package model
