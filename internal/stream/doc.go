// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream opens a server-sent event stream for a prompt and
// delivers its events in arrival order.
//
// # Wire Format
//
// Events follow the text/event-stream framing: "event:", "data:" and
// "id:" fields, terminated by a blank line. Payload bytes are kept
// verbatim apart from one optional leading space after the colon.
//
// Two payloads are special:
//
//   - "[END]" (the Sentinel) marks the end of the stream
//   - events typed "function_call" carry a JSON tool call instead of text
//
// # Usage
//
//	client := stream.NewClient(stream.Options{BaseURL: "http://localhost:3000"})
//	err := client.Stream(ctx, "How is AAPL doing?", func(ev stream.Event) error {
//	    fmt.Print(ev.Data)
//	    return nil
//	})
package stream
