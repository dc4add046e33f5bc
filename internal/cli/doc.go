// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the marketchat command line.
//
// # Commands
//
//	marketchat                 Start the TUI (default)
//	marketchat ask "question"  One-shot question, answer on stdout
//	marketchat chat            Line-mode chat
//	marketchat quote AAPL      Print the daily chart for a ticker
//	marketchat config          Show the effective configuration
//	marketchat config get KEY  Print one value (config keys lists them)
//	marketchat config init     Write a default config file
//
// Output goes through cmd.OutOrStdout so commands can be tested against
// a buffer. Markdown is only rendered when that writer is a terminal.
// The TUI also watches the config file and applies [ui] changes live.
package cli
