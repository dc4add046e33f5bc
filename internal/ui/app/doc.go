// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the interactive terminal front end.
//
// The bubbletea Update loop is the only code that touches the transcript.
// Stream events reach it one at a time through a command that waits on the
// stream channel and is re-armed after every event; tool lookups run as
// commands and report back as ToolResultMsg or ToolErrorMsg.
//
// # Layout
//
//	header       1 line
//	viewport     transcript, scrollable
//	error line   1 line, blank when there is no error
//	input        prompt with a top rule
//	status bar   1 line
package app
