// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/marketchat/internal/chat"
	"github.com/jeranaias/marketchat/internal/model"
	"github.com/jeranaias/marketchat/internal/stream"
	"github.com/jeranaias/marketchat/internal/tools"
	"github.com/jeranaias/marketchat/internal/ui/styles"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamEventMsg delivers one decoded stream event.
type StreamEventMsg struct {
	Event stream.Event
}

// StreamClosedMsg signals that the event channel closed. Err is nil for a
// clean end of stream.
type StreamClosedMsg struct {
	Err error
}

// =============================================================================
// TOOL MESSAGES
// =============================================================================

// ToolResultMsg delivers a finished tool lookup.
type ToolResultMsg struct {
	Call   tools.Call
	Result *model.ToolResult
}

// ToolErrorMsg reports a failed tool lookup.
type ToolErrorMsg struct {
	Call tools.Call
	Err  error
}

// =============================================================================
// SETTINGS
// =============================================================================

// SettingsMsg applies display settings changed while the UI runs, such as
// after the config file is edited.
type SettingsMsg struct {
	Theme          string
	ShowTimestamps bool
}

// =============================================================================
// ANIMATION
// =============================================================================

// BlinkMsg toggles the awaiting-token cursor.
type BlinkMsg struct {
	Time time.Time
}

// =============================================================================
// COMMANDS
// =============================================================================

// waitForEvent blocks on the next event. After the channel closes it
// reads the terminal error, which the client always sends or closes.
func waitForEvent(events <-chan stream.Event, errs <-chan error) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if ok {
			return StreamEventMsg{Event: ev}
		}
		return StreamClosedMsg{Err: <-errs}
	}
}

// runTool executes call off the Update loop.
func runTool(ctx context.Context, runner chat.ToolRunner, call tools.Call) tea.Cmd {
	return func() tea.Msg {
		result, err := runner.Execute(ctx, call)
		if err != nil {
			return ToolErrorMsg{Call: call, Err: err}
		}
		return ToolResultMsg{Call: call, Result: result}
	}
}

func blink() tea.Cmd {
	return tea.Tick(styles.BlinkInterval, func(t time.Time) tea.Msg {
		return BlinkMsg{Time: t}
	})
}
