// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/marketchat/internal/model"
	"github.com/jeranaias/marketchat/internal/ui/styles"
)

// =============================================================================
// MESSAGE HEADER
// =============================================================================

// MessageHeader is the label line above each transcript entry.
type MessageHeader struct {
	Kind          model.Kind
	Timestamp     time.Time
	ShowTimestamp bool
	// Detail is appended after the label, e.g. the ticker of a tool result.
	Detail string
	theme  *styles.Theme
}

// NewMessageHeader creates the header for msg.
func NewMessageHeader(msg model.Message, theme *styles.Theme) MessageHeader {
	h := MessageHeader{
		Kind:      msg.Kind,
		Timestamp: msg.CreatedAt,
		theme:     theme,
	}
	if msg.Kind == model.KindToolResult && msg.Result != nil {
		h.Detail = msg.Result.Symbol
	}
	return h
}

// View renders the header line.
func (h MessageHeader) View() string {
	var label lipgloss.Style
	switch h.Kind {
	case model.KindUser:
		label = h.theme.UserLabel
	case model.KindToolResult:
		label = h.theme.ToolLabel
	default:
		label = h.theme.AssistantLabel
	}

	out := label.Render(h.Kind.DisplayName())
	if h.Detail != "" {
		out += h.theme.Timestamp.Render(" · " + h.Detail)
	}
	if h.ShowTimestamp && !h.Timestamp.IsZero() {
		out += " " + h.theme.Timestamp.Render(formatTimestamp(h.Timestamp, time.Now()))
	}
	return out
}

// formatTimestamp shows the time for today and the date otherwise.
func formatTimestamp(ts, now time.Time) string {
	if ts.Year() == now.Year() && ts.YearDay() == now.YearDay() {
		return ts.Format("15:04")
	}
	return ts.Format("Jan 2, 15:04")
}

// =============================================================================
// MESSAGE BODIES
// =============================================================================

// RenderUserBody renders a prompt with a left rule, wrapped to width.
func RenderUserBody(text string, width int, theme *styles.Theme) string {
	w := width - 2
	if w < 10 {
		w = 10
	}
	return theme.UserBody.Width(w).Render(text)
}

// RenderCursor renders the streaming cursor for the given blink phase.
func RenderCursor(visible bool, theme *styles.Theme) string {
	return theme.Cursor.Render(styles.Cursor(visible))
}
