// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/marketchat/internal/ui/styles"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Mode is the endpoint family prompts are sent to.
type Mode int

const (
	ModeCompletion Mode = iota
	ModeAgent
)

// String returns the badge text for the mode.
func (m Mode) String() string {
	switch m {
	case ModeCompletion:
		return "COMPLETION"
	case ModeAgent:
		return "AGENT"
	default:
		return "UNKNOWN"
	}
}

// Header is the one-line title bar.
type Header struct {
	Title   string
	Mode    Mode
	AgentID string
	Hint    string
	Width   int
	theme   *styles.Theme
}

// NewHeader creates a header with the default title and hint.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "marketchat",
		Mode:  ModeCompletion,
		Hint:  "ask for a ticker to see its chart",
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetAgent switches the badge to agent mode. An empty id means completion.
func (h *Header) SetAgent(id string) {
	h.AgentID = id
	if id == "" {
		h.Mode = ModeCompletion
		return
	}
	h.Mode = ModeAgent
}

// View renders the header. Parts that do not fit are dropped from the
// right: hint first, then the agent id, then the badge.
func (h *Header) View() string {
	inner := h.Width - 2
	title := h.theme.HeaderTitle.Render(h.Title)
	badge := h.modeStyle().Render("[" + h.Mode.String() + "]")
	if h.Mode == ModeAgent && h.AgentID != "" {
		withID := h.modeStyle().Render("[" + h.Mode.String() + " " + h.AgentID + "]")
		if lipgloss.Width(title)+1+lipgloss.Width(withID) <= inner {
			badge = withID
		}
	}

	line := title
	if lipgloss.Width(title)+1+lipgloss.Width(badge) <= inner {
		line += " " + badge
	}
	if h.Hint != "" && styles.LayoutFor(h.Width) != styles.LayoutNarrow {
		hint := h.theme.HeaderHint.Render("  " + h.Hint)
		if lipgloss.Width(line)+lipgloss.Width(hint) <= inner {
			line += hint
		}
	}
	return h.theme.Header.Width(maxInt(h.Width, 1)).MaxHeight(1).Render(line)
}

func (h *Header) modeStyle() lipgloss.Style {
	if h.Mode == ModeAgent {
		return lipgloss.NewStyle().Foreground(styles.Amber).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(styles.Emerald)
}
