// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/marketchat/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status represents the current application status.
type Status int

const (
	StatusReady Status = iota
	StatusStreaming
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusStreaming:
		return "Streaming..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns a shape indicator for the status.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusStreaming:
		return "~"
	case StatusError:
		return styles.StatusIndicators.Error
	default:
		return "?"
	}
}

// StatusBar is the line below the prompt.
type StatusBar struct {
	Status        Status
	Width         int
	Endpoint      string
	Deltas        int
	Elapsed       time.Duration
	// Activity is pre-rendered text such as the lookup spinner.
	Activity      string
	ShowShortcuts bool
	theme         *styles.Theme
}

// NewStatusBar creates a new StatusBar component.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Status:        StatusReady,
		Width:         80,
		ShowShortcuts: true,
		theme:         theme,
	}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// View renders the status bar.
func (s *StatusBar) View() string {
	style := s.theme.StatusIdle
	switch s.Status {
	case StatusStreaming:
		style = s.theme.StatusBusy
	case StatusError:
		style = s.theme.ErrorLine
	}
	left := style.Render(s.Status.Icon() + " " + s.Status.String())

	if s.Deltas > 0 {
		left += s.theme.ShortcutDesc.Render(fmt.Sprintf("  %d chunks · %s", s.Deltas, s.Elapsed.Round(100*time.Millisecond)))
	}
	if s.Activity != "" {
		left += "  " + s.Activity
	}
	if s.Endpoint != "" && s.Width >= 60 {
		left += s.theme.ShortcutDesc.Render("  " + s.Endpoint)
	}

	right := ""
	if s.ShowShortcuts && s.Width >= 60 {
		right = s.renderShortcuts()
	}

	gap := s.Width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		right, gap = "", 1
	}
	return s.theme.StatusBar.Width(s.Width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *StatusBar) renderShortcuts() string {
	pairs := [][2]string{{"enter", "send"}, {"pgup/pgdn", "scroll"}, {"esc", "quit"}}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, s.theme.ShortcutKey.Render(p[0])+" "+s.theme.ShortcutDesc.Render(p[1]))
	}
	return strings.Join(parts, "  ")
}

// =============================================================================
// ERROR LINE
// =============================================================================

// ErrorLine renders err on one line, truncated to width. A nil error
// renders as an empty string.
func ErrorLine(err error, width int, theme *styles.Theme) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	return theme.ErrorLine.Render(fitWidth(styles.StatusIndicators.Error+" "+msg, maxInt(width-1, 10)))
}
