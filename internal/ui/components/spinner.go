// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"

	"github.com/jeranaias/marketchat/internal/ui/styles"
)

// =============================================================================
// LOOKUP SPINNER
// =============================================================================

// Spinner shows that market lookups are in flight. It has no tick of its
// own; the owner calls Advance from the timer it already runs.
type Spinner struct {
	frames    spinner.Spinner
	frame     int
	tickers   []string
	startTime time.Time
	theme     *styles.Theme
}

// NewSpinner creates an idle spinner using the mini-dot frames.
func NewSpinner(theme *styles.Theme) *Spinner {
	return &Spinner{frames: spinner.MiniDot, theme: theme}
}

// Start records a lookup for ticker. The timer starts with the first one.
func (s *Spinner) Start(ticker string) {
	if len(s.tickers) == 0 {
		s.startTime = time.Now()
		s.frame = 0
	}
	s.tickers = append(s.tickers, ticker)
}

// Done removes one lookup for ticker.
func (s *Spinner) Done(ticker string) {
	for i, t := range s.tickers {
		if t == ticker {
			s.tickers = append(s.tickers[:i], s.tickers[i+1:]...)
			return
		}
	}
}

// Reset drops every pending lookup.
func (s *Spinner) Reset() {
	s.tickers = nil
}

// IsActive reports whether any lookup is pending.
func (s *Spinner) IsActive() bool {
	return len(s.tickers) > 0
}

// Advance moves to the next frame.
func (s *Spinner) Advance() {
	if !s.IsActive() {
		return
	}
	s.frame = (s.frame + 1) % len(s.frames.Frames)
}

// Elapsed returns the time since the first pending lookup started.
func (s *Spinner) Elapsed() time.Duration {
	if !s.IsActive() {
		return 0
	}
	return time.Since(s.startTime)
}

// View renders "⠋ Fetching AAPL, MSFT 3s", or "" when idle.
func (s *Spinner) View() string {
	if !s.IsActive() {
		return ""
	}
	label := "Fetching " + strings.Join(s.tickers, ", ")
	out := s.theme.StatusBusy.Render(s.frames.Frames[s.frame]) + " " + s.theme.ShortcutDesc.Render(label)
	if elapsed := s.Elapsed(); elapsed >= time.Second {
		out += s.theme.ShortcutDesc.Render(" " + formatElapsed(elapsed))
	}
	return out
}

func formatElapsed(d time.Duration) string {
	return d.Truncate(time.Second).String()
}
