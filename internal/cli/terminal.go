// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection for the marketchat CLI.
//
// Output is rendered with colors and markdown only on a terminal. Piped
// output gets raw text and plain charts, and NO_COLOR turns color off
// even on a terminal.

package cli

import (
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/jeranaias/marketchat/internal/ui/styles"
)

const (
	// DefaultTerminalWidth is used when the width cannot be read.
	DefaultTerminalWidth = 80

	// MinTerminalWidth keeps charts and tables legible.
	MinTerminalWidth = 40
)

// isTerminal reports whether w is a terminal file. Buffers and pipes are not.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// interactive reports whether both stdin and stdout are terminals, which
// the full-screen UI needs.
func interactive() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stdout)
}

// terminalWidth returns the width of the terminal behind w, clamped to
// MinTerminalWidth. Non-terminals get DefaultTerminalWidth.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return DefaultTerminalWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}

// colorsEnabled follows NO_COLOR (https://no-color.org/), then FORCE_COLOR,
// then whether w is a terminal.
func colorsEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	return isTerminal(w)
}

// colorProfile returns the lipgloss color profile for output to w.
func colorProfile(w io.Writer) termenv.Profile {
	if !colorsEnabled(w) {
		return termenv.Ascii
	}
	// Unsafe lets FORCE_COLOR apply to pipes.
	return termenv.NewOutput(w, termenv.WithUnsafe()).ColorProfile()
}

// warningText formats a non-fatal error for w.
func warningText(w io.Writer, err error) string {
	msg := "warning: " + err.Error()
	if colorsEnabled(w) {
		return styles.RenderWarning(msg)
	}
	return msg
}

// errorText styles a formatted error for w.
func errorText(w io.Writer, msg string) string {
	if colorsEnabled(w) {
		return styles.RenderError(msg)
	}
	return msg
}

// successText styles a confirmation for w.
func successText(w io.Writer, msg string) string {
	if colorsEnabled(w) {
		return styles.RenderSuccess(msg)
	}
	return msg
}
