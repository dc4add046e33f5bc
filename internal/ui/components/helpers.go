// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"math"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// =============================================================================
// NUMBER FORMATTING
// =============================================================================

var numberPrinter = message.NewPrinter(language.English)

// FormatVolume formats a share volume with thousands separators.
func FormatVolume(v float64) string {
	return numberPrinter.Sprintf("%d", int64(math.Round(v)))
}

// FormatPrice formats a price with two decimals and thousands separators.
func FormatPrice(v float64) string {
	return numberPrinter.Sprintf("%.2f", v)
}

// FormatChange formats a close-to-close delta with its percentage,
// e.g. "+1.25 (+0.68%)".
func FormatChange(delta, percent float64) string {
	return numberPrinter.Sprintf("%+.2f (%+.2f%%)", delta, percent)
}

// =============================================================================
// LAYOUT HELPERS
// =============================================================================

// fitWidth truncates s to width cells, or pads it on the right.
func fitWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

// padLeft right-aligns s in width cells.
func padLeft(s string, width int) string {
	return runewidth.FillLeft(s, width)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
