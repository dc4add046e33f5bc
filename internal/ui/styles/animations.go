// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"math"
	"time"
)

// =============================================================================
// CURSOR
// =============================================================================

// CursorGlyph is shown in an assistant message that has no text yet.
const CursorGlyph = "▍"

// BlinkInterval is the time between cursor visibility toggles.
const BlinkInterval = 500 * time.Millisecond

// Cursor returns the cursor glyph, or a space of the same width when the
// blink phase hides it.
func Cursor(visible bool) string {
	if visible {
		return CursorGlyph
	}
	return " "
}

// =============================================================================
// AREA FILL
// =============================================================================

// AreaBlocks are the partial fills used for the top cell of a chart column,
// from one eighth to full.
var AreaBlocks = []string{"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// AreaCell returns the glyph for one cell of an area chart column.
// level is the column height in eighths of a cell; row counts up from the
// bottom row at 0.
func AreaCell(level, row int) string {
	fill := level - row*8
	switch {
	case fill >= 8:
		return AreaBlocks[7]
	case fill <= 0:
		return " "
	default:
		return AreaBlocks[fill-1]
	}
}

// Level scales v within [lo, hi] to a column height in eighths for a chart
// of rows cells. A flat range sits at half height.
func Level(v, lo, hi float64, rows int) int {
	top := rows * 8
	if hi <= lo {
		return top / 2
	}
	frac := (v - lo) / (hi - lo)
	// Keep every column visible; the minimum still gets one eighth.
	level := int(math.Round(frac*float64(top-1))) + 1
	if level < 1 {
		level = 1
	}
	if level > top {
		level = top
	}
	return level
}
