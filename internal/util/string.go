// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import "strings"

// Preview collapses runs of whitespace, including newlines, to single
// spaces and truncates the result to maxRunes runes with a trailing "...".
// Multi-byte characters are never split. maxRunes below 4 disables
// truncation.
func Preview(s string, maxRunes int) string {
	s = strings.Join(strings.Fields(s), " ")
	return TruncateRunes(s, maxRunes)
}

// TruncateRunes shortens s to maxRunes runes, the last three being "...".
func TruncateRunes(s string, maxRunes int) string {
	runes := []rune(s)
	if maxRunes < 4 || len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes-3]) + "..."
}
