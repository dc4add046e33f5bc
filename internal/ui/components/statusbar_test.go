// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"errors"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/marketchat/internal/model"
	"github.com/jeranaias/marketchat/internal/ui/styles"
)

func TestStatusBar_View(t *testing.T) {
	bar := NewStatusBar(styles.NewPlainTheme())
	bar.SetWidth(100)

	out := bar.View()
	assert.Contains(t, out, "Ready")
	assert.Contains(t, out, "esc")
	assert.Equal(t, 100, lipgloss.Width(out))

	bar.Status = StatusStreaming
	bar.Deltas = 12
	bar.Elapsed = 1500 * time.Millisecond
	out = bar.View()
	assert.Contains(t, out, "Streaming")
	assert.Contains(t, out, "12 chunks")
}

func TestStatusBar_NarrowHidesShortcuts(t *testing.T) {
	bar := NewStatusBar(styles.NewPlainTheme())
	bar.SetWidth(40)
	assert.NotContains(t, bar.View(), "pgup")
}

func TestErrorLine(t *testing.T) {
	theme := styles.NewPlainTheme()
	assert.Equal(t, "", ErrorLine(nil, 80, theme))

	out := ErrorLine(errors.New("get_stock: lookup failed:\nrate limited"), 80, theme)
	assert.Contains(t, out, "lookup failed: rate limited")
	assert.Contains(t, out, styles.StatusIndicators.Error)
}

func TestMessageHeader(t *testing.T) {
	theme := styles.NewPlainTheme()

	h := NewMessageHeader(model.NewUserMessage("hi"), theme)
	assert.Contains(t, h.View(), "you")

	tool := NewMessageHeader(model.NewToolResultMessage(&model.ToolResult{Symbol: "AAPL"}), theme)
	assert.Contains(t, tool.View(), "tool")
	assert.Contains(t, tool.View(), "AAPL")

	h.ShowTimestamp = true
	h.Timestamp = time.Now()
	assert.Contains(t, h.View(), h.Timestamp.Format("15:04"))
}

func TestFormatTimestamp(t *testing.T) {
	now := time.Date(2024, 5, 10, 14, 0, 0, 0, time.UTC)
	assert.Equal(t, "09:30", formatTimestamp(time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC), now))
	assert.Equal(t, "May 9, 09:30", formatTimestamp(time.Date(2024, 5, 9, 9, 30, 0, 0, time.UTC), now))
}
