// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/marketchat/internal/model"
	"github.com/jeranaias/marketchat/internal/ui/styles"
)

// =============================================================================
// STOCK CHART COMPONENT
// =============================================================================

const (
	defaultChartWidth  = 60
	defaultChartHeight = 8
	minPlotWidth       = 10
)

// StockChart renders a tool result as an area chart of daily closes,
// oldest on the left.
type StockChart struct {
	Result *model.ToolResult
	Width  int
	Height int
	theme  *styles.Theme
}

// NewStockChart creates a chart for result.
func NewStockChart(result *model.ToolResult, theme *styles.Theme) *StockChart {
	if theme == nil {
		theme = styles.NewTheme()
	}
	return &StockChart{
		Result: result,
		Width:  defaultChartWidth,
		Height: defaultChartHeight,
		theme:  theme,
	}
}

// SetSize sets the outer width and the number of plot rows.
func (c *StockChart) SetSize(width, height int) {
	if width > 0 {
		c.Width = width
	}
	if height > 0 {
		c.Height = height
	}
}

// View renders the header, plot, date axis and volume footer.
func (c *StockChart) View() string {
	lines := []string{c.renderHeader()}

	if c.Result == nil || len(c.Result.Series) == 0 {
		lines = append(lines, c.theme.ChartLabel.Render("no price data"))
		return c.theme.ToolBox.Render(strings.Join(lines, "\n"))
	}

	lines = append(lines, c.renderPlot()...)
	lines = append(lines, c.renderFooter())
	return c.theme.ToolBox.Render(strings.Join(lines, "\n"))
}

// renderHeader renders "SYMBOL  last  +delta (+pct%)".
func (c *StockChart) renderHeader() string {
	symbol := "?"
	if c.Result != nil && c.Result.Symbol != "" {
		symbol = c.Result.Symbol
	}
	parts := []string{c.theme.ChartSymbol.Render(symbol)}

	latest, ok := c.Result.Latest()
	if !ok {
		return parts[0]
	}
	parts = append(parts, c.theme.ChartPrice.Render(FormatPrice(latest.Close)))

	if delta, pct, ok := c.Result.Change(); ok {
		indicator := styles.StatusIndicators.Up
		if delta < 0 {
			indicator = styles.StatusIndicators.Down
		}
		parts = append(parts, c.theme.ChangeStyle(delta).Render(indicator+" "+FormatChange(delta, pct)))
	}
	return strings.Join(parts, "  ")
}

// plotStyle colors the area by the latest close-to-close change.
func (c *StockChart) plotStyle() lipgloss.Style {
	delta, _, _ := c.Result.Change()
	return c.theme.ChangeStyle(delta)
}

func (c *StockChart) renderPlot() []string {
	lo, hi := c.Result.CloseRange()
	hiLabel, loLabel := FormatPrice(hi), FormatPrice(lo)
	labelWidth := maxInt(runewidth.StringWidth(hiLabel), runewidth.StringWidth(loLabel))

	// Border and padding of ToolBox take four cells; the axis takes two.
	plotWidth := c.Width - 4 - labelWidth - 2
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	rows := c.Height
	if rows < 2 {
		rows = 2
	}

	levels := make([]int, plotWidth)
	for x, v := range Resample(c.Result.Series, plotWidth) {
		levels[x] = styles.Level(v, lo, hi, rows)
	}

	area := c.plotStyle()
	out := make([]string, 0, rows+2)
	for row := rows - 1; row >= 0; row-- {
		label, tick := "", "│"
		switch row {
		case rows - 1:
			label, tick = hiLabel, "┤"
		case 0:
			label, tick = loLabel, "┤"
		}

		var cells strings.Builder
		for _, level := range levels {
			cells.WriteString(styles.AreaCell(level, row))
		}
		out = append(out,
			c.theme.ChartLabel.Render(padLeft(label, labelWidth))+" "+
				c.theme.ChartAxis.Render(tick)+
				area.Render(cells.String()))
	}

	out = append(out, strings.Repeat(" ", labelWidth+1)+c.theme.ChartAxis.Render("└"+strings.Repeat("─", plotWidth)))
	out = append(out, strings.Repeat(" ", labelWidth+2)+c.theme.ChartLabel.Render(c.dateAxis(plotWidth)))
	return out
}

// dateAxis puts the first date at the left edge and the last at the right.
func (c *StockChart) dateAxis(width int) string {
	series := c.Result.Series
	first, last := series[0].Day(), series[len(series)-1].Day()
	if len(series) == 1 {
		return fitWidth(first, width)
	}
	gap := width - runewidth.StringWidth(first) - runewidth.StringWidth(last)
	if gap < 1 {
		return fitWidth(first+" "+last, width)
	}
	return first + strings.Repeat(" ", gap) + last
}

func (c *StockChart) renderFooter() string {
	latest, _ := c.Result.Latest()
	footer := "Vol " + FormatVolume(latest.Volume) +
		"  O " + FormatPrice(latest.Open) +
		"  H " + FormatPrice(latest.High) +
		"  L " + FormatPrice(latest.Low)
	return c.theme.ChartLabel.Render(footer)
}

// Resample maps the closes of series onto width columns, oldest first.
// Short series are stretched; long series are sampled evenly, always
// keeping the first and last close.
func Resample(series []model.Bar, width int) []float64 {
	n := len(series)
	if n == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	for x := 0; x < width; x++ {
		var idx int
		switch {
		case n >= width && width > 1:
			idx = x * (n - 1) / (width - 1)
		case n >= width:
			idx = n - 1
		default:
			idx = x * n / width
		}
		out[x] = series[idx].Close
	}
	return out
}
