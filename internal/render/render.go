// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/marketchat/internal/model"
	"github.com/jeranaias/marketchat/internal/ui/components"
	uistyles "github.com/jeranaias/marketchat/internal/ui/styles"
)

// Glamour style names accepted by Options.Style.
const (
	StyleAuto  = "auto"
	StyleDark  = "dark"
	StyleLight = "light"
	StyleNoTTY = "notty"
)

const (
	DefaultWidth       = 80
	DefaultChartHeight = 8
	minWidth           = 20
)

// ErrUnknownStyle is returned for a style name glamour does not ship.
var ErrUnknownStyle = errors.New("unknown markdown style")

var knownStyles = map[string]bool{
	StyleAuto:     true,
	StyleDark:     true,
	StyleLight:    true,
	StyleNoTTY:    true,
	"ascii":       true,
	"dracula":     true,
	"pink":        true,
	"tokyo-night": true,
}

// Options configures a Renderer.
type Options struct {
	// Style is a glamour style name; "" means auto.
	Style          string
	Width          int
	ChartHeight    int
	ShowTimestamps bool
	// Theme defaults to styles.NewTheme, or the plain theme for notty.
	Theme *uistyles.Theme
}

// Renderer turns messages into terminal text. It is not safe for
// concurrent use; each front end owns one.
type Renderer struct {
	opts  Options
	theme *uistyles.Theme
	md    *glamour.TermRenderer
	plain bool
}

// New creates a Renderer.
func New(opts Options) (*Renderer, error) {
	if opts.Style == "" {
		opts.Style = StyleAuto
	}
	if !knownStyles[opts.Style] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStyle, opts.Style)
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.ChartHeight <= 0 {
		opts.ChartHeight = DefaultChartHeight
	}

	plain := opts.Style == StyleNoTTY || opts.Style == "ascii"
	theme := opts.Theme
	if theme == nil {
		if plain {
			theme = uistyles.NewPlainTheme()
		} else {
			theme = uistyles.NewTheme()
		}
	}

	r := &Renderer{opts: opts, theme: theme, plain: plain}
	if err := r.build(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) build() error {
	styleOpt := glamour.WithStandardStyle(r.opts.Style)
	if r.opts.Style == StyleAuto {
		styleOpt = glamour.WithAutoStyle()
	}
	md, err := glamour.NewTermRenderer(
		styleOpt,
		glamour.WithWordWrap(maxInt(r.opts.Width-4, minWidth)),
	)
	if err != nil {
		return fmt.Errorf("create markdown renderer: %w", err)
	}
	r.md = md
	return nil
}

// Width returns the current wrap width.
func (r *Renderer) Width() int {
	return r.opts.Width
}

// Theme returns the theme used for labels and charts.
func (r *Renderer) Theme() *uistyles.Theme {
	return r.theme
}

// SetWidth changes the wrap width. Glamour fixes word wrap at creation,
// so the markdown renderer is rebuilt when the width changes.
func (r *Renderer) SetWidth(width int) error {
	if width < minWidth {
		width = minWidth
	}
	if width == r.opts.Width {
		return nil
	}
	r.opts.Width = width
	return r.build()
}

// SetStyle switches the markdown style. Code blocks follow: notty and
// ascii draw them without color.
func (r *Renderer) SetStyle(style string) error {
	if style == "" {
		style = StyleAuto
	}
	if !knownStyles[style] {
		return fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}
	if style == r.opts.Style {
		return nil
	}
	prev := r.opts.Style
	r.opts.Style = style
	if err := r.build(); err != nil {
		r.opts.Style = prev
		return err
	}
	r.plain = style == StyleNoTTY || style == "ascii"
	return nil
}

// Style returns the markdown style name.
func (r *Renderer) Style() string {
	return r.opts.Style
}

// SetShowTimestamps toggles timestamps in message headers.
func (r *Renderer) SetShowTimestamps(show bool) {
	r.opts.ShowTimestamps = show
}

// Transcript renders every message separated by a blank line.
// cursorOn selects the blink phase of the awaiting-token cursor.
func (r *Renderer) Transcript(msgs []model.Message, cursorOn bool) string {
	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		parts = append(parts, r.Message(msg, cursorOn))
	}
	return strings.Join(parts, "\n\n")
}

// Message renders one message with its header line.
func (r *Renderer) Message(msg model.Message, cursorOn bool) string {
	header := components.NewMessageHeader(msg, r.theme)
	header.ShowTimestamp = r.opts.ShowTimestamps
	return header.View() + "\n" + r.Body(msg, cursorOn)
}

// Body renders a message without its header.
func (r *Renderer) Body(msg model.Message, cursorOn bool) string {
	switch msg.Kind {
	case model.KindToolResult:
		return r.Chart(msg.Result)
	case model.KindUser:
		return components.RenderUserBody(r.Markdown(msg.Text), r.opts.Width, r.theme)
	default:
		if msg.Text == "" {
			return components.RenderCursor(cursorOn, r.theme)
		}
		return r.Markdown(msg.Text)
	}
}

// Chart renders a stock tool result.
func (r *Renderer) Chart(result *model.ToolResult) string {
	chart := components.NewStockChart(result, r.theme)
	chart.SetSize(r.opts.Width, r.opts.ChartHeight)
	return chart.View()
}

// Markdown renders text, drawing tagged code fences with CodeBlock.
// A fence still open mid-stream renders as a code block so far.
func (r *Renderer) Markdown(text string) string {
	var out []string
	for _, seg := range components.SplitFences(text) {
		if seg.Code != nil {
			cb := *seg.Code
			cb.Plain = r.plain
			cb.SetMaxWidth(r.opts.Width)
			out = append(out, cb.Render())
			continue
		}
		if strings.TrimSpace(seg.Markdown) == "" {
			continue
		}
		out = append(out, r.prose(seg.Markdown))
	}
	return strings.Join(out, "\n")
}

func (r *Renderer) prose(text string) string {
	rendered, err := r.md.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(rendered, "\n")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
