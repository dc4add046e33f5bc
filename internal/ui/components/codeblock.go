// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/marketchat/internal/ui/styles"
)

// =============================================================================
// CODE BLOCK RENDERER
// =============================================================================

// CodeBlock is a fenced code block with a language tag.
type CodeBlock struct {
	Language string
	Code     string
	MaxWidth int
	// Plain disables ANSI highlighting (non-terminal output).
	Plain bool
}

// NewCodeBlock creates a new code block.
func NewCodeBlock(language, code string) CodeBlock {
	return CodeBlock{
		Language: language,
		Code:     code,
		MaxWidth: 80,
	}
}

// SetMaxWidth sets the maximum width for the code block.
func (c *CodeBlock) SetMaxWidth(width int) {
	c.MaxWidth = width
}

// Render renders the code block with a language badge and line numbers.
func (c CodeBlock) Render() string {
	code := strings.TrimRight(c.Code, "\n")

	highlighted := code
	if !c.Plain {
		highlighted = highlightCode(code, c.Language)
	}
	lines := strings.Split(highlighted, "\n")

	lineNumStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Width(4).
		Align(lipgloss.Right).
		MarginRight(1)

	rendered := make([]string, 0, len(lines))
	for i, line := range lines {
		// chroma already colored the line
		rendered = append(rendered, lineNumStyle.Render(strconv.Itoa(i+1))+line)
	}

	header := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true).
		Render(c.Language)

	maxWidth := c.MaxWidth - 2
	if maxWidth < 20 {
		maxWidth = 20
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Overlay).
		Padding(0, 1).
		MaxWidth(maxWidth).
		Render(header + "\n" + strings.Join(rendered, "\n"))
}

// =============================================================================
// MARKDOWN FENCE SPLITTER
// =============================================================================

// Segment is a run of markdown text or a single tagged code block.
// Exactly one of Markdown and Code is set.
type Segment struct {
	Markdown string
	Code     *CodeBlock
}

// SplitFences splits markdown into prose and language-tagged code blocks.
// Untagged fences stay in the markdown. A tagged fence that is still open
// at the end of the text (mid-stream) is returned as a code block.
func SplitFences(text string) []Segment {
	var (
		segments []Segment
		prose    []string
		code     []string
		language string
		fence    string
		inTagged bool
		inPlain  bool
	)

	flushProse := func() {
		if len(prose) == 0 {
			return
		}
		segments = append(segments, Segment{Markdown: strings.Join(prose, "\n")})
		prose = nil
	}

	for _, line := range strings.Split(text, "\n") {
		marker, info, isFence := parseFence(line)

		switch {
		case inTagged:
			if isFence && marker == fence && info == "" {
				cb := NewCodeBlock(language, strings.Join(code, "\n"))
				segments = append(segments, Segment{Code: &cb})
				code, inTagged = nil, false
				continue
			}
			code = append(code, line)

		case inPlain:
			prose = append(prose, line)
			if isFence && marker == fence && info == "" {
				inPlain = false
			}

		case isFence && info != "":
			flushProse()
			language = strings.Fields(info)[0]
			fence = marker
			inTagged = true

		case isFence:
			prose = append(prose, line)
			fence = marker
			inPlain = true

		default:
			prose = append(prose, line)
		}
	}

	if inTagged {
		cb := NewCodeBlock(language, strings.Join(code, "\n"))
		segments = append(segments, Segment{Code: &cb})
	}
	flushProse()
	return segments
}

// parseFence reports whether line opens or closes a fence, returning the
// fence marker and the trimmed info string.
func parseFence(line string) (marker, info string, ok bool) {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return "", "", false
	}
	for _, m := range []string{"```", "~~~"} {
		if strings.HasPrefix(trimmed, m) {
			return m, strings.TrimSpace(strings.TrimLeft(trimmed, m[:1])), true
		}
	}
	return "", "", false
}

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// highlightCode applies syntax highlighting to code using the chroma library.
func highlightCode(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}
