// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/marketchat/internal/chat"
	"github.com/jeranaias/marketchat/internal/model"
	"github.com/jeranaias/marketchat/internal/render"
	"github.com/jeranaias/marketchat/internal/stream"
	"github.com/jeranaias/marketchat/internal/tools"
	"github.com/jeranaias/marketchat/internal/ui/components"
	"github.com/jeranaias/marketchat/internal/ui/styles"
	"github.com/jeranaias/marketchat/internal/util"
)

// Heights of the fixed rows around the viewport.
const (
	headerHeight    = 1
	errorLineHeight = 1
	inputHeight     = 2 // top rule + prompt line
	statusBarHeight = 1
)

// Config holds the collaborators of the TUI.
type Config struct {
	// Context bounds streams and tool lookups. Defaults to Background.
	Context    context.Context
	Transcript *model.Transcript
	Streamer   chat.Streamer
	Runner     chat.ToolRunner
	Registry   *tools.Registry
	Renderer   *render.Renderer
	Theme      *styles.Theme
	// Greeting seeds an empty transcript; "" disables it.
	Greeting string
	// Endpoint is shown in the status bar.
	Endpoint string
	// AgentID, when set, is shown in the header badge.
	AgentID string
	Logger   *slog.Logger
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the bubbletea model of the chat screen.
type Model struct {
	ctx      context.Context
	reducer  *chat.Reducer
	streamer chat.Streamer
	runner   chat.ToolRunner
	renderer *render.Renderer
	theme    *styles.Theme
	logger   *slog.Logger
	keys     KeyMap

	input    textinput.Model
	viewport viewport.Model
	header   *components.Header
	status   *components.StatusBar
	lookups  *components.Spinner

	// Open stream, nil when idle.
	events <-chan stream.Event
	errs   <-chan error

	pendingTools int
	cursorOn     bool
	err          error

	width    int
	height   int
	ready    bool
	quitting bool
}

// New creates the chat screen.
func New(cfg Config) (Model, error) {
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	if cfg.Transcript == nil {
		cfg.Transcript = model.NewTranscript()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Theme == nil {
		cfg.Theme = styles.NewTheme()
	}
	if cfg.Renderer == nil {
		r, err := render.New(render.Options{Theme: cfg.Theme})
		if err != nil {
			return Model{}, err
		}
		cfg.Renderer = r
	}
	if cfg.Streamer == nil {
		return Model{}, errors.New("app: no streamer configured")
	}

	chat.SeedGreeting(cfg.Transcript, cfg.Greeting)

	input := textinput.New()
	input.Prompt = "> "
	input.PromptStyle = cfg.Theme.InputPrompt
	input.Placeholder = "Ask about a stock, e.g. How is AAPL doing?"
	input.CharLimit = 4000
	input.Focus()

	header := components.NewHeader(cfg.Theme)
	header.SetAgent(cfg.AgentID)
	status := components.NewStatusBar(cfg.Theme)
	status.Endpoint = cfg.Endpoint

	return Model{
		ctx:      cfg.Context,
		reducer:  chat.NewReducer(cfg.Transcript, cfg.Registry, cfg.Logger),
		streamer: cfg.Streamer,
		runner:   cfg.Runner,
		renderer: cfg.Renderer,
		theme:    cfg.Theme,
		logger:   cfg.Logger,
		keys:     DefaultKeyMap(),
		input:    input,
		viewport: viewport.New(0, 0),
		header:   header,
		status:   status,
		lookups:  components.NewSpinner(cfg.Theme),
		cursorOn: true,
	}, nil
}

// Init starts the input cursor and the streaming cursor blink.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, blink())
}

// Transcript returns the transcript shown on screen.
func (m Model) Transcript() *model.Transcript {
	return m.reducer.Transcript()
}

// Streaming reports whether a response is being received.
func (m Model) Streaming() bool {
	return m.events != nil
}

// Err returns the error shown on the error line.
func (m Model) Err() error {
	return m.err
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles a message. It is the only place the transcript changes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamEventMsg:
		return m.handleEvent(msg)

	case StreamClosedMsg:
		return m.handleClosed(msg)

	case ToolResultMsg:
		m.pendingTools--
		m.lookups.Done(lookupLabel(msg.Call))
		if msg.Result == nil {
			m.refresh()
			return m, nil
		}
		m.reducer.ApplyToolResult(msg.Result)
		m.logger.Debug("tool result applied", "function", msg.Call.Function, "symbol", msg.Result.Symbol)
		m.refresh()
		return m, nil

	case ToolErrorMsg:
		m.pendingTools--
		m.lookups.Done(lookupLabel(msg.Call))
		if !errors.Is(msg.Err, tools.ErrUnknownTool) {
			m.logger.Warn("tool call failed", "function", msg.Call.Function, "error", msg.Err)
			m.err = msg.Err
		}
		m.refresh()
		return m, nil

	case SettingsMsg:
		return m.applySettings(msg)

	case BlinkMsg:
		m.cursorOn = !m.cursorOn
		m.lookups.Advance()
		if m.lookups.IsActive() {
			m.status.Activity = m.lookups.View()
		}
		if m.reducer.Streaming() && m.reducer.AssistantText() == "" {
			m.refresh()
		}
		return m, blink()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit starts a stream for the prompt in the input box. Blank input is
// ignored; input typed while a response streams stays in the box.
func (m Model) submit() (tea.Model, tea.Cmd) {
	prompt := m.input.Value()
	if strings.TrimSpace(prompt) == "" {
		return m, nil
	}

	if m.events != nil {
		m.err = chat.ErrBusy
		return m, nil
	}
	if _, err := m.reducer.Begin(prompt); err != nil {
		m.err = err
		return m, nil
	}

	m.err = nil
	m.input.Reset()
	m.events, m.errs = m.streamer.Events(m.ctx, prompt)
	m.status.Status = components.StatusStreaming
	m.logger.Debug("prompt submitted", "chars", len(prompt), "preview", util.Preview(prompt, 60))

	m.refresh()
	m.viewport.GotoBottom()
	return m, waitForEvent(m.events, m.errs)
}

func (m Model) handleEvent(msg StreamEventMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	eff, err := m.reducer.Apply(msg.Event)
	if err != nil {
		m.logger.Warn("event rejected", "error", err)
		m.err = err
	}
	if eff.Kind == chat.EffectToolCall && m.runner != nil {
		m.pendingTools++
		m.lookups.Start(lookupLabel(eff.Call))
		cmds = append(cmds, runTool(m.ctx, m.runner, eff.Call))
	}

	m.refresh()
	if m.events != nil {
		cmds = append(cmds, waitForEvent(m.events, m.errs))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleClosed(msg StreamClosedMsg) (tea.Model, tea.Cmd) {
	m.reducer.Finish()
	m.events, m.errs = nil, nil

	if msg.Err != nil {
		m.logger.Warn("stream failed", "error", msg.Err)
		m.err = &stream.StreamError{Partial: m.reducer.AssistantText(), Err: msg.Err}
		m.status.Status = components.StatusError
	} else {
		m.status.Status = components.StatusReady
	}

	stats := m.reducer.Stats()
	m.logger.Debug("response finished",
		"deltas", stats.Deltas,
		"tool_calls", stats.ToolCalls,
		"first_delta", stats.FirstDelta,
		"elapsed", stats.Elapsed)

	m.refresh()
	return m, nil
}

func (m Model) applySettings(msg SettingsMsg) (tea.Model, tea.Cmd) {
	if err := m.renderer.SetStyle(msg.Theme); err != nil {
		m.logger.Warn("apply theme", "theme", msg.Theme, "error", err)
		m.err = err
	}
	m.renderer.SetShowTimestamps(msg.ShowTimestamps)
	m.logger.Debug("settings applied", "theme", m.renderer.Style(), "timestamps", msg.ShowTimestamps)
	m.refresh()
	return m, nil
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	vpHeight := m.height - headerHeight - errorLineHeight - inputHeight - statusBarHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = maxInt(m.width, 1)
	m.viewport.Height = vpHeight
	m.ready = true

	// prompt "> " plus container padding
	m.input.Width = maxInt(m.width-6, 10)
	m.status.SetWidth(m.width)
	m.header.SetWidth(m.width)

	if err := m.renderer.SetWidth(m.width - 2); err != nil {
		m.logger.Warn("resize renderer", "error", err)
	}
	m.refresh()
	return m, nil
}

// refresh re-renders the transcript, following the bottom when the view
// was already there.
func (m *Model) refresh() {
	follow := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderer.Transcript(m.reducer.Transcript().Messages(), m.cursorOn))
	if follow {
		m.viewport.GotoBottom()
	}

	stats := m.reducer.Stats()
	m.status.Deltas = stats.Deltas
	m.status.Elapsed = stats.Elapsed
	m.status.Activity = m.lookups.View()
}

// lookupLabel names a tool call for the spinner: the ticker when the
// arguments carry one, otherwise the function name.
func lookupLabel(call tools.Call) string {
	var args struct {
		Ticker string `json:"ticker"`
	}
	if err := call.Decode(&args); err == nil && args.Ticker != "" {
		return strings.ToUpper(strings.TrimSpace(args.Ticker))
	}
	return call.Function
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderErrorLine(),
		m.theme.InputContainer.Width(m.width).Render(m.input.View()),
		m.status.View(),
	)
}

func (m Model) renderHeader() string {
	return m.header.View()
}

func (m Model) renderErrorLine() string {
	if m.err == nil {
		return " "
	}
	return components.ErrorLine(m.err, m.width, m.theme)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
