// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/marketchat/internal/chat"
	"github.com/jeranaias/marketchat/internal/model"
	"github.com/jeranaias/marketchat/internal/render"
	"github.com/jeranaias/marketchat/internal/stream"
	"github.com/jeranaias/marketchat/internal/tools"
	"github.com/jeranaias/marketchat/internal/ui/styles"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

type fakeStreamer struct {
	events  []stream.Event
	err     error
	prompts []string
}

func (f *fakeStreamer) Events(_ context.Context, prompt string) (<-chan stream.Event, <-chan error) {
	f.prompts = append(f.prompts, prompt)
	events := make(chan stream.Event, len(f.events))
	for _, ev := range f.events {
		events <- ev
	}
	close(events)
	errs := make(chan error, 1)
	if f.err != nil {
		errs <- f.err
	}
	close(errs)
	return events, errs
}

type fakeFetcher struct {
	mu      sync.Mutex
	symbols []string
	err     error
}

func (f *fakeFetcher) Daily(_ context.Context, symbol string) (*model.ToolResult, error) {
	f.mu.Lock()
	f.symbols = append(f.symbols, symbol)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	return &model.ToolResult{Symbol: symbol, Series: []model.Bar{
		{Date: start, Close: 100, Volume: 10},
		{Date: start.AddDate(0, 0, 1), Close: 101, Volume: 20},
	}}, nil
}

func textEvent(s string) stream.Event { return stream.Event{Data: s} }

func endEvent() stream.Event { return stream.Event{Data: stream.Sentinel} }

func callEvent(payload string) stream.Event {
	return stream.Event{Type: stream.FunctionCallEvent, Data: payload}
}

func newTestModel(t *testing.T, streamer *fakeStreamer, fetcher *fakeFetcher) Model {
	t.Helper()
	theme := styles.NewPlainTheme()
	r, err := render.New(render.Options{Style: render.StyleNoTTY, Theme: theme})
	require.NoError(t, err)

	registry := tools.NewRegistry(tools.NewStockTool(fetcher))
	m, err := New(Config{
		Streamer: streamer,
		Runner:   tools.NewExecutor(registry, nil),
		Registry: registry,
		Renderer: r,
		Theme:    theme,
		Greeting: chat.DefaultGreeting,
	})
	require.NoError(t, err)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model)
}

// run feeds cmd and every follow-up command back into the model until
// nothing is left. Only stream and tool commands are expected here.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		updated, follow := m.Update(msg)
		m = updated.(Model)
		queue = append(queue, follow)
	}
	return m
}

func submit(t *testing.T, m Model, prompt string) Model {
	t.Helper()
	m.input.SetValue(prompt)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return run(t, updated.(Model), cmd)
}

// =============================================================================
// TESTS
// =============================================================================

func TestNew_SeedsGreeting(t *testing.T) {
	m := newTestModel(t, &fakeStreamer{}, &fakeFetcher{})
	msgs := m.Transcript().Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, model.KindAssistant, msgs[0].Kind)
	assert.Equal(t, chat.DefaultGreeting, msgs[0].Text)
	assert.Contains(t, m.View(), "Hey there!")
}

func TestNew_RequiresStreamer(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestSubmit_StreamsText(t *testing.T) {
	streamer := &fakeStreamer{events: []stream.Event{
		textEvent("AAPL is "), textEvent("up"), textEvent(""), textEvent("today"), endEvent(),
	}}
	m := newTestModel(t, streamer, &fakeFetcher{})
	m = submit(t, m, "How is AAPL?")

	require.Equal(t, []string{"How is AAPL?"}, streamer.prompts)
	msgs := m.Transcript().Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, model.KindUser, msgs[1].Kind)
	assert.Equal(t, "How is AAPL?", msgs[1].Text)
	assert.Equal(t, "AAPL is up\ntoday", msgs[2].Text)

	assert.False(t, m.Streaming())
	assert.NoError(t, m.Err())
	assert.Equal(t, "", m.input.Value())
	assert.Contains(t, m.View(), "AAPL is up")
}

func TestSubmit_FunctionCallAppendsChart(t *testing.T) {
	fetcher := &fakeFetcher{}
	streamer := &fakeStreamer{events: []stream.Event{
		textEvent("Fetching."),
		callEvent(`{"function":"get_stock","args":{"ticker":"msft"}}`),
		endEvent(),
	}}
	m := newTestModel(t, streamer, fetcher)
	m = submit(t, m, "MSFT chart")

	assert.Equal(t, []string{"MSFT"}, fetcher.symbols)
	msgs := m.Transcript().Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, "Fetching.", msgs[2].Text)
	assert.Equal(t, model.KindToolResult, msgs[3].Kind)
	assert.Equal(t, "MSFT", msgs[3].Result.Symbol)
	assert.Equal(t, 0, m.pendingTools)
	assert.Contains(t, m.View(), "+1.00 (+1.00%)")
}

func TestSubmit_UnknownFunctionIgnored(t *testing.T) {
	fetcher := &fakeFetcher{}
	streamer := &fakeStreamer{events: []stream.Event{
		callEvent(`{"function":"get_weather","args":{}}`),
		textEvent("ok"),
		endEvent(),
	}}
	m := newTestModel(t, streamer, fetcher)
	m = submit(t, m, "weather?")

	assert.Empty(t, fetcher.symbols)
	assert.NoError(t, m.Err())
	assert.Len(t, m.Transcript().Messages(), 3)
}

func TestSubmit_ToolFailureShowsErrorLine(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("rate limited")}
	streamer := &fakeStreamer{events: []stream.Event{
		callEvent(`{"function":"get_stock","args":{"ticker":"IBM"}}`),
		textEvent("done"),
		endEvent(),
	}}
	m := newTestModel(t, streamer, fetcher)
	m = submit(t, m, "IBM?")

	msgs := m.Transcript().Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "done", msgs[2].Text)
	assert.True(t, tools.IsFetch(m.Err()))
	assert.Contains(t, m.View(), "rate limited")
}

func TestSubmit_MalformedCallShowsErrorLine(t *testing.T) {
	streamer := &fakeStreamer{events: []stream.Event{
		callEvent(`{not json`),
		textEvent("still here"),
		endEvent(),
	}}
	m := newTestModel(t, streamer, &fakeFetcher{})
	m = submit(t, m, "x")

	assert.True(t, tools.IsMalformed(m.Err()))
	assert.Equal(t, "still here", m.Transcript().Messages()[2].Text)
}

func TestSubmit_StreamErrorKeepsPartial(t *testing.T) {
	streamer := &fakeStreamer{
		events: []stream.Event{textEvent("partial ")},
		err:    errors.New("connection reset"),
	}
	m := newTestModel(t, streamer, &fakeFetcher{})
	m = submit(t, m, "q")

	var streamErr *stream.StreamError
	require.ErrorAs(t, m.Err(), &streamErr)
	assert.Equal(t, "partial ", streamErr.Partial)
	assert.Equal(t, "partial ", m.Transcript().Messages()[2].Text)
	assert.False(t, m.Streaming())
}

func TestSubmit_BlankIgnored(t *testing.T) {
	streamer := &fakeStreamer{}
	m := newTestModel(t, streamer, &fakeFetcher{})
	m = submit(t, m, "   ")

	assert.Empty(t, streamer.prompts)
	assert.Len(t, m.Transcript().Messages(), 1)
	assert.NoError(t, m.Err())
}

func TestSubmit_BusyWhileStreaming(t *testing.T) {
	streamer := &fakeStreamer{events: []stream.Event{textEvent("a"), endEvent()}}
	m := newTestModel(t, streamer, &fakeFetcher{})

	m.input.SetValue("first")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	require.True(t, m.Streaming())

	m.input.SetValue("second")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	assert.Nil(t, cmd)
	assert.ErrorIs(t, m.Err(), chat.ErrBusy)
	assert.Equal(t, "second", m.input.Value())
	assert.Equal(t, []string{"first"}, streamer.prompts)
}

func TestBlink_TogglesCursor(t *testing.T) {
	m := newTestModel(t, &fakeStreamer{}, &fakeFetcher{})
	before := m.cursorOn
	updated, cmd := m.Update(BlinkMsg{Time: time.Now()})
	m = updated.(Model)
	assert.NotEqual(t, before, m.cursorOn)
	assert.NotNil(t, cmd)
}

func TestQuitKeys(t *testing.T) {
	for _, k := range []tea.KeyMsg{{Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		m := newTestModel(t, &fakeStreamer{}, &fakeFetcher{})
		updated, cmd := m.Update(k)
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.Equal(t, "", updated.(Model).View())
	}
}

func TestResize(t *testing.T) {
	m := newTestModel(t, &fakeStreamer{}, &fakeFetcher{})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	m = updated.(Model)

	assert.Equal(t, 60, m.viewport.Width)
	assert.Equal(t, 20-headerHeight-errorLineHeight-inputHeight-statusBarHeight, m.viewport.Height)
	assert.Equal(t, 58, m.renderer.Width())
}

func TestLookupSpinnerWhileToolRuns(t *testing.T) {
	streamer := &fakeStreamer{events: []stream.Event{
		callEvent(`{"function":"get_stock","args":{"ticker":"nvda"}}`),
		endEvent(),
	}}
	m := newTestModel(t, streamer, &fakeFetcher{})

	m.input.SetValue("NVDA?")
	updated, wait := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	msg := wait()
	require.IsType(t, StreamEventMsg{}, msg)
	updated, cmd := m.Update(msg)
	m = updated.(Model)
	assert.Equal(t, 1, m.pendingTools)
	assert.Contains(t, m.View(), "Fetching NVDA")

	m = run(t, m, cmd)
	assert.Equal(t, 0, m.pendingTools)
	assert.NotContains(t, m.View(), "Fetching NVDA")
}

func TestLookupLabel(t *testing.T) {
	assert.Equal(t, "AAPL", lookupLabel(tools.Call{Function: "get_stock", Args: []byte(`{"ticker":" aapl "}`)}))
	assert.Equal(t, "get_stock", lookupLabel(tools.Call{Function: "get_stock", Args: []byte(`{}`)}))
	assert.Equal(t, "get_stock", lookupLabel(tools.Call{Function: "get_stock"}))
}

func TestHeaderShowsAgent(t *testing.T) {
	theme := styles.NewPlainTheme()
	r, err := render.New(render.Options{Style: render.StyleNoTTY, Theme: theme})
	require.NoError(t, err)
	m, err := New(Config{Streamer: &fakeStreamer{}, Renderer: r, Theme: theme, AgentID: "quant"})
	require.NoError(t, err)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Contains(t, updated.(Model).View(), "[AGENT quant]")
}

func TestSettingsMsg(t *testing.T) {
	m := newTestModel(t, &fakeStreamer{}, &fakeFetcher{})

	updated, cmd := m.Update(SettingsMsg{Theme: render.StyleDark, ShowTimestamps: true})
	m = updated.(Model)
	assert.Nil(t, cmd)
	assert.NoError(t, m.Err())
	assert.Equal(t, render.StyleDark, m.renderer.Style())

	updated, _ = m.Update(SettingsMsg{Theme: "neon"})
	m = updated.(Model)
	assert.ErrorIs(t, m.Err(), render.ErrUnknownStyle)
	assert.Equal(t, render.StyleDark, m.renderer.Style())
}
