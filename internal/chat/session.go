// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/jeranaias/marketchat/internal/model"
	"github.com/jeranaias/marketchat/internal/stream"
	"github.com/jeranaias/marketchat/internal/tools"
	"github.com/jeranaias/marketchat/internal/util"
)

// DefaultGreeting is the assistant message shown before the first prompt.
const DefaultGreeting = "Hey there! Ask me about real-time events."

// Streamer opens a completion stream. stream.Client implements it.
type Streamer interface {
	Events(ctx context.Context, prompt string) (<-chan stream.Event, <-chan error)
}

// ToolRunner executes a tool call. tools.Executor implements it.
type ToolRunner interface {
	Execute(ctx context.Context, call tools.Call) (*model.ToolResult, error)
}

// =============================================================================
// OBSERVER
// =============================================================================

// Observer is told about each transcript change as the consumer applies it.
// Methods are called from the goroutine running Submit.
type Observer interface {
	OnText(delta string)
	OnToolResult(msg model.Message)
	OnError(err error)
}

// ObserverFuncs implements Observer with optional callbacks.
type ObserverFuncs struct {
	Text       func(delta string)
	ToolResult func(msg model.Message)
	Error      func(err error)
}

func (o ObserverFuncs) OnText(delta string) {
	if o.Text != nil {
		o.Text(delta)
	}
}

func (o ObserverFuncs) OnToolResult(msg model.Message) {
	if o.ToolResult != nil {
		o.ToolResult(msg)
	}
}

func (o ObserverFuncs) OnError(err error) {
	if o.Error != nil {
		o.Error(err)
	}
}

// =============================================================================
// SESSION
// =============================================================================

// SessionConfig holds the collaborators of a Session.
type SessionConfig struct {
	Transcript *model.Transcript
	Streamer   Streamer
	Registry   *tools.Registry
	Runner     ToolRunner
	Observer   Observer
	Logger     *slog.Logger
}

// Session drives prompts without a UI loop. One prompt streams at a time.
type Session struct {
	mu       sync.Mutex
	reducer  *Reducer
	streamer Streamer
	runner   ToolRunner
	observer Observer
	logger   *slog.Logger
}

type toolOutcome struct {
	call   tools.Call
	result *model.ToolResult
	err    error
}

// NewSession creates a session. A nil Transcript starts empty.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Transcript == nil {
		cfg.Transcript = model.NewTranscript()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Observer == nil {
		cfg.Observer = ObserverFuncs{}
	}
	return &Session{
		reducer:  NewReducer(cfg.Transcript, cfg.Registry, cfg.Logger),
		streamer: cfg.Streamer,
		runner:   cfg.Runner,
		observer: cfg.Observer,
		logger:   cfg.Logger,
	}
}

// Transcript returns the session transcript.
func (s *Session) Transcript() *model.Transcript {
	return s.reducer.Transcript()
}

// Stats returns timing for the last response. It blocks while Submit
// runs, so it must not be called from an Observer.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reducer.Stats()
}

// Submit sends prompt and blocks until the stream has ended and every tool
// call it started has finished. Text already streamed is kept when the
// stream fails; the error is then a *stream.StreamError. Tool failures go
// to the observer and do not fail Submit.
func (s *Session) Submit(ctx context.Context, prompt string) error {
	if !s.mu.TryLock() {
		return ErrBusy
	}
	defer s.mu.Unlock()

	if _, err := s.reducer.Begin(prompt); err != nil {
		return err
	}
	s.logger.Debug("prompt submitted", "chars", len(prompt), "preview", util.Preview(prompt, 60))

	events, errs := s.streamer.Events(ctx, prompt)
	outcomes := make(chan toolOutcome)
	pending := 0
	var streamErr error

	for events != nil || pending > 0 {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				streamErr = <-errs
				s.reducer.Finish()
				continue
			}
			s.apply(ctx, ev, outcomes, &pending)

		case out := <-outcomes:
			pending--
			s.applyOutcome(out)
		}
	}

	stats := s.reducer.Stats()
	s.logger.Debug("response finished",
		"deltas", stats.Deltas,
		"tool_calls", stats.ToolCalls,
		"first_delta", stats.FirstDelta,
		"elapsed", stats.Elapsed)

	if streamErr != nil {
		return &stream.StreamError{Partial: s.reducer.AssistantText(), Err: streamErr}
	}
	return nil
}

func (s *Session) apply(ctx context.Context, ev stream.Event, outcomes chan<- toolOutcome, pending *int) {
	eff, err := s.reducer.Apply(ev)
	if err != nil {
		s.logger.Warn("event rejected", "error", err)
		s.observer.OnError(err)
		return
	}

	switch eff.Kind {
	case EffectText:
		s.observer.OnText(eff.Delta)
	case EffectToolCall:
		if s.runner == nil {
			return
		}
		*pending++
		go func(call tools.Call) {
			result, err := s.runner.Execute(ctx, call)
			outcomes <- toolOutcome{call: call, result: result, err: err}
		}(eff.Call)
	}
}

func (s *Session) applyOutcome(out toolOutcome) {
	if out.err != nil {
		if errors.Is(out.err, tools.ErrUnknownTool) {
			return
		}
		s.observer.OnError(out.err)
		return
	}
	id := s.reducer.ApplyToolResult(out.result)
	if msg, ok := s.reducer.Transcript().Get(id); ok {
		s.observer.OnToolResult(msg)
	}
}

// SeedGreeting appends greeting as an assistant message to an empty
// transcript. An empty greeting adds nothing.
func SeedGreeting(t *model.Transcript, greeting string) {
	if greeting == "" || t.Len() > 0 {
		return
	}
	t.Append(model.NewAssistantMessage(greeting))
}
