// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jeranaias/marketchat/internal/model"
	"github.com/jeranaias/marketchat/internal/stream"
	"github.com/jeranaias/marketchat/internal/tools"
)

var (
	// ErrEmptyPrompt is returned for blank or whitespace-only prompts.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrBusy is returned when a prompt is submitted while a stream runs.
	ErrBusy = errors.New("a response is still streaming")
)

// =============================================================================
// EFFECT TYPE
// =============================================================================

// EffectKind says what applying an event did.
type EffectKind int

const (
	// EffectNone means the event changed nothing.
	EffectNone EffectKind = iota
	// EffectText means a delta was appended to the assistant message.
	EffectText
	// EffectToolCall means the caller must run Effect.Call.
	EffectToolCall
	// EffectEnd means the sentinel arrived.
	EffectEnd
)

// String returns a short label for the kind.
func (k EffectKind) String() string {
	switch k {
	case EffectNone:
		return "none"
	case EffectText:
		return "text"
	case EffectToolCall:
		return "tool-call"
	case EffectEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Effect is the outcome of Reducer.Apply.
type Effect struct {
	Kind  EffectKind
	Delta string
	Call  tools.Call
}

// Stats holds timing for one streamed response.
type Stats struct {
	Deltas     int
	ToolCalls  int
	FirstDelta time.Duration
	Elapsed    time.Duration
}

// =============================================================================
// REDUCER
// =============================================================================

// Reducer applies stream events to a transcript. It is not safe for
// concurrent use; all calls must come from the consumer goroutine.
type Reducer struct {
	transcript *model.Transcript
	registry   *tools.Registry
	logger     *slog.Logger

	assistantID string
	streaming   bool
	startTime   time.Time
	firstDelta  time.Time
	endTime     time.Time
	deltas      int
	toolCalls   int
}

// NewReducer creates a reducer over transcript. Calls to functions missing
// from registry are ignored.
func NewReducer(transcript *model.Transcript, registry *tools.Registry, logger *slog.Logger) *Reducer {
	if registry == nil {
		registry = tools.NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reducer{
		transcript: transcript,
		registry:   registry,
		logger:     logger,
	}
}

// Transcript returns the transcript being reduced into.
func (r *Reducer) Transcript() *model.Transcript {
	return r.transcript
}

// Begin starts a new response: it appends the prompt verbatim as a user
// message followed by an empty assistant placeholder.
func (r *Reducer) Begin(prompt string) (assistantID string, err error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	if r.streaming {
		return "", ErrBusy
	}

	r.transcript.Append(model.NewUserMessage(prompt))
	r.assistantID = r.transcript.Append(model.NewAssistantMessage(""))
	r.streaming = true
	r.startTime = time.Now()
	r.firstDelta = time.Time{}
	r.endTime = time.Time{}
	r.deltas = 0
	r.toolCalls = 0
	return r.assistantID, nil
}

// Apply folds one event into the transcript.
//
// A malformed function call returns a *tools.CallError and leaves the
// transcript untouched. Events after the sentinel are ignored.
func (r *Reducer) Apply(ev stream.Event) (Effect, error) {
	if !r.streaming {
		return Effect{Kind: EffectNone}, nil
	}

	if ev.IsEnd() {
		r.Finish()
		return Effect{Kind: EffectEnd}, nil
	}

	if ev.IsFunctionCall() {
		call, err := tools.ParseCall(ev.Data)
		if err != nil {
			return Effect{Kind: EffectNone}, err
		}
		if !r.registry.Has(call.Function) {
			r.logger.Debug("ignoring unknown function call", "function", call.Function)
			return Effect{Kind: EffectNone}, nil
		}
		r.toolCalls++
		return Effect{Kind: EffectToolCall, Call: call}, nil
	}

	// An empty payload is a line break.
	delta := ev.Data
	if delta == "" {
		delta = "\n"
	}
	if err := r.transcript.AppendText(r.assistantID, delta); err != nil {
		return Effect{Kind: EffectNone}, fmt.Errorf("apply delta: %w", err)
	}
	if r.firstDelta.IsZero() {
		r.firstDelta = time.Now()
	}
	r.deltas++
	return Effect{Kind: EffectText, Delta: delta}, nil
}

// ApplyToolResult appends a tool result after the current messages and
// returns its ID. Tool results may arrive after the stream has ended.
func (r *Reducer) ApplyToolResult(result *model.ToolResult) string {
	return r.transcript.Append(model.NewToolResultMessage(result))
}

// Finish marks the response as ended. Later events are ignored. It is
// called on the sentinel and when the stream closes or fails.
func (r *Reducer) Finish() {
	if !r.streaming {
		return
	}
	r.streaming = false
	r.endTime = time.Now()
}

// Streaming reports whether a response is in progress.
func (r *Reducer) Streaming() bool {
	return r.streaming
}

// Done reports whether the current response has ended.
func (r *Reducer) Done() bool {
	return !r.streaming
}

// AssistantID returns the ID of the current assistant message.
func (r *Reducer) AssistantID() string {
	return r.assistantID
}

// AssistantText returns the text streamed so far for the current response.
func (r *Reducer) AssistantText() string {
	msg, ok := r.transcript.Get(r.assistantID)
	if !ok {
		return ""
	}
	return msg.Text
}

// Stats returns timing for the current or last response.
func (r *Reducer) Stats() Stats {
	s := Stats{Deltas: r.deltas, ToolCalls: r.toolCalls}
	if r.startTime.IsZero() {
		return s
	}
	if !r.firstDelta.IsZero() {
		s.FirstDelta = r.firstDelta.Sub(r.startTime)
	}
	end := r.endTime
	if end.IsZero() {
		end = time.Now()
	}
	s.Elapsed = end.Sub(r.startTime)
	return s
}
