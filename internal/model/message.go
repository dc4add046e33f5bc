// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for transcripts and messages.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/marketchat/internal/util"
)

// =============================================================================
// KIND TYPE
// =============================================================================

// Kind identifies what a message holds. It never changes after creation.
type Kind string

const (
	KindUser       Kind = "user"
	KindAssistant  Kind = "assistant"
	KindToolResult Kind = "tool-result"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// DisplayName returns the short label shown above a message.
func (k Kind) DisplayName() string {
	switch k {
	case KindUser:
		return "you"
	case KindAssistant:
		return "assistant"
	case KindToolResult:
		return "tool"
	default:
		return string(k)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single transcript entry.
//
// Text is used by user and assistant messages; Result by tool-result
// messages. Only the in-progress assistant message is ever mutated, and
// only through Transcript.
type Message struct {
	ID        string      `json:"id"`
	Kind      Kind        `json:"kind"`
	CreatedAt time.Time   `json:"created_at"`
	Text      string      `json:"text,omitempty"`
	Result    *ToolResult `json:"result,omitempty"`
}

// NewUserMessage creates a user message holding the prompt verbatim.
func NewUserMessage(text string) Message {
	return Message{
		ID:        newID(),
		Kind:      KindUser,
		CreatedAt: time.Now(),
		Text:      text,
	}
}

// NewAssistantMessage creates an assistant message. Pass "" for the
// placeholder that a stream will fill.
func NewAssistantMessage(text string) Message {
	return Message{
		ID:        newID(),
		Kind:      KindAssistant,
		CreatedAt: time.Now(),
		Text:      text,
	}
}

// NewToolResultMessage creates a tool-result message.
func NewToolResultMessage(result *ToolResult) Message {
	return Message{
		ID:        newID(),
		Kind:      KindToolResult,
		CreatedAt: time.Now(),
		Result:    result,
	}
}

// IsEmpty reports whether a text message has no content yet.
// Tool results are never empty.
func (m Message) IsEmpty() bool {
	if m.Kind == KindToolResult {
		return m.Result == nil
	}
	return len(m.Text) == 0
}

// Preview returns a one-line excerpt of the message for logs.
func (m Message) Preview(maxLen int) string {
	content := m.Text
	if m.Kind == KindToolResult && m.Result != nil {
		content = m.Result.Symbol
	}
	return util.Preview(content, maxLen)
}

func newID() string {
	return "msg_" + uuid.NewString()
}
