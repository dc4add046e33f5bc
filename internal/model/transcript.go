// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrNoAssistant is returned when text is appended but no assistant
	// message exists to receive it.
	ErrNoAssistant = errors.New("no assistant message in transcript")

	// ErrNotAssistant is returned when a handle names a message that is
	// not an assistant message.
	ErrNotAssistant = errors.New("message is not an assistant message")
)

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript is the ordered, append-only list of messages shown to the user.
//
// Messages are never removed or reordered. The only mutation allowed after
// Append is extending the text of an assistant message.
type Transcript struct {
	mu        sync.RWMutex
	messages  []Message
	positions map[string]int
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{
		messages:  make([]Message, 0, 16),
		positions: make(map[string]int),
	}
}

// Append adds msg at the end and returns its ID. A missing ID or
// timestamp is filled in.
func (t *Transcript) Append(msg Message) string {
	if msg.ID == "" {
		msg.ID = newID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.positions[msg.ID] = len(t.messages)
	t.messages = append(t.messages, msg)
	return msg.ID
}

// AppendText extends the text of the assistant message with the given ID.
func (t *Transcript) AppendText(id, delta string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	pos, ok := t.positions[id]
	if !ok {
		return fmt.Errorf("message %q: %w", id, ErrNoAssistant)
	}
	if t.messages[pos].Kind != KindAssistant {
		return fmt.Errorf("message %q: %w", id, ErrNotAssistant)
	}
	t.messages[pos].Text += delta
	return nil
}

// AppendTextToLastAssistant extends the most recent assistant message,
// skipping over any tool results appended after it. It is the scan-based
// equivalent of AppendText for callers that hold no message ID.
func (t *Transcript) AppendTextToLastAssistant(delta string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].Kind == KindAssistant {
			t.messages[i].Text += delta
					return nil
		}
	}
	return ErrNoAssistant
}

// =============================================================================
// READ ACCESS
// =============================================================================

// Messages returns a snapshot copy of the transcript in display order.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Get returns the message with the given ID.
func (t *Transcript) Get(id string) (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	pos, ok := t.positions[id]
	if !ok {
		return Message{}, false
	}
	return t.messages[pos], true
}

// Last returns the most recent message.
func (t *Transcript) Last() (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// LastAssistant returns the most recent assistant message.
func (t *Transcript) LastAssistant() (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].Kind == KindAssistant {
			return t.messages[i], true
		}
	}
	return Message{}, false
}

