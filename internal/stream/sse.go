// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
)

// =============================================================================
// EVENT TYPE
// =============================================================================

const (
	// Sentinel is the payload that ends a stream.
	Sentinel = "[END]"

	// FunctionCallEvent is the event type of tool calls.
	FunctionCallEvent = "function_call"

	// MaxEventSize is the largest accepted event payload (1MB).
	MaxEventSize = 1 << 20
)

// ErrEventTooLarge is returned when an event exceeds MaxEventSize.
var ErrEventTooLarge = errors.New("event exceeds maximum size")

// Event is one decoded server-sent event.
type Event struct {
	// Type is the "event:" field. Empty for plain message events.
	Type string
	// Data is the payload with multiple data lines joined by "\n".
	Data string
	// ID is the last "id:" field seen, if any.
	ID string
}

// IsEnd reports whether the event is the end-of-stream sentinel.
func (e Event) IsEnd() bool {
	return e.Data == Sentinel
}

// IsFunctionCall reports whether the event carries a tool call.
func (e Event) IsFunctionCall() bool {
	return e.Type == FunctionCallEvent
}

// =============================================================================
// SSE READER
// =============================================================================

// Reader parses server-sent events from a byte stream.
type Reader struct {
	reader *bufio.Reader
	lastID string
}

// NewReader creates a new SSE reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{reader: bufio.NewReader(r)}
}

// ReadEvent reads the next event from the stream.
// Blocks without data lines (comments, retry hints) are skipped.
// Returns io.EOF when the stream ends.
func (s *Reader) ReadEvent() (Event, error) {
	var (
		eventType string
		data      []string
		size      int
	)

	for {
		line, err := s.readLine()
		if errors.Is(err, ErrEventTooLarge) {
			return Event{}, err
		}
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) && data != nil {
				return s.event(eventType, data), nil
			}
			return Event{}, err
		}

		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")

		if line == "" {
			if data != nil {
				return s.event(eventType, data), nil
			}
			eventType = ""
			continue
		}

		// Comment line
		if line[0] == ':' {
			continue
		}

		field, value := splitField(line)
		switch field {
		case "event":
			eventType = value
		case "data":
			size += len(value) + 1
			if size > MaxEventSize {
				return Event{}, ErrEventTooLarge
			}
			if data == nil {
				data = make([]string, 0, 1)
			}
			data = append(data, value)
		case "id":
			if !strings.ContainsRune(value, 0) {
				s.lastID = value
			}
		}
		// retry and unknown fields are ignored
	}
}

// maxLineSize bounds a single line: the largest payload plus its field name.
const maxLineSize = MaxEventSize + len("data: \r\n")

// readLine returns the next line including its terminator. It stops with
// ErrEventTooLarge once a line grows past maxLineSize instead of buffering
// the rest of it.
func (s *Reader) readLine() (string, error) {
	var buf []byte
	for {
		chunk, err := s.reader.ReadSlice('\n')
		if len(buf)+len(chunk) > maxLineSize {
			return "", ErrEventTooLarge
		}
		buf = append(buf, chunk...)
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return string(buf), err
	}
}

func (s *Reader) event(eventType string, data []string) Event {
	return Event{
		Type: eventType,
		Data: strings.Join(data, "\n"),
		ID:   s.lastID,
	}
}

// splitField splits "name:value", removing a single leading space from
// the value. A line without a colon is a field with an empty value.
func splitField(line string) (string, string) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return line, ""
	}
	value := line[idx+1:]
	value = strings.TrimPrefix(value, " ")
	return line[:idx], value
}

// ReadAll decodes every event in r. Used for replaying recorded streams.
func ReadAll(r io.Reader) ([]Event, error) {
	reader := NewReader(r)
	var events []Event
	for {
		ev, err := reader.ReadEvent()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
}

// Encode writes ev in text/event-stream framing.
func Encode(w io.Writer, ev Event) error {
	var buf bytes.Buffer
	if ev.Type != "" {
		buf.WriteString("event: ")
		buf.WriteString(ev.Type)
		buf.WriteByte('\n')
	}
	if ev.ID != "" {
		buf.WriteString("id: ")
		buf.WriteString(ev.ID)
		buf.WriteByte('\n')
	}
	for _, line := range strings.Split(ev.Data, "\n") {
		buf.WriteString("data: ")
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}
