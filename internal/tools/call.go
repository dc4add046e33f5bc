// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Call is a decoded function-call payload.
type Call struct {
	Function string          `json:"function"`
	Args     json.RawMessage `json:"args,omitempty"`
}

// rawCall accepts both the native shape and the OpenAI-style shape, where
// arguments arrive as a JSON-encoded string.
type rawCall struct {
	Function  string          `json:"function"`
	Args      json.RawMessage `json:"args"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ParseCall decodes a function-call event payload.
func ParseCall(data string) (Call, error) {
	var raw rawCall
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return Call{}, malformed("", fmt.Errorf("decode payload: %w", err))
	}

	call := Call{Function: strings.TrimSpace(raw.Function)}
	args := raw.Args
	if call.Function == "" {
		call.Function = strings.TrimSpace(raw.Name)
		args = raw.Arguments
	}
	if call.Function == "" {
		return Call{}, malformed("", errors.New("payload names no function"))
	}

	unquoted, err := unquoteArgs(args)
	if err != nil {
		return Call{}, malformed(call.Function, err)
	}
	call.Args = unquoted
	return call, nil
}

// unquoteArgs unwraps arguments that were sent as a JSON string.
func unquoteArgs(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return raw, nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil, fmt.Errorf("decode arguments: %w", err)
	}
	if !json.Valid([]byte(s)) {
		return nil, errors.New("arguments string is not valid JSON")
	}
	return json.RawMessage(s), nil
}

// Decode unmarshals the call arguments into v.
func (c Call) Decode(v any) error {
	if len(bytes.TrimSpace(c.Args)) == 0 || string(bytes.TrimSpace(c.Args)) == "null" {
		return malformed(c.Function, errors.New("missing arguments"))
	}
	if err := json.Unmarshal(c.Args, v); err != nil {
		return malformed(c.Function, fmt.Errorf("decode arguments: %w", err))
	}
	return nil
}
