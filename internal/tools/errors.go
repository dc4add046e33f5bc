// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"errors"
	"fmt"
)

// ErrUnknownTool is returned when a call names a function with no
// registered tool. Callers treat it as a no-op.
var ErrUnknownTool = errors.New("unknown tool")

// ErrorKind classifies a failed call.
type ErrorKind int

const (
	// KindMalformed means the payload or its arguments could not be decoded.
	KindMalformed ErrorKind = iota
	// KindFetch means the tool ran but its lookup failed.
	KindFetch
)

// String returns a human-readable label for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindMalformed:
		return "malformed call"
	case KindFetch:
		return "lookup failed"
	default:
		return "unknown"
	}
}

// CallError reports a tool call that produced no result.
type CallError struct {
	Kind     ErrorKind
	Function string
	Err      error
}

// Error implements the error interface.
func (e *CallError) Error() string {
	if e.Function != "" {
		return fmt.Sprintf("%s: %s: %v", e.Function, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *CallError) Unwrap() error {
	return e.Err
}

func malformed(function string, err error) *CallError {
	return &CallError{Kind: KindMalformed, Function: function, Err: err}
}

// IsMalformed reports whether err is a CallError of kind KindMalformed.
func IsMalformed(err error) bool {
	var ce *CallError
	return errors.As(err, &ce) && ce.Kind == KindMalformed
}

// IsFetch reports whether err is a CallError of kind KindFetch.
func IsFetch(err error) bool {
	var ce *CallError
	return errors.As(err, &ce) && ce.Kind == KindFetch
}
