// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jeranaias/marketchat/internal/model"
)

// DefaultToolTimeout is applied when the context has no deadline.
const DefaultToolTimeout = 30 * time.Second

// Executor runs calls against a Registry. It is safe for concurrent use
// once configured; every call runs on the caller's goroutine.
type Executor struct {
	registry *Registry
	logger   *slog.Logger
	timeout  time.Duration
}

// NewExecutor creates an executor over registry.
func NewExecutor(registry *Registry, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		registry: registry,
		logger:   logger,
		timeout:  DefaultToolTimeout,
	}
}

// SetTimeout overrides DefaultToolTimeout.
func (e *Executor) SetTimeout(d time.Duration) {
	if d > 0 {
		e.timeout = d
	}
}

// Execute runs call. Unknown functions return ErrUnknownTool; any other
// failure is a *CallError.
func (e *Executor) Execute(ctx context.Context, call Call) (*model.ToolResult, error) {
	tool, err := e.registry.Lookup(call.Function)
	if err != nil {
		e.logger.Debug("ignoring call to unknown tool", "function", call.Function)
		return nil, err
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := tool.Executor.Execute(ctx, call)
	if err == nil && result == nil {
		err = errors.New("tool returned no result")
	}
	if err != nil {
		var ce *CallError
		if !errors.As(err, &ce) {
			err = &CallError{Kind: KindFetch, Function: call.Function, Err: err}
		}
	}

	if err != nil {
		e.logger.Warn("tool call failed", "function", call.Function,
			"elapsed", time.Since(start), "error", err)
		return nil, err
	}
	e.logger.Debug("tool call finished", "function", call.Function, "elapsed", time.Since(start))
	return result, nil
}
