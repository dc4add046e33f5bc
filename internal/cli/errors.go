// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error classification and exit codes for marketchat commands.
//
// Commands always return errors; Execute decides how to print them and
// which exit code to use.

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/marketchat/internal/chat"
	"github.com/jeranaias/marketchat/internal/config"
	"github.com/jeranaias/marketchat/internal/market"
	"github.com/jeranaias/marketchat/internal/stream"
	"github.com/jeranaias/marketchat/internal/tools"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitNetworkError = 5
	ExitNotFound     = 7
	ExitTimeout      = 8
	ExitInterrupted  = 130
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ConfigError wraps a failure to load or validate configuration.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// UsageError is a bad argument the user can fix.
type UsageError struct {
	Arg    string
	Reason string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Arg, e.Reason)
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	var (
		cfgErr    *ConfigError
		usageErr  *UsageError
		statusErr *stream.StatusError
		verrs     config.ValidateErrors
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeout
	case errors.As(err, &cfgErr), errors.As(err, &verrs):
		return ExitConfigError
	case errors.As(err, &usageErr), errors.Is(err, chat.ErrEmptyPrompt), tools.IsMalformed(err):
		return ExitUsageError
	case errors.Is(err, market.ErrSymbolNotFound), errors.Is(err, market.ErrNoSeries):
		return ExitNotFound
	case errors.As(err, &statusErr), errors.Is(err, market.ErrRateLimited):
		return ExitNetworkError
	default:
		var streamErr *stream.StreamError
		if errors.As(err, &streamErr) {
			return ExitNetworkError
		}
		return ExitGeneralError
	}
}

// FormatError renders err for stderr with a hint where one helps.
func FormatError(err error) string {
	msg := "Error: " + err.Error()
	var statusErr *stream.StatusError
	switch {
	case errors.As(err, &statusErr) && (statusErr.Status == 401 || statusErr.Status == 403):
		msg += "\nHint: check " + config.EnvAPIKey + " or [completion] api_key."
	case errors.Is(err, market.ErrRateLimited):
		msg += "\nHint: the market data provider limits free keys; wait a minute and retry."
	case strings.Contains(err.Error(), "connection refused"):
		msg += "\nHint: is the completion service running? Set " + config.EnvCompletionURL + " to change it."
	}
	return msg
}
