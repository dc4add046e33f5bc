// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Configuration constants for the completion endpoint.
const (
	// DefaultBaseURL is the completion server used when none is configured.
	DefaultBaseURL = "http://localhost:3000"

	// maxErrorBody caps how much of a failed response is kept.
	maxErrorBody = 4 * 1024

	// eventBuffer is the channel depth used by Events.
	eventBuffer = 64
)

// streamingHTTPClient has no timeout; a stream lasts as long as the server
// keeps it open and is bounded only by its context.
var streamingHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	},
}

// =============================================================================
// ERRORS
// =============================================================================

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("completion server returned %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("completion server returned %d", e.Status)
}

// StreamError represents an error that occurred during streaming,
// preserving any partial content received before the error.
type StreamError struct {
	Partial string // Content received before error
	Err     error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// =============================================================================
// CLIENT
// =============================================================================

// Handler is called for every event in arrival order. Returning an error
// stops the stream.
type Handler func(Event) error

// Options configures a Client.
type Options struct {
	// BaseURL is the completion server root.
	BaseURL string
	// AgentID switches to the agent invoke endpoint when set.
	AgentID string
	// APIKey is sent as a bearer token in agent mode.
	APIKey string
	// HTTPClient overrides the shared streaming client.
	HTTPClient *http.Client
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client streams completions from the server.
type Client struct {
	baseURL    string
	agentID    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a streaming client.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(opts.BaseURL), "/"),
		agentID:    strings.TrimSpace(opts.AgentID),
		apiKey:     strings.TrimSpace(opts.APIKey),
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = streamingHTTPClient
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// AgentMode reports whether requests go to the agent invoke endpoint.
func (c *Client) AgentMode() bool {
	return c.agentID != ""
}

// Endpoint returns the URL prompts are posted to.
func (c *Client) Endpoint() string {
	if c.AgentMode() {
		return c.baseURL + "/api/v1/agents/" + url.PathEscape(c.agentID) + "/invoke"
	}
	return c.baseURL + "/completion"
}

type completionRequest struct {
	Message string `json:"message"`
}

type agentRequest struct {
	Input           string `json:"input"`
	EnableStreaming bool   `json:"enableStreaming"`
}

func (c *Client) newRequest(ctx context.Context, prompt string) (*http.Request, error) {
	var payload any = completionRequest{Message: prompt}
	if c.AgentMode() {
		payload = agentRequest{Input: prompt, EnableStreaming: true}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if c.AgentMode() && c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

// Stream posts prompt and calls fn for each event until the sentinel,
// the end of the body, an error from fn, or cancellation of ctx.
// The sentinel event is passed to fn before Stream returns.
func (c *Client) Stream(ctx context.Context, prompt string, fn Handler) error {
	req, err := c.newRequest(ctx, prompt)
	if err != nil {
		return err
	}

	c.logger.Debug("opening stream", "endpoint", req.URL.Path, "agent", c.AgentMode())
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	reader := NewReader(resp.Body)
	count := 0
	for {
		ev, err := reader.ReadEvent()
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.logger.Debug("stream closed by server", "events", count, "elapsed", time.Since(start))
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("read event: %w", err)
		}
		count++

		if err := fn(ev); err != nil {
			return err
		}
		if ev.IsEnd() {
			c.logger.Debug("stream finished", "events", count, "elapsed", time.Since(start))
			return nil
		}
	}
}

// Events runs Stream in a goroutine and delivers its events on a channel.
// The event channel is closed when the stream ends; the error channel then
// yields at most one error and is closed.
func (c *Client) Events(ctx context.Context, prompt string) (<-chan Event, <-chan error) {
	events := make(chan Event, eventBuffer)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(events)

		err := c.Stream(ctx, prompt, func(ev Event) error {
			select {
			case events <- ev:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errs <- err
		}
	}()

	return events, errs
}
