// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/marketchat/internal/chat"
	"github.com/jeranaias/marketchat/internal/config"
	"github.com/jeranaias/marketchat/internal/market"
	"github.com/jeranaias/marketchat/internal/stream"
	"github.com/jeranaias/marketchat/internal/tools"
	"github.com/jeranaias/marketchat/internal/ui/styles"
)

const dailyBody = `{
  "Meta Data": {"2. Symbol": "AAPL", "3. Last Refreshed": "2024-01-04"},
  "Time Series (Daily)": {
    "2024-01-02": {"1. open": "187.15", "2. high": "188.44", "3. low": "183.89", "4. close": "185.64", "5. volume": "82488674"},
    "2024-01-03": {"1. open": "184.22", "2. high": "185.88", "3. low": "183.43", "4. close": "184.25", "5. volume": "58414460"},
    "2024-01-04": {"1. open": "182.15", "2. high": "183.09", "3. low": "180.88", "4. close": "181.91", "5. volume": "71983570"}
  }
}`

const testMarketKey = "ABCDEFGHIJKL"

// =============================================================================
// HELPERS
// =============================================================================

func sseServer(t *testing.T, events ...stream.Event) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		for _, ev := range events {
			if err := stream.Encode(w, ev); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func marketServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != "AAPL" {
			fmt.Fprint(w, `{"Error Message": "Invalid API call."}`)
			return
		}
		fmt.Fprint(w, dailyBody)
	}))
	t.Cleanup(server.Close)
	return server
}

// testEnv isolates the commands from the user's config and points them at
// the given servers. It returns the --config path.
func testEnv(t *testing.T, completionURL, marketURL string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv(config.EnvCompletionURL, completionURL)
	t.Setenv(config.EnvAgentID, "")
	t.Setenv(config.EnvAPIKey, "")
	t.Setenv(config.EnvMarketURL, marketURL)
	t.Setenv(config.EnvMarketAPIKey, testMarketKey)
	t.Setenv(config.EnvLogLevel, "")
	t.Setenv(config.EnvLogFile, filepath.Join(dir, "marketchat.log"))
	t.Setenv(config.EnvGreeting, "Hi!")
	return filepath.Join(dir, "config.toml")
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func stockCall(ticker string) stream.Event {
	return stream.Event{
		Type: stream.FunctionCallEvent,
		Data: fmt.Sprintf(`{"function":%q,"args":{"ticker":%q}}`, tools.StockToolName, ticker),
	}
}

// =============================================================================
// ASK
// =============================================================================

func TestAsk_PipedWritesTextThenChart(t *testing.T) {
	completion := sseServer(t,
		stream.Event{Data: "AAPL closed "},
		stream.Event{Data: "lower."},
		stockCall("AAPL"),
		stream.Event{Data: stream.Sentinel},
	)
	cfgPath := testEnv(t, completion.URL, marketServer(t).URL)

	out, errOut, err := execute(t, "--config", cfgPath, "ask", "How", "is", "AAPL?")
	require.NoError(t, err)
	assert.Empty(t, errOut)

	assert.Contains(t, out, "AAPL closed lower.\n")
	assert.Contains(t, out, "-2.34 (-1.27%)")
	assert.Less(t, bytes.Index([]byte(out), []byte("lower.")), bytes.Index([]byte(out), []byte("-2.34")))
}

func TestAsk_ToolFailureIsAWarning(t *testing.T) {
	completion := sseServer(t,
		stream.Event{Data: "Looking it up."},
		stockCall("ZZZZ"),
		stream.Event{Data: stream.Sentinel},
	)
	cfgPath := testEnv(t, completion.URL, marketServer(t).URL)

	out, errOut, err := execute(t, "--config", cfgPath, "ask", "ZZZZ?")
	require.NoError(t, err)
	assert.Contains(t, out, "Looking it up.")
	assert.Contains(t, errOut, "warning:")
}

func TestAsk_ServerErrorExitCode(t *testing.T) {
	completion := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer completion.Close()
	cfgPath := testEnv(t, completion.URL, marketServer(t).URL)

	_, _, err := execute(t, "--config", cfgPath, "ask", "hello")
	require.Error(t, err)
	assert.Equal(t, ExitNetworkError, ExitCode(err))
	assert.Contains(t, FormatError(err), "Hint:")
}

func TestAsk_RequiresQuestion(t *testing.T) {
	_, _, err := execute(t, "ask")
	assert.Error(t, err)
}

// =============================================================================
// QUOTE
// =============================================================================

func TestQuote(t *testing.T) {
	cfgPath := testEnv(t, "http://127.0.0.1:1", marketServer(t).URL)

	out, _, err := execute(t, "--config", cfgPath, "quote", "aapl")
	require.NoError(t, err)
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "181.91")
	assert.Contains(t, out, "-2.34 (-1.27%)")
}

func TestQuote_Errors(t *testing.T) {
	cfgPath := testEnv(t, "http://127.0.0.1:1", marketServer(t).URL)

	_, _, err := execute(t, "--config", cfgPath, "quote", "no way")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))

	_, _, err = execute(t, "--config", cfgPath, "quote", "MSFT")
	require.Error(t, err)
	assert.ErrorIs(t, err, market.ErrSymbolNotFound)
	assert.Equal(t, ExitNotFound, ExitCode(err))
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfig_ShowMasksSecrets(t *testing.T) {
	cfgPath := testEnv(t, "http://localhost:3000", "https://www.alphavantage.co")

	out, _, err := execute(t, "--config", cfgPath, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "********IJKL")
	assert.NotContains(t, out, testMarketKey)
	assert.Contains(t, out, "http://localhost:3000")
}

func TestConfig_Get(t *testing.T) {
	cfgPath := testEnv(t, "http://localhost:3000", "https://www.alphavantage.co")

	out, _, err := execute(t, "--config", cfgPath, "config", "get", "market.api_key")
	require.NoError(t, err)
	assert.Equal(t, "********IJKL\n", out)

	out, _, err = execute(t, "--config", cfgPath, "config", "get", "ui.greeting")
	require.NoError(t, err)
	assert.Equal(t, "Hi!\n", out)

	_, _, err = execute(t, "--config", cfgPath, "config", "get", "nope.nothing")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

func TestConfig_PathAndInit(t *testing.T) {
	cfgPath := testEnv(t, "http://localhost:3000", "https://www.alphavantage.co")

	out, _, err := execute(t, "--config", cfgPath, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, cfgPath+"\n", out)

	_, _, err = execute(t, "--config", cfgPath, "config", "init")
	require.NoError(t, err)
	_, err = os.Stat(cfgPath)
	require.NoError(t, err)

	_, _, err = execute(t, "--config", cfgPath, "config", "init")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))

	_, _, err = execute(t, "--config", cfgPath, "config", "init", "--force")
	assert.NoError(t, err)
}

func TestConfig_InvalidThemeFlag(t *testing.T) {
	cfgPath := testEnv(t, "http://localhost:3000", "https://www.alphavantage.co")

	_, _, err := execute(t, "--config", cfgPath, "--theme", "neon", "config")
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, ExitCode(err))
}

// =============================================================================
// CHAT LOOP
// =============================================================================

type fakeLines struct {
	inputs  []string
	history []string
}

func (f *fakeLines) Prompt(string) (string, error) {
	if len(f.inputs) == 0 {
		return "", io.EOF
	}
	in := f.inputs[0]
	f.inputs = f.inputs[1:]
	return in, nil
}

func (f *fakeLines) AppendHistory(item string) {
	f.history = append(f.history, item)
}

func TestRunChat(t *testing.T) {
	completion := sseServer(t,
		stream.Event{Data: "Markets are open."},
		stream.Event{Data: stream.Sentinel},
	)
	cfgPath := testEnv(t, completion.URL, marketServer(t).URL)

	rt, err := newRuntime(&rootOptions{configPath: cfgPath}, io.Discard)
	require.NoError(t, err)
	defer rt.Close()

	lines := &fakeLines{inputs: []string{"   ", "what's up?", "quit", "never read"}}
	var out, errOut bytes.Buffer
	err = runChat(context.Background(), rt, lines, &out, &errOut)
	require.NoError(t, err)

	assert.Equal(t, []string{"what's up?"}, lines.history)
	assert.Contains(t, out.String(), "Hi!\n")
	assert.Contains(t, out.String(), "Markets are open.")
	assert.Equal(t, []string{"never read"}, lines.inputs)
	assert.Empty(t, errOut.String())
}

func TestRunChat_ErrorKeepsLooping(t *testing.T) {
	completion := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer completion.Close()
	cfgPath := testEnv(t, completion.URL, marketServer(t).URL)

	rt, err := newRuntime(&rootOptions{configPath: cfgPath}, io.Discard)
	require.NoError(t, err)
	defer rt.Close()

	lines := &fakeLines{inputs: []string{"one", "two"}}
	var out, errOut bytes.Buffer
	require.NoError(t, runChat(context.Background(), rt, lines, &out, &errOut))

	assert.Equal(t, []string{"one", "two"}, lines.history)
	assert.Equal(t, 2, bytes.Count(errOut.Bytes(), []byte("Error:")))
}

func TestIsExitCommand(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"exit", true},
		{"QUIT", true},
		{"  /exit ", true},
		{"/quit", true},
		{"exit now", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, isExitCommand(tt.input))
		})
	}
}

// =============================================================================
// ERRORS
// =============================================================================

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"canceled", fmt.Errorf("submit: %w", context.Canceled), ExitInterrupted},
		{"deadline", context.DeadlineExceeded, ExitTimeout},
		{"config", &ConfigError{Err: errors.New("bad")}, ExitConfigError},
		{"validation", config.ValidateErrors{{Field: "market.requests_per_minute", Message: "must be positive"}}, ExitConfigError},
		{"usage", &UsageError{Arg: "ticker", Reason: "empty"}, ExitUsageError},
		{"empty prompt", chat.ErrEmptyPrompt, ExitUsageError},
		{"not found", fmt.Errorf("quote: %w", market.ErrSymbolNotFound), ExitNotFound},
		{"no series", market.ErrNoSeries, ExitNotFound},
		{"rate limited", market.ErrRateLimited, ExitNetworkError},
		{"status", &stream.StatusError{Status: 500}, ExitNetworkError},
		{"stream", &stream.StreamError{Partial: "half", Err: io.ErrUnexpectedEOF}, ExitNetworkError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestFormatError(t *testing.T) {
	assert.Equal(t, "Error: boom", FormatError(errors.New("boom")))
	assert.Contains(t, FormatError(&stream.StatusError{Status: 401}), config.EnvAPIKey)
	assert.Contains(t, FormatError(market.ErrRateLimited), "wait a minute")
	assert.Contains(t, FormatError(errors.New("dial tcp: connection refused")), config.EnvCompletionURL)
}

// =============================================================================
// TERMINAL
// =============================================================================

func TestTerminalDetection_Buffer(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, isTerminal(&buf))
	assert.Equal(t, DefaultTerminalWidth, terminalWidth(&buf))
}

func TestColorsEnabled(t *testing.T) {
	var buf bytes.Buffer

	t.Setenv("NO_COLOR", "")
	t.Setenv("FORCE_COLOR", "")
	assert.False(t, colorsEnabled(&buf))

	t.Setenv("FORCE_COLOR", "1")
	assert.True(t, colorsEnabled(&buf))

	t.Setenv("NO_COLOR", "1")
	assert.False(t, colorsEnabled(&buf))
	assert.Equal(t, termenv.Ascii, colorProfile(&buf))
}

func TestStyledMessages(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("boom")

	t.Setenv("NO_COLOR", "")
	t.Setenv("FORCE_COLOR", "")
	assert.Equal(t, "warning: boom", warningText(&buf, boom))
	assert.Equal(t, "Error: boom", errorText(&buf, "Error: boom"))
	assert.Equal(t, "wrote x", successText(&buf, "wrote x"))

	t.Setenv("FORCE_COLOR", "1")
	assert.Contains(t, warningText(&buf, boom), styles.StatusIndicators.Warning)
	assert.Contains(t, warningText(&buf, boom), "warning: boom")
	assert.Contains(t, errorText(&buf, "Error: boom"), styles.StatusIndicators.Error)
	assert.Contains(t, successText(&buf, "wrote x"), styles.StatusIndicators.Success)
}

func TestToolTimeout(t *testing.T) {
	cfg := config.Default()
	cfg.Market.TimeoutSecs = 15
	assert.Equal(t, 30*time.Second, toolTimeout(cfg))
}
