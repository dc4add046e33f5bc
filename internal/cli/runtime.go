// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/marketchat/internal/chat"
	"github.com/jeranaias/marketchat/internal/config"
	"github.com/jeranaias/marketchat/internal/logging"
	"github.com/jeranaias/marketchat/internal/market"
	"github.com/jeranaias/marketchat/internal/render"
	"github.com/jeranaias/marketchat/internal/stream"
	"github.com/jeranaias/marketchat/internal/tools"
)

// runtime is everything a command needs, built from the configuration.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error

	stream   *stream.Client
	market   *market.Client
	registry *tools.Registry
	executor *tools.Executor
}

// loadConfig reads --config or the default location.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFromPath(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	if opts.theme != "" {
		cfg.UI.Theme = opts.theme
		if err := cfg.Validate(); err != nil {
			return nil, &ConfigError{Err: err}
		}
	}
	return cfg, nil
}

// newRuntime wires the clients. stderr receives logs when verbose is set;
// otherwise they go to the configured log file.
func newRuntime(opts *rootOptions, stderr io.Writer) (*runtime, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	logOpts := logging.Options{Level: cfg.Logging.Level, File: cfg.Logging.File}
	if opts.verbose {
		logOpts.Level, logOpts.Writer = "debug", stderr
	} else if logOpts.File == "" {
		if path, err := config.DefaultLogPath(); err == nil {
			logOpts.File = path
		}
	}
	logger, closeLog, err := logging.New(logOpts)
	if err != nil {
		return nil, err
	}

	streamClient := stream.NewClient(stream.Options{
		BaseURL: cfg.Completion.BaseURL,
		AgentID: cfg.Completion.AgentID,
		APIKey:  cfg.Completion.APIKey,
		Logger:  logger,
	})
	marketClient := market.NewClient(market.Options{
		BaseURL:           cfg.Market.BaseURL,
		APIKey:            cfg.Market.APIKey,
		RequestsPerMinute: cfg.Market.RequestsPerMinute,
		Timeout:           time.Duration(cfg.Market.TimeoutSecs) * time.Second,
		Logger:            logger,
	})
	if !marketClient.HasAPIKey() {
		logger.Warn("no market API key configured; stock lookups will fail",
			"env", config.EnvMarketAPIKey)
	}

	registry := tools.NewRegistry(tools.NewStockTool(marketClient))
	executor := tools.NewExecutor(registry, logger)
	executor.SetTimeout(toolTimeout(cfg))
	logger.Debug("runtime ready",
		"endpoint", streamClient.Endpoint(),
		"agent_mode", streamClient.AgentMode(),
		"tools", len(registry.All()))

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		closeLog: closeLog,
		stream:   streamClient,
		market:   marketClient,
		registry: registry,
		executor: executor,
	}, nil
}

// toolTimeout bounds a whole tool call. It covers the HTTP timeout plus a
// wait of the same length for the rate limiter.
func toolTimeout(cfg *config.Config) time.Duration {
	return 2 * time.Duration(cfg.Market.TimeoutSecs) * time.Second
}

func (rt *runtime) Close() error {
	return rt.closeLog()
}

// renderer builds a renderer for w. Non-terminal writers get plain output.
func (rt *runtime) renderer(w io.Writer) (*render.Renderer, error) {
	style := rt.cfg.UI.Theme
	width := rt.cfg.UI.WordWrap
	if !isTerminal(w) {
		style = render.StyleNoTTY
	} else if width == 0 {
		width = terminalWidth(w)
	}
	return render.New(render.Options{
		Style:          style,
		Width:          width,
		ShowTimestamps: rt.cfg.UI.ShowTimestamps,
	})
}

// newSession creates a headless session reporting to observer.
func (rt *runtime) newSession(observer chat.Observer) *chat.Session {
	return chat.NewSession(chat.SessionConfig{
		Streamer: rt.stream,
		Registry: rt.registry,
		Runner:   rt.executor,
		Observer: observer,
		Logger:   rt.logger,
	})
}

// withRuntime is the RunE wrapper shared by headless commands.
func withRuntime(opts *rootOptions, fn func(cmd *cobra.Command, args []string, rt *runtime) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(opts, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer func() {
			if err := rt.Close(); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "close log:", err)
			}
		}()
		return fn(cmd, args, rt)
	}
}
