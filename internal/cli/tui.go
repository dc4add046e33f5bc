// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/marketchat/internal/config"
	"github.com/jeranaias/marketchat/internal/render"
	"github.com/jeranaias/marketchat/internal/ui/app"
	"github.com/jeranaias/marketchat/internal/ui/styles"
)

// runTUI starts the full-screen chat. Logs always go to the log file here
// because the program owns the terminal.
func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	if !interactive() {
		return &UsageError{Arg: "terminal", Reason: "the chat UI needs a terminal; use 'marketchat ask' when piping"}
	}

	tuiOpts := *opts
	tuiOpts.verbose = false
	rt, err := newRuntime(&tuiOpts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()

	theme := styles.NewTheme()
	renderer, err := render.New(render.Options{
		Style:          rt.cfg.UI.Theme,
		Width:          rt.cfg.UI.WordWrap,
		ShowTimestamps: rt.cfg.UI.ShowTimestamps,
		Theme:          theme,
	})
	if err != nil {
		return err
	}

	model, err := app.New(app.Config{
		Context:  cmd.Context(),
		Streamer: rt.stream,
		Runner:   rt.executor,
		Registry: rt.registry,
		Renderer: renderer,
		Theme:    theme,
		Greeting: rt.cfg.UI.Greeting,
		Endpoint: rt.stream.Endpoint(),
		AgentID:  rt.cfg.Completion.AgentID,
		Logger:   rt.logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	rt.logger.Info("starting TUI", "endpoint", rt.stream.Endpoint())
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	watchConfig(ctx, opts, rt, program)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run UI: %w", err)
	}
	return nil
}

// watchConfig forwards [ui] changes in the config file to the running
// program. A --theme flag pins the theme. Failing to watch is not fatal.
func watchConfig(ctx context.Context, opts *rootOptions, rt *runtime, program *tea.Program) {
	path, err := configPath(opts)
	if err != nil {
		rt.logger.Warn("config watch disabled", "error", err)
		return
	}
	watcher, err := config.NewWatcher(path, rt.logger)
	if err != nil {
		rt.logger.Warn("config watch disabled", "error", err)
		return
	}

	go watcher.Run(ctx, func(cfg *config.Config) {
		theme := cfg.UI.Theme
		if opts.theme != "" {
			theme = opts.theme
		}
		program.Send(app.SettingsMsg{Theme: theme, ShowTimestamps: cfg.UI.ShowTimestamps})
	})
}
