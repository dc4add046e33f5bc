// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/marketchat/internal/chat"
	"github.com/jeranaias/marketchat/internal/model"
)

func newChatCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Line-mode chat without the full-screen UI",
		Long: `Chat reads prompts line by line. Arrow keys walk this session's history.
Type "exit" or "quit", or press Ctrl+D, to leave.`,
		Args: cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, _ []string, rt *runtime) error {
			line := liner.NewLiner()
			defer line.Close()
			line.SetCtrlCAborts(true)
			return runChat(cmd.Context(), rt, line, cmd.OutOrStdout(), cmd.ErrOrStderr())
		}),
	}
}

// lineReader is the part of liner.State the loop uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// isExitCommand reports whether input ends the chat.
func isExitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit", "/exit", "/quit":
		return true
	}
	return false
}

func runChat(ctx context.Context, rt *runtime, line lineReader, out, errOut io.Writer) error {
	r, err := rt.renderer(out)
	if err != nil {
		return err
	}

	session := rt.newSession(chat.ObserverFuncs{
		Text: func(delta string) {
			fmt.Fprint(out, delta)
		},
		ToolResult: func(msg model.Message) {
			fmt.Fprintln(out)
			fmt.Fprintln(out, r.Chart(msg.Result))
		},
		Error: func(err error) {
			fmt.Fprintf(errOut, "\n%s\n", warningText(errOut, err))
		},
	})

	chat.SeedGreeting(session.Transcript(), rt.cfg.UI.Greeting)
	if greeting, ok := session.Transcript().LastAssistant(); ok {
		fmt.Fprintln(out, greeting.Text)
	}

	for {
		input, err := line.Prompt("> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return err
		}
		if isExitCommand(input) {
			return nil
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		if err := session.Submit(ctx, input); err != nil {
			fmt.Fprintln(errOut, "\n"+errorText(errOut, FormatError(err)))
			if errors.Is(err, context.Canceled) {
				return err
			}
			continue
		}
		fmt.Fprintln(out)
	}
}

