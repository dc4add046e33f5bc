// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/marketchat/internal/chat"
	"github.com/jeranaias/marketchat/internal/model"
)

func newAskCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a single question and print the answer",
		Long: `Ask streams one answer to stdout. On a terminal the answer is rendered
as markdown once complete; when piped, text is written as it arrives.
Charts for looked-up tickers follow the answer.`,
		Example: `  marketchat ask "How did AAPL close this week?"
  marketchat ask "Compare MSFT and NVDA" | less`,
		Args: cobra.MinimumNArgs(1),
		RunE: withRuntime(opts, func(cmd *cobra.Command, args []string, rt *runtime) error {
			return runAsk(cmd, rt, strings.Join(args, " "))
		}),
	}
}

func runAsk(cmd *cobra.Command, rt *runtime, prompt string) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	tty := isTerminal(out)

	r, err := rt.renderer(out)
	if err != nil {
		return err
	}

	var (
		text   strings.Builder
		charts []*model.ToolResult
	)
	session := rt.newSession(chat.ObserverFuncs{
		Text: func(delta string) {
			if tty {
				text.WriteString(delta)
				return
			}
			fmt.Fprint(out, delta)
		},
		ToolResult: func(msg model.Message) {
			charts = append(charts, msg.Result)
		},
		Error: func(err error) {
			fmt.Fprintln(errOut, warningText(errOut, err))
		},
	})

	submitErr := session.Submit(cmd.Context(), prompt)

	if tty {
		fmt.Fprintln(out, r.Markdown(text.String()))
	} else {
		fmt.Fprintln(out)
	}
	for _, result := range charts {
		fmt.Fprintln(out, r.Chart(result))
	}

	stats := session.Stats()
	rt.logger.Info("ask finished",
		"deltas", stats.Deltas,
		"tool_calls", stats.ToolCalls,
		"elapsed", stats.Elapsed)
	return submitErr
}
