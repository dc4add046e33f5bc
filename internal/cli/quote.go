// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/marketchat/internal/tools"
)

func newQuoteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "quote <ticker>",
		Short:   "Print the daily price chart for a ticker",
		Example: "  marketchat quote AAPL",
		Args:    cobra.ExactArgs(1),
		RunE: withRuntime(opts, func(cmd *cobra.Command, args []string, rt *runtime) error {
			ticker, err := tools.NormalizeTicker(args[0])
			if err != nil {
				return &UsageError{Arg: "ticker", Reason: err.Error()}
			}

			result, err := rt.market.Daily(cmd.Context(), ticker)
			if err != nil {
				return fmt.Errorf("quote %s: %w", ticker, err)
			}

			r, err := rt.renderer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), r.Chart(result))
			return nil
		}),
	}
}
