package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"uploadcheck/internal/store"
)

func newResetCommand(ctx *commandContext) *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear stored verdicts, cached searches, or everything",
		Long: "Clear stored state so the next run recomputes it.\n\n" +
			"  verdicts  drop classifications only\n" +
			"  searches  also drop cached catalog lookups\n" +
			"  all       empty the database, including scanned files and matches",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			target := store.ResetScope(strings.ToLower(strings.TrimSpace(scope)))
			removed, err := st.Reset(cmd.Context(), target)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %s: removed %d rows\n", target, removed)
			return nil
		},
	}
	cmd.Flags().StringVar(&scope, "scope", string(store.ResetVerdicts), "What to clear (verdicts, searches, all)")
	return cmd
}
