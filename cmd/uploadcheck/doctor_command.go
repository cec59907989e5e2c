package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"uploadcheck/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, API keys, and external tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			p := newPalette(out)

			failed := false
			var rows [][]string
			results := preflight.RunAll(cmd.Context(), cfg)
			for _, r := range results {
				rows = append(rows, []string{r.Name, p.status(r.Passed, r.Optional), r.Detail})
			}
			failed = preflight.Failed(results)

			for _, dep := range preflight.CheckSystemDeps(cfg) {
				detail := dep.Detail
				if dep.Description != "" {
					detail = fmt.Sprintf("%s (%s)", detail, dep.Description)
				}
				rows = append(rows, []string{dep.Name, p.status(dep.Available, dep.Optional), detail})
				if !dep.Available && !dep.Optional {
					failed = true
				}
			}

			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
			if failed {
				return errors.New("doctor found problems")
			}
			fmt.Fprintln(out, "All required checks passed")
			return nil
		},
	}
}
