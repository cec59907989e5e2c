package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"uploadcheck/internal/report"
	"uploadcheck/internal/tracker"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		formats  []string
		catalogs []string
		output   string
		risky    bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write report and upload command files for each catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.getLogger()
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			selected, err := report.ParseFormats(formats)
			if err != nil {
				return err
			}
			infos, err := selectCatalogs(cmd, ctx, catalogs)
			if err != nil {
				return err
			}

			opts := report.OptionsFromConfig(cfg)
			if output != "" {
				opts.OutputDir = output
			}
			if cmd.Flags().Changed("allow-risky") {
				opts.AllowRisky = risky
			}
			exporter := report.New(opts, logger)

			out := cmd.OutOrStdout()
			var errs []error
			for _, info := range infos {
				listings, err := st.VerdictsByCatalog(cmd.Context(), info.Name)
				if err != nil {
					return err
				}
				paths, err := exporter.Export(info, listings, selected)
				for _, path := range paths {
					fmt.Fprintf(out, "%s: wrote %s\n", info.Name, path)
				}
				if err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().StringSliceVar(&formats, "format", nil, "Output formats (txt, csv, gg, ua, all); defaults to txt,csv")
	cmd.Flags().StringSliceVar(&catalogs, "catalog", nil, "Catalogs to export (defaults to the enabled catalogs)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (defaults to paths.output_dir)")
	cmd.Flags().BoolVar(&risky, "allow-risky", false, "Include risky files in upload command files")
	return cmd
}

// selectCatalogs resolves explicit catalog names, or the enabled catalogs
// when none are given.
func selectCatalogs(cmd *cobra.Command, ctx *commandContext, names []string) ([]tracker.Info, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	registry, err := tracker.LoadRegistry(cfg)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		names = cfg.Search.EnabledCatalogs
	}
	infos, err := registry.Enabled(names)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No catalogs enabled; set search.enabled_catalogs or pass --catalog")
	}
	return infos, nil
}
