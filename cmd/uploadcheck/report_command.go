package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"uploadcheck/internal/safety"
	"uploadcheck/internal/store"
)

type reportEntry struct {
	Catalog string   `json:"catalog"`
	Outcome string   `json:"outcome"`
	Reason  string   `json:"reason"`
	Details []string `json:"details,omitempty"`
	Upgrade bool     `json:"upgrade,omitempty"`
	Title   string   `json:"title"`
	Year    int      `json:"year,omitempty"`
	TMDBID  int64    `json:"tmdb_id,omitempty"`
	Quality string   `json:"quality,omitempty"`
	Path    string   `json:"path"`
}

func newReportCommand(ctx *commandContext) *cobra.Command {
	var (
		catalogs []string
		outcomes []string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show stored verdicts per catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			filter, err := parseOutcomes(outcomes)
			if err != nil {
				return err
			}
			infos, err := selectCatalogs(cmd, ctx, catalogs)
			if err != nil {
				return err
			}

			var entries []reportEntry
			for _, info := range infos {
				listings, err := st.VerdictsByCatalog(cmd.Context(), info.Name, filter...)
				if err != nil {
					return err
				}
				for _, listing := range listings {
					entries = append(entries, newReportEntry(listing))
				}
			}

			if asJSON {
				if entries == nil {
					entries = []reportEntry{}
				}
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No verdicts recorded; run `uploadcheck run` first")
				return nil
			}
			p := newPalette(out)
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				year := ""
				if e.Year > 0 {
					year = strconv.Itoa(e.Year)
				}
				rows = append(rows, []string{e.Catalog, p.outcome(safety.Outcome(e.Outcome)), e.Title, year, e.Quality, e.Reason})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Catalog", "Outcome", "Title", "Year", "Quality", "Reason"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&catalogs, "catalog", nil, "Catalogs to show (defaults to the enabled catalogs)")
	cmd.Flags().StringSliceVar(&outcomes, "outcome", nil, "Only show these outcomes (safe, risky, danger, skip)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newReportEntry(listing store.Listing) reportEntry {
	f := listing.File
	title, year := f.Title, f.Year
	if f.Identity.Matched() {
		title, year = f.Identity.Title, f.Identity.Year
	}
	quality := ""
	if attrs := f.Attributes(); attrs.Complete() {
		quality = attrs.Label()
	}
	return reportEntry{
		Catalog: listing.Verdict.Catalog,
		Outcome: string(listing.Verdict.Outcome),
		Reason:  listing.Verdict.Reason,
		Details: listing.Verdict.Details,
		Upgrade: listing.Verdict.Upgrade,
		Title:   title,
		Year:    year,
		TMDBID:  f.Identity.TMDBID,
		Quality: quality,
		Path:    f.Path,
	}
}

func parseOutcomes(values []string) ([]safety.Outcome, error) {
	var out []safety.Outcome
	for _, value := range values {
		switch o := safety.Outcome(strings.ToLower(strings.TrimSpace(value))); o {
		case safety.OutcomeSafe, safety.OutcomeRisky, safety.OutcomeDanger, safety.OutcomeSkip:
			out = append(out, o)
		case "":
		default:
			return nil, fmt.Errorf("unknown outcome %q", value)
		}
	}
	return out, nil
}
