package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"uploadcheck/internal/checker"
	"uploadcheck/internal/config"
	"uploadcheck/internal/logging"
	"uploadcheck/internal/notifications"
)

type stageCommandSpec struct {
	stage checker.Stage
	short string
}

var stageCommandSpecs = []stageCommandSpec{
	{checker.StageScan, "Scan library directories for movie files"},
	{checker.StageIdentify, "Match scanned files to TMDB movies"},
	{checker.StageInspect, "Read audio, subtitle, runtime, and HDR facts with ffprobe"},
	{checker.StageSearch, "Look up identified movies on each enabled catalog"},
	{checker.StageClassify, "Decide safe, risky, or danger for every file and catalog"},
}

func newStageCommands(ctx *commandContext) []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(stageCommandSpecs))
	for _, spec := range stageCommandSpecs {
		stage := spec.stage
		var force bool
		cmd := &cobra.Command{
			Use:   string(stage),
			Short: spec.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runStages(cmd, ctx, []checker.Stage{stage}, force, false)
			},
		}
		cmd.Flags().BoolVarP(&force, "force", "f", false, "Redo work that is already cached")
		cmds = append(cmds, cmd)
	}
	return cmds
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		force  bool
		stages []string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every stage from scan through classify",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := checker.ParseStages(stages)
			if err != nil {
				return err
			}
			return runStages(cmd, ctx, selected, force, true)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Redo work that is already cached")
	cmd.Flags().StringSliceVar(&stages, "stages", []string{"all"}, "Stages to run (scan, identify, inspect, search, classify, all)")
	return cmd
}

func runStages(cmd *cobra.Command, ctx *commandContext, stages []checker.Stage, force, notify bool) error {
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

	opts := []checker.Option{checker.WithForce(force)}
	progress := newStageProgress(cmd.ErrOrStderr())
	if progress != nil {
		opts = append(opts, checker.WithProgress(progress.update))
	}

	chk, err := checker.New(cfg, st, logger, opts...)
	if err != nil {
		return err
	}
	summary, err := chk.Run(cmd.Context(), stages...)
	progress.finish()
	if summary != nil {
		printSummary(cmd, summary)
	}
	if errors.Is(err, checker.ErrLocked) {
		return fmt.Errorf("another uploadcheck run holds %s", cfg.Paths.LockFile)
	}
	if notify && summary != nil && !errors.Is(err, context.Canceled) {
		sendRunNotification(cmd, cfg, logger, stages, summary, err)
	}
	return err
}

func sendRunNotification(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, stages []checker.Stage, summary *checker.Summary, runErr error) {
	svc := notifications.NewService(cfg)
	ctx := context.WithoutCancel(cmd.Context())

	var err error
	if runErr != nil {
		failed := ""
		if len(summary.Stages) < len(stages) {
			failed = string(stages[len(summary.Stages)])
		}
		err = svc.NotifyRunFailed(ctx, runErr, failed)
	} else {
		result := notifications.RunResult{
			Files:    summary.Processed,
			Errors:   summary.Errors(),
			Duration: summary.Duration,
		}
		for _, name := range summary.CatalogNames() {
			cs := summary.Catalogs[name]
			result.Catalogs = append(result.Catalogs, notifications.CatalogResult{
				Name:     name,
				Safe:     cs.Safe,
				Risky:    cs.Risky,
				Danger:   cs.Danger,
				Disabled: cs.Disabled,
			})
		}
		err = svc.NotifyRunCompleted(ctx, result)
	}
	if err != nil {
		logging.WarnWithContext(logger, "run notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run summary was not delivered"),
		)
	}
}

func printSummary(cmd *cobra.Command, summary *checker.Summary) {
	out := cmd.OutOrStdout()
	ran := make(map[checker.Stage]bool, len(summary.Stages))
	for _, stage := range summary.Stages {
		ran[stage] = true
	}

	if ran[checker.StageScan] {
		s := summary.Scan
		fmt.Fprintf(out, "Scan: %d found, %d added, %d updated, %d unchanged, %d too small, %d banned, %d pruned\n",
			s.Found, s.Added, s.Updated, s.Unchanged, s.TooSmall, s.Banned, s.Pruned)
	}
	if ran[checker.StageIdentify] {
		s := summary.Identify
		fmt.Fprintf(out, "Identify: %d processed, %d matched, %d no match, %d unverifiable, %d banned\n",
			s.Processed, s.Matched, s.NoMatch, s.Unverifiable, s.SkippedBanned)
		for _, m := range s.Fuzzy {
			fmt.Fprintf(out, "  fuzzy %s match: %q -> %q (%d)\n", m.Type, m.FileTitle, m.Title, m.Score)
		}
		for _, m := range s.YearMismatches {
			fmt.Fprintf(out, "  year mismatch: %q file %d, tmdb %d\n", m.FileTitle, m.FileYear, m.Year)
		}
	}
	if ran[checker.StageInspect] {
		s := summary.Inspect
		fmt.Fprintf(out, "Inspect: %d inspected, %d cached\n", s.Inspected, s.Cached)
	}
	if ran[checker.StageClassify] {
		fmt.Fprintf(out, "Classify: %d processed, %d skipped\n", summary.Processed, summary.Skipped)
	}

	names := summary.CatalogNames()
	if len(names) > 0 {
		p := newPalette(out)
		rows := make([][]string, 0, len(names))
		for _, name := range names {
			cs := summary.Catalogs[name]
			status := p.safe.Sprint("ok")
			if cs.Disabled != "" {
				status = p.failed.Sprint(cs.Disabled)
			}
			rows = append(rows, []string{
				name,
				strconv.Itoa(cs.Searched),
				strconv.Itoa(cs.Cached),
				strconv.Itoa(cs.SearchErrors),
				strconv.Itoa(cs.Safe),
				strconv.Itoa(cs.Risky),
				strconv.Itoa(cs.Danger),
				strconv.Itoa(cs.Duplicates),
				strconv.Itoa(cs.Banned),
				status,
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Catalog", "Searched", "Cached", "Errors", "Safe", "Risky", "Danger", "Dupes", "Banned", "Status"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
		))
	}

	if n := summary.Errors(); n > 0 {
		fmt.Fprintf(out, "%d errors; see the log for details\n", n)
	}
	fmt.Fprintf(out, "Run %s finished in %s\n", summary.RunID, summary.Duration.Round(time.Millisecond))
}
