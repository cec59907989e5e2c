package checker

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"uploadcheck/internal/logging"
	"uploadcheck/internal/release"
	"uploadcheck/internal/services"
	"uploadcheck/internal/store"
)

// inspectMedia probes identified files that have no media facts yet. Probes
// run concurrently, bounded by scan.workers.
func (c *Checker) inspectMedia(ctx context.Context, summary *Summary) error {
	files, err := c.store.ListFiles(ctx)
	if err != nil {
		return err
	}
	var pending []*store.File
	for _, f := range files {
		if f.Banned || !f.Identity.Matched() {
			continue
		}
		if f.Media != nil && !c.force {
			summary.Inspect.Cached++
			continue
		}
		pending = append(pending, f)
	}
	if len(pending) == 0 {
		return nil
	}

	workers := max(c.cfg.Scan.Workers, 1)
	binary := c.cfg.FFprobeBinary()
	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, f := range pending {
		g.Go(func() error {
			err := c.inspectFile(gctx, binary, f)
			mu.Lock()
			done++
			if err == nil {
				summary.Inspect.Inspected++
			} else if !errors.Is(err, context.Canceled) {
				summary.Inspect.Errors++
			}
			n := done
			mu.Unlock()
			c.report(StageInspect, n, len(pending))
			if errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	c.logger.Info("inspect complete",
		logging.Int("inspected", summary.Inspect.Inspected),
		logging.Int("cached", summary.Inspect.Cached),
		logging.Int("errors", summary.Inspect.Errors),
	)
	return nil
}

func (c *Checker) inspectFile(ctx context.Context, binary string, f *store.File) error {
	fileCtx := services.WithFile(ctx, f.Path)
	logger := logging.WithContext(fileCtx, c.logger)

	result, err := c.inspect(fileCtx, binary, f.Path)
	if err == nil {
		media := store.Media{
			AudioLanguages:    result.AudioLanguages(),
			SubtitleLanguages: result.SubtitleLanguages(),
			RuntimeMinutes:    result.RuntimeMinutes(),
			HDR:               release.DetectHDR(result.HDRBlob()).String(),
		}
		err = c.store.UpdateMedia(ctx, f.ID, media)
		if err == nil {
			logger.Debug("media inspected",
				logging.Int("audio_tracks", result.AudioStreamCount()),
				logging.String("hdr", media.HDR),
				logging.Int("runtime_minutes", media.RuntimeMinutes),
			)
			return nil
		}
	}
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return context.Canceled
	}
	c.metrics.errors.WithLabelValues(string(StageInspect), services.ErrorKind(err)).Inc()
	logging.WarnWithContext(logger, "media inspection failed", "inspect_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check that ffprobe is installed and the file is readable"),
		logging.String(logging.FieldImpact, "language check skipped for this file"),
	)
	return err
}
