package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"uploadcheck/internal/config"
	"uploadcheck/internal/logging"
	"uploadcheck/internal/services"
	"uploadcheck/internal/store"
)

// Directory names that hold TV seasons ("S01", "Season 2", "season-03").
var seasonDirPattern = regexp.MustCompile(`(?i)(?:^|[\W_])(?:s(?:eason)?\s?\d{1,2}|season[-_\s]?\d{1,2})(?:$|[\W_])`)

// Result counts what one scan did.
type Result struct {
	Found     int
	Added     int
	Updated   int
	Unchanged int
	TooSmall  int
	Banned    int
	Pruned    int64
	Errors    int
}

// Scanner records movie files from the configured directories in the store.
type Scanner struct {
	store      *store.Store
	logger     *slog.Logger
	roots      []string
	extensions []string
	minSize    int64
	workers    int
	rules      Rules
}

// New builds a Scanner from the scan section of cfg.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger) *Scanner {
	workers := cfg.Scan.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Scanner{
		store:      st,
		logger:     logging.NewComponentLogger(logger, "scanner"),
		roots:      cfg.Scan.Directories,
		extensions: cfg.Scan.Extensions,
		minSize:    cfg.Scan.MinFileSizeMB * 1024 * 1024,
		workers:    workers,
		rules:      RulesFromConfig(cfg),
	}
}

type tally struct {
	mu      sync.Mutex
	result  Result
	present map[string]struct{}
}

func (t *tally) add(fn func(r *Result)) {
	t.mu.Lock()
	fn(&t.result)
	t.mu.Unlock()
}

func (t *tally) keep(path string) {
	t.mu.Lock()
	t.present[path] = struct{}{}
	t.mu.Unlock()
}

// Scan walks every root concurrently. Files whose fingerprint is unchanged
// keep their stored state unless force is set, in which case they are
// re-parsed and re-screened. Stored files that disappeared from the roots
// are pruned. A failure on one file is logged and counted; only a missing
// root or cancellation aborts the scan.
func (s *Scanner) Scan(ctx context.Context, force bool) (Result, error) {
	if len(s.roots) == 0 {
		return Result{}, services.Wrap(services.ErrConfiguration, "scan", "roots", "no scan directories configured", nil)
	}
	for _, root := range s.roots {
		info, err := os.Stat(root)
		if err != nil {
			return Result{}, services.Wrap(services.ErrConfiguration, "scan", "roots", fmt.Sprintf("directory %s is not accessible", root), err)
		}
		if !info.IsDir() {
			return Result{}, services.Wrap(services.ErrConfiguration, "scan", "roots", fmt.Sprintf("%s is not a directory", root), nil)
		}
	}

	acc := &tally{present: make(map[string]struct{})}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, root := range s.roots {
		g.Go(func() error {
			return s.walk(gctx, root, force, acc)
		})
	}
	if err := g.Wait(); err != nil {
		return acc.result, err
	}

	pruned, err := s.store.Prune(ctx, s.roots, acc.present)
	if err != nil {
		return acc.result, fmt.Errorf("prune: %w", err)
	}
	acc.result.Pruned = pruned

	r := acc.result
	s.logger.Info("scan complete",
		logging.Int("found", r.Found),
		logging.Int("added", r.Added),
		logging.Int("updated", r.Updated),
		logging.Int("unchanged", r.Unchanged),
		logging.Int("banned", r.Banned),
		logging.Int64("pruned", r.Pruned),
		logging.Int("errors", r.Errors),
	)
	return r, nil
}

func (s *Scanner) walk(ctx context.Context, root string, force bool, acc *tally) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			logging.WarnWithContext(s.logger, "cannot read path", "scan_access",
				logging.String(logging.FieldFile, path),
				logging.Error(walkErr),
				logging.String(logging.FieldErrorHint, "check permissions on the scan directory"),
				logging.String(logging.FieldImpact, "files below this path are skipped"),
			)
			acc.add(func(r *Result) { r.Errors++ })
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && seasonDirPattern.MatchString(d.Name()) {
				s.logger.Debug("skipping season directory", logging.String(logging.FieldFile, path))
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !s.wantExtension(path) {
			return nil
		}
		if err := s.visit(ctx, path, d, force, acc); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			logging.WarnWithContext(s.logger, "failed to record file", "scan_file",
				logging.String(logging.FieldFile, path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file is left out of this run"),
			)
			acc.add(func(r *Result) { r.Errors++ })
		}
		return nil
	})
}

func (s *Scanner) visit(ctx context.Context, path string, d fs.DirEntry, force bool, acc *tally) error {
	info, err := d.Info()
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	if info.Size() < s.minSize {
		acc.add(func(r *Result) { r.TooSmall++ })
		return nil
	}
	acc.keep(path)
	acc.add(func(r *Result) { r.Found++ })

	existing, err := s.store.FileByPath(ctx, path)
	if err != nil {
		return err
	}
	if !force && existing.Fingerprint(info.Size(), info.ModTime()) {
		acc.add(func(r *Result) { r.Unchanged++ })
		return nil
	}

	parsed := ParseFilename(path)
	banned, reason := s.rules.Screen(parsed)
	file := &store.File{
		Path:       path,
		SizeBytes:  info.Size(),
		ModTime:    info.ModTime(),
		Title:      parsed.Title,
		Year:       parsed.Year,
		Quality:    parsed.Quality,
		Resolution: parsed.Resolution,
		Codec:      parsed.Codec,
		Group:      parsed.Group,
		Banned:     banned,
		BanReason:  reason,
	}
	if _, err := s.store.UpsertFile(ctx, file); err != nil {
		return err
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldFile, path),
		logging.String("title", parsed.Title),
		logging.Int("year", parsed.Year),
		logging.String("quality", parsed.Quality),
		logging.String("resolution", parsed.Resolution),
	}
	if banned {
		attrs = append(attrs, logging.String("ban_reason", reason))
	}
	s.logger.Debug("file recorded", logging.Args(attrs...)...)

	acc.add(func(r *Result) {
		if existing == nil {
			r.Added++
		} else {
			r.Updated++
		}
		if banned {
			r.Banned++
		}
	})
	return nil
}

func (s *Scanner) wantExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext != "" && slices.Contains(s.extensions, ext)
}
