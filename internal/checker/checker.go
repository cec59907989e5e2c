package checker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"uploadcheck/internal/config"
	"uploadcheck/internal/identity"
	"uploadcheck/internal/logging"
	"uploadcheck/internal/media/ffprobe"
	"uploadcheck/internal/services"
	"uploadcheck/internal/store"
	"uploadcheck/internal/tmdb"
	"uploadcheck/internal/tracker"
	"uploadcheck/internal/upgrade"
)

// Stage names one pipeline step.
type Stage string

const (
	StageScan     Stage = "scan"
	StageIdentify Stage = "identify"
	StageInspect  Stage = "inspect"
	StageSearch   Stage = "search"
	StageClassify Stage = "classify"
)

// AllStages lists every stage in execution order.
var AllStages = []Stage{StageScan, StageIdentify, StageInspect, StageSearch, StageClassify}

// ParseStages validates stage names and returns them in execution order.
// "all" selects every stage.
func ParseStages(names []string) ([]Stage, error) {
	want := make(map[Stage]bool, len(names))
	for _, name := range names {
		stage := Stage(strings.ToLower(strings.TrimSpace(name)))
		if stage == "all" {
			return slices.Clone(AllStages), nil
		}
		if !slices.Contains(AllStages, stage) {
			return nil, fmt.Errorf("unknown stage %q", name)
		}
		want[stage] = true
	}
	var out []Stage
	for _, stage := range AllStages {
		if want[stage] {
			out = append(out, stage)
		}
	}
	return out, nil
}

// ErrLocked is returned when another run holds the lock file.
var ErrLocked = errors.New("another uploadcheck run is in progress")

// InspectFunc probes one media file.
type InspectFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// ProgressFunc receives per-stage progress. It may be called from several
// goroutines.
type ProgressFunc func(stage Stage, done, total int)

// Option configures a Checker.
type Option func(*Checker)

// WithSearcher replaces the TMDB client built from configuration.
func WithSearcher(searcher tmdb.Searcher) Option {
	return func(c *Checker) { c.searcher = searcher }
}

// WithInspector replaces ffprobe.
func WithInspector(fn InspectFunc) Option {
	return func(c *Checker) {
		if fn != nil {
			c.inspect = fn
		}
	}
}

// WithHTTPClient sets the client used for catalog requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Checker) { c.httpClient = client }
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Checker) { c.progress = fn }
}

// WithForce re-processes files that already have results for a stage.
func WithForce(force bool) Option {
	return func(c *Checker) { c.force = force }
}

// Checker drives the pipeline stages against one store.
type Checker struct {
	cfg        *config.Config
	store      *store.Store
	logger     *slog.Logger
	registry   *tracker.Registry
	identity   identity.Policy
	upgrade    upgrade.Policy
	searcher   tmdb.Searcher
	inspect    InspectFunc
	httpClient *http.Client
	progress   ProgressFunc
	force      bool
	metrics    *Metrics

	progressMu sync.Mutex
}

// New builds a Checker. The catalog registry is loaded eagerly so a bad
// catalog override fails before any stage runs.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, opts ...Option) (*Checker, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "checker", "init", "config required", nil)
	}
	if st == nil {
		return nil, services.Wrap(services.ErrConfiguration, "checker", "init", "store required", nil)
	}
	registry, err := tracker.LoadRegistry(cfg)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "checker", "init", "load catalog registry", err)
	}
	c := &Checker{
		cfg:      cfg,
		store:    st,
		logger:   logging.NewComponentLogger(logger, "checker"),
		registry: registry,
		identity: identity.Policy{
			Threshold:    cfg.Identification.FuzzyThreshold,
			MinVotes:     cfg.Identification.MinVoteCount,
			RuntimeDelta: cfg.Identification.RuntimeDeltaMinutes,
		},
		upgrade: upgrade.NewPolicy(cfg.Classification.HQWebRipGroups),
		inspect: ffprobe.Inspect,
		metrics: NewMetrics(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Registry exposes the merged catalog registry.
func (c *Checker) Registry() *tracker.Registry { return c.registry }

// Metrics exposes the run metrics.
func (c *Checker) Metrics() *Metrics { return c.metrics }

// Run executes stages in pipeline order under the run lock. The summary is
// returned even when a stage fails so callers can report partial progress.
func (c *Checker) Run(ctx context.Context, stages ...Stage) (*Summary, error) {
	if len(stages) == 0 {
		stages = AllStages
	}
	ordered, err := ParseStages(stageNames(stages))
	if err != nil {
		return nil, err
	}

	if err := c.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	lock := flock.New(c.cfg.Paths.LockFile)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			c.logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, c.logger)

	summary := newSummary(runID)
	start := time.Now()
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("stages", strings.Join(stageNames(ordered), ",")),
		logging.Bool("force", c.force),
	)

	var runErr error
	for _, stage := range ordered {
		stageCtx := services.WithStage(ctx, string(stage))
		stageStart := time.Now()
		if err := c.runStage(stageCtx, stage, summary); err != nil {
			runErr = fmt.Errorf("%s: %w", stage, err)
			if !errors.Is(err, context.Canceled) {
				logging.ErrorWithContext(logging.WithContext(stageCtx, c.logger), "stage failed", "stage_failed",
					logging.Error(err),
					logging.String("error_kind", services.ErrorKind(err)),
				)
			}
			break
		}
		c.metrics.observeStage(stage, time.Since(stageStart))
		summary.Stages = append(summary.Stages, stage)
	}
	summary.Duration = time.Since(start)

	if path := strings.TrimSpace(c.cfg.Metrics.Textfile); path != "" {
		if err := c.metrics.WriteTextfile(path); err != nil {
			logging.WarnWithContext(logger, "failed to write metrics textfile", "metrics_write_failed",
				logging.Error(err),
				logging.String("path", path),
				logging.String(logging.FieldImpact, "run metrics not exported"),
			)
		}
	}

	logger.Info("run finished",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Duration("duration", summary.Duration),
		logging.Bool("failed", runErr != nil),
	)
	return summary, runErr
}

func (c *Checker) runStage(ctx context.Context, stage Stage, summary *Summary) error {
	switch stage {
	case StageScan:
		return c.scan(ctx, summary)
	case StageIdentify:
		return c.identify(ctx, summary)
	case StageInspect:
		return c.inspectMedia(ctx, summary)
	case StageSearch:
		return c.search(ctx, summary)
	case StageClassify:
		return c.classify(ctx, summary)
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
}

func (c *Checker) report(stage Stage, done, total int) {
	if c.progress == nil {
		return
	}
	c.progressMu.Lock()
	defer c.progressMu.Unlock()
	c.progress(stage, done, total)
}

func stageNames(stages []Stage) []string {
	out := make([]string, 0, len(stages))
	for _, s := range stages {
		out = append(out, string(s))
	}
	return out
}
