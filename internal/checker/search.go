package checker

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"uploadcheck/internal/config"
	"uploadcheck/internal/logging"
	"uploadcheck/internal/services"
	"uploadcheck/internal/store"
	"uploadcheck/internal/tracker"
)

// search looks every identified file up on each enabled catalog. Catalogs
// are searched concurrently, one goroutine each; requests to one catalog
// are serialized behind its cooldown limiter. A file with a successful
// search is not searched again unless forced.
func (c *Checker) search(ctx context.Context, summary *Summary) error {
	infos, err := c.registry.Enabled(c.cfg.Search.EnabledCatalogs)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "search", "catalogs", "resolve enabled catalogs", err)
	}
	if len(infos) == 0 {
		logging.WarnWithContext(c.logger, "no catalogs enabled", "search_skipped",
			logging.String(logging.FieldErrorHint, "set search.enabled_catalogs in the config"),
			logging.String(logging.FieldImpact, "nothing searched"),
		)
		return nil
	}

	files, err := c.store.ListFiles(ctx)
	if err != nil {
		return err
	}
	var targets []*store.File
	for _, f := range files {
		if !f.Banned && f.Identity.Matched() {
			targets = append(targets, f)
		}
	}

	total := len(targets) * len(infos)
	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for _, info := range infos {
		cs := summary.Catalog(info.Name)
		g.Go(func() error {
			return c.searchCatalog(gctx, info, targets, cs, func() {
				c.report(StageSearch, int(done.Add(1)), total)
			})
		})
	}
	return g.Wait()
}

func (c *Checker) searchCatalog(ctx context.Context, info tracker.Info, files []*store.File, cs *CatalogSummary, step func()) error {
	ctx = services.WithCatalog(ctx, info.Name)
	logger := logging.WithContext(ctx, c.logger)

	driver, err := tracker.New(info, c.cfg.CatalogAPIKey(info.Name), tracker.Options{
		HTTPClient: c.httpClient,
		Limiter:    tracker.NewLimiter(c.cfg.Search.CooldownSeconds),
		Timeout:    time.Duration(c.cfg.Search.RequestTimeout) * time.Second,
		MaxPages:   c.cfg.Search.MaxPages,
		Logger:     c.logger,
	})
	if err != nil {
		cs.Disabled = "no api key"
		if info.URL == "" {
			cs.Disabled = "no url"
		}
		logging.WarnWithContext(logger, "catalog skipped", "catalog_skipped",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "set catalogs."+info.Name+".api_key or "+config.CatalogKeyEnv(info.Name)),
			logging.String(logging.FieldImpact, "catalog not searched this run"),
		)
		for range files {
			step()
		}
		return nil
	}

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		existing, err := c.store.SearchFor(ctx, f.ID, info.Name)
		if err != nil {
			return err
		}
		if existing != nil && !existing.Failed() && !c.force {
			cs.Cached++
			step()
			continue
		}

		start := time.Now()
		entries, searchErr := driver.Search(services.WithFile(ctx, f.Path), tracker.Query{
			IMDbID: f.Identity.IMDbID,
			TMDBID: f.Identity.TMDBID,
			Title:  f.Identity.Title,
		})
		c.metrics.observeSearch(info.Name, time.Since(start), searchErr)

		record := store.Search{FileID: f.ID, Catalog: info.Name, Entries: store.NewEntryRecords(entries)}
		if searchErr != nil {
			if errors.Is(searchErr, context.Canceled) {
				return searchErr
			}
			record.Error = searchErr.Error()
			cs.SearchErrors++
		} else {
			cs.Searched++
		}
		if err := c.store.RecordSearch(ctx, record); err != nil {
			return err
		}
		step()

		if searchErr == nil {
			logger.Debug("catalog searched",
				logging.String(logging.FieldFile, f.Path),
				logging.Int("entries", len(entries)),
			)
			continue
		}
		if errors.Is(searchErr, services.ErrConfiguration) {
			cs.Disabled = "api key rejected"
			logging.WarnWithContext(logger, "catalog rejected credentials", "catalog_auth_failed",
				logging.Error(searchErr),
				logging.String(logging.FieldErrorHint, "check the api key for "+info.Name),
				logging.String(logging.FieldImpact, "remaining files not searched on this catalog"),
			)
			for range files[i+1:] {
				step()
			}
			return nil
		}
		logging.WarnWithContext(logger, "catalog search failed", "search_failed",
			logging.Error(searchErr),
			logging.String(logging.FieldFile, f.Path),
			logging.String(logging.FieldErrorHint, "the search is retried on the next run"),
			logging.String(logging.FieldImpact, "file not classified for this catalog"),
		)
	}

	logger.Info("catalog search complete",
		logging.Int("searched", cs.Searched),
		logging.Int("cached", cs.Cached),
		logging.Int("errors", cs.SearchErrors),
	)
	return nil
}
