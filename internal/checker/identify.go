package checker

import (
	"context"
	"errors"
	"time"

	"uploadcheck/internal/identity"
	"uploadcheck/internal/logging"
	"uploadcheck/internal/services"
	"uploadcheck/internal/store"
	"uploadcheck/internal/tmdb"
)

func (c *Checker) tmdbSearcher() (tmdb.Searcher, error) {
	if c.searcher != nil {
		return c.searcher, nil
	}
	if err := c.cfg.RequireTMDB(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "identify", "tmdb client", "missing api key", err)
	}
	client, err := tmdb.New(c.cfg.TMDB.APIKey, c.cfg.TMDB.BaseURL, c.cfg.TMDB.Language,
		tmdb.WithTimeout(time.Duration(c.cfg.TMDB.RequestTimeout)*time.Second),
		tmdb.WithHTTPClient(c.httpClient),
	)
	if err != nil {
		return nil, err
	}
	c.searcher = client
	return client, nil
}

// identify resolves every unbanned file without an identity. Files whose
// lookup failed stay pending and are retried on the next run. A rejected
// API key aborts the stage.
func (c *Checker) identify(ctx context.Context, summary *Summary) error {
	files, err := c.store.ListFiles(ctx)
	if err != nil {
		return err
	}
	stats := &summary.Identify
	var pending []*store.File
	for _, f := range files {
		switch {
		case f.Banned:
			stats.SkippedBanned++
		case f.Identity.Status != store.IdentityPending && !c.force:
			stats.SkippedExisting++
		default:
			pending = append(pending, f)
		}
	}
	if len(pending) == 0 {
		c.logger.Info("all files already identified", logging.Int("skipped", stats.SkippedExisting))
		return nil
	}

	searcher, err := c.tmdbSearcher()
	if err != nil {
		return err
	}
	c.logger.Info("identifying files",
		logging.Int("pending", len(pending)),
		logging.Int("skipped_existing", stats.SkippedExisting),
		logging.Int("skipped_banned", stats.SkippedBanned),
	)

	for i, f := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		fileCtx := services.WithFile(ctx, f.Path)
		logger := logging.WithContext(fileCtx, c.logger)

		result, ident, err := c.identifyFile(fileCtx, searcher, f)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			stats.Errors++
			c.metrics.errors.WithLabelValues(string(StageIdentify), services.ErrorKind(err)).Inc()
			if errors.Is(err, services.ErrConfiguration) {
				return err
			}
			logging.WarnWithContext(logger, "tmdb lookup failed", "identify_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "file stays pending and is retried on the next run"),
				logging.String(logging.FieldImpact, "file not identified"),
			)
			c.report(StageIdentify, i+1, len(pending))
			continue
		}
		stats.Record(f.Title, f.Year, result)
		if err := c.store.UpdateIdentity(ctx, f.ID, ident); err != nil {
			return err
		}

		if result.Accepted() {
			m := result.Match
			attrs := []logging.Attr{
				logging.Int64("tmdb_id", ident.TMDBID),
				logging.String("tmdb_title", ident.Title),
				logging.Int("score", m.Score),
				logging.String("match_type", m.Type),
				logging.String("confidence", m.Confidence()),
			}
			attrs = append(attrs, logging.DecisionAttrs("identity", "matched", m.Type)...)
			logger.Debug("file identified", logging.Args(attrs...)...)
		} else {
			reason := "no candidate above threshold"
			if result.Unverifiable {
				reason = "low vote candidate"
			}
			logger.Debug("no tmdb match",
				logging.Args(logging.DecisionAttrs("identity", string(ident.Status), reason)...)...)
		}
		c.report(StageIdentify, i+1, len(pending))
	}

	c.logger.Info("identify complete",
		logging.Int("processed", stats.Processed),
		logging.Int("matched", stats.Matched),
		logging.Int("no_match", stats.NoMatch),
		logging.Int("low_votes", stats.LowVotes),
		logging.Int("unverifiable", stats.Unverifiable),
		logging.Int("fuzzy", len(stats.Fuzzy)),
		logging.Int("year_mismatches", len(stats.YearMismatches)),
		logging.Int("errors", stats.Errors),
	)
	return nil
}

func (c *Checker) identifyFile(ctx context.Context, searcher tmdb.Searcher, f *store.File) (identity.Result, store.Identity, error) {
	if f.Title == "" {
		return identity.Result{}, store.Identity{Status: store.IdentityNoMatch}, nil
	}
	primary, _ := identity.SplitAKA(f.Title)
	resp, err := searcher.SearchMovie(ctx, primary, f.Year)
	if err != nil {
		return identity.Result{}, store.Identity{}, err
	}

	result := c.identity.Match(f.Title, resp.Candidates())
	if result.Unverifiable {
		ident := store.Identity{Status: store.IdentityUnverifiable}
		if m := result.Match; m != nil {
			ident.TMDBID = m.Candidate.ID
			ident.Title = m.Candidate.Title
			ident.Year = m.Candidate.Year
			ident.VoteCount = m.Candidate.VoteCount
			ident.Score = m.Score
			ident.MatchType = m.Type
		}
		return result, ident, nil
	}
	if !result.Matched() {
		return result, store.Identity{Status: store.IdentityNoMatch}, nil
	}

	m := result.Match
	ident := store.Identity{
		Status:           store.IdentityMatched,
		TMDBID:           m.Candidate.ID,
		Title:            m.Candidate.Title,
		OriginalTitle:    m.Candidate.OriginalTitle,
		Year:             m.Candidate.Year,
		VoteCount:        m.Candidate.VoteCount,
		OriginalLanguage: m.Candidate.OriginalLanguage,
		Score:            m.Score,
		MatchType:        m.Type,
	}
	details, err := searcher.MovieDetails(ctx, m.Candidate.ID)
	if err != nil {
		return identity.Result{}, store.Identity{}, err
	}
	ident.IMDbID = details.IMDbID
	ident.Runtime = details.Runtime
	if details.OriginalLanguage != "" {
		ident.OriginalLanguage = details.OriginalLanguage
	}
	return result, ident, nil
}
