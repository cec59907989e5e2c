package checker

import (
	"context"

	"uploadcheck/internal/catalog"
	"uploadcheck/internal/identity"
	"uploadcheck/internal/logging"
	"uploadcheck/internal/safety"
	"uploadcheck/internal/services"
	"uploadcheck/internal/store"
)

// classify decides every identified file against every enabled catalog it
// was searched on. Verdicts are recomputed from stored data on each run, and
// files that are banned or no longer matched lose any earlier verdicts.
func (c *Checker) classify(ctx context.Context, summary *Summary) error {
	infos, err := c.registry.Enabled(c.cfg.Search.EnabledCatalogs)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "classify", "catalogs", "resolve enabled catalogs", err)
	}
	files, err := c.store.ListFiles(ctx)
	if err != nil {
		return err
	}
	for _, info := range infos {
		summary.Catalog(info.Name)
	}

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.Banned || !f.Identity.Matched() {
			if _, err := c.store.DeleteVerdicts(ctx, f.ID); err != nil {
				return err
			}
			summary.Skipped++
			c.report(StageClassify, i+1, len(files))
			continue
		}
		summary.Processed++

		local := f.Attributes()
		var media *safety.Media
		facts := identity.Facts{}
		if f.Media != nil {
			media = &safety.Media{
				AudioLanguages:    f.Media.AudioLanguages,
				SubtitleLanguages: f.Media.SubtitleLanguages,
			}
			facts = identity.Facts{
				RuntimeMinutes: f.Media.RuntimeMinutes,
				AudioLanguages: f.Media.AudioLanguages,
			}
		}
		corroboration := c.identity.Corroborate(f.Year, f.Identity.Candidate(), facts)

		for _, info := range infos {
			cs := summary.Catalog(info.Name)
			search, err := c.store.SearchFor(ctx, f.ID, info.Name)
			if err != nil {
				return err
			}
			if search == nil || search.Failed() {
				cs.Unsearched++
				continue
			}

			cmp := catalog.Compare(local, f.Name, search.CatalogEntries(), catalog.WithVariant(c.upgrade.IsHQWebRip))
			verdict := safety.Decide(c.upgrade, safety.Input{
				Local:        local,
				Identity:     corroboration,
				Media:        media,
				Comparison:   cmp,
				BannedGroups: info.BannedGroups,
			})
			if err := c.store.SaveVerdict(ctx, store.Verdict{
				FileID:  f.ID,
				Catalog: info.Name,
				Outcome: verdict.Outcome,
				Reason:  verdict.Reason,
				Details: verdict.Details,
				Upgrade: verdict.Upgrade,
			}); err != nil {
				return err
			}
			cs.countVerdict(verdict, cmp.Duplicate)
			c.metrics.verdicts.WithLabelValues(info.Name, string(verdict.Outcome)).Inc()

			attrs := []logging.Attr{
				logging.String(logging.FieldCatalog, info.Name),
				logging.String(logging.FieldFile, f.Path),
				logging.Bool("upgrade", verdict.Upgrade),
			}
			if corroboration.Mismatch {
				attrs = append(attrs, logging.String("corroboration", corroboration.String()))
			}
			attrs = append(attrs, logging.DecisionAttrs("safety", string(verdict.Outcome), verdict.Reason)...)
			c.logger.Debug("file classified", logging.Args(attrs...)...)
		}
		c.report(StageClassify, i+1, len(files))
	}

	for _, name := range summary.CatalogNames() {
		cs := summary.Catalogs[name]
		c.logger.Info("classification complete",
			logging.String(logging.FieldCatalog, name),
			logging.Int("safe", cs.Safe),
			logging.Int("risky", cs.Risky),
			logging.Int("danger", cs.Danger),
			logging.Int("duplicates", cs.Duplicates),
			logging.Int("banned", cs.Banned),
			logging.Int("unsearched", cs.Unsearched),
		)
	}
	return nil
}
