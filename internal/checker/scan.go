package checker

import (
	"context"

	"uploadcheck/internal/scanner"
)

func (c *Checker) scan(ctx context.Context, summary *Summary) error {
	result, err := scanner.New(c.cfg, c.store, c.logger).Scan(ctx, c.force)
	summary.Scan = result
	c.metrics.files.WithLabelValues("found").Add(float64(result.Found))
	c.metrics.files.WithLabelValues("banned").Add(float64(result.Banned))
	return err
}
