package checker

import (
	"time"

	"uploadcheck/internal/identity"
	"uploadcheck/internal/safety"
	"uploadcheck/internal/scanner"
)

// CatalogSummary counts what a run did for one catalog.
type CatalogSummary struct {
	Name string
	// Disabled explains why the catalog was skipped for the run, for
	// example "no api key".
	Disabled string

	Searched     int
	Cached       int
	SearchErrors int

	Safe       int
	Risky      int
	Danger     int
	Duplicates int
	Banned     int
	// Unsearched counts identified files with no successful search yet.
	Unsearched int
}

func (c *CatalogSummary) countVerdict(v safety.Verdict, duplicate bool) {
	switch v.Outcome {
	case safety.OutcomeSafe:
		c.Safe++
	case safety.OutcomeRisky:
		c.Risky++
	case safety.OutcomeDanger:
		c.Danger++
	case safety.OutcomeSkip:
		if duplicate {
			c.Duplicates++
		} else {
			c.Banned++
		}
	}
}

// InspectSummary counts the inspect stage.
type InspectSummary struct {
	Inspected int
	Cached    int
	Errors    int
}

// Summary describes one run.
type Summary struct {
	RunID    string
	Stages   []Stage
	Duration time.Duration

	Scan     scanner.Result
	Identify identity.Stats
	Inspect  InspectSummary

	// Processed and Skipped count files seen by the classify stage.
	Processed int
	Skipped   int

	Catalogs map[string]*CatalogSummary
	order    []string
}

func newSummary(runID string) *Summary {
	return &Summary{RunID: runID, Catalogs: make(map[string]*CatalogSummary)}
}

// Catalog returns the per-catalog counters, creating them on first use.
// It is not safe for concurrent use; stages create entries before fanning out.
func (s *Summary) Catalog(name string) *CatalogSummary {
	if cs, ok := s.Catalogs[name]; ok {
		return cs
	}
	cs := &CatalogSummary{Name: name}
	s.Catalogs[name] = cs
	s.order = append(s.order, name)
	return cs
}

// CatalogNames lists catalogs in the order they were first touched.
func (s *Summary) CatalogNames() []string {
	return append([]string(nil), s.order...)
}

// Errors totals failures across stages.
func (s *Summary) Errors() int {
	total := s.Scan.Errors + s.Identify.Errors + s.Inspect.Errors
	for _, cs := range s.Catalogs {
		total += cs.SearchErrors
	}
	return total
}
