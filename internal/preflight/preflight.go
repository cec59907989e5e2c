package preflight

import (
	"context"

	"uploadcheck/internal/config"
	"uploadcheck/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional results never fail a run.
	Optional bool
}

// RunAll executes every applicable check for the given config: library and
// data directories, the TMDB key, and an API key for each enabled catalog.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, dir := range cfg.Scan.Directories {
		results = append(results, CheckReadableDirectory("Library directory", dir))
	}
	results = append(results,
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckTMDB(ctx, cfg),
	)
	results = append(results, CheckCatalogKeys(cfg)...)
	return results
}

// Failed reports whether any required result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Optional {
			return true
		}
	}
	return false
}

// CheckSystemDeps evaluates the external programs for the given config.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	statuses := deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for media inspection",
		},
		{
			Name:        "Python",
			Command:     cfg.Export.Python,
			Description: "Runs the exported upload commands",
			Optional:    true,
		},
	})
	return append(statuses,
		deps.CheckScript("GG", cfg.Export.GGPath, "auto_upload.py"),
		deps.CheckScript("UA", cfg.Export.UAPath, "upload.py"),
	)
}
