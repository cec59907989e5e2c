package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"uploadcheck/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.TMDB.APIKey = "test"
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.Database = filepath.Join(base, "data", "uploadcheck.db")
	cfgVal.Paths.LockFile = filepath.Join(base, "data", "uploadcheck.lock")
	cfgVal.Scan.Directories = []string{filepath.Join(base, "movies")}
	cfgVal.Scan.MinFileSizeMB = 0
	cfgVal.Search.CooldownSeconds = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTMDB points the config at a test TMDB endpoint.
func WithTMDB(baseURL, key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.BaseURL = baseURL
		b.cfg.TMDB.APIKey = key
	}
}

// WithCatalog enables a catalog served from url with the given driver family.
func WithCatalog(name, url, driver, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		if b.cfg.Catalogs == nil {
			b.cfg.Catalogs = make(map[string]config.Catalog)
		}
		b.cfg.Catalogs[name] = config.Catalog{URL: url, Driver: driver, APIKey: apiKey}
		b.cfg.Search.EnabledCatalogs = append(b.cfg.Search.EnabledCatalogs, name)
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffprobe is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// MoviesDir returns the first scan directory of the generated config.
func MoviesDir(cfg *config.Config) string {
	if len(cfg.Scan.Directories) == 0 {
		return ""
	}
	return cfg.Scan.Directories[0]
}
