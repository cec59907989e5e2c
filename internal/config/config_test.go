package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"uploadcheck/internal/config"
)

func TestLoadDefaultConfigUsesEnvTMDBKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "uploadcheck", "config.toml") {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "uploadcheck")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.Database != filepath.Join(wantData, "uploadcheck.db") {
		t.Fatalf("unexpected database path: %q", cfg.Paths.Database)
	}
	if cfg.Paths.LockFile != filepath.Join(wantData, "uploadcheck.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.Paths.LockFile)
	}
	if cfg.TMDB.APIKey != "test-key" {
		t.Fatalf("expected TMDB key from env, got %q", cfg.TMDB.APIKey)
	}
	if cfg.Identification.FuzzyThreshold != 75 || cfg.Identification.MinVoteCount != 5 || cfg.Identification.RuntimeDeltaMinutes != 5 {
		t.Fatalf("unexpected identification defaults: %+v", cfg.Identification)
	}
	if cfg.Scan.MinFileSizeMB != 800 || cfg.Scan.Workers != 4 {
		t.Fatalf("unexpected scan defaults: %+v", cfg.Scan)
	}
	if len(cfg.Scan.Extensions) != 1 || cfg.Scan.Extensions[0] != ".mkv" {
		t.Fatalf("unexpected extensions: %v", cfg.Scan.Extensions)
	}
	if cfg.Search.CooldownSeconds != 5 || cfg.Search.MaxPages != 10 {
		t.Fatalf("unexpected search defaults: %+v", cfg.Search)
	}
	if cfg.Export.Python != "python3" {
		t.Fatalf("unexpected python default: %q", cfg.Export.Python)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Paths.OutputDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "uploadcheck.toml")
	moviesDir := filepath.Join(tempDir, "movies")

	contents := `
[tmdb]
api_key = "abc123"
base_url = "https://example.com/tmdb/"

[scan]
directories = ["` + moviesDir + `", "` + filepath.Join(moviesDir, "4k") + `"]
extensions = ["MKV", "mp4", ".mkv"]
ignored_qualities = ["DVDRip", " cam "]

[search]
enabled_catalogs = [" Aither ", "blutopia", "aither"]
cooldown_seconds = 2.5

[catalogs.Aither]
api_key = "file-key"
url = "https://aither.example"
driver = "UNIT3D"
`
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.TMDB.APIKey != "abc123" {
		t.Fatalf("expected TMDB key from file, got %q", cfg.TMDB.APIKey)
	}
	if cfg.TMDB.BaseURL != "https://example.com/tmdb" {
		t.Fatalf("expected trailing slash trimmed from base url, got %q", cfg.TMDB.BaseURL)
	}
	if len(cfg.Scan.Directories) != 1 || cfg.Scan.Directories[0] != moviesDir {
		t.Fatalf("expected nested directory removed, got %v", cfg.Scan.Directories)
	}
	if strings.Join(cfg.Scan.Extensions, ",") != ".mkv,.mp4" {
		t.Fatalf("unexpected extensions: %v", cfg.Scan.Extensions)
	}
	if strings.Join(cfg.Scan.IgnoredQualities, ",") != "dvdrip,cam" {
		t.Fatalf("unexpected ignored qualities: %v", cfg.Scan.IgnoredQualities)
	}
	if strings.Join(cfg.Search.EnabledCatalogs, ",") != "aither,blutopia" {
		t.Fatalf("unexpected enabled catalogs: %v", cfg.Search.EnabledCatalogs)
	}
	if cfg.Search.CooldownSeconds != 2.5 {
		t.Fatalf("unexpected cooldown: %v", cfg.Search.CooldownSeconds)
	}
	entry, ok := cfg.Catalog("AITHER")
	if !ok {
		t.Fatal("expected aither catalog override")
	}
	if entry.URL != "https://aither.example/" || entry.Driver != "unit3d" {
		t.Fatalf("unexpected catalog entry: %+v", entry)
	}
	if cfg.CatalogAPIKey("aither") != "file-key" {
		t.Fatalf("unexpected catalog key %q", cfg.CatalogAPIKey("aither"))
	}
}

func TestCatalogAPIKeyFallsBackToEnv(t *testing.T) {
	t.Setenv("UPLOADCHECK_BLUTOPIA_API_KEY", " env-blu ")
	t.Setenv("UPLOADCHECK_UPLOAD_CX_API_KEY", "env-ulcx")

	cfg := config.Default()
	if got := cfg.CatalogAPIKey("Blutopia"); got != "env-blu" {
		t.Fatalf("expected env key, got %q", got)
	}
	if got := cfg.CatalogAPIKey("upload.cx"); got != "env-ulcx" {
		t.Fatalf("expected punctuation mapped to underscore, got %q", got)
	}
	if got := cfg.CatalogAPIKey("aither"); got != "" {
		t.Fatalf("expected empty key, got %q", got)
	}
}

func TestFileKeysWinOverEnvironment(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "uploadcheck.toml")
	contents := "[tmdb]\napi_key = \"file-tmdb\"\n\n[catalogs.lst]\napi_key = \"file-lst\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TMDB_API_KEY", "env-tmdb")
	t.Setenv("UPLOADCHECK_LST_API_KEY", "env-lst")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.TMDB.APIKey != "file-tmdb" {
		t.Errorf("expected TMDB key from file, got %q", cfg.TMDB.APIKey)
	}
	if cfg.CatalogAPIKey("lst") != "file-lst" {
		t.Errorf("expected catalog key from file, got %q", cfg.CatalogAPIKey("lst"))
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_tmdb_api_key_here") {
		t.Fatalf("sample config missing placeholder TMDB key: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.DataDir, "uploadcheck") {
		t.Fatalf("expected data dir to contain uploadcheck, got %q", cfg.Paths.DataDir)
	}
	if _, ok := cfg.Catalogs["aither"]; !ok {
		t.Fatalf("expected sample catalogs, got %v", cfg.Catalogs)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"threshold above 100", func(c *config.Config) { c.Identification.FuzzyThreshold = 101 }},
		{"negative votes", func(c *config.Config) { c.Identification.MinVoteCount = -1 }},
		{"zero workers", func(c *config.Config) { c.Scan.Workers = 0 }},
		{"zero pages", func(c *config.Config) { c.Search.MaxPages = 0 }},
		{"negative cooldown", func(c *config.Config) { c.Search.CooldownSeconds = -1 }},
		{"unknown driver", func(c *config.Config) {
			c.Catalogs = map[string]config.Catalog{"x": {Driver: "gazelle"}}
		}},
		{"unknown level", func(c *config.Config) { c.Logging.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate: %v", err)
	}
}

func TestRequireTMDB(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := config.Default()
	if err := cfg.RequireTMDB(); err == nil || !strings.Contains(err.Error(), "TMDB_API_KEY") {
		t.Fatalf("expected missing key error, got %v", err)
	}
	cfg.TMDB.APIKey = "k"
	if err := cfg.RequireTMDB(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEncodeMasksSecrets(t *testing.T) {
	cfg := config.Default()
	cfg.TMDB.APIKey = "abcdef123456"
	cfg.Catalogs = map[string]config.Catalog{"aither": {APIKey: "secretkey"}}

	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	text := string(data)
	if strings.Contains(text, "abcdef123456") || strings.Contains(text, "secretkey") {
		t.Fatalf("expected keys masked, got %s", text)
	}
	if cfg.TMDB.APIKey != "abcdef123456" {
		t.Fatal("Encode must not mutate the config")
	}
	if cfg.Catalogs["aither"].APIKey != "secretkey" {
		t.Fatal("Encode must not mutate catalog entries")
	}
}

func TestCatalogKeyEnv(t *testing.T) {
	if got := config.CatalogKeyEnv("FearNoPeer"); got != "UPLOADCHECK_FEARNOPEER_API_KEY" {
		t.Fatalf("unexpected env name %q", got)
	}
}
