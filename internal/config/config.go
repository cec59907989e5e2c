package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains on-disk locations used by the checker.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	LogDir    string `toml:"log_dir"`
	OutputDir string `toml:"output_dir"`
	Database  string `toml:"database"`
	LockFile  string `toml:"lock_file"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Language       string `toml:"language"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Scan controls which local files are considered.
type Scan struct {
	Directories      []string `toml:"directories"`
	Extensions       []string `toml:"extensions"`
	MinFileSizeMB    int64    `toml:"min_file_size_mb"`
	IgnoredQualities []string `toml:"ignored_qualities"`
	IgnoredKeywords  []string `toml:"ignored_keywords"`
	BannedGroups     []string `toml:"banned_groups"`
	Workers          int      `toml:"workers"`
}

// Identification holds the title matching thresholds.
type Identification struct {
	FuzzyThreshold      int `toml:"fuzzy_threshold"`
	MinVoteCount        int `toml:"min_vote_count"`
	RuntimeDeltaMinutes int `toml:"runtime_delta_minutes"`
}

// Classification tunes upgrade reasoning.
type Classification struct {
	HQWebRipGroups []string `toml:"hq_webrip_groups"`
}

// Search controls catalog lookups.
type Search struct {
	EnabledCatalogs []string `toml:"enabled_catalogs"`
	CooldownSeconds float64  `toml:"cooldown_seconds"`
	RequestTimeout  int      `toml:"request_timeout"`
	MaxPages        int      `toml:"max_pages"`
}

// Catalog overrides or extends one entry of the built-in catalog registry.
type Catalog struct {
	URL          string   `toml:"url"`
	Driver       string   `toml:"driver"`
	APIKey       string   `toml:"api_key"`
	BannedGroups []string `toml:"banned_groups"`
	UploadMap    string   `toml:"upload_map"`
}

// Export configures the upload helper command files.
type Export struct {
	AllowRisky bool   `toml:"allow_risky"`
	GGPath     string `toml:"gg_path"`
	UAPath     string `toml:"ua_path"`
	Python     string `toml:"python"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Notifications configures the ntfy summary posted after each run.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Metrics configures the optional Prometheus textfile written after each run.
type Metrics struct {
	Textfile string `toml:"textfile"`
}

// Config encapsulates all configuration values for uploadcheck.
//
// Configuration sections by subsystem:
//   - Paths: data, log, and report directories plus the database and lock file
//   - TMDB: movie lookups used by the identify stage
//   - Scan: directories, extensions, and file screening rules
//   - Identification: fuzzy title threshold, vote floor, runtime tolerance
//   - Classification: HQ WEBRip allow-list
//   - Search: enabled catalogs, request cooldown, pagination limits
//   - Catalogs: per-catalog credentials and registry overrides
//   - Export: upload helper command generation
//   - Logging: log format and level
//   - Notifications: ntfy run summaries
//   - Metrics: Prometheus textfile output
type Config struct {
	Paths          Paths              `toml:"paths"`
	TMDB           TMDB               `toml:"tmdb"`
	Scan           Scan               `toml:"scan"`
	Identification Identification     `toml:"identification"`
	Classification Classification     `toml:"classification"`
	Search         Search             `toml:"search"`
	Catalogs       map[string]Catalog `toml:"catalogs"`
	Export         Export             `toml:"export"`
	Logging        Logging            `toml:"logging"`
	Notifications  Notifications      `toml:"notifications"`
	Metrics        Metrics            `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("uploadcheck.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, log, and output directories along with
// the parents of the database and lock file.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		c.Paths.LogDir,
		c.Paths.OutputDir,
		filepath.Dir(c.Paths.Database),
		filepath.Dir(c.Paths.LockFile),
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Metrics.Textfile != "" {
		if err := os.MkdirAll(filepath.Dir(c.Metrics.Textfile), 0o755); err != nil {
			return fmt.Errorf("create metrics directory: %w", err)
		}
	}
	return nil
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// Catalog returns the configured overrides for name, if any.
func (c *Config) Catalog(name string) (Catalog, bool) {
	if c == nil || c.Catalogs == nil {
		return Catalog{}, false
	}
	entry, ok := c.Catalogs[canonicalCatalogName(name)]
	return entry, ok
}

// CatalogAPIKey returns the API key for name, falling back to the
// UPLOADCHECK_<NAME>_API_KEY environment variable when the config has none.
func (c *Config) CatalogAPIKey(name string) string {
	if entry, ok := c.Catalog(name); ok && entry.APIKey != "" {
		return entry.APIKey
	}
	if value, ok := os.LookupEnv(CatalogKeyEnv(name)); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

// CatalogKeyEnv returns the environment variable consulted for a catalog API key.
func CatalogKeyEnv(name string) string {
	upper := strings.ToUpper(canonicalCatalogName(name))
	upper = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, upper)
	return "UPLOADCHECK_" + upper + "_API_KEY"
}

// RequireTMDB reports a configuration error when no TMDB key is available.
func (c *Config) RequireTMDB() error {
	if strings.TrimSpace(c.TMDB.APIKey) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'uploadcheck config init')", defaultPath)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML with API keys masked.
func (c *Config) Encode() ([]byte, error) {
	clone := *c
	clone.TMDB.APIKey = mask(clone.TMDB.APIKey)
	if len(c.Catalogs) > 0 {
		clone.Catalogs = make(map[string]Catalog, len(c.Catalogs))
		for name, entry := range c.Catalogs {
			entry.APIKey = mask(entry.APIKey)
			clone.Catalogs[name] = entry
		}
	}
	data, err := toml.Marshal(clone)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:2] + strings.Repeat("*", len(secret)-4) + secret[len(secret)-2:]
}
