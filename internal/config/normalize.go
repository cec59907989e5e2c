package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTMDB()
	if err := c.normalizeScan(); err != nil {
		return err
	}
	c.normalizeClassification()
	c.normalizeSearch()
	c.normalizeCatalogs()
	if err := c.normalizeExport(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = filepath.Join(c.Paths.DataDir, "output")
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.Database) == "" {
		c.Paths.Database = filepath.Join(c.Paths.DataDir, defaultDatabaseName)
	}
	if c.Paths.Database, err = expandPath(c.Paths.Database); err != nil {
		return fmt.Errorf("paths.database: %w", err)
	}
	if strings.TrimSpace(c.Paths.LockFile) == "" {
		c.Paths.LockFile = filepath.Join(c.Paths.DataDir, defaultLockName)
	}
	if c.Paths.LockFile, err = expandPath(c.Paths.LockFile); err != nil {
		return fmt.Errorf("paths.lock_file: %w", err)
	}
	if c.Metrics.Textfile, err = expandPath(strings.TrimSpace(c.Metrics.Textfile)); err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}
	return nil
}

func (c *Config) normalizeTMDB() {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = value
		}
	}
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
	if c.TMDB.RequestTimeout <= 0 {
		c.TMDB.RequestTimeout = defaultTMDBRequestTimeout
	}
}

func (c *Config) normalizeScan() error {
	dirs := make([]string, 0, len(c.Scan.Directories))
	for _, dir := range c.Scan.Directories {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		expanded, err := expandPath(strings.TrimSpace(dir))
		if err != nil {
			return fmt.Errorf("scan.directories: %w", err)
		}
		dirs = append(dirs, expanded)
	}
	c.Scan.Directories = removeNestedDirs(dirs)

	dotted := make([]string, 0, len(c.Scan.Extensions))
	for _, ext := range c.Scan.Extensions {
		ext = strings.TrimSpace(ext)
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		dotted = append(dotted, ext)
	}
	exts := normalizeList(dotted)
	if len(exts) == 0 {
		exts = defaultExtensions()
	}
	c.Scan.Extensions = exts

	if c.Scan.MinFileSizeMB < 0 {
		c.Scan.MinFileSizeMB = 0
	}
	c.Scan.IgnoredQualities = normalizeList(c.Scan.IgnoredQualities)
	c.Scan.IgnoredKeywords = normalizeList(c.Scan.IgnoredKeywords)
	c.Scan.BannedGroups = normalizeList(c.Scan.BannedGroups)
	if c.Scan.Workers <= 0 {
		c.Scan.Workers = defaultScanWorkers
	}
	return nil
}

func (c *Config) normalizeClassification() {
	c.Classification.HQWebRipGroups = normalizeList(c.Classification.HQWebRipGroups)
}

func (c *Config) normalizeSearch() {
	names := make([]string, 0, len(c.Search.EnabledCatalogs))
	for _, name := range c.Search.EnabledCatalogs {
		names = append(names, canonicalCatalogName(name))
	}
	c.Search.EnabledCatalogs = normalizeList(names)
	if c.Search.CooldownSeconds < 0 {
		c.Search.CooldownSeconds = 0
	}
	if c.Search.RequestTimeout <= 0 {
		c.Search.RequestTimeout = defaultSearchTimeout
	}
	if c.Search.MaxPages <= 0 {
		c.Search.MaxPages = defaultMaxPages
	}
}

func (c *Config) normalizeCatalogs() {
	if len(c.Catalogs) == 0 {
		return
	}
	normalized := make(map[string]Catalog, len(c.Catalogs))
	for name, entry := range c.Catalogs {
		key := canonicalCatalogName(name)
		if key == "" {
			continue
		}
		entry.URL = strings.TrimSpace(entry.URL)
		if entry.URL != "" && !strings.HasSuffix(entry.URL, "/") {
			entry.URL += "/"
		}
		entry.Driver = strings.ToLower(strings.TrimSpace(entry.Driver))
		entry.APIKey = strings.TrimSpace(entry.APIKey)
		if entry.APIKey == "" {
			if value, ok := os.LookupEnv(CatalogKeyEnv(key)); ok {
				entry.APIKey = strings.TrimSpace(value)
			}
		}
		entry.BannedGroups = trimList(entry.BannedGroups)
		entry.UploadMap = strings.TrimSpace(entry.UploadMap)
		normalized[key] = entry
	}
	c.Catalogs = normalized
}

func (c *Config) normalizeExport() error {
	var err error
	if c.Export.GGPath, err = expandPath(strings.TrimSpace(c.Export.GGPath)); err != nil {
		return fmt.Errorf("export.gg_path: %w", err)
	}
	if c.Export.UAPath, err = expandPath(strings.TrimSpace(c.Export.UAPath)); err != nil {
		return fmt.Errorf("export.ua_path: %w", err)
	}
	c.Export.Python = strings.TrimSpace(c.Export.Python)
	if c.Export.Python == "" {
		c.Export.Python = defaultPython
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func canonicalCatalogName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// normalizeList lowercases, trims, and de-duplicates values, keeping order.
func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.ToLower(strings.TrimSpace(value))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// removeNestedDirs drops directories already covered by a configured parent.
func removeNestedDirs(dirs []string) []string {
	sorted := append([]string(nil), dirs...)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) < len(sorted[j]) })
	kept := make([]string, 0, len(sorted))
	for _, dir := range sorted {
		redundant := false
		for _, parent := range kept {
			if dir == parent || strings.HasPrefix(dir, parent+string(filepath.Separator)) {
				redundant = true
				break
			}
		}
		if !redundant {
			kept = append(kept, dir)
		}
	}
	return kept
}
