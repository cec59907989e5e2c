package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"uploadcheck/internal/config"
	"uploadcheck/internal/services"
	"uploadcheck/internal/tmdb"
	"uploadcheck/internal/tracker"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckReadableDirectory verifies that the directory exists and can be listed.
func CheckReadableDirectory(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "readable")
}

func checkDirectory(name, path string, mode uint32, ok string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, ok)}
}

// CheckTMDB verifies the TMDB key with an authenticated configuration
// request. It uses a 10-second timeout and a single attempt.
func CheckTMDB(ctx context.Context, cfg *config.Config) Result {
	const name = "TMDB"
	if strings.TrimSpace(cfg.TMDB.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing (set TMDB_API_KEY or tmdb.api_key)"}
	}
	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language, tmdb.WithTimeout(10*time.Second))
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.CheckKey(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeTMDBError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API key accepted"}
}

// CheckCatalogKeys reports whether each enabled catalog has an API key.
// Catalogs without a key are skipped during searches, so the result is
// optional.
func CheckCatalogKeys(cfg *config.Config) []Result {
	registry, err := tracker.LoadRegistry(cfg)
	if err != nil {
		return []Result{{Name: "Catalogs", Detail: err.Error()}}
	}
	infos, err := registry.Enabled(cfg.Search.EnabledCatalogs)
	if err != nil {
		return []Result{{Name: "Catalogs", Detail: err.Error()}}
	}
	if len(infos) == 0 {
		return []Result{{Name: "Catalogs", Optional: true, Detail: "none enabled (set search.enabled_catalogs)"}}
	}
	results := make([]Result, 0, len(infos))
	for _, info := range infos {
		r := Result{Name: "Catalog " + info.Name, Optional: true}
		if cfg.CatalogAPIKey(info.Name) == "" {
			r.Detail = "API key missing (set catalogs." + info.Name + ".api_key or " + config.CatalogKeyEnv(info.Name) + ")"
		} else {
			r.Passed = true
			r.Detail = "API key configured"
		}
		results = append(results, r)
	}
	return results
}

func summarizeTMDBError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, services.ErrTimeout):
		return "check timed out (TMDB unresponsive)"
	case errors.Is(err, services.ErrConfiguration):
		return "API key rejected"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (TMDB unreachable)"
	}
	return err.Error()
}
