package deps

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolveScript returns the location of a helper script from a configured
// path that names either the script itself or the directory holding it.
// An empty configured path resolves to "".
func ResolveScript(configured, script string) string {
	configured = strings.TrimSpace(configured)
	if configured == "" {
		return ""
	}
	if filepath.Base(configured) == script {
		return configured
	}
	return filepath.Join(configured, script)
}

// CheckScript reports whether a configured upload helper script exists.
// Helpers are optional; an unconfigured helper is reported but not failed.
func CheckScript(name, configured, script string) Status {
	status := Status{
		Name:        name,
		Description: "Used by the " + strings.ToLower(name) + " command export",
		Optional:    true,
	}
	path := ResolveScript(configured, script)
	if path == "" {
		status.Detail = "not configured"
		return status
	}
	status.Command = path
	info, err := os.Stat(path)
	switch {
	case err != nil:
		status.Detail = fmt.Sprintf("%s not found", path)
	case info.IsDir():
		status.Detail = fmt.Sprintf("%s is a directory", path)
	default:
		status.Available = true
	}
	return status
}
