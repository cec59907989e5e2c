package tracker

import (
	_ "embed"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"uploadcheck/internal/config"
)

//go:embed catalogs.yaml
var builtinCatalogs []byte

// Driver families.
const (
	FamilyUNIT3D = "unit3d"
	FamilyF3NIX  = "f3nix"
)

// Info describes one catalog: where it lives, which API it speaks, and how
// upload helpers refer to it.
type Info struct {
	Name         string   `yaml:"name"`
	URL          string   `yaml:"url"`
	Driver       string   `yaml:"driver"`
	UploadMap    string   `yaml:"upload_map"`
	Nicknames    []string `yaml:"nicknames"`
	BannedGroups []string `yaml:"banned_groups"`
}

// SearchURL returns a browser URL listing the catalog's holdings for a
// movie, preferring the TMDB id over a title search.
func (i Info) SearchURL(tmdbID int64, title string) string {
	if i.URL == "" {
		return ""
	}
	query := url.QueryEscape(title)
	switch i.Driver {
	case FamilyF3NIX:
		if tmdbID > 0 {
			return i.URL + "torrents?search=&tmdb=movie%2F" + strconv.FormatInt(tmdbID, 10)
		}
		return i.URL + "torrents?search=" + query
	default:
		if tmdbID > 0 {
			return i.URL + "torrents?view=list&tmdbId=" + strconv.FormatInt(tmdbID, 10)
		}
		return i.URL + "torrents?view=list&name=" + query
	}
}

type registryFile struct {
	Catalogs []Info `yaml:"catalogs"`
}

// Registry is the merged view of built-in and configured catalogs.
type Registry struct {
	catalogs  map[string]Info
	nicknames map[string]string
}

// LoadRegistry parses the built-in catalog list and applies configuration
// overrides. A configured catalog that is not built in must name a URL.
func LoadRegistry(cfg *config.Config) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(builtinCatalogs, &file); err != nil {
		return nil, fmt.Errorf("parse catalog registry: %w", err)
	}
	reg := &Registry{
		catalogs:  make(map[string]Info, len(file.Catalogs)),
		nicknames: make(map[string]string),
	}
	for _, info := range file.Catalogs {
		reg.add(info)
	}
	if cfg == nil {
		return reg, nil
	}

	names := make([]string, 0, len(cfg.Catalogs))
	for name := range cfg.Catalogs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		override := cfg.Catalogs[name]
		info, known := reg.catalogs[name]
		if !known {
			if override.URL == "" {
				return nil, fmt.Errorf("catalogs.%s: url required for catalogs outside the built-in registry", name)
			}
			info = Info{Name: name, Driver: FamilyUNIT3D}
		}
		if override.URL != "" {
			info.URL = override.URL
		}
		if override.Driver != "" {
			info.Driver = override.Driver
		}
		if override.UploadMap != "" {
			info.UploadMap = override.UploadMap
		}
		if len(override.BannedGroups) > 0 {
			info.BannedGroups = append(append([]string(nil), info.BannedGroups...), override.BannedGroups...)
		}
		reg.add(info)
	}
	return reg, nil
}

func (r *Registry) add(info Info) {
	info.Name = strings.ToLower(strings.TrimSpace(info.Name))
	info.Driver = strings.ToLower(strings.TrimSpace(info.Driver))
	if info.Driver == "" {
		info.Driver = FamilyUNIT3D
	}
	if info.URL != "" && !strings.HasSuffix(info.URL, "/") {
		info.URL += "/"
	}
	r.catalogs[info.Name] = info
	r.nicknames[info.Name] = info.Name
	for _, nick := range info.Nicknames {
		r.nicknames[strings.ToLower(strings.TrimSpace(nick))] = info.Name
	}
}

// Resolve maps a catalog name or nickname to its canonical name.
func (r *Registry) Resolve(nick string) (string, bool) {
	name, ok := r.nicknames[strings.ToLower(strings.TrimSpace(nick))]
	return name, ok
}

// Lookup returns the catalog registered under a name or nickname.
func (r *Registry) Lookup(nick string) (Info, bool) {
	name, ok := r.Resolve(nick)
	if !ok {
		return Info{}, false
	}
	info, ok := r.catalogs[name]
	return info, ok
}

// Names lists canonical catalog names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.catalogs))
	for name := range r.catalogs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Enabled resolves the configured enabled catalogs, preserving their order
// and dropping duplicates. Unknown names are an error.
func (r *Registry) Enabled(names []string) ([]Info, error) {
	seen := make(map[string]struct{}, len(names))
	out := make([]Info, 0, len(names))
	for _, nick := range names {
		info, ok := r.Lookup(nick)
		if !ok {
			return nil, fmt.Errorf("unknown catalog %q (known: %s)", nick, strings.Join(r.Names(), ", "))
		}
		if _, dup := seen[info.Name]; dup {
			continue
		}
		seen[info.Name] = struct{}{}
		out = append(out, info)
	}
	return out, nil
}
