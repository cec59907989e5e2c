package scanner

import (
	"fmt"
	"slices"
	"strings"

	"uploadcheck/internal/config"
)

// Rules are the screening lists applied to every parsed filename.
type Rules struct {
	IgnoredQualities []string
	IgnoredKeywords  []string
	BannedGroups     []string
}

// RulesFromConfig copies the screening lists from the scan section.
func RulesFromConfig(cfg *config.Config) Rules {
	return Rules{
		IgnoredQualities: cfg.Scan.IgnoredQualities,
		IgnoredKeywords:  cfg.Scan.IgnoredKeywords,
		BannedGroups:     cfg.Scan.BannedGroups,
	}
}

// Screen reports whether a parsed file must be excluded from every catalog
// and why. Lists are matched case-insensitively.
func (r Rules) Screen(p Parsed) (bool, string) {
	if p.Episode {
		return true, "TV episode"
	}
	if p.Quality != "" && containsFold(r.IgnoredQualities, p.Quality) {
		return true, fmt.Sprintf("Ignored quality: %s", p.Quality)
	}
	title := strings.ToLower(p.Title)
	for _, keyword := range r.IgnoredKeywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword != "" && strings.Contains(title, keyword) {
			return true, fmt.Sprintf("Ignored keyword: %s", keyword)
		}
	}
	if p.Group != "" && containsFold(r.BannedGroups, p.Group) {
		return true, fmt.Sprintf("Banned group: %s", p.Group)
	}
	return false, ""
}

func containsFold(values []string, target string) bool {
	return slices.ContainsFunc(values, func(v string) bool {
		return strings.EqualFold(strings.TrimSpace(v), target)
	})
}
