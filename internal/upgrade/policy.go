package upgrade

import (
	"strings"

	"uploadcheck/internal/release"
)

// hqWebRipLevel is the quality level given to webrips from allow-listed
// groups: above encode, below full disc.
const hqWebRipLevel = 3

// Policy carries the classification settings loaded once per run.
type Policy struct {
	HQWebRipGroups []string
}

// NewPolicy builds a Policy, dropping blank group names.
func NewPolicy(hqGroups []string) Policy {
	var groups []string
	for _, g := range hqGroups {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, strings.ToLower(g))
		}
	}
	return Policy{HQWebRipGroups: groups}
}

// IsHQWebRip reports whether attrs is a webrip from an allow-listed group.
// Group names match as case-insensitive substrings.
func (p Policy) IsHQWebRip(attrs release.Attributes) bool {
	if attrs.Quality != release.QualityWebRip {
		return false
	}
	group := strings.ToLower(strings.TrimSpace(attrs.Group))
	if group == "" {
		return false
	}
	for _, hq := range p.HQWebRipGroups {
		if hq != "" && strings.Contains(group, strings.ToLower(hq)) {
			return true
		}
	}
	return false
}

// QualityLevel returns the comparison level for attrs, applying the
// high-quality webrip promotion.
func (p Policy) QualityLevel(attrs release.Attributes) int {
	if p.IsHQWebRip(attrs) {
		return hqWebRipLevel
	}
	return attrs.Quality.Level()
}
