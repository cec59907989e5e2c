package release

import (
	"regexp"
	"strings"
)

// Resolution is a canonical resolution token such as "2160p" or "1080i".
// The zero value means the resolution could not be determined.
type Resolution string

const (
	Resolution2160p Resolution = "2160p"
	Resolution1080p Resolution = "1080p"
	Resolution1080i Resolution = "1080i"
	Resolution720p  Resolution = "720p"
	Resolution720i  Resolution = "720i"
	Resolution576p  Resolution = "576p"
	Resolution540p  Resolution = "540p"
	Resolution480p  Resolution = "480p"
	Resolution360p  Resolution = "360p"
	Resolution240p  Resolution = "240p"
)

var resolutionRanks = map[Resolution]int{
	Resolution2160p: 10,
	Resolution1080p: 8,
	Resolution1080i: 7,
	Resolution720p:  6,
	Resolution720i:  5,
	Resolution576p:  4,
	Resolution480p:  3,
	Resolution360p:  2,
	Resolution240p:  1,
}

var (
	digitsPattern    = regexp.MustCompile(`\d+`)
	dimensionPattern = regexp.MustCompile(`\d+\s*x\s*(\d+)`)
)

// ParseResolution maps a free-text resolution token to a Resolution.
// "4k" and "uhd" are aliases for 2160p. Only the digits matter for
// identity; a trailing "i" marks interlaced variants.
func ParseResolution(raw string) Resolution {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if lowered == "" {
		return ""
	}
	if strings.Contains(lowered, "4k") || strings.Contains(lowered, "uhd") {
		return Resolution2160p
	}
	var digits string
	if m := dimensionPattern.FindStringSubmatch(lowered); m != nil {
		digits = m[1]
	} else {
		digits = digitsPattern.FindString(lowered)
	}
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return ""
	}
	suffix := "p"
	if rest := lowered[strings.LastIndex(lowered, digits)+len(digits):]; strings.HasPrefix(strings.TrimSpace(rest), "i") {
		suffix = "i"
	}
	return Resolution(digits + suffix)
}

// String returns the canonical token.
func (r Resolution) String() string { return string(r) }

// Known reports whether a resolution was determined.
func (r Resolution) Known() bool { return r != "" }

// Digits returns only the numeric part of the resolution.
func (r Resolution) Digits() string {
	return digitsPattern.FindString(string(r))
}

// Rank returns the ordinal of r in the resolution table, or 0 when r is
// not in the table.
func (r Resolution) Rank() int {
	return resolutionRanks[r]
}

// Is4K reports whether r is the 2160p tier.
func (r Resolution) Is4K() bool {
	return r.Digits() == "2160"
}

// SameTier reports whether two resolutions have the same digits,
// ignoring progressive/interlaced suffixes.
func SameTier(a, b Resolution) bool {
	return a.Known() && b.Known() && a.Digits() == b.Digits()
}
