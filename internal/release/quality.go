package release

import (
	"regexp"
	"strings"
)

// Quality is the canonical source tier of a release.
type Quality string

const (
	QualityUnknown  Quality = "unknown"
	QualityWebRip   Quality = "webrip"
	QualityWebDL    Quality = "web-dl"
	QualityEncode   Quality = "encode"
	QualityRemux    Quality = "remux"
	QualityFullDisc Quality = "fulldisc"
)

var qualityLevels = map[Quality]int{
	QualityUnknown:  -1,
	QualityWebRip:   0,
	QualityWebDL:    1,
	QualityEncode:   2,
	QualityRemux:    3,
	QualityFullDisc: 4,
}

// Token aliases applied after stripping everything but letters.
var qualityAliases = map[string]string{
	"bluray": "encode",
	"web":    "webrip",
}

var fullDiscPattern = regexp.MustCompile(`\b(?:uhd|bd|dvd)\s*-?\s*(?:100|66|50|25|9|5)\b`)

// String returns the canonical token.
func (q Quality) String() string {
	if q == "" {
		return string(QualityUnknown)
	}
	return string(q)
}

// Known reports whether q is one of the defined tiers other than unknown.
func (q Quality) Known() bool {
	level, ok := qualityLevels[q]
	return ok && level >= 0
}

// Level returns the position of q in the quality hierarchy
// (webrip 0 through fulldisc 4). Unknown qualities return -1.
func (q Quality) Level() int {
	if level, ok := qualityLevels[q]; ok {
		return level
	}
	return -1
}

// QualityToken lowercases a raw quality token, strips everything except
// letters, and applies the bluray/web aliases. It is the form ignore lists
// are matched against.
func QualityToken(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	token := b.String()
	if alias, ok := qualityAliases[token]; ok {
		return alias
	}
	return token
}

// ParseQuality maps a free-text quality token to a Quality. Empty input
// yields QualityUnknown; any other unrecognized token is treated as an encode.
func ParseQuality(raw string) Quality {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if lowered == "" || lowered == string(QualityUnknown) {
		return QualityUnknown
	}
	token := QualityToken(lowered)
	if token == "" {
		return QualityUnknown
	}
	switch {
	case strings.Contains(token, "remux"):
		return QualityRemux
	case strings.Contains(token, "web") && strings.Contains(token, "dl"):
		return QualityWebDL
	case strings.Contains(token, "web") && strings.Contains(token, "rip"):
		return QualityWebRip
	case fullDiscPattern.MatchString(lowered),
		strings.Contains(token, "disc"),
		strings.Contains(token, "full"):
		return QualityFullDisc
	default:
		return QualityEncode
	}
}
