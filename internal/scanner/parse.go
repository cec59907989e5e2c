package scanner

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"uploadcheck/internal/release"
	"uploadcheck/internal/tracker"
)

// Parsed is the attribute bag read from a movie filename.
type Parsed struct {
	Title      string
	Year       int
	Quality    string
	Resolution string
	Codec      string
	Group      string
	Episode    bool
}

var (
	trailingTagPattern = regexp.MustCompile(`\s*\[[^\]]*\]\s*$`)
	episodePattern     = regexp.MustCompile(`(?i)\bS\d{1,2}\s?E\d{1,3}\b`)
	yearPattern        = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	resolutionPattern  = regexp.MustCompile(`(?i)\b(\d{3,4}[pi])\b`)
	uhdPattern         = regexp.MustCompile(`(?i)\b(4k|uhd)\b`)
	remuxPattern       = regexp.MustCompile(`(?i)\bremux\b`)
	sourcePattern      = regexp.MustCompile(`(?i)\b(web-?dl|web-?rip|web|blu-?ray|bd-?rip|br-?rip|hd-?rip|hdtv|dvd-?rip|hdts|telesync|telecine|cam)\b`)
	codecPattern       = regexp.MustCompile(`(?i)\b(x264|x265|h\s?264|h\s?265|hevc|avc|av1|vc-?1|mpeg-?2|xvid)\b`)
	markerPattern      = regexp.MustCompile(`(?i)\b(hybrid|repack|proper|internal|10bit)\b`)
	spacePattern       = regexp.MustCompile(`\s+`)
)

// ParseFilename extracts the title, year, and technical tokens from a
// release-style movie filename such as "Heat.1995.1080p.BluRay.x264-DON.mkv".
// The quality is returned in its lowercase letters-only token form, the
// resolution in canonical form. When the name holds no usable title the
// parent directory name is tried instead.
func ParseFilename(path string) Parsed {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	p := parseName(name)
	if p.Title == "" {
		dir := filepath.Base(filepath.Dir(path))
		if dir != "." && dir != string(filepath.Separator) {
			fromDir := parseName(dir)
			p.Title = fromDir.Title
			if p.Year == 0 {
				p.Year = fromDir.Year
			}
		}
	}
	return p
}

func parseName(name string) Parsed {
	name = trailingTagPattern.ReplaceAllString(name, "")
	cleaned := strings.NewReplacer(".", " ", "_", " ", "(", " ", ")", " ", "[", " ", "]", " ", "{", " ", "}", " ").Replace(name)
	cleaned = strings.TrimSpace(spacePattern.ReplaceAllString(cleaned, " "))

	var p Parsed
	cut := len(cleaned)
	mark := func(loc []int) {
		if loc != nil && loc[0] < cut {
			cut = loc[0]
		}
	}

	if loc := episodePattern.FindStringIndex(cleaned); loc != nil {
		p.Episode = true
		mark(loc)
	}

	if loc := resolutionPattern.FindStringSubmatchIndex(cleaned); loc != nil {
		p.Resolution = release.ParseResolution(cleaned[loc[2]:loc[3]]).String()
		mark(loc)
	}
	if loc := uhdPattern.FindStringIndex(cleaned); loc != nil {
		if p.Resolution == "" {
			p.Resolution = release.Resolution2160p.String()
		}
		mark(loc)
	}

	rawQuality := ""
	if loc := sourcePattern.FindStringIndex(cleaned); loc != nil {
		rawQuality = cleaned[loc[0]:loc[1]]
		mark(loc)
	}
	if loc := remuxPattern.FindStringIndex(cleaned); loc != nil {
		rawQuality = "Remux"
		mark(loc)
	}
	p.Quality = release.QualityToken(rawQuality)

	if loc := codecPattern.FindStringIndex(cleaned); loc != nil {
		p.Codec = strings.ToLower(strings.ReplaceAll(cleaned[loc[0]:loc[1]], " ", "."))
		mark(loc)
	}
	mark(markerPattern.FindStringIndex(cleaned))

	// The year is the last one before the technical tokens. A year at the
	// very start belongs to the title ("1917", "2001 A Space Odyssey").
	var yearLoc []int
	for _, loc := range yearPattern.FindAllStringIndex(cleaned[:cut], -1) {
		if loc[0] > 0 {
			yearLoc = loc
		}
	}
	if yearLoc != nil {
		p.Year, _ = strconv.Atoi(cleaned[yearLoc[0]:yearLoc[1]])
		mark(yearLoc)
	}

	if cut < len(cleaned) {
		p.Group = tracker.GroupFromName(cleaned)
	}
	p.Title = strings.Trim(strings.TrimSpace(cleaned[:cut]), " -")
	return p
}
