package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"

	"uploadcheck/internal/language"
	"uploadcheck/internal/safety"
	"uploadcheck/internal/store"
	"uploadcheck/internal/tracker"
)

const notAvailable = "N/A"

// reportable drops skipped files and orders the rest by outcome, then name.
func reportable(listings []store.Listing) []store.Listing {
	out := make([]store.Listing, 0, len(listings))
	for _, listing := range listings {
		if listing.Verdict.Outcome == safety.OutcomeSkip {
			continue
		}
		out = append(out, listing)
	}
	sort.SliceStable(out, func(i, j int) bool {
		oi, oj := outcomeOrder(out[i].Verdict.Outcome), outcomeOrder(out[j].Verdict.Outcome)
		if oi != oj {
			return oi < oj
		}
		return strings.ToLower(out[i].File.Name) < strings.ToLower(out[j].File.Name)
	})
	return out
}

func outcomeOrder(o safety.Outcome) int {
	for i, known := range safety.Outcomes {
		if o == known {
			return i
		}
	}
	return len(safety.Outcomes)
}

// commandListings returns the files eligible for upload commands.
func commandListings(listings []store.Listing, allowRisky bool) []store.Listing {
	var out []store.Listing
	for _, listing := range listings {
		switch listing.Verdict.Outcome {
		case safety.OutcomeSafe:
			out = append(out, listing)
		case safety.OutcomeRisky:
			if allowRisky {
				out = append(out, listing)
			}
		}
	}
	return out
}

// row is the flattened view of one listing shared by txt and csv.
type row struct {
	Title        string
	FileYear     string
	TMDBYear     string
	Quality      string
	Location     string
	Size         string
	TMDBSearch   string
	StringSearch string
	TMDB         string
	Safety       string
	Reason       string
	Details      string
	MediaInfo    string
}

var titleCaser = cases.Title(xlanguage.Und)

func newRow(info tracker.Info, listing store.Listing) row {
	file := listing.File
	r := row{
		Title:        file.Title,
		FileYear:     yearOrNA(file.Year),
		TMDBYear:     notAvailable,
		Quality:      qualityLabel(file),
		Location:     file.Path,
		Size:         humanize.IBytes(uint64(max(file.SizeBytes, 0))),
		TMDBSearch:   notAvailable,
		StringSearch: orNA(info.SearchURL(0, searchTitle(file))),
		TMDB:         notAvailable,
		Safety:       titleCaser.String(string(listing.Verdict.Outcome)),
		Reason:       listing.Verdict.Reason,
		Details:      strings.Join(listing.Verdict.Details, "; "),
		MediaInfo:    mediaInfo(file.Media),
	}
	if r.Title == "" {
		r.Title = file.Name
	}
	if file.Identity.Matched() {
		r.TMDBYear = yearOrNA(file.Identity.Year)
		r.TMDBSearch = orNA(info.SearchURL(file.Identity.TMDBID, ""))
		r.TMDB = "https://www.themoviedb.org/movie/" + strconv.FormatInt(file.Identity.TMDBID, 10)
	}
	if r.Details == "" {
		r.Details = notAvailable
	}
	return r
}

func searchTitle(file store.File) string {
	if file.Identity.Matched() && file.Identity.Title != "" {
		return file.Identity.Title
	}
	return file.Title
}

func qualityLabel(file store.File) string {
	attrs := file.Attributes()
	if !attrs.Complete() {
		parts := []string{}
		for _, v := range []string{file.Quality, file.Resolution} {
			if v != "" {
				parts = append(parts, v)
			}
		}
		if len(parts) == 0 {
			return notAvailable
		}
		return strings.Join(parts, " ")
	}
	return attrs.Label()
}

func mediaInfo(media *store.Media) string {
	if media == nil {
		return "not inspected"
	}
	parts := []string{
		"Audio: " + languageNames(media.AudioLanguages),
		"Subtitles: " + languageNames(media.SubtitleLanguages),
	}
	if media.RuntimeMinutes > 0 {
		parts = append(parts, fmt.Sprintf("Runtime: %d min", media.RuntimeMinutes))
	}
	if media.HDR != "" {
		parts = append(parts, "HDR: "+media.HDR)
	}
	return strings.Join(parts, ", ")
}

func languageNames(codes []string) string {
	if len(codes) == 0 {
		return "none"
	}
	names := make([]string, 0, len(codes))
	for _, code := range codes {
		names = append(names, language.DisplayName(code))
	}
	return strings.Join(names, ", ")
}

func yearOrNA(year int) string {
	if year <= 0 {
		return notAvailable
	}
	return strconv.Itoa(year)
}

func orNA(value string) string {
	if value == "" {
		return notAvailable
	}
	return value
}

func renderText(info tracker.Info, listings []store.Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Upload report for %s\n", info.Name)
	fmt.Fprintf(&b, "%s\n", strings.Repeat("=", 60))

	groups := make(map[safety.Outcome][]store.Listing)
	for _, listing := range listings {
		groups[listing.Verdict.Outcome] = append(groups[listing.Verdict.Outcome], listing)
	}
	for _, outcome := range safety.Outcomes {
		group := groups[outcome]
		fmt.Fprintf(&b, "\n%s (%d)\n", strings.ToUpper(string(outcome)), len(group))
		fmt.Fprintf(&b, "%s\n", strings.Repeat("-", 60))
		if len(group) == 0 {
			b.WriteString("(none)\n")
			continue
		}
		for _, listing := range group {
			r := newRow(info, listing)
			fields := [][2]string{
				{"Movie Title", r.Title},
				{"File Year", r.FileYear},
				{"TMDB Year", r.TMDBYear},
				{"Quality", r.Quality},
				{"File Location", r.Location},
				{"File Size", r.Size},
				{"TMDB Search", r.TMDBSearch},
				{"String Search", r.StringSearch},
				{"TMDB", r.TMDB},
				{"Reason", r.Reason},
				{"Details", r.Details},
				{"Media Info", r.MediaInfo},
			}
			for _, field := range fields {
				fmt.Fprintf(&b, "%-14s %s\n", field[0]+":", field[1])
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}
