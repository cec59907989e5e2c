package store

import (
	"time"

	"uploadcheck/internal/catalog"
	"uploadcheck/internal/identity"
	"uploadcheck/internal/release"
	"uploadcheck/internal/safety"
)

// IdentityStatus records how the identify stage resolved a file.
type IdentityStatus string

const (
	IdentityPending      IdentityStatus = ""
	IdentityMatched      IdentityStatus = "matched"
	IdentityNoMatch      IdentityStatus = "no_match"
	IdentityUnverifiable IdentityStatus = "unverifiable"
)

// File is one scanned movie file.
type File struct {
	ID        int64
	Path      string
	Name      string
	Directory string
	SizeBytes int64
	ModTime   time.Time

	Title      string
	Year       int
	Quality    string
	Resolution string
	Codec      string
	Group      string
	Banned     bool
	BanReason  string

	// Media is nil until the inspect stage has run.
	Media    *Media
	Identity Identity

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Media holds the facts read from the container by ffprobe.
type Media struct {
	AudioLanguages    []string `json:"audio_languages"`
	SubtitleLanguages []string `json:"subtitle_languages"`
	RuntimeMinutes    int      `json:"runtime_minutes"`
	HDR               string   `json:"hdr"`
}

// Identity is the TMDB match chosen for a file.
type Identity struct {
	Status           IdentityStatus
	TMDBID           int64
	Title            string
	OriginalTitle    string
	Year             int
	VoteCount        int
	Runtime          int
	OriginalLanguage string
	IMDbID           string
	Score            int
	MatchType        string
	IdentifiedAt     time.Time
}

// Matched reports whether a TMDB id was accepted for the file.
func (i Identity) Matched() bool {
	return i.Status == IdentityMatched && i.TMDBID > 0
}

// Candidate returns the identity as a candidate for corroboration.
func (i Identity) Candidate() identity.Candidate {
	return identity.Candidate{
		ID:               i.TMDBID,
		Title:            i.Title,
		OriginalTitle:    i.OriginalTitle,
		Year:             i.Year,
		VoteCount:        i.VoteCount,
		Runtime:          i.Runtime,
		OriginalLanguage: i.OriginalLanguage,
	}
}

// Fingerprint reports whether size and mtime still match the stored row.
func (f *File) Fingerprint(size int64, modTime time.Time) bool {
	return f != nil && f.SizeBytes == size && f.ModTime.Equal(modTime)
}

// Attributes normalizes the parsed filename tokens. The HDR format is the
// label stored when the file was inspected; uninspected files are SDR.
func (f *File) Attributes() release.Attributes {
	attrs := release.Normalize(release.Tokens{
		Quality:    f.Quality,
		Resolution: f.Resolution,
		Group:      f.Group,
	})
	if f.Media != nil {
		attrs.HDR = release.ParseHDR(f.Media.HDR)
	}
	return attrs
}

// Label is the title and year used in logs and reports.
func (f *File) Label() string {
	if f.Identity.Matched() && f.Identity.Title != "" {
		return yearLabel(f.Identity.Title, f.Identity.Year)
	}
	if f.Title != "" {
		return yearLabel(f.Title, f.Year)
	}
	return f.Name
}

// EntryRecord is the stored form of one catalog entry.
type EntryRecord struct {
	Name       string `json:"name"`
	Quality    string `json:"quality"`
	Resolution string `json:"resolution"`
	HDR        string `json:"hdr"`
	Group      string `json:"group"`
}

// NewEntryRecords converts catalog entries into their stored form.
func NewEntryRecords(entries []catalog.Entry) []EntryRecord {
	out := make([]EntryRecord, 0, len(entries))
	for _, entry := range entries {
		tokens := entry.Attributes.Tokens()
		out = append(out, EntryRecord{
			Name:       entry.Name,
			Quality:    tokens.Quality,
			Resolution: tokens.Resolution,
			HDR:        tokens.HDR,
			Group:      tokens.Group,
		})
	}
	return out
}

// Entry rebuilds the catalog entry.
func (r EntryRecord) Entry() catalog.Entry {
	return catalog.NewEntry(r.Name, release.Tokens{
		Quality:    r.Quality,
		Resolution: r.Resolution,
		HDR:        r.HDR,
		Group:      r.Group,
	})
}

// Search is the cached result of one catalog lookup for one file.
type Search struct {
	FileID     int64
	Catalog    string
	SearchedAt time.Time
	// Error is set when the lookup failed; failed searches are retried.
	Error   string
	Entries []EntryRecord
}

// Failed reports whether the lookup ended in an error.
func (s *Search) Failed() bool { return s != nil && s.Error != "" }

// CatalogEntries rebuilds the catalog entries of a successful search.
func (s *Search) CatalogEntries() []catalog.Entry {
	out := make([]catalog.Entry, 0, len(s.Entries))
	for _, record := range s.Entries {
		out = append(out, record.Entry())
	}
	return out
}

// Verdict is the stored classification of one file for one catalog.
type Verdict struct {
	FileID    int64
	Catalog   string
	Outcome   safety.Outcome
	Reason    string
	Details   []string
	Upgrade   bool
	DecidedAt time.Time
}

// Listing pairs a verdict with its file.
type Listing struct {
	Verdict Verdict
	File    File
}

// ResetScope selects what Reset clears.
type ResetScope string

const (
	ResetVerdicts ResetScope = "verdicts"
	ResetSearches ResetScope = "searches"
	ResetAll      ResetScope = "all"
)
