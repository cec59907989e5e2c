package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"uploadcheck/internal/catalog"
	"uploadcheck/internal/release"
	"uploadcheck/internal/safety"
	"uploadcheck/internal/store"
	"uploadcheck/internal/testsupport"
)

func TestOpenCreatesSchemaOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	first.Close()

	second, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if second.Path() != cfg.Paths.Database {
		t.Fatalf("unexpected path %q", second.Path())
	}
}

func TestUpsertFileRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	path := filepath.Join(testsupport.MoviesDir(cfg), "Heat.1995.1080p.BluRay.x264-DON.mkv")
	file := testsupport.AddFile(t, st, path, store.File{
		Title:      "Heat",
		Year:       1995,
		Quality:    "encode",
		Resolution: "1080p",
		Codec:      "x264",
		Group:      "DON",
	})
	if file.ID == 0 || file.Name != "Heat.1995.1080p.BluRay.x264-DON.mkv" {
		t.Fatalf("unexpected stored file %#v", file)
	}
	if file.Media != nil || file.Identity.Matched() {
		t.Fatal("expected no media or identity on a fresh file")
	}
	if file.Label() != "Heat (1995)" {
		t.Fatalf("unexpected label %q", file.Label())
	}
	attrs := file.Attributes()
	if attrs.Quality != release.QualityEncode || attrs.Resolution != release.Resolution1080p {
		t.Fatalf("unexpected attributes %+v", attrs)
	}

	missing, err := st.FileByPath(ctx, "/nope.mkv")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing path, got %v, %v", missing, err)
	}
}

func TestChangedFileDropsDerivedState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	path := filepath.Join(testsupport.MoviesDir(cfg), "Heat.1995.1080p.BluRay.x264-DON.mkv")
	file := testsupport.AddFile(t, st, path, store.File{Title: "Heat", Year: 1995, SizeBytes: 100})

	if err := st.UpdateMedia(ctx, file.ID, store.Media{AudioLanguages: []string{"en"}, RuntimeMinutes: 170, HDR: "SDR"}); err != nil {
		t.Fatalf("UpdateMedia: %v", err)
	}
	if err := st.UpdateIdentity(ctx, file.ID, store.Identity{Status: store.IdentityMatched, TMDBID: 949, Title: "Heat", Year: 1995}); err != nil {
		t.Fatalf("UpdateIdentity: %v", err)
	}
	if err := st.RecordSearch(ctx, store.Search{FileID: file.ID, Catalog: "aither"}); err != nil {
		t.Fatalf("RecordSearch: %v", err)
	}

	// Same fingerprint keeps everything.
	same := testsupport.AddFile(t, st, path, store.File{Title: "Heat", Year: 1995, SizeBytes: 100})
	if same.ID != file.ID || same.Media == nil || !same.Identity.Matched() {
		t.Fatalf("expected derived state to survive an unchanged rescan: %#v", same)
	}

	changed := testsupport.AddFile(t, st, path, store.File{Title: "Heat", Year: 1995, SizeBytes: 200})
	if changed.Media != nil || changed.Identity.Status != store.IdentityPending || changed.Identity.TMDBID != 0 {
		t.Fatalf("expected derived state cleared, got %#v", changed)
	}
	search, err := st.SearchFor(ctx, file.ID, "aither")
	if err != nil {
		t.Fatalf("SearchFor: %v", err)
	}
	if search != nil {
		t.Fatalf("expected search cleared, got %#v", search)
	}
}

func TestBanningFileDropsVerdicts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	path := filepath.Join(testsupport.MoviesDir(cfg), "Heat.1995.1080p.BluRay.x264-DON.mkv")
	file := testsupport.AddFile(t, st, path, store.File{Title: "Heat", Year: 1995})
	if err := st.UpdateIdentity(ctx, file.ID, store.Identity{Status: store.IdentityMatched, TMDBID: 949, Title: "Heat", Year: 1995}); err != nil {
		t.Fatalf("UpdateIdentity: %v", err)
	}
	if err := st.RecordSearch(ctx, store.Search{FileID: file.ID, Catalog: "aither"}); err != nil {
		t.Fatalf("RecordSearch: %v", err)
	}
	if err := st.SaveVerdict(ctx, store.Verdict{FileID: file.ID, Catalog: "aither", Outcome: safety.OutcomeSafe, Reason: safety.ReasonNewRelease}); err != nil {
		t.Fatalf("SaveVerdict: %v", err)
	}

	banned := testsupport.AddFile(t, st, path, store.File{Title: "Heat", Year: 1995, Banned: true, BanReason: "keyword heat"})
	if !banned.Banned || !banned.Identity.Matched() {
		t.Fatalf("expected banned file to keep its identity: %#v", banned)
	}
	listings, err := st.VerdictsByCatalog(ctx, "aither")
	if err != nil {
		t.Fatalf("VerdictsByCatalog: %v", err)
	}
	if len(listings) != 0 {
		t.Fatalf("expected verdicts dropped after ban, got %+v", listings)
	}
	search, err := st.SearchFor(ctx, file.ID, "aither")
	if err != nil || search != nil {
		t.Fatalf("expected search dropped after ban, got %#v, %v", search, err)
	}
}

func TestDeleteVerdicts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	file := testsupport.AddFile(t, st, filepath.Join(testsupport.MoviesDir(cfg), "a.mkv"), store.File{Title: "A"})
	for _, name := range []string{"aither", "blutopia"} {
		if err := st.SaveVerdict(ctx, store.Verdict{FileID: file.ID, Catalog: name, Outcome: safety.OutcomeRisky}); err != nil {
			t.Fatalf("SaveVerdict: %v", err)
		}
	}
	removed, err := st.DeleteVerdicts(ctx, file.ID)
	if err != nil || removed != 2 {
		t.Fatalf("DeleteVerdicts = %d, %v", removed, err)
	}
	counts, err := st.VerdictCounts(ctx)
	if err != nil || len(counts) != 0 {
		t.Fatalf("expected no verdicts left, got %v, %v", counts, err)
	}
}

func TestFileAttributesReadStoredHDRLabel(t *testing.T) {
	tests := []struct {
		label string
		want  release.HDRFormat
	}{
		{"SDR", release.SDR},
		{"HDR", release.HDR},
		{"HDR10+", release.HDR10Plus},
		{"DV", release.DolbyVision},
		{"DV+HDR", release.DolbyVisionHDR},
		{"DV+HDR10+", release.DolbyVisionHDR10Plus},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			f := &store.File{Quality: "remux", Resolution: "2160p", Group: "GRP", Media: &store.Media{HDR: tt.label}}
			attrs := f.Attributes()
			if attrs.HDR != tt.want || attrs.Quality != release.QualityRemux || attrs.Resolution != release.Resolution2160p {
				t.Fatalf("Attributes() = %+v, want HDR %s", attrs, tt.want)
			}
		})
	}
	if got := (&store.File{Quality: "remux", Resolution: "2160p"}).Attributes().HDR; got != release.SDR {
		t.Fatalf("expected uninspected file to be SDR, got %s", got)
	}
}

func TestFingerprint(t *testing.T) {
	mod := time.Unix(1_700_000_000, 123).UTC()
	f := &store.File{SizeBytes: 10, ModTime: mod}
	if !f.Fingerprint(10, mod) {
		t.Fatal("expected matching fingerprint")
	}
	if f.Fingerprint(11, mod) || f.Fingerprint(10, mod.Add(time.Second)) {
		t.Fatal("expected mismatch on size or mtime change")
	}
	var nilFile *store.File
	if nilFile.Fingerprint(10, mod) {
		t.Fatal("expected nil file never to match")
	}
}

func TestIdentityChangeClearsSearches(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	file := testsupport.AddFile(t, st, filepath.Join(testsupport.MoviesDir(cfg), "a.mkv"), store.File{Title: "A"})
	if err := st.UpdateIdentity(ctx, file.ID, store.Identity{Status: store.IdentityMatched, TMDBID: 1}); err != nil {
		t.Fatalf("UpdateIdentity: %v", err)
	}
	if err := st.RecordSearch(ctx, store.Search{FileID: file.ID, Catalog: "aither"}); err != nil {
		t.Fatalf("RecordSearch: %v", err)
	}
	// Re-identifying with the same id keeps the cache.
	if err := st.UpdateIdentity(ctx, file.ID, store.Identity{Status: store.IdentityMatched, TMDBID: 1, Score: 99}); err != nil {
		t.Fatalf("UpdateIdentity: %v", err)
	}
	if s, _ := st.SearchFor(ctx, file.ID, "aither"); s == nil {
		t.Fatal("expected search to survive same identity")
	}
	if err := st.UpdateIdentity(ctx, file.ID, store.Identity{Status: store.IdentityMatched, TMDBID: 2}); err != nil {
		t.Fatalf("UpdateIdentity: %v", err)
	}
	if s, _ := st.SearchFor(ctx, file.ID, "aither"); s != nil {
		t.Fatal("expected search cleared after identity change")
	}
	if err := st.UpdateIdentity(ctx, 9999, store.Identity{}); err == nil {
		t.Fatal("expected error for unknown file")
	}
}

func TestSearchRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	file := testsupport.AddFile(t, st, filepath.Join(testsupport.MoviesDir(cfg), "a.mkv"), store.File{Title: "A"})
	entries := []catalog.Entry{
		catalog.NewEntry("A 2020 2160p UHD BluRay REMUX DV HDR-GRP", release.Tokens{Quality: "Remux", Resolution: "2160p", HDR: "DV HDR", Group: "GRP"}),
		catalog.NewEntry("A 2020 1080p WEB-DL-NTb", release.Tokens{Quality: "WEB-DL", Resolution: "1080p", Group: "NTb"}),
	}
	if err := st.RecordSearch(ctx, store.Search{FileID: file.ID, Catalog: "aither", Entries: store.NewEntryRecords(entries)}); err != nil {
		t.Fatalf("RecordSearch: %v", err)
	}
	search, err := st.SearchFor(ctx, file.ID, "aither")
	if err != nil || search == nil {
		t.Fatalf("SearchFor: %v, %v", search, err)
	}
	if search.Failed() || search.SearchedAt.IsZero() {
		t.Fatalf("unexpected search %#v", search)
	}
	got := search.CatalogEntries()
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	for i := range entries {
		if got[i].Name != entries[i].Name || got[i].Attributes != entries[i].Attributes {
			t.Fatalf("entry %d mismatch: %+v vs %+v", i, got[i], entries[i])
		}
	}

	if err := st.RecordSearch(ctx, store.Search{FileID: file.ID, Catalog: "aither", Error: "rate limited"}); err != nil {
		t.Fatalf("RecordSearch overwrite: %v", err)
	}
	search, _ = st.SearchFor(ctx, file.ID, "aither")
	if !search.Failed() || len(search.Entries) != 0 {
		t.Fatalf("expected failed empty search, got %#v", search)
	}
	none, err := st.SearchFor(ctx, file.ID, "blutopia")
	if err != nil || none != nil {
		t.Fatalf("expected no search for other catalog, got %v, %v", none, err)
	}
}

func TestVerdictsByCatalogOrdersAndFilters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	dir := testsupport.MoviesDir(cfg)

	b := testsupport.AddFile(t, st, filepath.Join(dir, "b.mkv"), store.File{Title: "B"})
	a := testsupport.AddFile(t, st, filepath.Join(dir, "a.mkv"), store.File{Title: "A"})
	c := testsupport.AddFile(t, st, filepath.Join(dir, "c.mkv"), store.File{Title: "C"})

	verdicts := []store.Verdict{
		{FileID: b.ID, Catalog: "aither", Outcome: safety.OutcomeSafe, Reason: safety.ReasonNewRelease},
		{FileID: a.ID, Catalog: "aither", Outcome: safety.OutcomeRisky, Reason: safety.ReasonMaybeDowngrade, Details: []string{"x", "y"}},
		{FileID: c.ID, Catalog: "aither", Outcome: safety.OutcomeSafe, Reason: "upgrade", Upgrade: true},
		{FileID: a.ID, Catalog: "blutopia", Outcome: safety.OutcomeSkip, Reason: "dup"},
	}
	for _, v := range verdicts {
		if err := st.SaveVerdict(ctx, v); err != nil {
			t.Fatalf("SaveVerdict: %v", err)
		}
	}

	listings, err := st.VerdictsByCatalog(ctx, "aither")
	if err != nil {
		t.Fatalf("VerdictsByCatalog: %v", err)
	}
	var names []string
	for _, l := range listings {
		names = append(names, l.File.Name)
	}
	if len(names) != 3 || names[0] != "b.mkv" || names[1] != "c.mkv" || names[2] != "a.mkv" {
		t.Fatalf("unexpected order %v", names)
	}
	if !listings[1].Verdict.Upgrade || len(listings[2].Verdict.Details) != 2 {
		t.Fatalf("unexpected verdict fields %+v", listings)
	}

	risky, err := st.VerdictsByCatalog(ctx, "aither", safety.OutcomeRisky)
	if err != nil || len(risky) != 1 || risky[0].File.ID != a.ID {
		t.Fatalf("unexpected filter result %+v, %v", risky, err)
	}

	counts, err := st.VerdictCounts(ctx)
	if err != nil {
		t.Fatalf("VerdictCounts: %v", err)
	}
	if counts["aither"][safety.OutcomeSafe] != 2 || counts["blutopia"][safety.OutcomeSkip] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestResetScopes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	file := testsupport.AddFile(t, st, filepath.Join(testsupport.MoviesDir(cfg), "a.mkv"), store.File{Title: "A"})
	if err := st.RecordSearch(ctx, store.Search{FileID: file.ID, Catalog: "aither"}); err != nil {
		t.Fatalf("RecordSearch: %v", err)
	}
	if err := st.SaveVerdict(ctx, store.Verdict{FileID: file.ID, Catalog: "aither", Outcome: safety.OutcomeSafe, Reason: "r"}); err != nil {
		t.Fatalf("SaveVerdict: %v", err)
	}

	if n, err := st.Reset(ctx, store.ResetVerdicts); err != nil || n != 1 {
		t.Fatalf("reset verdicts: %d, %v", n, err)
	}
	if s, _ := st.SearchFor(ctx, file.ID, "aither"); s == nil {
		t.Fatal("expected search to survive verdict reset")
	}
	if n, err := st.Reset(ctx, store.ResetAll); err != nil || n != 2 {
		t.Fatalf("reset all: %d, %v", n, err)
	}
	files, err := st.ListFiles(ctx)
	if err != nil || len(files) != 0 {
		t.Fatalf("expected no files, got %d, %v", len(files), err)
	}
	if _, err := st.Reset(ctx, store.ResetScope("bogus")); err == nil {
		t.Fatal("expected unknown scope error")
	}
}

func TestPruneRemovesMissingFilesUnderRoots(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	root := testsupport.MoviesDir(cfg)

	keep := testsupport.AddFile(t, st, filepath.Join(root, "keep.mkv"), store.File{})
	testsupport.AddFile(t, st, filepath.Join(root, "sub", "gone.mkv"), store.File{})
	testsupport.AddFile(t, st, "/elsewhere/other.mkv", store.File{})

	removed, err := st.Prune(ctx, []string{root}, map[string]struct{}{keep.Path: {}})
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	files, _ := st.ListFiles(ctx)
	if len(files) != 2 {
		t.Fatalf("expected 2 files left, got %d", len(files))
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := store.OpenPath(" "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
