package checker_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gofrs/flock"

	"uploadcheck/internal/checker"
	"uploadcheck/internal/logging"
	"uploadcheck/internal/media/ffprobe"
	"uploadcheck/internal/safety"
	"uploadcheck/internal/store"
	"uploadcheck/internal/testsupport"
	"uploadcheck/internal/tmdb"
)

type fakeSearcher struct {
	movies map[string]tmdb.MovieDetails
	// leading results returned ahead of the real movie, keyed by title
	leading map[string][]tmdb.Result
	calls   atomic.Int64
}

func (f *fakeSearcher) SearchMovie(_ context.Context, title string, _ int) (*tmdb.Response, error) {
	f.calls.Add(1)
	key := strings.ToLower(title)
	movie, ok := f.movies[key]
	if !ok {
		return &tmdb.Response{}, nil
	}
	results := append([]tmdb.Result{}, f.leading[key]...)
	return &tmdb.Response{Results: append(results, movie.Result)}, nil
}

func (f *fakeSearcher) MovieDetails(_ context.Context, id int64) (*tmdb.MovieDetails, error) {
	for _, movie := range f.movies {
		if movie.ID == id {
			details := movie
			return &details, nil
		}
	}
	return nil, errors.New("not found")
}

func newSearcher() *fakeSearcher {
	movie := func(id int64, title, date, imdb, lang string) tmdb.MovieDetails {
		return tmdb.MovieDetails{
			Result: tmdb.Result{ID: id, Title: title, OriginalTitle: title, ReleaseDate: date, VoteCount: 500, OriginalLanguage: lang},
			IMDbID:  imdb,
			Runtime: 120,
		}
	}
	return &fakeSearcher{movies: map[string]tmdb.MovieDetails{
		"heat":   movie(949, "Heat", "1995-12-15", "tt0113277", "en"),
		"alien":  movie(348, "Alien", "1979-05-25", "tt0078748", "en"),
		"amelie": movie(194, "Amelie", "2001-04-25", "tt0211915", "fr"),
	}}
}

func fakeInspector(_ context.Context, _ string, path string) (ffprobe.Result, error) {
	lang := "eng"
	if strings.Contains(path, "Amelie") {
		lang = "fre"
	}
	return ffprobe.Result{
		Streams: []ffprobe.Stream{
			{Index: 0, CodecType: "video", CodecName: "h264", ColorTransfer: "bt709"},
			{Index: 1, CodecType: "audio", CodecName: "dts", Tags: map[string]string{"language": lang}},
		},
		Format: ffprobe.Format{Duration: "7200.0"},
	}, nil
}

// newCatalogServer serves a UNIT3D filter endpoint that lists an exact copy
// of the Alien release and nothing for any other movie.
func newCatalogServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("imdbId") == "0078748" {
			fmt.Fprint(w, `{"data":[{"id":1,"attributes":{"name":"Alien.1979.1080p.BluRay.x264-GRP","type":"Encode","resolution":"1080p"}}],"links":{"next":null}}`)
			return
		}
		fmt.Fprint(w, `{"data":[],"links":{"next":null}}`)
	}))
	t.Cleanup(server.Close)
	return server
}

func writeLibrary(t *testing.T, root string) {
	t.Helper()
	for _, name := range []string{
		"Heat.1995.1080p.BluRay.x264-GRP.mkv",
		"Alien.1979.1080p.BluRay.x264-GRP.mkv",
		"Amelie.2001.1080p.BluRay.x264-GRP.mkv",
		"Show.S01E02.1080p.WEB-DL.mkv",
	} {
		testsupport.WriteFile(t, filepath.Join(root, name), 64)
	}
}

func TestRunClassifiesLibrary(t *testing.T) {
	var hits atomic.Int64
	server := newCatalogServer(t, &hits)
	cfg := testsupport.NewConfig(t, testsupport.WithCatalog("aither", server.URL+"/", "unit3d", "secret"))
	cfg.Metrics.Textfile = filepath.Join(t.TempDir(), "uploadcheck.prom")
	st := testsupport.MustOpenStore(t, cfg)
	writeLibrary(t, testsupport.MoviesDir(cfg))

	var progressCalls atomic.Int64
	searcher := newSearcher()
	c, err := checker.New(cfg, st, logging.NewNop(),
		checker.WithSearcher(searcher),
		checker.WithInspector(fakeInspector),
		checker.WithProgress(func(checker.Stage, int, int) { progressCalls.Add(1) }),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	summary, err := c.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.RunID == "" || len(summary.Stages) != len(checker.AllStages) {
		t.Fatalf("unexpected summary header %+v", summary)
	}
	if summary.Scan.Found != 4 || summary.Scan.Banned != 1 {
		t.Fatalf("unexpected scan result %+v", summary.Scan)
	}
	if summary.Identify.Matched != 3 || summary.Identify.SkippedBanned != 1 {
		t.Fatalf("unexpected identify stats %+v", summary.Identify)
	}
	if summary.Inspect.Inspected != 3 {
		t.Fatalf("unexpected inspect summary %+v", summary.Inspect)
	}
	if summary.Processed != 3 || summary.Skipped != 1 {
		t.Fatalf("unexpected classify counts processed=%d skipped=%d", summary.Processed, summary.Skipped)
	}

	cs := summary.Catalogs["aither"]
	if cs == nil {
		t.Fatal("expected aither summary")
	}
	if cs.Searched != 3 || cs.Safe != 1 || cs.Danger != 1 || cs.Duplicates != 1 || cs.Risky != 0 {
		t.Fatalf("unexpected catalog summary %+v", cs)
	}
	if progressCalls.Load() == 0 {
		t.Fatal("expected progress callbacks")
	}

	listings, err := st.VerdictsByCatalog(ctx, "aither", safety.Outcomes...)
	if err != nil {
		t.Fatalf("VerdictsByCatalog: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected safe and danger listings, got %d", len(listings))
	}
	if listings[0].File.Title != "Heat" || listings[0].Verdict.Reason != safety.ReasonNewRelease {
		t.Fatalf("unexpected first listing %+v", listings[0].Verdict)
	}
	if listings[1].File.Title != "Amelie" || listings[1].Verdict.Reason != safety.ReasonNoEnglish {
		t.Fatalf("unexpected second listing %+v", listings[1].Verdict)
	}
	heat := listings[0].File
	if heat.Identity.IMDbID != "tt0113277" || heat.Media == nil || heat.Media.RuntimeMinutes != 120 {
		t.Fatalf("expected identity and media persisted, got %+v %+v", heat.Identity, heat.Media)
	}

	data, err := os.ReadFile(cfg.Metrics.Textfile)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(data), `uploadcheck_classify_verdicts_total{catalog="aither",outcome="safe"} 1`) {
		t.Fatalf("metrics textfile missing verdict counter:\n%s", data)
	}

	// A second run reuses stored identities and searches.
	before := hits.Load()
	lookups := searcher.calls.Load()
	summary, err = c.Run(ctx, checker.StageIdentify, checker.StageSearch, checker.StageClassify)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if hits.Load() != before || searcher.calls.Load() != lookups {
		t.Fatal("expected no new remote requests on the second run")
	}
	if got := summary.Catalogs["aither"]; got.Cached != 3 || got.Safe != 1 {
		t.Fatalf("unexpected second run summary %+v", got)
	}
}

func listingTitles(t *testing.T, st *store.Store, catalogName string) []string {
	t.Helper()
	listings, err := st.VerdictsByCatalog(context.Background(), catalogName, safety.Outcomes...)
	if err != nil {
		t.Fatalf("VerdictsByCatalog: %v", err)
	}
	var titles []string
	for _, l := range listings {
		titles = append(titles, l.File.Title)
	}
	return titles
}

func fileByTitle(t *testing.T, st *store.Store, title string) *store.File {
	t.Helper()
	files, err := st.ListFiles(context.Background())
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	for _, f := range files {
		if f.Title == title {
			return f
		}
	}
	t.Fatalf("file %q not stored", title)
	return nil
}

func TestLowVoteCandidateMakesFileUnverifiable(t *testing.T) {
	var hits atomic.Int64
	server := newCatalogServer(t, &hits)
	cfg := testsupport.NewConfig(t, testsupport.WithCatalog("aither", server.URL+"/", "unit3d", "secret"))
	st := testsupport.MustOpenStore(t, cfg)
	writeLibrary(t, testsupport.MoviesDir(cfg))

	searcher := newSearcher()
	searcher.leading = map[string][]tmdb.Result{
		"heat": {{ID: 949, Title: "Heat", OriginalTitle: "Heat", ReleaseDate: "1995-12-15", VoteCount: 2}},
	}
	c, err := checker.New(cfg, st, logging.NewNop(),
		checker.WithSearcher(searcher),
		checker.WithInspector(fakeInspector),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	heat := fileByTitle(t, st, "Heat")
	if heat.Identity.Status != store.IdentityUnverifiable || heat.Identity.Matched() {
		t.Fatalf("expected heat unverifiable, got %+v", heat.Identity)
	}
	if summary.Identify.Unverifiable != 1 || summary.Identify.Matched != 2 {
		t.Fatalf("unexpected identify stats %+v", summary.Identify)
	}
	if summary.Inspect.Inspected != 2 || summary.Processed != 2 || summary.Skipped != 2 {
		t.Fatalf("expected heat kept out of inspect and classify, got inspect=%+v processed=%d skipped=%d",
			summary.Inspect, summary.Processed, summary.Skipped)
	}
	for _, title := range listingTitles(t, st, "aither") {
		if title == "Heat" {
			t.Fatal("unverifiable file must not be classified")
		}
	}
}

func TestReidentifiedUnverifiableFileLosesVerdicts(t *testing.T) {
	var hits atomic.Int64
	server := newCatalogServer(t, &hits)
	cfg := testsupport.NewConfig(t, testsupport.WithCatalog("aither", server.URL+"/", "unit3d", "secret"))
	st := testsupport.MustOpenStore(t, cfg)
	writeLibrary(t, testsupport.MoviesDir(cfg))

	searcher := newSearcher()
	c, err := checker.New(cfg, st, logging.NewNop(),
		checker.WithSearcher(searcher),
		checker.WithInspector(fakeInspector),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	if _, err := c.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := listingTitles(t, st, "aither"); len(got) != 2 || got[0] != "Heat" {
		t.Fatalf("unexpected first run listings %v", got)
	}

	searcher.leading = map[string][]tmdb.Result{
		"heat": {{ID: 12, Title: "Heat", ReleaseDate: "1972-01-01", VoteCount: 1}},
	}
	forced, err := checker.New(cfg, st, logging.NewNop(),
		checker.WithSearcher(searcher),
		checker.WithInspector(fakeInspector),
		checker.WithForce(true),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := forced.Run(ctx, checker.StageIdentify, checker.StageClassify); err != nil {
		t.Fatalf("forced Run: %v", err)
	}
	if got := listingTitles(t, st, "aither"); len(got) != 1 || got[0] != "Amelie" {
		t.Fatalf("expected only Amelie left, got %v", got)
	}
}

func TestRescanBanDropsVerdicts(t *testing.T) {
	var hits atomic.Int64
	server := newCatalogServer(t, &hits)
	cfg := testsupport.NewConfig(t, testsupport.WithCatalog("aither", server.URL+"/", "unit3d", "secret"))
	st := testsupport.MustOpenStore(t, cfg)
	writeLibrary(t, testsupport.MoviesDir(cfg))

	searcher := newSearcher()
	c, err := checker.New(cfg, st, logging.NewNop(),
		checker.WithSearcher(searcher),
		checker.WithInspector(fakeInspector),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	if _, err := c.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	cfg.Scan.IgnoredKeywords = []string{"heat"}
	forced, err := checker.New(cfg, st, logging.NewNop(),
		checker.WithSearcher(searcher),
		checker.WithInspector(fakeInspector),
		checker.WithForce(true),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := forced.Run(ctx, checker.StageScan, checker.StageClassify); err != nil {
		t.Fatalf("forced Run: %v", err)
	}

	if heat := fileByTitle(t, st, "Heat"); !heat.Banned {
		t.Fatalf("expected heat banned after rescan, got %+v", heat)
	}
	if got := listingTitles(t, st, "aither"); len(got) != 1 || got[0] != "Amelie" {
		t.Fatalf("expected banned Heat dropped from listings, got %v", got)
	}
}

func TestRunSkipsCatalogWithoutKey(t *testing.T) {
	var hits atomic.Int64
	server := newCatalogServer(t, &hits)
	cfg := testsupport.NewConfig(t, testsupport.WithCatalog("aither", server.URL+"/", "unit3d", ""))
	t.Setenv("UPLOADCHECK_AITHER_API_KEY", "")
	st := testsupport.MustOpenStore(t, cfg)
	writeLibrary(t, testsupport.MoviesDir(cfg))

	c, err := checker.New(cfg, st, logging.NewNop(),
		checker.WithSearcher(newSearcher()),
		checker.WithInspector(fakeInspector),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	cs := summary.Catalogs["aither"]
	if cs.Disabled != "no api key" || cs.Searched != 0 || cs.Unsearched != 3 {
		t.Fatalf("unexpected catalog summary %+v", cs)
	}
	if hits.Load() != 0 {
		t.Fatal("expected no catalog requests without a key")
	}
}

func TestRunRecordsRejectedKey(t *testing.T) {
	var hits atomic.Int64
	server := newCatalogServer(t, &hits)
	cfg := testsupport.NewConfig(t, testsupport.WithCatalog("aither", server.URL+"/", "unit3d", "wrong"))
	st := testsupport.MustOpenStore(t, cfg)
	writeLibrary(t, testsupport.MoviesDir(cfg))

	c, err := checker.New(cfg, st, logging.NewNop(),
		checker.WithSearcher(newSearcher()),
		checker.WithInspector(fakeInspector),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	cs := summary.Catalogs["aither"]
	if cs.Disabled != "api key rejected" || cs.SearchErrors != 1 || hits.Load() != 1 {
		t.Fatalf("expected one rejected request, got %+v hits=%d", cs, hits.Load())
	}

	files, err := st.ListFiles(context.Background())
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	var failed int
	for _, f := range files {
		search, err := st.SearchFor(context.Background(), f.ID, "aither")
		if err != nil {
			t.Fatalf("SearchFor: %v", err)
		}
		if search.Failed() {
			failed++
		}
	}
	if failed != 1 {
		t.Fatalf("expected one failed search recorded, got %d", failed)
	}
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	lock := flock.New(cfg.Paths.LockFile)
	if ok, err := lock.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock: %v %v", ok, err)
	}
	t.Cleanup(func() { _ = lock.Unlock() })

	c, err := checker.New(cfg, st, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Run(context.Background(), checker.StageScan); !errors.Is(err, checker.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestParseStages(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    []checker.Stage
		wantErr bool
	}{
		{"ordered", []string{"classify", "scan"}, []checker.Stage{checker.StageScan, checker.StageClassify}, false},
		{"all", []string{"all"}, checker.AllStages, false},
		{"unknown", []string{"encode"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checker.ParseStages(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}
