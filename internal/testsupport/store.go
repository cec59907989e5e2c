package testsupport

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"uploadcheck/internal/config"
	"uploadcheck/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// AddFile upserts a parsed file row for tests.
func AddFile(t testing.TB, st *store.Store, path string, f store.File) *store.File {
	t.Helper()

	f.Path = path
	if f.Name == "" {
		f.Name = filepath.Base(path)
	}
	if f.SizeBytes == 0 {
		f.SizeBytes = 1
	}
	if f.ModTime.IsZero() {
		f.ModTime = time.Unix(1_700_000_000, 0).UTC()
	}
	stored, err := st.UpsertFile(context.Background(), &f)
	if err != nil {
		t.Fatalf("store.UpsertFile: %v", err)
	}
	return stored
}
