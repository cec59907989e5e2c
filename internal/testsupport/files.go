package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path with the given logical size. The file is sparse,
// so large sizes used to clear the minimum-size filter stay cheap. A size
// <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte{0x42}, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if size > 1 {
		if err := os.Truncate(path, size); err != nil {
			t.Fatalf("truncate %s: %v", path, err)
		}
	}
}
