package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// PatternByte is the byte WriteFile stores at offset i, so range reads can be
// checked without keeping the file contents around.
func PatternByte(i int64) byte {
	return byte('a' + i%26)
}

// WriteFile creates path (and its parents) holding size pattern bytes. A size
// <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	data := make([]byte, size)
	for i := range data {
		data[i] = PatternByte(int64(i))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
