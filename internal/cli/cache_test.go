package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheStats(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "ab"), 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"ab/one.json": `{"data":"x"}`,
		"ab/two.json": `{"data":"yy"}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	count, size := cacheStats(dir)
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if size != int64(len(files["ab/one.json"])+len(files["ab/two.json"])) {
		t.Errorf("size = %d", size)
	}
}

func TestCacheStatsMissingDir(t *testing.T) {
	count, size := cacheStats(filepath.Join(t.TempDir(), "absent"))
	if count != 0 || size != 0 {
		t.Errorf("stats of missing dir = (%d, %d)", count, size)
	}
}

func TestHumanBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := humanBytes(tt.n); got != tt.want {
			t.Errorf("humanBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
