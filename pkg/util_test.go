package blockdupes

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseSignedSize(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"1", 1, false},
		{"0", 0, false},
		{"10K", 10000, false},
		{"10KB", 10000, false},
		{"4KiB", 4096, false},
		{"+4KiB", 4096, false},
		{"-1MiB", -1048576, false},
		{"-1M", -1000000, false},
		{" 2 GiB ", 2 << 30, false},
		{"", 0, true},
		{"abc", 0, true},
		{"-", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSignedSize(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseSignedSize(%q) expected error, got %d", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSignedSize(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseSignedSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseBlockSize(t *testing.T) {
	if got, err := ParseBlockSize("8"); err != nil || got != 8 {
		t.Errorf("ParseBlockSize(8) = %d, %v", got, err)
	}
	if got, err := ParseBlockSize("64KiB"); err != nil || got != 65536 {
		t.Errorf("ParseBlockSize(64KiB) = %d, %v", got, err)
	}
	if _, err := ParseBlockSize("0"); !errors.Is(err, ErrInvalidBlockSize) {
		t.Errorf("Expected ErrInvalidBlockSize for 0, got %v", err)
	}
	if _, err := ParseBlockSize("-8"); err == nil {
		t.Error("Expected error for negative block size")
	}
}

func TestFormatSize(t *testing.T) {
	tests := map[int64]string{
		0:       "0 B",
		5:       "5 B",
		1024:    "1.0 KiB",
		1048576: "1.0 MiB",
		-2048:   "-2.0 KiB",
	}
	for n, want := range tests {
		if got := FormatSize(n); got != want {
			t.Errorf("FormatSize(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestIsPathUnder(t *testing.T) {
	tests := []struct {
		child, parent string
		want          bool
	}{
		{"/a/b", "/a", true},
		{"/a/b/c", "/a", true},
		{"/a", "/a", false},
		{"/ab", "/a", false},
		{"/a/b", "/", true},
		{"/b", "/a", false},
	}
	for _, tt := range tests {
		if got := isPathUnder(tt.child, tt.parent); got != tt.want {
			t.Errorf("isPathUnder(%q, %q) = %v, want %v", tt.child, tt.parent, got, tt.want)
		}
	}
}

func TestPathDepth(t *testing.T) {
	tests := []struct {
		path string
		want int
	}{
		{"/root", -1},
		{"/root/a", 0},
		{"/root/a/b", 1},
		{"/root/a/b/c", 2},
		{"/other/a", -1},
		{"/", -1},
	}
	for _, tt := range tests {
		if got := pathDepth("/root", tt.path); got != tt.want {
			t.Errorf("pathDepth(/root, %q) = %d, want %d", tt.path, got, tt.want)
		}
	}
}

func TestCanonicalPath(t *testing.T) {
	dir := t.TempDir()
	realDir := filepath.Join(dir, "real")
	if err := os.Mkdir(realDir, 0755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(realDir, link); err != nil {
		t.Fatal(err)
	}

	wantReal, err := filepath.EvalSymlinks(realDir)
	if err != nil {
		t.Fatal(err)
	}

	got, err := canonicalPath(link)
	if err != nil {
		t.Fatalf("canonicalPath(link) failed: %v", err)
	}
	if got != wantReal {
		t.Errorf("canonicalPath(link) = %s, want %s", got, wantReal)
	}

	missing := filepath.Join(dir, "missing", "..", "missing")
	got, err = canonicalPath(missing)
	if err == nil {
		t.Error("Expected error for missing path")
	}
	if got != filepath.Join(dir, "missing") {
		t.Errorf("Expected cleaned fallback, got %s", got)
	}
}
