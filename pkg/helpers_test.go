package blockdupes

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// writeTestFile creates dir/rel with content, making parent directories as needed
func writeTestFile(t *testing.T, dir, rel string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", rel, err)
	}
	return path
}

// newTestScanOptions builds options with test-friendly defaults for unset fields
func newTestScanOptions(t *testing.T, params ScanParams) *ScanOptions {
	t.Helper()
	if params.BlockSize == 0 {
		params.BlockSize = DefaultBlockSize
	}
	opts, err := NewScanOptions(params)
	if err != nil {
		t.Fatalf("Failed to create scan options: %v", err)
	}
	return opts
}

// pathSets renders groups as sorted "a|b|c" strings so runs can be compared
// regardless of cohort order and partition order.
func pathSets(groups []DuplicateGroup) []string {
	sets := make([]string, 0, len(groups))
	for _, g := range groups {
		files := append([]string(nil), g.Files...)
		sort.Strings(files)
		sets = append(sets, strings.Join(files, "|"))
	}
	sort.Strings(sets)
	return sets
}

func candidatePaths(candidates []FileCandidate) []string {
	paths := make([]string, 0, len(candidates))
	for _, c := range candidates {
		paths = append(paths, c.Path)
	}
	sort.Strings(paths)
	return paths
}
