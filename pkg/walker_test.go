package blockdupes

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walkTestDir(t *testing.T, params ScanParams) []string {
	t.Helper()
	candidates, err := NewWalker(newTestScanOptions(t, params)).Walk(nil)
	require.NoError(t, err)
	return candidatePaths(candidates)
}

func TestWalker_Depth(t *testing.T) {
	dir := t.TempDir()
	top := writeTestFile(t, dir, "top.txt", []byte("x"))
	one := writeTestFile(t, dir, "one/a.txt", []byte("x"))
	two := writeTestFile(t, dir, "one/two/b.txt", []byte("x"))

	tests := []struct {
		depth int
		want  []string
	}{
		{0, []string{top}},
		{1, []string{one, top}},
		{2, []string{one, two, top}},
		{10, []string{one, two, top}},
	}
	for _, tt := range tests {
		got := walkTestDir(t, ScanParams{IncludePaths: []string{dir}, Depth: tt.depth})
		assert.Equal(t, tt.want, got, "depth %d", tt.depth)
	}
}

func TestWalker_ExcludedDirectoryPruned(t *testing.T) {
	dir := t.TempDir()
	keepA := writeTestFile(t, dir, "keep/a", []byte("hello"))
	keepB := writeTestFile(t, dir, "keep/b", []byte("hello"))
	writeTestFile(t, dir, "skip/c", []byte("hello"))
	writeTestFile(t, dir, "skip/d", []byte("hello"))

	link := filepath.Join(dir, "skip-link")
	require.NoError(t, os.Symlink(filepath.Join(dir, "skip"), link))

	// every spelling of the excluded directory must prune it
	for _, exclude := range []string{
		filepath.Join(dir, "skip"),
		filepath.Join(dir, "keep", "..", "skip"),
		link,
	} {
		got := walkTestDir(t, ScanParams{
			IncludePaths: []string{dir},
			ExcludePaths: []string{exclude},
			Depth:        5,
		})
		assert.Equal(t, []string{keepA, keepB}, got, "exclude %s", exclude)
	}
}

func TestWalker_ExcludedIncludeRootYieldsNothing(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "sub/a", []byte("hello"))

	got := walkTestDir(t, ScanParams{
		IncludePaths: []string{filepath.Join(dir, "sub")},
		ExcludePaths: []string{dir},
		Depth:        5,
	})
	assert.Empty(t, got)
}

func TestWalker_NamePatterns(t *testing.T) {
	dir := t.TempDir()
	upper := writeTestFile(t, dir, "A.LOG", []byte("same"))
	lower := writeTestFile(t, dir, "a.log", []byte("same"))
	writeTestFile(t, dir, "a.txt", []byte("same"))

	got := walkTestDir(t, ScanParams{
		IncludePaths: []string{dir},
		NamePatterns: []string{"*.log"},
	})
	assert.Equal(t, []string{upper, lower}, got)
}

func TestWalker_SkipsSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := writeTestFile(t, dir, "target", []byte("hello"))
	require.NoError(t, os.Symlink(target, filepath.Join(dir, "file-link")))

	other := t.TempDir()
	writeTestFile(t, other, "inside", []byte("hello"))
	require.NoError(t, os.Symlink(other, filepath.Join(dir, "dir-link")))

	got := walkTestDir(t, ScanParams{IncludePaths: []string{dir}, Depth: 5})
	assert.Equal(t, []string{target}, got)
}

func TestWalker_SizeFilter(t *testing.T) {
	dir := t.TempDir()
	empty := writeTestFile(t, dir, "empty", nil)
	small := writeTestFile(t, dir, "small", []byte("12345"))
	big := writeTestFile(t, dir, "big", make([]byte, 50))

	tests := []struct {
		filter int64
		want   []string
	}{
		{0, []string{big, empty, small}},
		{1, []string{big, small}},
		{10, []string{big}},
		{-10, []string{empty, small}},
		{-5, []string{empty, small}},
	}
	for _, tt := range tests {
		got := walkTestDir(t, ScanParams{IncludePaths: []string{dir}, SizeFilter: tt.filter})
		assert.Equal(t, tt.want, got, "size filter %d", tt.filter)
	}
}

func TestWalker_OverlappingRootsEmitOnce(t *testing.T) {
	dir := t.TempDir()
	a := writeTestFile(t, dir, "a", []byte("x"))
	b := writeTestFile(t, dir, "sub/b", []byte("x"))

	got := walkTestDir(t, ScanParams{
		IncludePaths: []string{dir, filepath.Join(dir, "sub"), dir},
		Depth:        3,
	})
	assert.Len(t, got, 2)
	assert.Contains(t, got, a)
	assert.Contains(t, got, b)
}

func TestWalker_SymlinkedIncludeRoot(t *testing.T) {
	base := t.TempDir()
	writeTestFile(t, base, "real/f", []byte("x"))
	realDir, err := filepath.EvalSymlinks(filepath.Join(base, "real"))
	require.NoError(t, err)
	link := filepath.Join(base, "link")
	require.NoError(t, os.Symlink(realDir, link))

	got := walkTestDir(t, ScanParams{IncludePaths: []string{link}})
	assert.Equal(t, []string{filepath.Join(realDir, "f")}, got)

	got = walkTestDir(t, ScanParams{IncludePaths: []string{link, realDir}})
	assert.Len(t, got, 1, "a root reached through a symlink and directly is walked once")
}

func TestWalker_InvalidIncludeRoots(t *testing.T) {
	dir := t.TempDir()
	file := writeTestFile(t, dir, "file", []byte("x"))

	for _, root := range []string{filepath.Join(dir, "missing"), file} {
		_, err := NewWalker(newTestScanOptions(t, ScanParams{IncludePaths: []string{root}})).Walk(nil)
		assert.Error(t, err, "include root %s", root)
	}
}

func TestWalker_UnreadableDirectorySkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	dir := t.TempDir()
	ok := writeTestFile(t, dir, "ok/f", []byte("x"))
	writeTestFile(t, dir, "locked/f", []byte("x"))
	locked := filepath.Join(dir, "locked")
	require.NoError(t, os.Chmod(locked, 0))
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	walker := NewWalker(newTestScanOptions(t, ScanParams{IncludePaths: []string{dir}, Depth: 3}))
	candidates, err := walker.Walk(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{ok}, candidatePaths(candidates))
}

func TestWalker_Shutdown(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a", []byte("x"))
	writeTestFile(t, dir, "b", []byte("x"))

	shutdown := make(chan struct{})
	close(shutdown)

	_, err := NewWalker(newTestScanOptions(t, ScanParams{IncludePaths: []string{dir}})).Walk(shutdown)
	assert.True(t, errors.Is(err, ErrInterrupted), "expected ErrInterrupted, got %v", err)
}

func TestWalker_Stats(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a", []byte("x"))
	writeTestFile(t, dir, "b", nil)
	writeTestFile(t, dir, "sub/c", []byte("x"))
	require.NoError(t, os.Symlink(filepath.Join(dir, "a"), filepath.Join(dir, "l")))

	walker := NewWalker(newTestScanOptions(t, ScanParams{IncludePaths: []string{dir}, SizeFilter: 1, Depth: 1}))
	_, err := walker.Walk(nil)
	require.NoError(t, err)

	stats := walker.Stats()
	assert.Equal(t, int64(3), stats.Files)
	assert.Equal(t, int64(2), stats.Candidates)
	assert.Equal(t, int64(1), stats.Dirs)
	assert.Equal(t, int64(1), stats.Symlinks)
}

func TestWalker_PruneLogsExcludeContext(t *testing.T) {
	var logBuf bytes.Buffer
	SetLogOutput(&logBuf)
	SetVerboseLevel(3)
	SetDebugFlags(DebugWalk)
	t.Cleanup(func() {
		SetDebugFlags("")
		SetVerboseLevel(0)
		SetLogOutput(nil)
	})

	dir := t.TempDir()
	keep := writeTestFile(t, dir, "keep/a", []byte("x"))
	writeTestFile(t, dir, "configured/a", []byte("x"))
	late := filepath.Join(dir, "late")

	walker := NewWalker(newTestScanOptions(t, ScanParams{
		IncludePaths: []string{dir},
		ExcludePaths: []string{filepath.Join(dir, "configured"), late},
		Depth:        3,
	}))

	// created after the exclude set was built, so it was recorded lexically
	writeTestFile(t, dir, "late/a", []byte("x"))

	candidates, err := walker.Walk(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{keep}, candidatePaths(candidates))
	assert.Equal(t, int64(2), walker.Stats().Excluded)

	out := logBuf.String()
	assert.Contains(t, out, "walk: excluding ")
	assert.Contains(t, out, "(configured)")
	assert.Contains(t, out, "(lexical)")
}
