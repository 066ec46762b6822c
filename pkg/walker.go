package blockdupes

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
)

// FileCandidate is a regular file that passed every traversal filter.
// Size is fixed at discovery; the hash calculator is attached when the
// candidate's cohort starts grouping and belongs to this candidate alone.
type FileCandidate struct {
	Path string
	Size int64

	calc *HashCalculator
}

// Calculator returns the attached hash calculator, or nil before grouping
func (fc *FileCandidate) Calculator() *HashCalculator {
	return fc.calc
}

// closeCalculator releases the candidate's calculator and detaches it
func (fc *FileCandidate) closeCalculator() {
	if fc.calc != nil {
		fc.calc.Close()
		fc.calc = nil
	}
}

// WalkStats counts what the walker saw
type WalkStats struct {
	Dirs       int64 // directories entered or pruned
	Files      int64 // regular files seen
	Candidates int64 // files that passed every filter
	Excluded   int64 // directories pruned by the exclude set
	Symlinks   int64 // symlinks skipped
	Errors     int64 // unreadable entries skipped
}

// Walker produces FileCandidates from the include roots of a ScanOptions
type Walker struct {
	opts     *ScanOptions
	excludes *excludeSet
	stats    WalkStats
}

// NewWalker creates a walker; exclude paths are canonicalized once here
func NewWalker(opts *ScanOptions) *Walker {
	excludes := buildExcludeSet(opts.excludePaths)
	if excludes.length() > 0 {
		VerboseLog(2, "walk: excluding %s", strings.Join(excludes.paths(), ", "))
	}
	return &Walker{
		opts:     opts,
		excludes: excludes,
	}
}

// Stats returns the counters of the last Walk
func (w *Walker) Stats() WalkStats {
	return WalkStats{
		Dirs:       atomic.LoadInt64(&w.stats.Dirs),
		Files:      atomic.LoadInt64(&w.stats.Files),
		Candidates: atomic.LoadInt64(&w.stats.Candidates),
		Excluded:   atomic.LoadInt64(&w.stats.Excluded),
		Symlinks:   atomic.LoadInt64(&w.stats.Symlinks),
		Errors:     atomic.LoadInt64(&w.stats.Errors),
	}
}

type walkRoot struct {
	walkPath  string // path handed to fastwalk
	canonical string // symlink-free form, used for de-duplication
}

// resolveRoots checks every include root and drops duplicates and excluded roots
func (w *Walker) resolveRoots() ([]walkRoot, error) {
	seen := make(map[string]bool)
	var roots []walkRoot

	for _, root := range w.opts.includePaths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("include path %s: %w", root, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("include path %s is not a directory", root)
		}

		canonical, err := canonicalPath(root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve include path %s: %w", root, err)
		}
		if seen[canonical] {
			VerboseLog(2, "walk: skipping repeated include path %s", root)
			continue
		}
		seen[canonical] = true

		if w.excludes.covers(canonical) {
			VerboseLog(1, "walk: include path %s is excluded", root)
			atomic.AddInt64(&w.stats.Excluded, 1)
			continue
		}

		walkPath := root
		if lst, err := os.Lstat(root); err == nil && lst.Mode()&os.ModeSymlink != 0 {
			walkPath = canonical
		}
		roots = append(roots, walkRoot{walkPath: walkPath, canonical: canonical})
	}

	return roots, nil
}

// Walk traverses every include root. On shutdown it returns the candidates
// found so far together with an error wrapping ErrInterrupted.
func (w *Walker) Walk(shutdownChan <-chan struct{}) ([]FileCandidate, error) {
	defer VerboseEnter()()
	w.stats = WalkStats{}

	roots, err := w.resolveRoots()
	if err != nil {
		return nil, err
	}

	var (
		mu         sync.Mutex
		candidates []FileCandidate
		seen       = make(map[string]bool)
	)

	for _, root := range roots {
		if IsDebugEnabled(DebugWalk) {
			VerboseLog(3, "walk: scanning %s (depth %d)", root.walkPath, w.opts.depth)
		}

		conf := fastwalk.Config{
			Follow:     false,
			NumWorkers: w.opts.walkWorkers,
		}
		walkPath := root.walkPath
		canonicalRoot := root.canonical

		walkErr := fastwalk.Walk(&conf, walkPath, func(path string, d fs.DirEntry, err error) error {
			select {
			case <-shutdownChan:
				return ErrInterrupted
			default:
			}

			if err != nil {
				atomic.AddInt64(&w.stats.Errors, 1)
				if errors.Is(err, fs.ErrPermission) {
					VerboseLog(1, "walk: permission denied: %s", path)
				} else {
					VerboseLog(1, "walk: skipping %s: %v", path, err)
				}
				return nil
			}

			if path == walkPath {
				return nil
			}

			if d.IsDir() {
				return w.visitDir(path, walkPath)
			}

			candidate, ok := w.visitFile(path, d)
			if !ok {
				return nil
			}

			key := candidate.Path
			if rel, err := filepath.Rel(walkPath, path); err == nil {
				key = filepath.Join(canonicalRoot, rel)
			}

			mu.Lock()
			defer mu.Unlock()
			if seen[key] {
				return nil
			}
			seen[key] = true
			candidates = append(candidates, candidate)
			atomic.AddInt64(&w.stats.Candidates, 1)
			return nil
		})

		if walkErr != nil {
			if errors.Is(walkErr, ErrInterrupted) {
				return candidates, fmt.Errorf("walk of %s: %w", walkPath, ErrInterrupted)
			}
			Warnf("walk of %s stopped early: %v", walkPath, walkErr)
		}
	}

	VerboseLog(2, "walk: %d candidates from %d files in %d directories", len(candidates), w.stats.Files, w.stats.Dirs)
	return candidates, nil
}

// visitDir decides whether to descend into a directory
func (w *Walker) visitDir(path, root string) error {
	atomic.AddInt64(&w.stats.Dirs, 1)

	if w.excludes.length() > 0 {
		canonical, err := canonicalPath(path)
		if err != nil {
			VerboseLog(1, "walk: cannot resolve %s: %v", path, err)
		}
		if context := w.excludes.context(canonical); context != "" {
			atomic.AddInt64(&w.stats.Excluded, 1)
			if IsDebugEnabled(DebugWalk) {
				VerboseLog(3, "walk: pruning excluded directory %s (%s)", path, context)
			}
			return fs.SkipDir
		}
	}

	if pathDepth(root, path) >= w.opts.depth {
		return fs.SkipDir
	}
	return nil
}

// visitFile applies the type, name and size filters
func (w *Walker) visitFile(path string, d fs.DirEntry) (FileCandidate, bool) {
	if d.Type()&fs.ModeSymlink != 0 {
		atomic.AddInt64(&w.stats.Symlinks, 1)
		return FileCandidate{}, false
	}
	if !d.Type().IsRegular() {
		return FileCandidate{}, false
	}
	atomic.AddInt64(&w.stats.Files, 1)

	if !w.opts.names.Match(d.Name()) {
		return FileCandidate{}, false
	}

	info, err := d.Info()
	if err != nil {
		atomic.AddInt64(&w.stats.Errors, 1)
		VerboseLog(1, "walk: cannot stat %s: %v", path, err)
		return FileCandidate{}, false
	}
	if !info.Mode().IsRegular() {
		return FileCandidate{}, false
	}

	size := info.Size()
	if !w.opts.passesSizeFilter(size) {
		return FileCandidate{}, false
	}

	if IsDebugEnabled(DebugWalk) {
		VerboseLog(3, "walk: candidate %s (%d bytes)", path, size)
	}
	return FileCandidate{Path: path, Size: size}, true
}
