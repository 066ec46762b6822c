package blockdupes

import (
	"strings"

	zcsl "github.com/mattkeenan/zerocopyskiplist"
)

// Context labels recorded with each exclude entry
const (
	ExcludeContextConfigured = "configured" // resolved from an existing directory
	ExcludeContextLexical    = "lexical"    // could not be resolved, kept in cleaned absolute form
)

type excludeEntry struct {
	path string
}

// excludeSet holds canonical exclude roots ordered by path
type excludeSet struct {
	skiplist *zcsl.ZeroCopySkiplist[excludeEntry, string, string]
}

func newExcludeSet(maxLevels int) *excludeSet {
	if maxLevels < 8 {
		maxLevels = 16
	}

	getKeyFromItem := func(e *excludeEntry) string {
		return e.path
	}
	getItemSize := func(e *excludeEntry) int {
		return len(e.path)
	}
	cmpKey := func(a, b string) int {
		return strings.Compare(a, b)
	}

	return &excludeSet{
		skiplist: zcsl.MakeZeroCopySkiplist[excludeEntry, string, string](
			maxLevels,
			getKeyFromItem,
			getItemSize,
			cmpKey,
		),
	}
}

// buildExcludeSet canonicalizes each exclude path. Paths that do not resolve
// are still excluded by their cleaned absolute form.
func buildExcludeSet(paths []string) *excludeSet {
	es := newExcludeSet(16)
	for _, p := range paths {
		canonical, err := canonicalPath(p)
		if canonical == "" {
			Warnf("ignoring exclude path %s: %v", p, err)
			continue
		}
		if es.contains(canonical) {
			continue
		}
		context := ExcludeContextConfigured
		if err != nil {
			context = ExcludeContextLexical
			VerboseLog(1, "exclude path %s could not be resolved (%v), matching lexically", p, err)
		}
		es.insert(canonical, context)
	}
	return es
}

func (es *excludeSet) insert(path, context string) bool {
	return es.skiplist.Insert(&excludeEntry{path: path}, context)
}

// contains reports whether the canonical directory is an exclude root
func (es *excludeSet) contains(canonicalDir string) bool {
	if es.skiplist.Length() == 0 {
		return false
	}
	item, _ := es.skiplist.Find(canonicalDir)
	return item != nil
}

// covers reports whether the canonical path is an exclude root or lies below one
func (es *excludeSet) covers(canonical string) bool {
	for current := es.skiplist.First(); current != nil; current = current.Next() {
		root := current.Item().path
		if root == canonical || isPathUnder(canonical, root) {
			return true
		}
	}
	return false
}

// context returns how an exclude root was recorded, or "" if it is not one
func (es *excludeSet) context(canonicalDir string) string {
	if es.skiplist.Length() == 0 {
		return ""
	}
	item, context := es.skiplist.Find(canonicalDir)
	if item == nil {
		return ""
	}
	return context
}

func (es *excludeSet) length() int {
	return es.skiplist.Length()
}

// paths returns the exclude roots in sorted order
func (es *excludeSet) paths() []string {
	var out []string
	for current := es.skiplist.First(); current != nil; current = current.Next() {
		out = append(out, current.Item().path)
	}
	return out
}
