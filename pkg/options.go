package blockdupes

import (
	"fmt"
	"path/filepath"
	"slices"
)

// ScanOptions is the immutable parameter bundle consumed by Scanner.
// Build it with NewScanOptions or Config.ToScanOptions.
type ScanOptions struct {
	includePaths []string
	excludePaths []string
	namePatterns []string
	names        *NameMatcher
	sizeFilter   int64
	depth        int
	blockSize    int
	algorithm    *HashAlgorithm
	hashWorkers  int
	walkWorkers  int
}

// ScanParams carries raw values for NewScanOptions
type ScanParams struct {
	IncludePaths  []string
	ExcludePaths  []string
	NamePatterns  []string // case-insensitive, full match against the base name
	SizeFilter    int64    // >0 minimum size, <0 maximum size, 0 no filter
	Depth         int      // 0 = direct children of each include root only
	BlockSize     int      // bytes read per hashing step
	HashAlgorithm string
	HashWorkers   int // cohorts grouped concurrently; 0 means DefaultHashWorkers
	WalkWorkers   int // directory reader goroutines; 0 lets fastwalk decide
}

// NewScanOptions validates params and returns an immutable ScanOptions
func NewScanOptions(params ScanParams) (*ScanOptions, error) {
	if len(params.IncludePaths) == 0 {
		return nil, ErrNoIncludePaths
	}
	if params.BlockSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, params.BlockSize)
	}
	if params.Depth < 0 {
		return nil, fmt.Errorf("depth must not be negative, got: %d", params.Depth)
	}

	name := params.HashAlgorithm
	if name == "" {
		name = DefaultHashAlgorithm
	}
	algorithm, err := GetHashAlgorithm(name)
	if err != nil {
		return nil, err
	}

	workers := params.HashWorkers
	if workers == 0 {
		workers = DefaultHashWorkers
	}
	if err := ValidateHashWorkers(workers); err != nil {
		return nil, err
	}
	if params.WalkWorkers < 0 {
		return nil, fmt.Errorf("walk workers must not be negative, got: %d", params.WalkWorkers)
	}

	names, err := NewNameMatcher(params.NamePatterns)
	if err != nil {
		return nil, err
	}

	includes := make([]string, 0, len(params.IncludePaths))
	for _, p := range params.IncludePaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve include path %s: %w", p, err)
		}
		includes = append(includes, abs)
	}

	return &ScanOptions{
		includePaths: includes,
		excludePaths: slices.Clone(params.ExcludePaths),
		namePatterns: slices.Clone(params.NamePatterns),
		names:        names,
		sizeFilter:   params.SizeFilter,
		depth:        params.Depth,
		blockSize:    params.BlockSize,
		algorithm:    algorithm,
		hashWorkers:  workers,
		walkWorkers:  params.WalkWorkers,
	}, nil
}

// IncludePaths returns the absolute include roots
func (o *ScanOptions) IncludePaths() []string { return slices.Clone(o.includePaths) }

// ExcludePaths returns the exclude roots as given
func (o *ScanOptions) ExcludePaths() []string { return slices.Clone(o.excludePaths) }

// NamePatterns returns the name patterns as given
func (o *ScanOptions) NamePatterns() []string { return slices.Clone(o.namePatterns) }

func (o *ScanOptions) SizeFilter() int64 { return o.sizeFilter }
func (o *ScanOptions) Depth() int        { return o.depth }
func (o *ScanOptions) BlockSize() int    { return o.blockSize }
func (o *ScanOptions) HashWorkers() int  { return o.hashWorkers }
func (o *ScanOptions) WalkWorkers() int  { return o.walkWorkers }

// HashAlgorithm returns a copy of the selected algorithm
func (o *ScanOptions) HashAlgorithm() *HashAlgorithm {
	a := *o.algorithm
	return &a
}

// passesSizeFilter applies the signed size threshold
func (o *ScanOptions) passesSizeFilter(size int64) bool {
	switch {
	case o.sizeFilter > 0:
		return size >= o.sizeFilter
	case o.sizeFilter < 0:
		return size <= -o.sizeFilter
	default:
		return true
	}
}
