package blockdupes

import (
	"fmt"
)

// DuplicateGroup represents a set of files proven byte-identical
type DuplicateGroup struct {
	Hash      string   `json:"hash" yaml:"hash"`
	Algorithm string   `json:"algorithm" yaml:"algorithm"`
	Size      int64    `json:"size" yaml:"size"`
	Files     []string `json:"files" yaml:"files"`
	Count     int      `json:"count" yaml:"count"`
}

// WastedBytes returns the bytes held by every copy beyond the first
func (g DuplicateGroup) WastedBytes() int64 {
	if g.Count < 2 {
		return 0
	}
	return g.Size * int64(g.Count-1)
}

// GroupStats counts the hashing work spent on one or more cohorts
type GroupStats struct {
	Hashed     int   // candidates given a calculator
	BlocksRead int   // block reads issued
	BytesRead  int64 // content bytes consumed
	Failed     int   // candidates dropped after an open or read error
	Groups     int
}

func (s *GroupStats) add(o GroupStats) {
	s.Hashed += o.Hashed
	s.BlocksRead += o.BlocksRead
	s.BytesRead += o.BytesRead
	s.Failed += o.Failed
	s.Groups += o.Groups
}

// Grouper resolves same-size cohorts into duplicate groups by hashing
// candidates block by block, only while they are still tied to a sibling.
type Grouper struct {
	algorithm *HashAlgorithm
	blockSize int
}

// NewGrouper creates a grouper using the algorithm and block size of opts
func NewGrouper(opts *ScanOptions) *Grouper {
	return &Grouper{
		algorithm: opts.algorithm,
		blockSize: opts.blockSize,
	}
}

// Group reorders cohort in place and returns the duplicate groups found in it.
// Candidates not captured in a group are discarded. Every calculator opened
// here is closed before Group returns.
//
// The cohort is refined with a cursor l and a stack of boundaries. The run
// [l, top) below the top boundary holds candidates at the same block count.
// Each pass moves the candidates equal to l right behind it; a lone l is
// unique and skipped, a finished tied run is a confirmed group, and an
// unfinished tied run becomes the new inner boundary and reads one more block.
func (g *Grouper) Group(cohort Cohort, shutdownChan <-chan struct{}) ([]DuplicateGroup, GroupStats, error) {
	var stats GroupStats
	if len(cohort) < 2 {
		return nil, stats, nil
	}
	defer func() {
		for i := range cohort {
			cohort[i].closeCalculator()
		}
	}()

	for i := range cohort {
		calc, err := NewHashCalculator(cohort[i].Path, g.algorithm, g.blockSize)
		if err != nil {
			return nil, stats, fmt.Errorf("failed to create hash calculator: %w", err)
		}
		cohort[i].calc = calc
		stats.Hashed++
		g.step(&cohort[i], &stats)
	}

	var groups []DuplicateGroup
	end := len(cohort)
	bounds := []int{end}
	l := 0

	for l < end {
		select {
		case <-shutdownChan:
			stats.Groups = len(groups)
			return groups, stats, ErrInterrupted
		default:
		}

		top := bounds[len(bounds)-1]
		if l >= top {
			// the inner run is resolved; resume in the enclosing one
			bounds = bounds[:len(bounds)-1]
			continue
		}

		it := partitionMatching(cohort, l, top)

		switch {
		case it-l == 1:
			if IsDebugEnabled(DebugGroup) {
				VerboseLog(3, "group: %s unique after %d blocks", cohort[l].Path, cohort[l].calc.BlocksRead())
			}
			cohort[l].closeCalculator()
			l++

		case cohort[l].calc.Finished():
			group := g.makeGroup(cohort[l:it])
			if IsDebugEnabled(DebugGroup) {
				VerboseLog(3, "group: confirmed %d files of %d bytes", group.Count, group.Size)
			}
			groups = append(groups, group)
			for i := l; i < it; i++ {
				cohort[i].closeCalculator()
			}
			l = it

		default:
			if it != top {
				bounds = append(bounds, it)
			}
			for i := l; i < it; i++ {
				g.step(&cohort[i], &stats)
			}
		}
	}

	stats.Groups = len(groups)
	return groups, stats, nil
}

// step advances one candidate. A failure is logged and counted; the failed
// calculator stops comparing equal so the candidate drops out on its own.
func (g *Grouper) step(fc *FileCandidate, stats *GroupStats) {
	blocks, bytes := fc.calc.BlocksRead(), fc.calc.BytesRead()
	err := fc.calc.Step()
	stats.BlocksRead += fc.calc.BlocksRead() - blocks
	stats.BytesRead += fc.calc.BytesRead() - bytes
	if err != nil {
		stats.Failed++
		VerboseLog(1, "group: dropping %s: %v", fc.Path, err)
	}
}

// partitionMatching moves every candidate in (l, top) whose digest equals
// l's to the front of the range and returns the end of the matched run.
// l always counts as matching itself.
func partitionMatching(cohort Cohort, l, top int) int {
	ref := cohort[l].calc
	it := l + 1
	for i := l + 1; i < top; i++ {
		if ref.Equal(cohort[i].calc) {
			cohort[i], cohort[it] = cohort[it], cohort[i]
			it++
		}
	}
	return it
}

func (g *Grouper) makeGroup(members Cohort) DuplicateGroup {
	files := make([]string, len(members))
	for i := range members {
		files[i] = members[i].Path
	}
	return DuplicateGroup{
		Hash:      members[0].calc.HexDigest(),
		Algorithm: g.algorithm.Name,
		Size:      members[0].Size,
		Files:     files,
		Count:     len(files),
	}
}
