package blockdupes

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ScanStats summarises one Scanner.Run
type ScanStats struct {
	Walk           WalkStats
	Cohorts        int // same-size cohorts handed to the grouper
	CohortFiles    int // candidates inside those cohorts
	Hashing        GroupStats
	Groups         int
	DuplicateFiles int   // files in groups, beyond the first of each
	WastedBytes    int64 // bytes held by those extra copies
	Elapsed        time.Duration
}

// Scanner drives walk, size classification and grouping, forwarding each
// cohort's groups to the reporter as soon as the cohort resolves.
type Scanner struct {
	opts     *ScanOptions
	reporter Reporter
	stats    ScanStats
}

// NewScanner creates a scanner. reporter may be nil when only the returned
// groups are wanted.
func NewScanner(opts *ScanOptions, reporter Reporter) *Scanner {
	return &Scanner{
		opts:     opts,
		reporter: reporter,
	}
}

// Stats returns the statistics of the last Run
func (s *Scanner) Stats() ScanStats {
	return s.stats
}

// Run scans the configured trees and returns every duplicate group found.
// When shutdownChan closes, Run returns the groups confirmed so far and an
// error wrapping ErrInterrupted.
func (s *Scanner) Run(shutdownChan <-chan struct{}) ([]DuplicateGroup, error) {
	defer VerboseEnter()()
	start := time.Now()
	s.stats = ScanStats{}
	defer func() {
		s.stats.Elapsed = time.Since(start)
	}()

	walker := NewWalker(s.opts)
	candidates, err := walker.Walk(shutdownChan)
	s.stats.Walk = walker.Stats()
	if err != nil {
		return nil, err
	}

	cohorts := ClassifyBySize(candidates)
	s.stats.Cohorts = len(cohorts)
	for _, c := range cohorts {
		s.stats.CohortFiles += len(c)
	}
	VerboseLog(2, "scan: %d candidates, %d cohorts holding %d files", len(candidates), len(cohorts), s.stats.CohortFiles)

	var groups []DuplicateGroup
	if s.opts.hashWorkers > 1 && len(cohorts) > 1 {
		groups, err = s.groupParallel(cohorts, shutdownChan)
	} else {
		groups, err = s.groupSequential(cohorts, shutdownChan)
	}

	s.logSummary()
	return groups, err
}

func (s *Scanner) groupSequential(cohorts []Cohort, shutdownChan <-chan struct{}) ([]DuplicateGroup, error) {
	grouper := NewGrouper(s.opts)
	var all []DuplicateGroup

	for i, cohort := range cohorts {
		groups, stats, err := grouper.Group(cohort, shutdownChan)
		s.stats.Hashing.add(stats)
		all = append(all, groups...)
		if rerr := s.deliver(groups); rerr != nil {
			return all, rerr
		}
		if err != nil {
			return all, fmt.Errorf("cohort %d of %d (%d bytes): %w", i+1, len(cohorts), cohort.Size(), err)
		}
	}
	return all, nil
}

type cohortResult struct {
	groups []DuplicateGroup
	stats  GroupStats
	err    error
}

// groupParallel confines each cohort, and every calculator in it, to one
// worker. Reporting stays on the calling goroutine.
func (s *Scanner) groupParallel(cohorts []Cohort, shutdownChan <-chan struct{}) ([]DuplicateGroup, error) {
	grouper := NewGrouper(s.opts)
	workers := min(s.opts.hashWorkers, len(cohorts))

	stop := make(chan struct{})
	var stopOnce sync.Once
	halt := func() { stopOnce.Do(func() { close(stop) }) }
	defer halt()

	go func() {
		select {
		case <-shutdownChan:
			halt()
		case <-stop:
		}
	}()

	jobs := make(chan Cohort)
	results := make(chan cohortResult, workers)

	go func() {
		defer close(jobs)
		for _, cohort := range cohorts {
			select {
			case jobs <- cohort:
			case <-stop:
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for cohort := range jobs {
				groups, stats, err := grouper.Group(cohort, stop)
				results <- cohortResult{groups: groups, stats: stats, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var all []DuplicateGroup
	var firstErr error
	for r := range results {
		s.stats.Hashing.add(r.stats)
		all = append(all, r.groups...)
		if firstErr == nil {
			if err := s.deliver(r.groups); err != nil {
				firstErr = err
				halt()
			}
		}
		if r.err != nil && firstErr == nil {
			firstErr = r.err
			halt()
		}
	}

	if firstErr == nil {
		select {
		case <-shutdownChan:
			firstErr = ErrInterrupted
		default:
		}
	}
	return all, firstErr
}

// deliver records a cohort's groups and hands them to the reporter
func (s *Scanner) deliver(groups []DuplicateGroup) error {
	for _, g := range groups {
		s.stats.Groups++
		s.stats.DuplicateFiles += g.Count - 1
		s.stats.WastedBytes += g.WastedBytes()
	}
	if s.reporter == nil || len(groups) == 0 {
		return nil
	}
	if err := s.reporter.ReportGroups(groups); err != nil {
		return fmt.Errorf("failed to report duplicates: %w", err)
	}
	return nil
}

func (s *Scanner) logSummary() {
	st := s.stats
	VerboseLog(1, "scanned %d files in %d directories, %d candidates in %d cohorts",
		st.Walk.Files, st.Walk.Dirs, st.CohortFiles, st.Cohorts)
	VerboseLog(1, "read %s in %d blocks (%d files dropped on error)",
		FormatSize(st.Hashing.BytesRead), st.Hashing.BlocksRead, st.Hashing.Failed)
	VerboseLog(1, "found %d duplicate groups, %d redundant files, %s reclaimable",
		st.Groups, st.DuplicateFiles, FormatSize(st.WastedBytes))
}

// IsInterrupted reports whether err came from a shutdown request
func IsInterrupted(err error) bool {
	return errors.Is(err, ErrInterrupted)
}
