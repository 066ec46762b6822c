package blockdupes

// Cohort is a run of candidates sharing one file size
type Cohort []FileCandidate

// Size returns the common size of the cohort's members
func (c Cohort) Size() int64 {
	if len(c) == 0 {
		return 0
	}
	return c[0].Size
}

// ClassifyBySize places candidates of equal size next to each other and
// returns one cohort per size seen more than once, in order of first
// discovery. Sizes seen once are dropped: a unique size has no duplicate.
// All cohorts share a single backing array.
func ClassifyBySize(candidates []FileCandidate) []Cohort {
	type bucket struct {
		count int
		start int
	}

	buckets := make(map[int64]*bucket)
	var order []int64
	for i := range candidates {
		size := candidates[i].Size
		b, ok := buckets[size]
		if !ok {
			b = &bucket{}
			buckets[size] = b
			order = append(order, size)
		}
		b.count++
	}

	total := 0
	for _, size := range order {
		b := buckets[size]
		if b.count < 2 {
			continue
		}
		b.start = total
		total += b.count
	}

	placed := make([]FileCandidate, total)
	fill := make(map[int64]int, len(order))
	for i := range candidates {
		size := candidates[i].Size
		b := buckets[size]
		if b.count < 2 {
			continue
		}
		placed[b.start+fill[size]] = candidates[i]
		fill[size]++
	}

	cohorts := make([]Cohort, 0, len(order))
	for _, size := range order {
		b := buckets[size]
		if b.count < 2 {
			continue
		}
		cohorts = append(cohorts, Cohort(placed[b.start:b.start+b.count:b.start+b.count]))
	}

	if IsDebugEnabled(DebugClassify) {
		VerboseLog(3, "classify: %d candidates, %d sizes, %d cohorts holding %d files", len(candidates), len(order), len(cohorts), total)
	}
	return cohorts
}
