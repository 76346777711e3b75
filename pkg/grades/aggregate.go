package grades

// Aggregate computes the weighted average of entries.
//
// Entries with a non-finite score or weight, or a weight <= 0, are skipped.
// When nothing valid remains the result has a nil Average and zero
// TotalWeight. No rounding is applied; that is a presentation concern.
func Aggregate(entries []Entry) Result {
	var weighted, total float64
	for _, e := range entries {
		if !finite(e.Score) || !finite(e.Weight) || e.Weight <= 0 {
			continue
		}
		weighted += e.Score * e.Weight
		total += e.Weight
	}

	if total == 0 {
		return Result{}
	}
	return Result{
		Average:     ptr(weighted / total),
		TotalWeight: total,
	}
}

// Rollup aggregates lower-level results into a higher-level one, e.g. course
// averages weighted by credits into a semester average. Children without an
// average are skipped. It is Aggregate applied one level up.
func Rollup(children []Child) Result {
	entries := make([]Entry, 0, len(children))
	for _, c := range children {
		if c.Average == nil {
			continue
		}
		entries = append(entries, Entry{Score: *c.Average, Weight: c.Weight})
	}
	return Aggregate(entries)
}

// Mean is the unweighted mean of the non-nil averages. TotalWeight is the
// number of averages that contributed.
func Mean(results []Result) Result {
	children := make([]Child, 0, len(results))
	for _, r := range results {
		children = append(children, Child{Average: r.Average, Weight: 1})
	}
	return Rollup(children)
}
