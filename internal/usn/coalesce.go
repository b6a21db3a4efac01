package usn

// Coalesce applies a pairwise mark-ignore sweep in place: for every
// pair (i, j) sharing a 64-bit id with i later than j in journal order,
// applyRule decides whether one or both entries should be skipped on
// apply. The sweep is intentionally O(n^2) on list length; replacing it
// with an id-keyed hash map is the natural scaling path for larger
// bursts, not implemented here since journal polling windows are
// bounded to a 64 KiB read per cycle.
func Coalesce(changes []Change) {
	for i := range changes {
		if changes[i].Ignore {
			continue
		}
		for j := 0; j < i; j++ {
			if changes[j].Ignore || changes[j].Id != changes[i].Id {
				continue
			}
			applyRule(changes, i, j)
		}
	}
}

// applyRule implements one row of the coalescing table for the pair
// (i later, j earlier): a later delete and an earlier insert for the
// same id discard each other, a later delete discards an earlier
// update or delete, and a later update discards an earlier insert.
func applyRule(changes []Change, i, j int) {
	switch {
	case changes[i].Kind == Delete && changes[j].Kind == Insert:
		changes[i].Ignore = true
		changes[j].Ignore = true
	case changes[i].Kind == Delete && changes[j].Kind == Update:
		changes[j].Ignore = true
	case changes[i].Kind == Delete && changes[j].Kind == Delete:
		changes[j].Ignore = true
	case changes[i].Kind == Update && changes[j].Kind == Insert:
		changes[j].Ignore = true
	}
}

// Live returns the non-ignored changes, in journal order, ready to
// apply to the index.
func Live(changes []Change) []Change {
	out := make([]Change, 0, len(changes))
	for _, c := range changes {
		if !c.Ignore {
			out = append(out, c)
		}
	}
	return out
}
