package diagnostic

// PromotionThreshold is the number of incorrect responses on one construct
// that turns it into a blocker.
const PromotionThreshold = 2

// Detect groups incorrect responses by construct and promotes every
// construct with at least PromotionThreshold errors. Blockers are ordered by
// the first incorrect response on their construct, so the first element is
// the primary blocker.
func Detect(responses []Response) []Blocker {
	counts := make(map[string]int)
	var order []string
	for _, r := range responses {
		if r.IsCorrect {
			continue
		}
		if _, seen := counts[r.Construct]; !seen {
			order = append(order, r.Construct)
		}
		counts[r.Construct]++
	}

	var blockers []Blocker
	for _, c := range order {
		if counts[c] >= PromotionThreshold {
			blockers = append(blockers, Blocker{Construct: c, ErrorCount: counts[c]})
		}
	}
	return blockers
}

// Primary returns the blocker that drives confirmatory question generation.
func Primary(blockers []Blocker) (Blocker, bool) {
	if len(blockers) == 0 {
		return Blocker{}, false
	}
	return blockers[0], true
}

// confirmAll returns a copy of blockers with every entry stamped confirmed.
func confirmAll(blockers []Blocker) []Blocker {
	if len(blockers) == 0 {
		return nil
	}
	out := make([]Blocker, len(blockers))
	for i, b := range blockers {
		b.Confirmed = true
		out[i] = b
	}
	return out
}
