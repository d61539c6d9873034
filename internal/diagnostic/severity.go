package diagnostic

// Score summarizes a test run. The error rate is taken over the whole
// response history, main and confirmatory combined. Scoring an empty history
// is an InvalidState error.
func Score(blockers []Blocker, responses []Response) (Severity, error) {
	if len(responses) == 0 {
		return "", newError(ErrInvalidState, "score", errNoResponses)
	}
	incorrect := 0
	for _, r := range responses {
		if !r.IsCorrect {
			incorrect++
		}
	}
	return Classify(len(blockers), incorrect, len(responses)), nil
}

// Classify applies the severity table top to bottom. Rates are compared as
// incorrect*10 > total*k so thresholds of exactly 0.2, 0.4 and 0.6 never
// round across a boundary.
func Classify(blockerCount, incorrect, total int) Severity {
	over := func(tenths int) bool {
		return total > 0 && incorrect*10 > total*tenths
	}
	switch {
	case blockerCount >= 3 || over(6):
		return SeveritySevere
	case blockerCount >= 2 || over(4):
		return SeverityModerate
	case blockerCount >= 1 || over(2):
		return SeverityMild
	default:
		return SeverityNone
	}
}

// ErrorRate returns incorrect/total for display.
func ErrorRate(responses []Response) float64 {
	if len(responses) == 0 {
		return 0
	}
	incorrect := 0
	for _, r := range responses {
		if !r.IsCorrect {
			incorrect++
		}
	}
	return float64(incorrect) / float64(len(responses))
}
