package diagnostic

import (
	"errors"
	"testing"
)

func responsesWith(incorrect, total int) []Response {
	out := make([]Response, total)
	for i := range out {
		out[i] = Response{QuestionIndex: i, IsCorrect: i >= incorrect}
	}
	return out
}

func blockersOf(n int) []Blocker {
	out := make([]Blocker, n)
	for i := range out {
		out[i] = Blocker{Construct: string(rune('A' + i)), ErrorCount: 2}
	}
	return out
}

func TestScore_Table(t *testing.T) {
	tests := []struct {
		name      string
		blockers  int
		incorrect int
		total     int
		want      Severity
	}{
		{"all correct", 0, 0, 10, SeverityNone},
		{"rate exactly 0.2", 0, 2, 10, SeverityNone},
		{"rate above 0.2", 0, 3, 10, SeverityMild},
		{"one blocker", 1, 2, 10, SeverityMild},
		{"rate exactly 0.4 one blocker", 1, 6, 15, SeverityMild},
		{"rate above 0.4", 0, 5, 10, SeverityModerate},
		{"two blockers", 2, 4, 15, SeverityModerate},
		{"rate exactly 0.6", 0, 9, 15, SeverityModerate},
		{"rate above 0.6", 0, 7, 10, SeveritySevere},
		{"three blockers", 3, 6, 15, SeveritySevere},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Score(blockersOf(tt.blockers), responsesWith(tt.incorrect, tt.total))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Score = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestScore_EmptyHistory(t *testing.T) {
	_, err := Score(nil, nil)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func severityRank(s Severity) int {
	switch s {
	case SeverityMild:
		return 1
	case SeverityModerate:
		return 2
	case SeveritySevere:
		return 3
	}
	return 0
}

func TestClassify_Monotonic(t *testing.T) {
	const total = 15
	for blockers := 0; blockers <= 4; blockers++ {
		prev := -1
		for incorrect := 0; incorrect <= total; incorrect++ {
			r := severityRank(Classify(blockers, incorrect, total))
			if r < prev {
				t.Fatalf("severity decreased at blockers=%d incorrect=%d", blockers, incorrect)
			}
			prev = r
		}
	}
	for incorrect := 0; incorrect <= total; incorrect++ {
		prev := -1
		for blockers := 0; blockers <= 4; blockers++ {
			r := severityRank(Classify(blockers, incorrect, total))
			if r < prev {
				t.Fatalf("severity decreased at incorrect=%d blockers=%d", incorrect, blockers)
			}
			prev = r
		}
	}
}

func TestErrorRate(t *testing.T) {
	if got := ErrorRate(responsesWith(6, 15)); got != 0.4 {
		t.Fatalf("ErrorRate = %v, want 0.4", got)
	}
	if got := ErrorRate(nil); got != 0 {
		t.Fatalf("ErrorRate(nil) = %v", got)
	}
}
