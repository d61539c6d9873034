package questiongen

import (
	"fmt"
	"strings"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
)

const maxQuestionLen = 500

// CountValidator rejects partial or oversized batches.
type CountValidator struct{}

func (v *CountValidator) Name() string { return "count" }

func (v *CountValidator) Validate(batch []diagnostic.Question, req diagnostic.BatchRequest) *ValidationError {
	if len(batch) != req.Count {
		return &ValidationError{
			Validator: v.Name(),
			Index:     -1,
			Message:   fmt.Sprintf("got %d questions, want %d", len(batch), req.Count),
		}
	}
	return nil
}

// StructuralValidator checks that required fields are present and within
// limits.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(batch []diagnostic.Question, _ diagnostic.BatchRequest) *ValidationError {
	for i, q := range batch {
		var msg string
		switch {
		case q.Text == "":
			msg = "question_text is empty"
		case len(q.Text) > maxQuestionLen:
			msg = fmt.Sprintf("question_text exceeds %d characters", maxQuestionLen)
		case q.ReferenceAnswer == "":
			msg = "correct_answer is empty"
		case strings.TrimSpace(q.Construct) == "":
			msg = "construct is empty"
		case q.Difficulty < 1 || q.Difficulty > 5:
			msg = "difficulty_level must be between 1 and 5"
		default:
			continue
		}
		return &ValidationError{Validator: v.Name(), Index: i, Message: msg}
	}
	return nil
}
