package questiongen

import (
	"fmt"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
)

// Validator checks a generated batch.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier, e.g. "structural", "count".
	Name() string

	// Validate returns nil if the batch passes.
	Validate(batch []diagnostic.Question, req diagnostic.BatchRequest) *ValidationError
}

// ValidationError describes why a batch failed validation.
type ValidationError struct {
	Validator string // Name of the validator that failed
	Index     int    // Offending question, or -1 for the whole batch
	Message   string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
	}
	return fmt.Sprintf("validator %q: question %d: %s", e.Validator, e.Index, e.Message)
}
