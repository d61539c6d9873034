package questiongen

import (
	"fmt"
	"strings"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
)

// DuplicateValidator rejects batches that ask the same question twice.
// Comparison ignores case and repeated whitespace.
type DuplicateValidator struct{}

func (v *DuplicateValidator) Name() string { return "duplicate" }

func (v *DuplicateValidator) Validate(batch []diagnostic.Question, _ diagnostic.BatchRequest) *ValidationError {
	seen := make(map[string]int, len(batch))
	for i, q := range batch {
		key := strings.ToLower(strings.Join(strings.Fields(q.Text), " "))
		if first, ok := seen[key]; ok {
			return &ValidationError{
				Validator: v.Name(),
				Index:     i,
				Message:   fmt.Sprintf("repeats question %d", first),
			}
		}
		seen[key] = i
	}
	return nil
}
