package questiongen

import (
	"fmt"
	"strings"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/construct"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
)

const systemPrompt = `You are an educational psychologist writing a dyscalculia screening test for children.

Rules:
- Write exactly the requested number of short questions, each answerable with a single word or number.
- Match the reading level and numeric range to the child's age.
- Use plain ASCII text for all math. No LaTeX, no Unicode symbols. Use / for fractions and * for multiplication.
- Every question must probe one construct from the given list. Use the construct name exactly as listed.
- correct_answer is the exact expected answer, as short as possible (e.g. "12", "7/8", "Tuesday").
- difficulty_level runs from 1 (easiest) to 5 (hardest). Spread difficulty across the batch.
- Never repeat a question within the batch.
- If focus constructs are given, every question must probe one of them.`

// buildUserMessage constructs the user message from the batch request.
func buildUserMessage(req diagnostic.BatchRequest, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Child's age: %d\n", req.Age)
	fmt.Fprintf(&b, "Number of questions: %d\n", req.Count)

	b.WriteString("\nConstructs:\n")
	for _, c := range construct.All() {
		fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.Description)
	}

	b.WriteString("\nFocus constructs (the child made repeated errors here):\n")
	b.WriteString(buildFocus(req.ErrorHistory, cfg.MaxFocusConstructs))

	return b.String()
}

// buildFocus formats error-history constructs, respecting the max limit.
// Returns "None" for a main-test batch.
func buildFocus(hints []diagnostic.ErrorHint, max int) string {
	if len(hints) == 0 {
		return "None"
	}
	if max > 0 && len(hints) > max {
		hints = hints[:max]
	}

	var b strings.Builder
	for i, h := range hints {
		fmt.Fprintf(&b, "%d. %s\n", i+1, construct.Canonical(h.Construct))
	}
	return strings.TrimRight(b.String(), "\n")
}
