package roadmap

import (
	"fmt"
	"strings"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
)

const systemPrompt = `You are an educational psychologist who specialises in dyscalculia. A child has just finished a short diagnostic test and their caregiver needs a practical plan.`

func buildUserMessage(req diagnostic.RoadmapRequest, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Child's age: %d\n", req.Age)

	b.WriteString("\nLearning blockers:\n")
	if len(req.Blockers) == 0 {
		b.WriteString("None detected\n")
	} else {
		for _, bl := range req.Blockers {
			fmt.Fprintf(&b, "- %s (%d errors)\n", bl.Name, bl.ErrorCount)
		}
	}

	b.WriteString("\nResponses:\n")
	b.WriteString(compressResponses(req.Responses, cfg.MaxResponses))

	b.WriteString(`

Instructions:
Write a remediation roadmap with exactly 5 steps, numbered 1 to 5 in order.
1. Start with the most fundamental blocker and build upward.
2. Each step has a short title, an execution plan a caregiver can follow at home (frequency, duration, activity), and 1-3 concrete resources (games, manipulatives, apps, books).
3. Set overall_severity to none, mild, moderate or severe based on the blockers and the error rate.
4. Write a 2-3 sentence summary in plain language. Do not diagnose; describe what the results suggest.
5. If no blockers were detected, focus the steps on keeping skills strong.`)

	return b.String()
}

// compressResponses renders one line per response. When there are more
// than max, the oldest are reduced to per-construct correct/total counts.
func compressResponses(responses []diagnostic.Response, max int) string {
	if len(responses) == 0 {
		return "None"
	}

	var b strings.Builder
	recent := responses
	if max > 0 && len(responses) > max {
		older := responses[:len(responses)-max]
		recent = responses[len(responses)-max:]

		type tally struct{ correct, total int }
		var order []string
		counts := map[string]*tally{}
		for _, r := range older {
			t, ok := counts[r.Construct]
			if !ok {
				t = &tally{}
				counts[r.Construct] = t
				order = append(order, r.Construct)
			}
			t.total++
			if r.IsCorrect {
				t.correct++
			}
		}
		fmt.Fprintf(&b, "Earlier (%d responses):\n", len(older))
		for _, c := range order {
			fmt.Fprintf(&b, "- %s: %d/%d correct\n", c, counts[c].correct, counts[c].total)
		}
		b.WriteString("Latest:\n")
	}

	for _, r := range recent {
		mark := "correct"
		if !r.IsCorrect {
			mark = fmt.Sprintf("wrong, expected %q", r.ReferenceAnswer)
		}
		fmt.Fprintf(&b, "%d. [%s, difficulty %d] %s -> %q (%s)\n",
			r.QuestionIndex+1, r.Construct, r.Difficulty, r.QuestionText, r.StudentAnswer, mark)
	}
	return strings.TrimRight(b.String(), "\n")
}
