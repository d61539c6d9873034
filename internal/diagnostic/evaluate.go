package diagnostic

import "strings"

// Evaluate compares a student answer with the reference answer after
// trimming surrounding whitespace and folding case.
func Evaluate(studentAnswer, referenceAnswer string) bool {
	return strings.EqualFold(strings.TrimSpace(studentAnswer), strings.TrimSpace(referenceAnswer))
}

// IsBlankAnswer reports whether an answer is missing and must be re-prompted
// instead of graded.
func IsBlankAnswer(answer string) bool {
	return strings.TrimSpace(answer) == ""
}
