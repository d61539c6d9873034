package llm

import "context"

type contextKey string

const purposeKey contextKey = "llm_purpose"

// Purposes recorded on request events.
const (
	PurposeQuestionBatch     = "question-batch"
	PurposeConfirmatoryBatch = "confirmatory-batch"
	PurposeRoadmap           = "remediation-roadmap"
)

// WithPurpose labels requests made with ctx for the audit log.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom returns the label set by WithPurpose, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok && v != "" {
		return v
	}
	return "unknown"
}
