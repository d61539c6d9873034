package diagnostic

import (
	"context"
	"time"
)

// ErrorHint names a construct the next batch should focus on.
type ErrorHint struct {
	Construct string `json:"construct"`
}

// BatchRequest asks for a complete stage of questions.
type BatchRequest struct {
	Age          int         `json:"age"`
	ErrorHistory []ErrorHint `json:"error_history,omitempty"`
	Count        int         `json:"count"`
}

// QuestionSource supplies question batches. A call either returns exactly
// req.Count questions or fails.
type QuestionSource interface {
	FetchBatch(ctx context.Context, req BatchRequest) ([]Question, error)
}

// BlockerSummary is the view of a blocker handed to the roadmap generator.
type BlockerSummary struct {
	Name       string `json:"blocker_name"`
	ErrorCount int    `json:"error_count"`
}

// RoadmapRequest carries everything the roadmap generator sees.
type RoadmapRequest struct {
	Age       int              `json:"age"`
	Blockers  []BlockerSummary `json:"blockers"`
	Responses []Response       `json:"responses"`
}

// RoadmapSource supplies remediation roadmaps.
type RoadmapSource interface {
	Generate(ctx context.Context, req RoadmapRequest) (*Roadmap, error)
}

// TestRecord is written when enrollment starts the main test.
type TestRecord struct {
	ID          string
	OwnerID     string
	StudentID   string
	StudentName string
	Age         int
	Stage       Stage
	CreatedAt   time.Time
}

// Completion is written in one unit when a test completes.
type Completion struct {
	OwnerID     string
	TestID      string
	Severity    Severity
	Blockers    []Blocker
	Roadmap     *Roadmap
	CompletedAt time.Time
}

// Recorder persists test progress. Every method must be idempotent so a
// retried transition never duplicates rows.
type Recorder interface {
	StartTest(ctx context.Context, rec TestRecord) error
	SaveResponses(ctx context.Context, ownerID, testID string, responses []Response) error
	SaveBlockers(ctx context.Context, ownerID, testID string, blockers []Blocker) error
	AdvanceStage(ctx context.Context, ownerID, testID string, stage Stage) error
	CompleteTest(ctx context.Context, c Completion) error
}

func summarize(blockers []Blocker) []BlockerSummary {
	out := make([]BlockerSummary, len(blockers))
	for i, b := range blockers {
		out[i] = BlockerSummary{Name: b.Construct, ErrorCount: b.ErrorCount}
	}
	return out
}
