package store

import (
	"context"
	"time"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/llm"
)

// ListOpts configures student listings.
type ListOpts struct {
	// IncludeTests attaches each student's tests, oldest first.
	IncludeTests bool
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // id > After
	Before  int64     // id < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact purpose match
}

// Student is a student row, optionally with its tests.
type Student struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Tests     []TestSummary
}

// TestSummary is the test row without its children.
type TestSummary struct {
	ID          string
	StudentID   string
	Stage       diagnostic.Stage
	Age         int
	Severity    diagnostic.Severity
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// TestDetail is a test with everything recorded for it.
type TestDetail struct {
	TestSummary
	StudentName string
	Responses   []diagnostic.Response
	Blockers    []diagnostic.Blocker
	Roadmap     *diagnostic.Roadmap
}

// StudentRepo reads students and their tests. Every call is scoped to an
// owner; rows of other owners are invisible.
type StudentRepo interface {
	ListStudents(ctx context.Context, ownerID string, opts ListOpts) ([]Student, error)
	GetTest(ctx context.Context, ownerID, testID string) (*TestDetail, error)
}

// LLMEvent is one stored LLM request.
type LLMEvent struct {
	ID int64
	llm.RequestEvent
}

// UsageStats aggregates LLM usage for one purpose or model.
type UsageStats struct {
	Key          string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo stores and queries the LLM request audit log.
type EventRepo interface {
	llm.EventSink

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns a single event by ID.
	GetLLMEvent(ctx context.Context, id int64) (*LLMEvent, error)

	// LLMUsageByPurpose returns aggregated stats grouped by purpose.
	LLMUsageByPurpose(ctx context.Context) ([]UsageStats, error)

	// LLMUsageByModel returns aggregated stats grouped by model.
	LLMUsageByModel(ctx context.Context) ([]UsageStats, error)
}

// SnapshotRepo keeps serialized in-flight sessions until they expire.
type SnapshotRepo interface {
	// Save inserts or replaces the snapshot.
	Save(ctx context.Context, snap diagnostic.Snapshot, expiresAt time.Time) error

	// Load returns the snapshot, or ErrNotFound when it is missing or expired.
	Load(ctx context.Context, id string) (diagnostic.Snapshot, error)

	// Delete removes the snapshot if present.
	Delete(ctx context.Context, id string) error

	// Prune deletes snapshots that expired before now and reports how many.
	Prune(ctx context.Context, now time.Time) (int64, error)
}
