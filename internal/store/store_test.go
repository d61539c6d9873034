package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/llm"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	s, err := Open(context.Background(), DriverSQLite, dsn)
	require.NoError(t, err, "open test store")
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	assert.NotNil(t, s.DB())
	assert.Equal(t, "sqlite3", s.Dialect())
	assert.NoError(t, s.Ping(context.Background()))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Driver("oracle"), "x")
	require.Error(t, err)
}

func TestParseDriver(t *testing.T) {
	tests := []struct {
		in      string
		want    Driver
		wantErr bool
	}{
		{"", DriverSQLite, false},
		{"SQLite", DriverSQLite, false},
		{"postgres", DriverPostgres, false},
		{"pgx", DriverPostgres, false},
		{"mysql", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDriver(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestWithPragmas(t *testing.T) {
	got := withPragmas("/tmp/neuromath.db")
	assert.Equal(t, "file:/tmp/neuromath.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"+
		"&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)&_time_format=sqlite", got)

	got = withPragmas("file:x?mode=memory")
	assert.Contains(t, got, "file:x?mode=memory&_pragma=journal_mode(WAL)")

	custom := "file:x?_pragma=foreign_keys(1)"
	assert.Equal(t, custom, withPragmas(custom))
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}
	for _, tt := range tests {
		var got string
		require.NoError(t, s.DB().QueryRow("PRAGMA "+tt.pragma).Scan(&got), tt.pragma)
		assert.Equal(t, tt.want, got, "PRAGMA %s", tt.pragma)
	}
}

func testRecord(owner, studentID string) diagnostic.TestRecord {
	return diagnostic.TestRecord{
		ID:          uuid.NewString(),
		OwnerID:     owner,
		StudentID:   studentID,
		StudentName: "Ada",
		Age:         8,
		Stage:       diagnostic.StageMainTest,
		CreatedAt:   time.Now(),
	}
}

func testResponses(n int) []diagnostic.Response {
	out := make([]diagnostic.Response, n)
	for i := range out {
		out[i] = diagnostic.Response{
			QuestionIndex:   i,
			QuestionText:    fmt.Sprintf("What is %d + 1?", i),
			StudentAnswer:   fmt.Sprint(i + 1),
			ReferenceAnswer: fmt.Sprint(i + 1),
			IsCorrect:       true,
			Construct:       "Arithmetic Facts",
			Difficulty:      2,
		}
	}
	return out
}

func testRoadmap() *diagnostic.Roadmap {
	rm := &diagnostic.Roadmap{OverallSeverity: "mild", Summary: "Practice place value."}
	for i := 1; i <= diagnostic.RoadmapLength; i++ {
		rm.Steps = append(rm.Steps, diagnostic.RoadmapStep{
			StepNumber:    i,
			Title:         fmt.Sprintf("Step %d", i),
			ExecutionPlan: "Ten minutes a day.",
			Resources:     []string{"base-ten blocks"},
		})
	}
	return rm
}

func TestRecorderLifecycle(t *testing.T) {
	s := openTestStore(t)
	rec := s.Recorder()
	ctx := context.Background()

	tr := testRecord("owner-1", uuid.NewString())
	require.NoError(t, rec.StartTest(ctx, tr))
	require.NoError(t, rec.StartTest(ctx, tr), "start is idempotent")

	responses := testResponses(diagnostic.MainTestLength)
	responses[3].IsCorrect = false
	responses[3].StudentAnswer = "7"
	responses[3].Construct = "Place Value"
	responses[5].IsCorrect = false
	responses[5].StudentAnswer = "0"
	responses[5].Construct = "Place Value"
	require.NoError(t, rec.SaveResponses(ctx, tr.OwnerID, tr.ID, responses))

	// A retried closing answer may differ from the first attempt.
	responses[9].StudentAnswer = "eleven"
	responses[9].IsCorrect = false
	require.NoError(t, rec.SaveResponses(ctx, tr.OwnerID, tr.ID, responses))

	blockers := []diagnostic.Blocker{{Construct: "Place Value", ErrorCount: 2}}
	require.NoError(t, rec.SaveBlockers(ctx, tr.OwnerID, tr.ID, blockers))
	require.NoError(t, rec.SaveBlockers(ctx, tr.OwnerID, tr.ID, blockers))
	require.NoError(t, rec.AdvanceStage(ctx, tr.OwnerID, tr.ID, diagnostic.StageConfirmatoryTest))

	completedAt := time.Now()
	confirmed := []diagnostic.Blocker{{Construct: "Place Value", ErrorCount: 2, Confirmed: true}}
	c := diagnostic.Completion{
		OwnerID:     tr.OwnerID,
		TestID:      tr.ID,
		Severity:    diagnostic.SeverityMild,
		Blockers:    confirmed,
		Roadmap:     testRoadmap(),
		CompletedAt: completedAt,
	}
	require.NoError(t, rec.CompleteTest(ctx, c))
	require.NoError(t, rec.CompleteTest(ctx, c), "completion is idempotent")

	d, err := s.StudentRepo().GetTest(ctx, tr.OwnerID, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, tr.StudentID, d.StudentID)
	assert.Equal(t, "Ada", d.StudentName)
	assert.Equal(t, diagnostic.StageComplete, d.Stage)
	assert.Equal(t, diagnostic.SeverityMild, d.Severity)
	assert.Equal(t, 8, d.Age)
	require.NotNil(t, d.CompletedAt)
	assert.WithinDuration(t, completedAt, *d.CompletedAt, time.Second)

	require.Len(t, d.Responses, diagnostic.MainTestLength)
	assert.Equal(t, "eleven", d.Responses[9].StudentAnswer)
	assert.False(t, d.Responses[9].IsCorrect)
	assert.Equal(t, "Place Value", d.Responses[3].Construct)

	assert.Equal(t, confirmed, d.Blockers)
	assert.Equal(t, testRoadmap(), d.Roadmap)
}

func TestRecorderOwnerScoping(t *testing.T) {
	s := openTestStore(t)
	rec := s.Recorder()
	ctx := context.Background()

	tr := testRecord("owner-1", uuid.NewString())
	require.NoError(t, rec.StartTest(ctx, tr))

	err := rec.SaveResponses(ctx, "owner-2", tr.ID, testResponses(1))
	assert.ErrorIs(t, err, ErrNotFound)

	err = rec.SaveBlockers(ctx, "owner-2", tr.ID, []diagnostic.Blocker{{Construct: "Fractions", ErrorCount: 2}})
	assert.ErrorIs(t, err, ErrNotFound)

	err = rec.AdvanceStage(ctx, "owner-2", tr.ID, diagnostic.StageConfirmatoryTest)
	assert.ErrorIs(t, err, ErrNotFound)

	err = rec.CompleteTest(ctx, diagnostic.Completion{OwnerID: "owner-2", TestID: tr.ID, Severity: diagnostic.SeverityNone})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.StudentRepo().GetTest(ctx, "owner-2", tr.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Another owner cannot attach a test to someone else's student.
	other := testRecord("owner-2", tr.StudentID)
	err = rec.StartTest(ctx, other)
	assert.ErrorIs(t, err, ErrNotFound)

	d, err := s.StudentRepo().GetTest(ctx, "owner-1", tr.ID)
	require.NoError(t, err)
	assert.Equal(t, diagnostic.StageMainTest, d.Stage)
	assert.Empty(t, d.Responses)
	assert.Nil(t, d.Roadmap)
	assert.Nil(t, d.CompletedAt)
}

func TestGetTestNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.StudentRepo().GetTest(context.Background(), "owner-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListStudents(t *testing.T) {
	s := openTestStore(t)
	rec := s.Recorder()
	ctx := context.Background()

	adaID := uuid.NewString()
	first := testRecord("owner-1", adaID)
	first.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, rec.StartTest(ctx, first))
	second := testRecord("owner-1", adaID)
	require.NoError(t, rec.StartTest(ctx, second))

	solo := testRecord("owner-1", uuid.NewString())
	solo.StudentName = "Grace"
	require.NoError(t, rec.StartTest(ctx, solo))

	require.NoError(t, rec.StartTest(ctx, testRecord("owner-2", uuid.NewString())))

	plain, err := s.StudentRepo().ListStudents(ctx, "owner-1", ListOpts{})
	require.NoError(t, err)
	require.Len(t, plain, 2)
	for _, st := range plain {
		assert.Empty(t, st.Tests)
	}

	full, err := s.StudentRepo().ListStudents(ctx, "owner-1", ListOpts{IncludeTests: true})
	require.NoError(t, err)
	require.Len(t, full, 2)

	byID := map[string]Student{}
	for _, st := range full {
		byID[st.ID] = st
	}
	ada := byID[adaID]
	require.Len(t, ada.Tests, 2)
	assert.Equal(t, first.ID, ada.Tests[0].ID)
	assert.Equal(t, second.ID, ada.Tests[1].ID)
	assert.Equal(t, diagnostic.StageMainTest, ada.Tests[0].Stage)
	assert.Len(t, byID[solo.StudentID].Tests, 1)

	none, err := s.StudentRepo().ListStudents(ctx, "owner-3", ListOpts{IncludeTests: true})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []llm.RequestEvent{
		{Provider: "gemini", Model: "gemini-2.5-flash", Purpose: llm.PurposeQuestionBatch, InputTokens: 100, OutputTokens: 50, LatencyMs: 200, Success: true, RequestBody: `{"a":1}`, ResponseBody: `{"questions":[]}`},
		{Provider: "gemini", Model: "gemini-2.5-flash", Purpose: llm.PurposeQuestionBatch, InputTokens: 120, OutputTokens: 0, LatencyMs: 400, Success: false, ErrorMessage: "rate limited"},
		{Provider: "gemini", Model: "gemini-2.5-pro", Purpose: llm.PurposeRoadmap, InputTokens: 300, OutputTokens: 200, LatencyMs: 900, Success: true},
	}
	for _, ev := range events {
		require.NoError(t, repo.AppendLLMRequest(ctx, ev))
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, llm.PurposeRoadmap, all[0].Purpose, "newest first")
	assert.False(t, all[0].CreatedAt.IsZero())

	limited, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	batches, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: llm.PurposeQuestionBatch})
	require.NoError(t, err)
	assert.Len(t, batches, 2)

	older, err := repo.QueryLLMEvents(ctx, QueryOpts{Before: all[0].ID})
	require.NoError(t, err)
	assert.Len(t, older, 2)

	got, err := repo.GetLLMEvent(ctx, all[2].ID)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, got.RequestBody)
	assert.Equal(t, `{"questions":[]}`, got.ResponseBody)
	assert.True(t, got.Success)

	_, err = repo.GetLLMEvent(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, byPurpose, 2)
	assert.Equal(t, UsageStats{
		Key: llm.PurposeQuestionBatch, Calls: 2, Failures: 1,
		InputTokens: 220, OutputTokens: 50, AvgLatencyMs: 300,
	}, byPurpose[0])

	byModel, err := repo.LLMUsageByModel(ctx)
	require.NoError(t, err)
	require.Len(t, byModel, 2)
	assert.Equal(t, "gemini-2.5-flash", byModel[0].Key)
	assert.Equal(t, 500, byModel[1].InputTokens+byModel[1].OutputTokens)
}

func TestSnapshots(t *testing.T) {
	s := openTestStore(t)
	repo := s.SnapshotRepo()
	ctx := context.Background()

	sess := diagnostic.New("owner-1", diagnostic.Deps{})
	require.NoError(t, sess.SubmitAge(ctx, 9))
	snap := sess.Snapshot()

	_, err := repo.Load(ctx, snap.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Save(ctx, snap, time.Now().Add(time.Hour)))
	got, err := repo.Load(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, diagnostic.StageEnrolling, got.Stage)
	assert.Equal(t, 9, got.Age)
	assert.Equal(t, "owner-1", got.OwnerID)

	// Save replaces the previous payload.
	snap.Age = 10
	require.NoError(t, repo.Save(ctx, snap, time.Now().Add(time.Hour)))
	got, err = repo.Load(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Age)

	expired := diagnostic.New("owner-1", diagnostic.Deps{}).Snapshot()
	require.NoError(t, repo.Save(ctx, expired, time.Now().Add(-time.Minute)))
	_, err = repo.Load(ctx, expired.ID)
	assert.ErrorIs(t, err, ErrNotFound, "expired snapshots are invisible")

	n, err := repo.Prune(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repo.Delete(ctx, snap.ID))
	_, err = repo.Load(ctx, snap.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("NEUROMATH_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)
	p, err := DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, dir+"/neuromath/neuromath.db", p)
	assert.DirExists(t, dir+"/neuromath")

	custom := dir + "/custom/db.sqlite"
	t.Setenv("NEUROMATH_DB", custom)
	p, err = DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, custom, p)
	assert.DirExists(t, dir+"/custom")
}
