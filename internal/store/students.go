package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
)

type studentRepo struct {
	s *Store
}

// ListStudents returns the owner's students, oldest first. With
// opts.IncludeTests the tests are joined in the same query.
func (r *studentRepo) ListStudents(ctx context.Context, ownerID string, opts ListOpts) ([]Student, error) {
	b := r.s.builder()
	// Aliased up front; Join would otherwise rename the joined table to t1.
	st := b.Table(tableStudents).As("s")
	sel := b.Select(st.C("id"), st.C("name"), st.C("created_at")).
		From(st).
		Where(entsql.EQ(st.C("owner_id"), ownerID))

	if !opts.IncludeTests {
		sel.OrderBy(st.C("created_at"), st.C("id"))
		rows, err := query(ctx, r.s.db, sel)
		if err != nil {
			return nil, fmt.Errorf("list students: %w", err)
		}
		defer rows.Close()

		var out []Student
		for rows.Next() {
			var s Student
			if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
				return nil, fmt.Errorf("scan student: %w", err)
			}
			out = append(out, s)
		}
		return out, rows.Err()
	}

	t := b.Table(tableTests).As("t")
	sel.AppendSelect(t.C("id"), t.C("stage"), t.C("age"), t.C("severity"),
		t.C("created_at"), t.C("updated_at"), t.C("completed_at")).
		LeftJoin(t).On(st.C("id"), t.C("student_id")).
		OrderBy(st.C("created_at"), st.C("id"), t.C("created_at"))

	rows, err := query(ctx, r.s.db, sel)
	if err != nil {
		return nil, fmt.Errorf("list students with tests: %w", err)
	}
	defer rows.Close()

	var out []Student
	for rows.Next() {
		var (
			s         Student
			testID    sql.NullString
			stage     sql.NullString
			age       sql.NullInt64
			severity  sql.NullString
			createdAt sql.NullTime
			updatedAt sql.NullTime
			completed sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt,
			&testID, &stage, &age, &severity, &createdAt, &updatedAt, &completed); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		if n := len(out); n == 0 || out[n-1].ID != s.ID {
			out = append(out, s)
		}
		if !testID.Valid {
			continue
		}
		ts, err := testSummary(testID.String, s.ID, stage.String, int(age.Int64), severity, createdAt.Time, updatedAt.Time, completed)
		if err != nil {
			return nil, err
		}
		last := &out[len(out)-1]
		last.Tests = append(last.Tests, ts)
	}
	return out, rows.Err()
}

// GetTest loads a test with its responses, blockers and roadmap.
func (r *studentRepo) GetTest(ctx context.Context, ownerID, testID string) (*TestDetail, error) {
	b := r.s.builder()
	t := b.Table(tableTests).As("t")
	st := b.Table(tableStudents).As("s")
	sel := b.Select(t.C("id"), t.C("student_id"), st.C("name"), t.C("stage"), t.C("age"),
		t.C("severity"), t.C("created_at"), t.C("updated_at"), t.C("completed_at")).
		From(t).
		Join(st).On(t.C("student_id"), st.C("id")).
		Where(entsql.And(entsql.EQ(t.C("id"), testID), entsql.EQ(t.C("owner_id"), ownerID)))

	var (
		d         TestDetail
		stage     string
		severity  sql.NullString
		completed sql.NullTime
	)
	err := queryRow(ctx, r.s.db, sel).Scan(&d.ID, &d.StudentID, &d.StudentName, &stage, &d.Age,
		&severity, &d.CreatedAt, &d.UpdatedAt, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("test %s: %w", testID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get test: %w", err)
	}
	d.TestSummary, err = testSummary(d.ID, d.StudentID, stage, d.Age, severity, d.CreatedAt, d.UpdatedAt, completed)
	if err != nil {
		return nil, err
	}

	if d.Responses, err = r.responses(ctx, testID); err != nil {
		return nil, err
	}
	if d.Blockers, err = r.blockers(ctx, testID); err != nil {
		return nil, err
	}
	if d.Roadmap, err = r.roadmap(ctx, testID); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *studentRepo) responses(ctx context.Context, testID string) ([]diagnostic.Response, error) {
	b := r.s.builder()
	rows, err := query(ctx, r.s.db, b.Select("question_index", "question_text", "student_answer",
		"correct_answer", "is_correct", "construct", "difficulty").
		From(b.Table(tableResponses)).
		Where(entsql.EQ("test_id", testID)).
		OrderBy("question_index"))
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	defer rows.Close()

	var out []diagnostic.Response
	for rows.Next() {
		var resp diagnostic.Response
		if err := rows.Scan(&resp.QuestionIndex, &resp.QuestionText, &resp.StudentAnswer,
			&resp.ReferenceAnswer, &resp.IsCorrect, &resp.Construct, &resp.Difficulty); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		out = append(out, resp)
	}
	return out, rows.Err()
}

func (r *studentRepo) blockers(ctx context.Context, testID string) ([]diagnostic.Blocker, error) {
	b := r.s.builder()
	rows, err := query(ctx, r.s.db, b.Select("construct", "error_count", "confirmed").
		From(b.Table(tableBlockers)).
		Where(entsql.EQ("test_id", testID)).
		OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("query blockers: %w", err)
	}
	defer rows.Close()

	var out []diagnostic.Blocker
	for rows.Next() {
		var bl diagnostic.Blocker
		if err := rows.Scan(&bl.Construct, &bl.ErrorCount, &bl.Confirmed); err != nil {
			return nil, fmt.Errorf("scan blocker: %w", err)
		}
		out = append(out, bl)
	}
	return out, rows.Err()
}

func (r *studentRepo) roadmap(ctx context.Context, testID string) (*diagnostic.Roadmap, error) {
	b := r.s.builder()
	var payload string
	err := queryRow(ctx, r.s.db, b.Select("payload").
		From(b.Table(tableRoadmaps)).
		Where(entsql.EQ("test_id", testID))).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query roadmap: %w", err)
	}
	var rm diagnostic.Roadmap
	if err := json.Unmarshal([]byte(payload), &rm); err != nil {
		return nil, fmt.Errorf("decode roadmap: %w", err)
	}
	return &rm, nil
}

func testSummary(id, studentID, stage string, age int, severity sql.NullString, createdAt, updatedAt time.Time, completed sql.NullTime) (TestSummary, error) {
	st, err := diagnostic.ParseStage(stage)
	if err != nil {
		return TestSummary{}, fmt.Errorf("test %s: %w", id, err)
	}
	ts := TestSummary{
		ID:        id,
		StudentID: studentID,
		Stage:     st,
		Age:       age,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
	if severity.Valid && severity.String != "" {
		if ts.Severity, err = diagnostic.ParseSeverity(severity.String); err != nil {
			return TestSummary{}, fmt.Errorf("test %s: %w", id, err)
		}
	}
	if completed.Valid {
		c := completed.Time
		ts.CompletedAt = &c
	}
	return ts, nil
}
