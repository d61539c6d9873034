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

// Recorder persists diagnostic sessions. Every write is idempotent: a
// retried stage transition rewrites the same rows instead of adding new ones.
type Recorder struct {
	s *Store
}

var _ diagnostic.Recorder = (*Recorder)(nil)

// StartTest creates the student when needed and inserts the test row.
func (r *Recorder) StartTest(ctx context.Context, rec diagnostic.TestRecord) error {
	b := r.s.builder()
	now := time.Now().UTC()
	return r.s.inTx(ctx, func(tx *sql.Tx) error {
		var owner string
		err := queryRow(ctx, tx, b.Select("owner_id").
			From(b.Table(tableStudents)).
			Where(entsql.EQ("id", rec.StudentID))).Scan(&owner)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = exec(ctx, tx, b.Insert(tableStudents).
				Columns("id", "owner_id", "name", "created_at").
				Values(rec.StudentID, rec.OwnerID, rec.StudentName, now))
			if err != nil {
				return fmt.Errorf("insert student: %w", err)
			}
		case err != nil:
			return fmt.Errorf("query student: %w", err)
		case owner != rec.OwnerID:
			return fmt.Errorf("student %s: %w: %w", rec.StudentID, ErrNotFound, diagnostic.ErrUnknownStudent)
		}

		_, err = exec(ctx, tx, b.Insert(tableTests).
			Columns("id", "owner_id", "student_id", "stage", "age", "created_at", "updated_at").
			Values(rec.ID, rec.OwnerID, rec.StudentID, rec.Stage.String(), rec.Age, rec.CreatedAt.UTC(), now).
			OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()))
		if err != nil {
			return fmt.Errorf("insert test: %w", err)
		}
		return nil
	})
}

// SaveResponses upserts responses keyed by question index.
func (r *Recorder) SaveResponses(ctx context.Context, ownerID, testID string, responses []diagnostic.Response) error {
	if len(responses) == 0 {
		return nil
	}
	b := r.s.builder()
	now := time.Now().UTC()
	return r.s.inTx(ctx, func(tx *sql.Tx) error {
		if err := r.checkOwner(ctx, tx, ownerID, testID); err != nil {
			return err
		}
		ins := b.Insert(tableResponses).
			Columns("test_id", "question_index", "question_text", "student_answer",
				"correct_answer", "is_correct", "construct", "difficulty", "created_at")
		for _, resp := range responses {
			ins.Values(testID, resp.QuestionIndex, resp.QuestionText, resp.StudentAnswer,
				resp.ReferenceAnswer, resp.IsCorrect, resp.Construct, resp.Difficulty, now)
		}
		ins.OnConflict(
			entsql.ConflictColumns("test_id", "question_index"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("question_text").
					SetExcluded("student_answer").
					SetExcluded("correct_answer").
					SetExcluded("is_correct").
					SetExcluded("construct").
					SetExcluded("difficulty")
			}),
		)
		if _, err := exec(ctx, tx, ins); err != nil {
			return fmt.Errorf("save responses: %w", err)
		}
		return nil
	})
}

// SaveBlockers replaces the test's blocker set. Rows left by an earlier
// attempt whose construct is not in blockers are removed.
func (r *Recorder) SaveBlockers(ctx context.Context, ownerID, testID string, blockers []diagnostic.Blocker) error {
	return r.s.inTx(ctx, func(tx *sql.Tx) error {
		if err := r.checkOwner(ctx, tx, ownerID, testID); err != nil {
			return err
		}
		return r.replaceBlockers(ctx, tx, testID, blockers)
	})
}

func (r *Recorder) replaceBlockers(ctx context.Context, tx *sql.Tx, testID string, blockers []diagnostic.Blocker) error {
	b := r.s.builder()
	pred := entsql.EQ("test_id", testID)
	if len(blockers) > 0 {
		keep := make([]any, len(blockers))
		for i, bl := range blockers {
			keep[i] = bl.Construct
		}
		pred = entsql.And(pred, entsql.NotIn("construct", keep...))
	}
	if _, err := exec(ctx, tx, b.Delete(tableBlockers).Where(pred)); err != nil {
		return fmt.Errorf("clear stale blockers: %w", err)
	}
	if len(blockers) == 0 {
		return nil
	}

	ins := b.Insert(tableBlockers).
		Columns("test_id", "construct", "error_count", "confirmed")
	for _, bl := range blockers {
		ins.Values(testID, bl.Construct, bl.ErrorCount, bl.Confirmed)
	}
	ins.OnConflict(
		entsql.ConflictColumns("test_id", "construct"),
		entsql.ResolveWith(func(u *entsql.UpdateSet) {
			u.SetExcluded("error_count").SetExcluded("confirmed")
		}),
	)
	if _, err := exec(ctx, tx, ins); err != nil {
		return fmt.Errorf("save blockers: %w", err)
	}
	return nil
}

// AdvanceStage moves the test to stage.
func (r *Recorder) AdvanceStage(ctx context.Context, ownerID, testID string, stage diagnostic.Stage) error {
	b := r.s.builder()
	res, err := exec(ctx, r.s.db, b.Update(tableTests).
		Set("stage", stage.String()).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.And(entsql.EQ("id", testID), entsql.EQ("owner_id", ownerID))))
	if err != nil {
		return fmt.Errorf("advance stage: %w", err)
	}
	return requireRow(res, "test", testID)
}

// CompleteTest writes the outcome, the confirmed blockers and the roadmap in
// one transaction. The stored blocker set ends up equal to c.Blockers.
func (r *Recorder) CompleteTest(ctx context.Context, c diagnostic.Completion) error {
	payload, err := json.Marshal(c.Roadmap)
	if err != nil {
		return fmt.Errorf("encode roadmap: %w", err)
	}
	b := r.s.builder()
	completedAt := c.CompletedAt.UTC()
	return r.s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := exec(ctx, tx, b.Update(tableTests).
			Set("stage", diagnostic.StageComplete.String()).
			Set("severity", string(c.Severity)).
			Set("completed_at", completedAt).
			Set("updated_at", completedAt).
			Where(entsql.And(entsql.EQ("id", c.TestID), entsql.EQ("owner_id", c.OwnerID))))
		if err != nil {
			return fmt.Errorf("complete test: %w", err)
		}
		if err := requireRow(res, "test", c.TestID); err != nil {
			return err
		}
		if err := r.replaceBlockers(ctx, tx, c.TestID, c.Blockers); err != nil {
			return err
		}
		if c.Roadmap == nil {
			return nil
		}
		_, err = exec(ctx, tx, b.Insert(tableRoadmaps).
			Columns("test_id", "payload", "created_at").
			Values(c.TestID, string(payload), completedAt).
			OnConflict(
				entsql.ConflictColumns("test_id"),
				entsql.ResolveWith(func(u *entsql.UpdateSet) { u.SetExcluded("payload") }),
			))
		if err != nil {
			return fmt.Errorf("save roadmap: %w", err)
		}
		return nil
	})
}

func (r *Recorder) checkOwner(ctx context.Context, q querier, ownerID, testID string) error {
	b := r.s.builder()
	var owner string
	err := queryRow(ctx, q, b.Select("owner_id").
		From(b.Table(tableTests)).
		Where(entsql.EQ("id", testID))).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != ownerID) {
		return fmt.Errorf("test %s: %w", testID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("query test owner: %w", err)
	}
	return nil
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
