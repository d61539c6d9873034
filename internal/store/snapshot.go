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

// snapshotRepo implements SnapshotRepo over the session_snapshots table.
type snapshotRepo struct {
	s *Store
}

func (r *snapshotRepo) Save(ctx context.Context, snap diagnostic.Snapshot, expiresAt time.Time) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = exec(ctx, r.s.db, r.s.builder().Insert(tableSnapshots).
		Columns("id", "owner_id", "payload", "expires_at", "updated_at").
		Values(snap.ID, snap.OwnerID, string(payload), expiresAt.UTC(), time.Now().UTC()).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("payload").SetExcluded("expires_at").SetExcluded("updated_at")
			}),
		))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (r *snapshotRepo) Load(ctx context.Context, id string) (diagnostic.Snapshot, error) {
	b := r.s.builder()
	var payload string
	err := queryRow(ctx, r.s.db, b.Select("payload").
		From(b.Table(tableSnapshots)).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.GT("expires_at", time.Now().UTC()),
		))).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return diagnostic.Snapshot{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return diagnostic.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}

	var snap diagnostic.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return diagnostic.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}

func (r *snapshotRepo) Delete(ctx context.Context, id string) error {
	if _, err := exec(ctx, r.s.db, r.s.builder().Delete(tableSnapshots).Where(entsql.EQ("id", id))); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

func (r *snapshotRepo) Prune(ctx context.Context, now time.Time) (int64, error) {
	res, err := exec(ctx, r.s.db, r.s.builder().Delete(tableSnapshots).
		Where(entsql.LTE("expires_at", now.UTC())))
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return res.RowsAffected()
}
