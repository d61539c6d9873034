package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/store"
)

// SQL keeps snapshots in the database so in-flight sessions survive a
// restart. Locks are process-local, so use one server per database.
type SQL struct {
	repo  store.SnapshotRepo
	locks localLocks
	now   func() time.Time
}

func NewSQL(repo store.SnapshotRepo) *SQL {
	return &SQL{repo: repo, now: time.Now}
}

func (s *SQL) Load(ctx context.Context, id string) (diagnostic.Snapshot, error) {
	snap, err := s.repo.Load(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return diagnostic.Snapshot{}, ErrNotFound
	}
	return snap, err
}

func (s *SQL) Save(ctx context.Context, snap diagnostic.Snapshot, ttl time.Duration) error {
	return s.repo.Save(ctx, snap, s.now().Add(ttl))
}

func (s *SQL) Lock(_ context.Context, id string, _ time.Duration) (UnlockFunc, error) {
	return s.locks.lock(id)
}

// Prune deletes expired snapshots.
func (s *SQL) Prune(ctx context.Context) (int64, error) {
	return s.repo.Prune(ctx, s.now())
}
