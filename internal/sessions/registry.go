package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
)

// Options tune a Registry. Zero values take the defaults.
type Options struct {
	// TTL is how long an untouched session is kept.
	TTL time.Duration

	// LockTTL bounds a single operation, including its LLM calls.
	LockTTL time.Duration

	Logger *slog.Logger
}

const (
	DefaultTTL     = 2 * time.Hour
	DefaultLockTTL = 5 * time.Minute
)

// Registry runs diagnostic sessions on behalf of stateless request handlers.
// Each operation loads the snapshot under a per-session lock, runs, and
// saves the result. A session that is already busy is rejected, not queued.
type Registry struct {
	backend Backend
	deps    diagnostic.Deps
	ttl     time.Duration
	lockTTL time.Duration
	logger  *slog.Logger
}

func NewRegistry(backend Backend, deps diagnostic.Deps, opts Options) *Registry {
	r := &Registry{
		backend: backend,
		deps:    deps,
		ttl:     opts.TTL,
		lockTTL: opts.LockTTL,
		logger:  opts.Logger,
	}
	if r.ttl <= 0 {
		r.ttl = DefaultTTL
	}
	if r.lockTTL <= 0 {
		r.lockTTL = DefaultLockTTL
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.deps.Logger == nil {
		r.deps.Logger = r.logger
	}
	return r
}

// Create starts a new session for owner.
func (r *Registry) Create(ctx context.Context, ownerID string) (diagnostic.Snapshot, error) {
	snap := diagnostic.New(ownerID, r.deps).Snapshot()
	if err := r.backend.Save(ctx, snap, r.ttl); err != nil {
		return diagnostic.Snapshot{}, fmt.Errorf("create session: %w", err)
	}
	r.logger.InfoContext(ctx, "session created", "session_id", snap.ID, "owner_id", ownerID)
	return snap, nil
}

// Get returns the last saved state without taking the lock.
func (r *Registry) Get(ctx context.Context, ownerID, id string) (diagnostic.Snapshot, error) {
	snap, err := r.backend.Load(ctx, id)
	if err != nil {
		return diagnostic.Snapshot{}, err
	}
	if snap.OwnerID != ownerID {
		return diagnostic.Snapshot{}, ErrNotFound
	}
	return snap, nil
}

// Do runs fn against the session and saves whatever it leaves behind,
// including work fetched by a failed transition, so a retry can reuse it.
// Contention reports diagnostic.ErrBusy.
func (r *Registry) Do(ctx context.Context, ownerID, id string, fn func(ctx context.Context, s *diagnostic.Session) error) (diagnostic.Snapshot, error) {
	unlock, err := r.backend.Lock(ctx, id, r.lockTTL)
	if errors.Is(err, ErrLocked) {
		return diagnostic.Snapshot{}, fmt.Errorf("session %s: %w", id, diagnostic.ErrBusy)
	}
	if err != nil {
		return diagnostic.Snapshot{}, err
	}
	defer func() {
		// The request context may already be done; release regardless.
		if uerr := unlock(context.WithoutCancel(ctx)); uerr != nil {
			r.logger.WarnContext(ctx, "session unlock failed", "session_id", id, "error", uerr)
		}
	}()

	snap, err := r.Get(ctx, ownerID, id)
	if err != nil {
		return diagnostic.Snapshot{}, err
	}
	sess, err := diagnostic.Restore(snap, r.deps)
	if err != nil {
		return diagnostic.Snapshot{}, fmt.Errorf("restore session %s: %w", id, err)
	}

	fnErr := fn(ctx, sess)

	after := sess.Snapshot()
	if err := r.backend.Save(context.WithoutCancel(ctx), after, r.ttl); err != nil {
		serr := fmt.Errorf("save session: %w: %w", diagnostic.ErrPersistence, err)
		if fnErr != nil {
			return after, errors.Join(fnErr, serr)
		}
		return after, serr
	}
	return after, fnErr
}
