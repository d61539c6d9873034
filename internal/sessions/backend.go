package sessions

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
)

var (
	// ErrNotFound is returned for unknown or expired sessions and for
	// sessions that belong to another owner.
	ErrNotFound = errors.New("session not found")

	// ErrLocked is returned by Backend.Lock when another operation holds
	// the session.
	ErrLocked = errors.New("session locked")
)

// UnlockFunc releases a lock taken with Backend.Lock.
type UnlockFunc func(ctx context.Context) error

// Backend stores session snapshots and per-session locks.
type Backend interface {
	// Load returns the snapshot or ErrNotFound.
	Load(ctx context.Context, id string) (diagnostic.Snapshot, error)

	// Save stores the snapshot for ttl.
	Save(ctx context.Context, snap diagnostic.Snapshot, ttl time.Duration) error

	// Lock claims id without waiting. A held lock returns ErrLocked. The
	// lock expires after ttl even if never released.
	Lock(ctx context.Context, id string, ttl time.Duration) (UnlockFunc, error)
}

// localLocks is a process-local lock table.
type localLocks struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func (l *localLocks) lock(id string) (UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = make(map[string]struct{})
	}
	if _, ok := l.held[id]; ok {
		return nil, ErrLocked
	}
	l.held[id] = struct{}{}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, id)
			l.mu.Unlock()
		})
		return nil
	}, nil
}
