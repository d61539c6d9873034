package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
)

// Memory keeps snapshots in process memory. Suitable for a single server
// and for tests.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	locks   localLocks
	now     func() time.Time
}

type memoryEntry struct {
	snap    diagnostic.Snapshot
	expires time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *Memory) Load(_ context.Context, id string) (diagnostic.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return diagnostic.Snapshot{}, ErrNotFound
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, id)
		return diagnostic.Snapshot{}, ErrNotFound
	}
	return e.snap, nil
}

func (m *Memory) Save(_ context.Context, snap diagnostic.Snapshot, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[snap.ID] = memoryEntry{snap: snap, expires: m.now().Add(ttl)}
	return nil
}

// Lock ignores ttl; the lock lives as long as the process.
func (m *Memory) Lock(_ context.Context, id string, _ time.Duration) (UnlockFunc, error) {
	return m.locks.lock(id)
}

// Sweep drops expired snapshots and reports how many were removed.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for id, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, id)
			n++
		}
	}
	return n
}
