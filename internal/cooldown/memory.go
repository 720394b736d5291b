package cooldown

import (
	"context"
	"sync"
	"time"
)

// evictFactor: entries older than evictFactor*cooldown are dropped.
const evictFactor = 5

// MemoryStore keeps last-call timestamps in a mutex-guarded map.
type MemoryStore struct {
	mu        sync.Mutex
	lastCall  map[string]time.Time
	lastSweep time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lastCall: make(map[string]time.Time)}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Acquire(_ context.Context, userID string, now time.Time, cooldown time.Duration) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep(now, cooldown)

	if last, ok := m.lastCall[userID]; ok {
		if elapsed := now.Sub(last); elapsed < cooldown {
			return false, cooldown - elapsed, nil
		}
	}
	m.lastCall[userID] = now
	return true, 0, nil
}

// Len reports how many users are currently tracked.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lastCall)
}

// sweep runs at most once per cooldown. Caller holds mu.
func (m *MemoryStore) sweep(now time.Time, cooldown time.Duration) {
	if now.Sub(m.lastSweep) < cooldown {
		return
	}
	m.lastSweep = now

	cutoff := now.Add(-evictFactor * cooldown)
	for id, last := range m.lastCall {
		if last.Before(cutoff) {
			delete(m.lastCall, id)
		}
	}
}
