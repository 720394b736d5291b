package service

import "sync"

// userLocks is a keyed mutex: one lock per user ID, created on demand and
// dropped once nobody holds or waits for it.
//
// Every read-modify-write of a user's gamification state (task completion,
// direct XP awards, study sessions) runs under the user's lock, so two
// concurrent completions can never both read the same XP total.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu      sync.Mutex
	waiters int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*userLock)}
}

// lock blocks until userID's lock is held and returns the matching unlock.
func (l *userLocks) lock(userID string) (unlock func()) {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{}
		l.locks[userID] = ul
	}
	ul.waiters++
	l.mu.Unlock()

	ul.mu.Lock()

	return func() {
		ul.mu.Unlock()

		l.mu.Lock()
		ul.waiters--
		if ul.waiters == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}

func (l *userLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
