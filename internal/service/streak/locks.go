package streak

import "sync"

// userLocks serializes engine evaluation per user. Two habits finishing
// "last" at the same moment would otherwise both read a stale streak and
// both try to advance it.
type userLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[uint]*sync.Mutex)}
}

// lock acquires the mutex for a user and returns its unlock func.
func (l *userLocks) lock(userID uint) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
