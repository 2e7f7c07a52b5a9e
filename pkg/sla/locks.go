package sla

import "sync"

// keyedLocks serializes timer mutations per ticket id. Two concurrent
// pause calls, or a pause racing a monitor sweep, must not double-count
// paused time, so every read-modify-write sequence runs under the
// ticket's lock.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the lock for key and returns the unlock function.
func (l *keyedLocks) lock(key string) func() {
	l.mu.Lock()

	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[key] = lock
	}

	l.mu.Unlock()

	lock.Lock()

	return lock.Unlock
}
