package concurrency

import (
	"sync"
)

// LockManager hands out named mutexes. Token refresh uses one lock per
// workspace so concurrent API calls share a single refresh instead of
// racing the rotating refresh token.
type LockManager struct {
	locks sync.Map
}

// NewLockManager creates a new LockManager
func NewLockManager() *LockManager {
	return &LockManager{}
}

// GetLock returns the mutex for the given key, creating it on first use.
// Locks are never evicted; the key space is bounded by the number of
// installed workspaces.
func (lm *LockManager) GetLock(key string) *sync.Mutex {
	lock, _ := lm.locks.LoadOrStore(key, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
