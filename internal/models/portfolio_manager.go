package models

import (
	"sync"
)

// userLock is one account's mutex plus the number of goroutines holding or
// waiting for it.
type userLock struct {
	mu   sync.Mutex
	refs int
}

// UserLocks serializes read-modify-write cycles on one account.
// Uses per-username locks instead of a global lock; accounts are independent.
// An entry is dropped once nobody holds or waits for it, so the table only
// grows with the number of accounts trading at the same time.
type UserLocks struct {
	locks    map[string]*userLock // username → lock
	mapMutex sync.Mutex           // Protects the map and refcounts
}

// NewUserLocks creates an empty lock table
func NewUserLocks() *UserLocks {
	return &UserLocks{
		locks: make(map[string]*userLock),
	}
}

// Lock blocks until the caller owns the account's lock
func (ul *UserLocks) Lock(username string) {
	ul.mapMutex.Lock()
	l := ul.locks[username]
	if l == nil {
		l = &userLock{}
		ul.locks[username] = l
	}
	l.refs++
	ul.mapMutex.Unlock()

	l.mu.Lock()
}

// Unlock releases the account's lock
func (ul *UserLocks) Unlock(username string) {
	ul.mapMutex.Lock()
	defer ul.mapMutex.Unlock()

	l := ul.locks[username]
	if l == nil {
		return
	}
	l.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(ul.locks, username)
	}
}

// WithLock runs fn while holding the account's lock
func (ul *UserLocks) WithLock(username string, fn func() error) error {
	ul.Lock(username)
	defer ul.Unlock(username)
	return fn()
}

// size reports how many accounts currently have a lock entry
func (ul *UserLocks) size() int {
	ul.mapMutex.Lock()
	defer ul.mapMutex.Unlock()
	return len(ul.locks)
}
