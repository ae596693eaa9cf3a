package service

import "sync"

// keyedLocks hands out one mutex per key. Entries are refcounted and removed
// once the last holder releases, so memory stays bounded by in-flight keys
// and two different keys never contend with each other.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*keyedLock)}
}

// acquire blocks until the key's lock is held and returns it for release.
func (k *keyedLocks) acquire(key string) *keyedLock {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return l
}

// release unlocks the key's lock and drops the entry when no one else is
// holding or waiting on it.
func (k *keyedLocks) release(key string, l *keyedLock) {
	l.mu.Unlock()

	k.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()
}
