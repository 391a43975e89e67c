package service

import (
	"sync"

	"github.com/google/uuid"
)

// keyedLocks serializes mutations per table while letting distinct tables
// proceed in parallel. Entries are refcounted so the map does not grow with
// every table ever touched
type keyedLocks struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{entries: make(map[uuid.UUID]*lockEntry)}
}

// lock blocks until the key is held and returns the unlock function
func (k *keyedLocks) lock(key uuid.UUID) func() {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &lockEntry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
