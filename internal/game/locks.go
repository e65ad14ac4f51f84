package game

import "sync"

// keyedMutex hands out one mutex per string key. Read-modify-write steps that
// the store cannot serialize itself (cursor advance, rank assignment,
// check-then-insert) lock the key for their critical section. Locks are never
// evicted; key cardinality is bounded by players x questions for one game.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
