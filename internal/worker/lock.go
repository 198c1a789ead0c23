package worker

import "sync"

// KeyedMutex serializes work per key. ReplaceCards is destructive, so
// concurrent writers on the same issue id must never interleave; distinct
// ids are independent.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedMutex creates an empty keyed mutex set.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use.
func (k *KeyedMutex) Lock(key string) {
	k.get(key).Lock()
}

// Unlock releases the mutex for key.
func (k *KeyedMutex) Unlock(key string) {
	k.get(key).Unlock()
}

func (k *KeyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()

	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// RunLock guards whole import runs. Unlike a boolean flag, TryAcquire is a
// single atomic check-and-set, so overlapping triggers cannot both start.
type RunLock struct {
	mu sync.Mutex
}

// TryAcquire attempts to take the lock without blocking.
func (r *RunLock) TryAcquire() bool {
	return r.mu.TryLock()
}

// Release releases the lock. Callers must hold it.
func (r *RunLock) Release() {
	r.mu.Unlock()
}
