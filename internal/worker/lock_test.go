package worker

import (
	"sync"
	"testing"
	"time"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()

	var inCritical int
	var maxInCritical int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("issue-1")
			defer km.Unlock("issue-1")

			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxInCritical != 1 {
		t.Errorf("Expected at most 1 holder of the same key, got %d", maxInCritical)
	}
}

func TestKeyedMutex_DistinctKeysIndependent(t *testing.T) {
	km := NewKeyedMutex()

	km.Lock("issue-1")
	defer km.Unlock("issue-1")

	acquired := make(chan struct{})
	go func() {
		km.Lock("issue-2")
		km.Unlock("issue-2")
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("Expected a different key to be lockable while issue-1 is held")
	}
}

func TestRunLock_MutualExclusion(t *testing.T) {
	var rl RunLock

	if !rl.TryAcquire() {
		t.Fatal("Expected first TryAcquire to succeed")
	}
	if rl.TryAcquire() {
		t.Fatal("Expected second TryAcquire to fail while held")
	}

	rl.Release()

	if !rl.TryAcquire() {
		t.Fatal("Expected TryAcquire to succeed after Release")
	}
	rl.Release()
}
