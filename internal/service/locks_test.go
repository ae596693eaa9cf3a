package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedLocks_DifferentKeysDoNotBlock(t *testing.T) {
	k := newKeyedLocks()

	held := k.acquire("a")
	defer k.release("a", held)

	done := make(chan struct{})
	go func() {
		l := k.acquire("b")
		k.release("b", l)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("acquiring a different key blocked behind a held lock")
	}
}

func TestKeyedLocks_SameKeySerializes(t *testing.T) {
	k := newKeyedLocks()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l := k.acquire("conv")
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			k.release("conv", l)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}

func TestKeyedLocks_EntriesRemovedWhenReleased(t *testing.T) {
	k := newKeyedLocks()

	la := k.acquire("a")
	lb := k.acquire("b")

	k.mu.Lock()
	assert.Len(t, k.locks, 2)
	k.mu.Unlock()

	k.release("a", la)
	k.release("b", lb)

	k.mu.Lock()
	assert.Empty(t, k.locks)
	k.mu.Unlock()
}
