package keylock_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/gosuda/cortex/internal/keylock"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	t.Parallel()

	km := keylock.New()
	key := uuid.New()

	var counter int
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock(key)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	t.Parallel()

	km := keylock.New()

	unlockA := km.Lock(uuid.New())
	defer unlockA()

	// Holding A must not prevent acquiring B.
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock(uuid.New())
		unlockB()
		close(done)
	}()

	<-done
}

func TestKeyedMutex_Reacquire(t *testing.T) {
	t.Parallel()

	km := keylock.New()
	key := uuid.New()

	unlock := km.Lock(key)
	unlock()

	// The entry was released; locking again must not deadlock.
	unlock = km.Lock(key)
	unlock()
}
