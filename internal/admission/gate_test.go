package admission

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_CapacityBound(t *testing.T) {
	g := NewGate(2)

	require.True(t, g.TryAcquire())
	require.True(t, g.TryAcquire())
	assert.False(t, g.TryAcquire(), "third acquire must fail at capacity 2")

	g.Release()
	assert.True(t, g.TryAcquire(), "released slot must be reusable")

	g.Release()
	g.Release()
}

func TestGate_ExactlyOneRejection(t *testing.T) {
	const capacity = 4
	g := NewGate(capacity)

	hold := make(chan struct{})
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted, rejected := 0, 0

	for i := 0; i < capacity+1; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryAcquire() {
				mu.Lock()
				admitted++
				mu.Unlock()
				<-hold
				g.Release()
			} else {
				mu.Lock()
				rejected++
				mu.Unlock()
			}
		}()
	}

	// All goroutines have either parked on hold or been rejected once
	// admitted+rejected reaches capacity+1; spin-wait on the counters.
	for {
		mu.Lock()
		done := admitted+rejected == capacity+1
		mu.Unlock()
		if done {
			break
		}
	}

	mu.Lock()
	assert.Equal(t, capacity, admitted)
	assert.Equal(t, 1, rejected)
	mu.Unlock()

	close(hold)
	wg.Wait()

	// After all releases a new request is admitted again.
	assert.True(t, g.TryAcquire())
	g.Release()
}
