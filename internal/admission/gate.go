package admission

import (
	"golang.org/x/sync/semaphore"
)

// Gate bounds the number of requests processed concurrently.
//
// TryAcquire is non-blocking: when the gate is full the request is rejected
// immediately rather than queued, preserving bounded latency under overload.
type Gate struct {
	sem      *semaphore.Weighted
	capacity int
}

// NewGate creates a gate admitting at most capacity concurrent requests.
func NewGate(capacity int) *Gate {
	return &Gate{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
	}
}

// TryAcquire attempts to claim a slot without blocking.
func (g *Gate) TryAcquire() bool {
	return g.sem.TryAcquire(1)
}

// Release returns a slot claimed by TryAcquire. Every successful acquire
// must be paired with exactly one release, including on error paths.
func (g *Gate) Release() {
	g.sem.Release(1)
}

// Capacity returns the configured gate capacity.
func (g *Gate) Capacity() int {
	return g.capacity
}
