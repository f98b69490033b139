// Package admission implements request admission control: a per-client
// sliding-window rate limiter and a fixed-capacity concurrency gate.
//
// Both decisions are made before any work is committed to a request, so
// their critical sections are short and never block.
package admission

import (
	"sync"
	"time"
)

// window is the trailing interval a client's requests are counted over.
const window = 60 * time.Second

// RateLimiter counts requests per client over a sliding 60 second window.
//
// State is process-local: multiple server instances each enforce the limit
// independently.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	clients map[string][]time.Time

	// now is injectable for tests.
	now func() time.Time
}

// NewRateLimiter creates a rate limiter allowing limit requests per client
// per minute.
func NewRateLimiter(limit int) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		clients: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow reports whether clientID may issue a request now.
//
// The prune-check-record sequence runs under one lock so two concurrent
// requests cannot both slip past the boundary check. A rejected request is
// not recorded against the window.
func (r *RateLimiter) Allow(clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-window)

	stamps := r.clients[clientID]
	kept := stamps[:0]
	for _, t := range stamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= r.limit {
		r.clients[clientID] = kept
		return false
	}

	r.clients[clientID] = append(kept, now)
	return true
}

// Len returns the number of tracked clients. Used by tests and stats.
func (r *RateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}
