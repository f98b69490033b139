// Package metrics collects process-wide traffic and cache statistics.
//
// The Sink keeps an internal aggregate served by the JSON snapshot endpoint
// and mirrors each observation into Prometheus collectors for scraping.
package metrics

import (
	"sync"
	"time"
)

// maxLatencySamples bounds the rolling latency sample (drop-oldest).
const maxLatencySamples = 1000

// Outcome classifies a finished request for accounting purposes.
//
// Hits and misses are only counted for requests that were admitted and ran
// the pipeline; rejected requests count against their own counters so that
// hits+misses == total - rate_limited - server_busy always holds. A request
// that failed during computation is recorded as a miss.
type Outcome int

const (
	OutcomeCacheHit Outcome = iota
	OutcomeCacheMiss
	OutcomeRateLimited
	OutcomeServerBusy
)

// Snapshot is a point-in-time view of the aggregate.
type Snapshot struct {
	TotalRequests       int64   `json:"total_requests"`
	ConcurrentRequests  int64   `json:"concurrent_requests"`
	CacheHits           int64   `json:"cache_hits"`
	CacheMisses         int64   `json:"cache_misses"`
	CacheHitRate        float64 `json:"cache_hit_rate"`
	RateLimitedRequests int64   `json:"rate_limited_requests"`
	ServerBusyRequests  int64   `json:"server_busy_requests"`
	AverageResponseTime float64 `json:"average_response_time"`
}

// Sink accumulates request statistics. All methods are safe for concurrent
// use; each call holds one short critical section.
type Sink struct {
	mu sync.Mutex

	total       int64
	inFlight    int64
	hits        int64
	misses      int64
	rateLimited int64
	serverBusy  int64

	// latencies is a drop-oldest ring of response times in seconds.
	latencies []float64
	next      int

	prom *promMetrics
}

// NewSink creates an empty sink with Prometheus collectors registered.
func NewSink() *Sink {
	return &Sink{
		latencies: make([]float64, 0, maxLatencySamples),
		prom:      newPromMetrics(),
	}
}

// Record accounts one finished request.
func (s *Sink) Record(latency time.Duration, outcome Outcome) {
	secs := latency.Seconds()

	s.mu.Lock()
	s.total++
	switch outcome {
	case OutcomeCacheHit:
		s.hits++
	case OutcomeCacheMiss:
		s.misses++
	case OutcomeRateLimited:
		s.rateLimited++
	case OutcomeServerBusy:
		s.serverBusy++
	}

	if len(s.latencies) < maxLatencySamples {
		s.latencies = append(s.latencies, secs)
	} else {
		s.latencies[s.next] = secs
		s.next = (s.next + 1) % maxLatencySamples
	}
	s.mu.Unlock()

	if s.prom != nil {
		s.prom.RequestsTotal.WithLabelValues(outcome.label()).Inc()
		s.prom.RequestDuration.Observe(secs)
	}
}

// RequestStarted marks a request as in flight. Must be paired with
// RequestFinished.
func (s *Sink) RequestStarted() {
	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()
	if s.prom != nil {
		s.prom.InFlight.Inc()
	}
}

// RequestFinished marks an in-flight request as done.
func (s *Sink) RequestFinished() {
	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
	if s.prom != nil {
		s.prom.InFlight.Dec()
	}
}

// Snapshot returns the current aggregate. The hit rate is 0 when no cache
// lookups have been recorded.
func (s *Sink) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		TotalRequests:       s.total,
		ConcurrentRequests:  s.inFlight,
		CacheHits:           s.hits,
		CacheMisses:         s.misses,
		RateLimitedRequests: s.rateLimited,
		ServerBusyRequests:  s.serverBusy,
	}

	if lookups := s.hits + s.misses; lookups > 0 {
		snap.CacheHitRate = float64(s.hits) / float64(lookups)
	}

	if n := len(s.latencies); n > 0 {
		var sum float64
		for _, v := range s.latencies {
			sum += v
		}
		snap.AverageResponseTime = sum / float64(n)
	}

	return snap
}

func (o Outcome) label() string {
	switch o {
	case OutcomeCacheHit:
		return "cache_hit"
	case OutcomeCacheMiss:
		return "cache_miss"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeServerBusy:
		return "server_busy"
	default:
		return "unknown"
	}
}
