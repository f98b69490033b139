package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalProm *promMetrics
	promOnce   sync.Once
)

// promMetrics holds the Prometheus collectors mirrored by the Sink.
type promMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	InFlight        prometheus.Gauge
	CacheSize       prometheus.Gauge
}

// newPromMetrics creates and registers the Prometheus collectors.
//
// sync.Once guards registration so repeated Sink construction (tests) does
// not panic with duplicate collector registration.
func newPromMetrics() *promMetrics {
	promOnce.Do(func() {
		globalProm = &promMetrics{
			RequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "promptgate_requests_total",
					Help: "Total requests handled, labeled by outcome",
				},
				[]string{"outcome"},
			),
			RequestDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "promptgate_request_duration_seconds",
					Help:    "End-to-end request duration in seconds",
					Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
				},
			),
			InFlight: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "promptgate_in_flight_requests",
					Help: "Number of requests currently being processed",
				},
			),
			CacheSize: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "promptgate_response_cache_entries",
					Help: "Current number of response cache entries",
				},
			),
		}
	})
	return globalProm
}

// SetCacheSize updates the response cache size gauge.
func (s *Sink) SetCacheSize(n int) {
	if s.prom != nil {
		s.prom.CacheSize.Set(float64(n))
	}
}
