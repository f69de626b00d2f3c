// Package metrics provides Prometheus metrics for the analysis pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tonesense"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	ChunksTotal        *prometheus.CounterVec
	ChunkBytesReceived prometheus.Counter

	ProviderLatency *prometheus.HistogramVec
	ProviderErrors  *prometheus.CounterVec

	SessionsActive prometheus.Gauge
	SessionsSwept  prometheus.Counter
}

// Default is the process-wide metrics instance.
var Default = New()

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		ChunksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_total",
			Help:      "Analyzed chunks by terminal outcome",
		}, []string{"outcome"}),
		ChunkBytesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_bytes_received_total",
			Help:      "Total decoded audio bytes received",
		}),

		ProviderLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_latency_seconds",
			Help:      "Inference provider round-trip latency in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 15, 30},
		}, []string{"backend"}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Provider failures by error code",
		}, []string{"code"}),

		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of live analysis sessions",
		}),
		SessionsSwept: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_swept_total",
			Help:      "Sessions evicted by the expiry sweeper",
		}),
	}
}
