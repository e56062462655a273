// Package metrics provides Prometheus metrics for the transfer engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for a transfer process.
type Metrics struct {
	// Segment metrics
	SegmentsFetched prometheus.Counter
	SegmentsFailed  prometheus.Counter

	// Byte counters
	BytesFetched prometheus.Counter
	BytesWritten prometheus.Counter

	// Pipeline metrics
	InFlightFetches  prometheus.Gauge
	BufferedSegments prometheus.Gauge

	// Timing metrics
	FetchDuration prometheus.Histogram
	EmitDuration  prometheus.Histogram

	// Error metrics, labeled by fault kind
	Faults *prometheus.CounterVec

	// Credential metrics
	CredentialRefreshes prometheus.Counter
}

// Config holds metrics configuration.
type Config struct {
	Enabled bool
	Address string // Address for metrics HTTP server (e.g., ":9090")
}

var defaultMetrics *Metrics

// Init initializes the metrics package with global metrics.
// Call this once at startup.
func Init(namespace string) *Metrics {
	if namespace == "" {
		namespace = "s3mi"
	}

	m := &Metrics{
		SegmentsFetched: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "segments_fetched_total",
				Help:      "Total number of segments fetched successfully",
			},
		),
		SegmentsFailed: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "segments_failed_total",
				Help:      "Total number of segments that failed to fetch",
			},
		),
		BytesFetched: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bytes_fetched_total",
				Help:      "Total bytes read from the object store",
			},
		),
		BytesWritten: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bytes_written_total",
				Help:      "Total bytes written to the sink",
			},
		),
		InFlightFetches: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "in_flight_fetches",
				Help:      "Number of range fetches currently executing",
			},
		),
		BufferedSegments: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "buffered_segments",
				Help:      "Number of segments held in memory awaiting emission",
			},
		),
		FetchDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Time to fetch one segment",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
			},
		),
		EmitDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "emit_duration_seconds",
				Help:      "Time to write one segment to the sink",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
			},
		),
		Faults: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "faults_total",
				Help:      "Total faults recorded, by kind",
			},
			[]string{"kind"},
		),
		CredentialRefreshes: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "credential_refreshes_total",
				Help:      "Total credential snapshot refreshes",
			},
		),
	}

	defaultMetrics = m
	return m
}

// Get returns the global metrics, or nil if Init was never called.
func Get() *Metrics {
	return defaultMetrics
}

// Serve starts the metrics HTTP server on the given address.
// It blocks; run it in a goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
