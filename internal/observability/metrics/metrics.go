// Package metrics provides Prometheus instrumentation for abiscout.
package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	enabled      atomic.Bool
	registerOnce sync.Once

	// HTTP metrics
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec

	// Resolution pipeline metrics
	resolutionTotal      *prometheus.CounterVec
	signatureLookupTotal *prometheus.CounterVec
	upstreamRequestTotal *prometheus.CounterVec
)

// Init initializes the metrics system. Collectors are registered on the
// default registry at most once, so repeated calls are safe, and the
// enabled flag may be read concurrently by the record helpers.
func Init(enabledFlag bool) {
	enabled.Store(enabledFlag)

	if !enabledFlag {
		return
	}

	registerOnce.Do(register)
}

func register() {
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Resolution outcome counter, labeled by the tier that settled the
	// request (verified, recovered, none) and the result.
	resolutionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolution_total",
			Help: "Total number of contract ABI resolutions",
		},
		[]string{"tier", "result"},
	)

	signatureLookupTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signature_lookup_total",
			Help: "Total number of selector signature lookups",
		},
		[]string{"outcome"},
	)

	upstreamRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_request_total",
			Help: "Total number of upstream API requests",
		},
		[]string{"upstream", "outcome"},
	)

	// Note: Go runtime metrics (goroutines, memory, GC) are automatically
	// collected by prometheus/client_golang - no custom collector needed
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	if !enabled.Load() {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}
	return promhttp.Handler()
}

// Enabled returns whether metrics are enabled.
func Enabled() bool {
	return enabled.Load()
}

// RecordResolution records a completed pipeline run.
func RecordResolution(tier, result string) {
	if !enabled.Load() {
		return
	}
	resolutionTotal.WithLabelValues(tier, result).Inc()
}

// RecordSignatureLookup records one selector lookup outcome
// (resolved, miss, unparseable, error).
func RecordSignatureLookup(outcome string) {
	if !enabled.Load() {
		return
	}
	signatureLookupTotal.WithLabelValues(outcome).Inc()
}

// RecordUpstreamRequest records one call to an upstream collaborator
// (explorer, chainrpc, fourbyte) with outcome ok or error.
func RecordUpstreamRequest(upstream, outcome string) {
	if !enabled.Load() {
		return
	}
	upstreamRequestTotal.WithLabelValues(upstream, outcome).Inc()
}
