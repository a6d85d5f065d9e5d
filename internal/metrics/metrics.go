// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "animerec_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Queries
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "animerec_query_duration_seconds",
			Help:    "Duration of filter and recommend queries in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"kind"}, // "filter", "recommend"
	)

	QueryEmptyResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animerec_query_empty_results_total",
			Help: "Total number of queries that produced no results",
		},
		[]string{"kind"},
	)

	// Catalog
	CatalogReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animerec_catalog_reloads_total",
			Help: "Total number of catalog snapshot builds",
		},
		[]string{"result"}, // "success", "error", "unchanged"
	)

	CatalogTitles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "animerec_catalog_titles",
			Help: "Number of titles in the current catalog snapshot",
		},
	)

	CatalogDroppedRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "animerec_catalog_dropped_rows",
			Help: "Rows dropped while loading the current snapshot, by reason",
		},
		[]string{"reason"},
	)

	FeatureDimensions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "animerec_feature_dimensions",
			Help: "Length of the feature vectors in the current snapshot",
		},
	)

	// Lookups
	LookupRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animerec_lookup_requests_total",
			Help: "Total number of image/synopsis lookups by outcome",
		},
		[]string{"source", "outcome"}, // source: "memory", "sqlite", "remote"; outcome: "hit", "miss", "error"
	)

	LookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "animerec_lookup_remote_duration_seconds",
			Help:    "Duration of remote lookup calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "animerec_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animerec_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

// ObserveHTTP records one HTTP request.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// ObserveQuery records one query and whether it was empty.
func ObserveQuery(kind string, d time.Duration, empty bool) {
	QueryDuration.WithLabelValues(kind).Observe(d.Seconds())
	if empty {
		QueryEmptyResults.WithLabelValues(kind).Inc()
	}
}

// RecordLookup counts one lookup outcome.
func RecordLookup(source, outcome string) {
	LookupRequests.WithLabelValues(source, outcome).Inc()
}
