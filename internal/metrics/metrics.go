// MovieApp - AI-Assisted Movie Recommendations
// Copyright 2026 P. Mahajan (pmahajan3105)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahajan3105/movieapp-sub009

// Package metrics provides Prometheus instrumentation for MovieApp.
//
// Covered surfaces:
//   - Request coalescing (hits, misses, evictions, pending table size)
//   - Title enrichment outcomes by provenance
//   - AI provider and TMDB search latency and errors
//   - Circuit breaker state transitions
//   - Catalog query performance (DuckDB)
//   - HTTP endpoint latency and throughput
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Coalescing Metrics

	CoalesceHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coalesce_hits_total",
			Help: "Requests that attached to an already in-flight operation",
		},
		[]string{"group"},
	)

	CoalesceMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coalesce_misses_total",
			Help: "Requests that started a fresh operation",
		},
		[]string{"group"},
	)

	CoalesceEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coalesce_evictions_total",
			Help: "Pending entries removed from the coalescing table",
		},
		[]string{"group", "reason"}, // "settled", "timeout", "clear"
	)

	CoalescePending = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "coalesce_pending_entries",
			Help: "Current number of in-flight entries per coalescing group",
		},
		[]string{"group"},
	)

	// Enrichment Metrics

	EnrichmentResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_results_total",
			Help: "Suggestion resolution outcomes by provenance",
		},
		[]string{"provenance"}, // "database", "external", "unresolved"
	)

	EnrichmentBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "enrichment_batch_duration_seconds",
			Help:    "Duration of a full enrichment batch in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Upstream Provider Metrics

	AIRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "Duration of AI completion requests in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
	)

	AIRequestErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ai_request_errors_total",
			Help: "Total number of failed AI completion requests",
		},
	)

	TMDBRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tmdb_request_duration_seconds",
			Help:    "Duration of TMDB search requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	TMDBRequestErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tmdb_request_errors_total",
			Help: "Total number of failed TMDB search requests",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Recommendation Metrics

	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Total recommendation requests by result status",
		},
		[]string{"status"}, // "success", "empty", "error"
	)

	TasteMemoryUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taste_memory_updates_total",
			Help: "Detached taste-memory update attempts by outcome",
		},
		[]string{"outcome"}, // "ok", "error"
	)

	// Catalog Metrics (DuckDB)

	CatalogQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_query_duration_seconds",
			Help:    "Duration of catalog queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CatalogQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_query_errors_total",
			Help: "Total number of catalog query errors",
		},
		[]string{"operation"},
	)

	// API Metrics

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
)

// RecordCatalogQuery records a catalog query with duration and error status.
func RecordCatalogQuery(operation string, duration time.Duration, err error) {
	CatalogQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		CatalogQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordHTTPRequest records an HTTP request with method, endpoint and status code.
func RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	HTTPRequestDuration.WithLabelValues(method, endpoint, code).Observe(duration.Seconds())
	HTTPRequestsTotal.WithLabelValues(method, endpoint, code).Inc()
}
