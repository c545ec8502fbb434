// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API endpoint metrics.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitrec_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitrec_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fitrec_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitrec_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Recommendation engine metrics.
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitrec_recommendations_total",
			Help: "Total number of size recommendations by recommended size",
		},
		[]string{"size"},
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fitrec_recommendation_duration_seconds",
			Help:    "Duration of recommendation computations in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	RecommendationConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fitrec_recommendation_confidence",
			Help:    "Distribution of recommendation confidence values",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	GuardrailOverrides = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fitrec_guardrail_overrides_total",
			Help: "Total number of recommendations overridden by the height guardrail",
		},
	)

	FeedbackFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fitrec_feedback_fallbacks_total",
			Help: "Total number of recommendations that used the fallback narrative",
		},
	)

	// Upstream client metrics.
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitrec_upstream_requests_total",
			Help: "Total number of upstream API calls",
		},
		[]string{"service", "operation", "outcome"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitrec_upstream_request_duration_seconds",
			Help:    "Upstream API call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)

	// Circuit breaker metrics.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fitrec_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitrec_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Cache metrics.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitrec_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitrec_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitrec_cache_evictions_total",
			Help: "Total number of cache evictions",
		},
		[]string{"cache"},
	)

	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fitrec_cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache"},
	)

	// Try-on task metrics.
	TryOnTasksCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitrec_tryon_tasks_created_total",
			Help: "Total number of try-on tasks created",
		},
		[]string{"provider"},
	)

	TryOnTaskTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitrec_tryon_task_transitions_total",
			Help: "Total number of try-on task state transitions",
		},
		[]string{"state"},
	)

	TryOnTasksActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fitrec_tryon_tasks_active",
			Help: "Current number of tasks not yet in a terminal state",
		},
	)
)

// RecordAPIRequest records one served API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRecommendation records the outcome of one engine call. Empty
// sizes are recorded under "none" so chart failures stay visible.
func RecordRecommendation(size string, confidence float64, guardrailApplied bool, duration time.Duration) {
	if size == "" {
		size = "none"
	}
	RecommendationsTotal.WithLabelValues(size).Inc()
	RecommendationConfidence.Observe(confidence)
	RecommendationDuration.Observe(duration.Seconds())
	if guardrailApplied {
		GuardrailOverrides.Inc()
	}
}

// RecordUpstreamRequest records one upstream API call.
func RecordUpstreamRequest(service, operation string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	UpstreamRequests.WithLabelValues(service, operation, outcome).Inc()
	UpstreamRequestDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordCacheHit records a cache lookup that found a live entry.
func RecordCacheHit(cache string) {
	CacheHits.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a cache lookup that found nothing usable.
func RecordCacheMiss(cache string) {
	CacheMisses.WithLabelValues(cache).Inc()
}

// RecordCacheEviction records entries removed from a cache.
func RecordCacheEviction(cache string, n int) {
	CacheEvictions.WithLabelValues(cache).Add(float64(n))
}

// UpdateCacheEntries sets the current entry count for a cache.
func UpdateCacheEntries(cache string, n int) {
	CacheEntries.WithLabelValues(cache).Set(float64(n))
}

// RecordTryOnTask records creation of a try-on task.
func RecordTryOnTask(provider string) {
	TryOnTasksCreated.WithLabelValues(provider).Inc()
	TryOnTasksActive.Inc()
}

// RecordTryOnTransition records a task state change; terminal states
// release the active gauge.
func RecordTryOnTransition(state string, terminal bool) {
	TryOnTaskTransitions.WithLabelValues(state).Inc()
	if terminal {
		TryOnTasksActive.Dec()
	}
}

// StatusCodeLabel formats an HTTP status for the status_code label.
func StatusCodeLabel(code int) string {
	return strconv.Itoa(code)
}
