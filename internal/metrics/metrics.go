// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ads API operations
	AdsRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsgate_requests_total",
			Help: "Total manager operations by outcome",
		},
		[]string{"operation", "outcome"}, // outcome: "cache_hit", "success", "error"
	)

	AdsErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsgate_errors_total",
			Help: "Total failed operations by error kind",
		},
		[]string{"operation", "kind"},
	)

	AdsRemoteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adsgate_remote_call_duration_seconds",
			Help:    "Latency of individual remote Ads API attempts",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	AdsRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsgate_retries_total",
			Help: "Total retried remote attempts by remote code",
		},
		[]string{"operation", "code"},
	)

	// Rate limiter
	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adsgate_rate_limit_rejections_total",
			Help: "Acquire calls that timed out waiting for a token",
		},
	)

	RateLimitWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "adsgate_rate_limit_wait_seconds",
			Help:    "Time spent waiting in Acquire",
			Buckets: []float64{0, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// Cache
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsgate_cache_hits_total",
			Help: "Cache hits by tier and namespace",
		},
		[]string{"tier", "namespace"}, // tier: "memory", "shared"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsgate_cache_misses_total",
			Help: "Cache misses by namespace",
		},
		[]string{"namespace"},
	)

	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adsgate_cache_evictions_total",
			Help: "In-process entries evicted under capacity pressure",
		},
	)

	CacheSharedErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsgate_cache_shared_errors_total",
			Help: "Swallowed shared-tier failures by operation",
		},
		[]string{"op"},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adsgate_cache_entries",
			Help: "Current in-process cache entries",
		},
	)

	// Client pool
	PoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adsgate_client_pool_size",
			Help: "Pooled client handles",
		},
	)

	PoolEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsgate_client_pool_evictions_total",
			Help: "Evicted client handles by reason",
		},
		[]string{"reason"}, // "capacity", "probe_failed", "token_event", "auth_error"
	)

	// Tokens
	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsgate_token_refreshes_total",
			Help: "OAuth refresh attempts by outcome and trigger",
		},
		[]string{"trigger", "outcome"}, // trigger: "demand", "sweep"
	)

	TokensStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adsgate_tokens_stored",
			Help: "Token records held in the in-memory index",
		},
	)

	TokenRevocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsgate_token_revocations_total",
			Help: "Revocations by remote outcome",
		},
		[]string{"remote"}, // "ok", "failed", "skipped"
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "adsgate_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsgate_circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsgate_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Operational HTTP surface
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsgate_http_requests_total",
			Help: "HTTP requests by route pattern and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adsgate_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"method", "route"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adsgate_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)
)

// RecordHTTPRequest observes one served HTTP request.
func RecordHTTPRequest(method, route, status string, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, status).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordRemoteCall observes one remote attempt.
func RecordRemoteCall(operation string, d time.Duration) {
	AdsRemoteDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordOutcome counts a finished operation. An empty kind means success.
func RecordOutcome(operation, kind string, cacheHit bool) {
	switch {
	case cacheHit:
		AdsRequests.WithLabelValues(operation, "cache_hit").Inc()
	case kind == "":
		AdsRequests.WithLabelValues(operation, "success").Inc()
	default:
		AdsRequests.WithLabelValues(operation, "error").Inc()
		AdsErrors.WithLabelValues(operation, kind).Inc()
	}
}
