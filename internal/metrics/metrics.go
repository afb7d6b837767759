// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upstream names used as the "upstream" label.
const (
	UpstreamAirthings = "airthings"
	UpstreamIQAir     = "iqair"
)

// Outcome labels for upstream requests.
const (
	OutcomeSuccess      = "success"
	OutcomeAuthError    = "auth_error"
	OutcomeHTTPError    = "http_error"
	OutcomeNetworkError = "network_error"
	OutcomeDecodeError  = "decode_error"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, // Optimized for API latency
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Upstream API Metrics
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of requests sent to upstream APIs",
		},
		[]string{"upstream", "endpoint", "outcome"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of upstream API requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, // bounded by the 10s upstream timeout
		},
		[]string{"upstream", "endpoint"},
	)

	UpstreamAuthRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_auth_retries_total",
			Help: "Total number of requests retried after a 401 from upstream",
		},
		[]string{"endpoint"},
	)

	TokenAcquisitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauth_token_acquisitions_total",
			Help: "Total number of OAuth2 token requests sent to the token endpoint",
		},
		[]string{"result"}, // "success", "failure"
	)

	// Outdoor Cache Metrics
	OutdoorSnapshots = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outdoor_snapshots_total",
			Help: "Total number of outdoor snapshots served, by source",
		},
		[]string{"source"}, // "fresh", "cached", "stale", "synthetic", "zeroed", "mock"
	)

	OutdoorSnapshotAge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "outdoor_snapshot_age_seconds",
			Help: "Age of the last served outdoor snapshot in seconds (0 for generated snapshots)",
		},
	)

	// Cache Metrics (General)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "accounts", "devices"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
		func() float64 { return time.Since(processStart).Seconds() },
	)
)

var processStart = time.Now()

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordUpstreamRequest records a single upstream HTTP attempt.
// endpoint must be a route template ("/v1/accounts/{id}/devices"), never a
// concrete path, to keep label cardinality bounded.
func RecordUpstreamRequest(upstream, endpoint, outcome string, duration time.Duration) {
	UpstreamRequestsTotal.WithLabelValues(upstream, endpoint, outcome).Inc()
	UpstreamRequestDuration.WithLabelValues(upstream, endpoint).Observe(duration.Seconds())
}

// RecordAuthRetry records a request replayed after a 401.
func RecordAuthRetry(endpoint string) {
	UpstreamAuthRetries.WithLabelValues(endpoint).Inc()
}

// RecordTokenAcquisition records a token endpoint round trip.
func RecordTokenAcquisition(success bool) {
	if success {
		TokenAcquisitions.WithLabelValues("success").Inc()
		return
	}
	TokenAcquisitions.WithLabelValues("failure").Inc()
}

// RecordOutdoorSnapshot records which path served an outdoor snapshot.
func RecordOutdoorSnapshot(source string, age time.Duration) {
	OutdoorSnapshots.WithLabelValues(source).Inc()
	OutdoorSnapshotAge.Set(age.Seconds())
}

// RecordCacheLookup records a hit or miss for the named response cache.
func RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
		return
	}
	CacheMisses.WithLabelValues(cacheType).Inc()
}

// SetAppInfo publishes build information.
func SetAppInfo(version, goVersion string) {
	AppInfo.WithLabelValues(version, goVersion).Set(1)
}
