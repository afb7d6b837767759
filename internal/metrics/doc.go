// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto and
scraped from the /metrics endpoint:

	curl http://localhost:3000/metrics

# Available Metrics

HTTP Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: In-flight requests (gauge)
  - api_rate_limit_hits_total: Rejected by the per-IP limiter (counter)

Upstream Metrics:
  - upstream_requests_total: Attempts sent to Airthings or IQAir (counter)
    Labels: upstream, endpoint, outcome
  - upstream_request_duration_seconds: Attempt latency (histogram)
  - upstream_auth_retries_total: Requests replayed after a 401 (counter)
  - oauth_token_acquisitions_total: Token endpoint round trips (counter)
    Labels: result

Outdoor Cache Metrics:
  - outdoor_snapshots_total: Snapshots served (counter)
    Labels: source (fresh, cached, stale, synthetic, zeroed, mock)
  - outdoor_snapshot_age_seconds: Age of the last served snapshot (gauge)

Cache Metrics:
  - cache_hits_total / cache_misses_total: Response cache lookups (counter)
    Labels: cache_type (accounts, devices)

Circuit Breaker Metrics:
  - circuit_breaker_state: Current state (gauge)
    Labels: name
    Values: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total: Requests by result (counter)
    Labels: name, result (success, failure, rejected)
  - circuit_breaker_consecutive_failures: Current failure streak (gauge)
  - circuit_breaker_state_transitions_total: State changes (counter)
    Labels: name, from_state, to_state

System Metrics:
  - app_info: Version and Go version (gauge, always 1)
  - app_uptime_seconds: Process uptime (gauge)

# Usage

	start := time.Now()
	// ... call upstream ...
	metrics.RecordUpstreamRequest(metrics.UpstreamAirthings, "/v1/accounts", metrics.OutcomeSuccess, time.Since(start))
*/
package metrics
