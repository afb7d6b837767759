// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

/*
Package middleware provides HTTP middleware components for the proxy API.

Key Components:

  - RequestID: UUID-based request tracking; populates the logging context
    with request and correlation IDs
  - PrometheusMetrics: request count, latency and in-flight instrumentation,
    labelled by chi route pattern
  - Compression: gzip for clients that accept it

All three use the http.HandlerFunc signature and are adapted to chi by
internal/api:

	r.Use(chiMiddleware(middleware.PrometheusMetrics))
	r.Use(chiMiddleware(middleware.Compression))
*/
package middleware
