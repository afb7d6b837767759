// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

/*
Package main is the entry point for the Airboard server.

Airboard is the backend of an indoor/outdoor air quality dashboard. It proxies
the Airthings sensor API (OAuth2 client credentials, one retry after a 401)
and serves a cached outdoor snapshot from an IQAir station, so the browser
never holds credentials.

# Application Architecture

	RootSupervisor ("airboard")
	├── UpstreamSupervisor ("upstream-layer")
	│   ├── Token warmer (first Airthings token)
	│   └── Outdoor warmer (cache refresh every IQAIR_REFRESH_INTERVAL)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi router)

Component initialization order:

 1. Configuration: Koanf v2 defaults, config.yaml, environment variables
 2. Logging: zerolog with JSON/console output modes
 3. Airthings: token manager, rate-limited client, accounts/devices cache
 4. Outdoor: station client behind a circuit breaker, TTL cache with fallback
 5. Supervisor Tree: Suture v4 process supervision
 6. HTTP Server: Chi router with middleware stack

A missing required setting stops the process before any network call, with
the environment variable named in the log line.

# Signal Handling

SIGINT and SIGTERM cancel the root context; the HTTP server drains in-flight
requests for up to 10 seconds.
*/
package main
