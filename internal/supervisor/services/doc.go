// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

/*
Package services provides suture.Service wrappers for Airboard components.

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts the ListenAndServe pattern to Serve

Outdoor Warmer (OutdoorWarmerService):
  - Calls outdoor.Cache.Refresh immediately and then on a ticker
  - Logs failures; the cache keeps serving stale or fallback data
  - Disabled (suture.ErrDoNotRestart) when the interval is not positive

Token Warmer (TokenWarmerService):
  - Acquires the Airthings token once at startup
  - Returns an error on failure so suture retries with backoff
  - Exits with suture.ErrDoNotRestart once a token is held
*/
package services
