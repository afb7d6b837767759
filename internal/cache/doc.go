// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

/*
Package cache provides thread-safe in-memory caching with TTL support.

It backs the proxy's response cache for the Airthings account and device
lists, which change rarely but are requested on every dashboard load.

# Overview

  - Thread-safe concurrent access (sync.RWMutex)
  - Per-entry expiration, checked lazily on Get and swept periodically
  - Hit, miss and eviction statistics
  - Close stops the sweeper goroutine

# Usage Example

	c := cache.New(5*time.Minute, 0)
	defer c.Close()

	key := cache.GenerateKey("devices", accountID)
	if v, ok := c.Get(key); ok {
	    return v.(*airthings.DevicesResponse), nil
	}
	c.Set(key, devices)
*/
package cache
