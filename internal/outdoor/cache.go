// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

package outdoor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/airboard/internal/logging"
	"github.com/tomtom215/airboard/internal/metrics"
)

// DefaultTTL is how long a fetched snapshot is served without refetching.
const DefaultTTL = 5 * time.Minute

// ErrNoFetcher is reported by Refresh when the cache has no upstream.
var ErrNoFetcher = errors.New("outdoor station not configured")

// Source tells where a served snapshot came from.
type Source string

const (
	SourceFresh     Source = "fresh"     // fetched for this read
	SourceCached    Source = "cached"    // within TTL
	SourceStale     Source = "stale"     // past TTL, refetch failed
	SourceSynthetic Source = "synthetic" // nothing cached, development fallback
	SourceZeroed    Source = "zeroed"    // nothing cached, hardened fallback
	SourceMock      Source = "mock"      // mock mode, upstream never contacted
)

// Result is a served snapshot with its provenance. FetchedAt is zero for
// generated snapshots.
type Result struct {
	Snapshot  Snapshot
	Source    Source
	FetchedAt time.Time
}

// CacheConfig controls TTL and fallback behavior.
type CacheConfig struct {
	TTL time.Duration
	// Hardened serves zeroed instead of synthetic data when nothing is cached.
	Hardened bool
	// Mock serves synthetic data without contacting upstream.
	Mock bool
	// Jitter varies synthetic readings between calls.
	Jitter bool
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock sets the time source (for tests).
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// WithJitter overrides the jitter source used when jitter is enabled.
func WithJitter(fn JitterFunc) CacheOption {
	return func(c *Cache) { c.jitter = fn }
}

// Cache holds the last good outdoor snapshot. Snapshot never fails.
//
// The mutex is held across check, fetch and store so that concurrent readers
// arriving on an empty or expired cache share one upstream fetch.
type Cache struct {
	fetcher  Fetcher
	ttl      time.Duration
	hardened bool
	mock     bool
	now      func() time.Time
	jitter   JitterFunc
	logger   zerolog.Logger

	mu        sync.Mutex
	snapshot  *Snapshot
	fetchedAt time.Time
}

// NewCache creates a Cache over fetcher. A nil fetcher (station disabled)
// always serves the fallback snapshot.
func NewCache(fetcher Fetcher, cfg CacheConfig, opts ...CacheOption) *Cache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := &Cache{
		fetcher:  fetcher,
		ttl:      ttl,
		hardened: cfg.Hardened,
		mock:     cfg.Mock,
		now:      time.Now,
		jitter:   UniformJitter,
		logger:   logging.WithComponent("outdoor-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if !cfg.Jitter {
		c.jitter = NoJitter
	}
	return c
}

// Snapshot returns the current outdoor snapshot following the fallback policy.
func (c *Cache) Snapshot(ctx context.Context) Result {
	if c.mock {
		return c.record(Result{Snapshot: SyntheticSnapshot(c.now(), c.jitter), Source: SourceMock})
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.validLocked() {
		return c.record(Result{Snapshot: *c.snapshot, Source: SourceCached, FetchedAt: c.fetchedAt})
	}

	err := c.fetchLocked(ctx)
	if err == nil {
		return c.record(Result{Snapshot: *c.snapshot, Source: SourceFresh, FetchedAt: c.fetchedAt})
	}

	if c.snapshot != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Time("fetched_at", c.fetchedAt).
			Msg("Outdoor fetch failed, serving stale snapshot")
		return c.record(Result{Snapshot: *c.snapshot, Source: SourceStale, FetchedAt: c.fetchedAt})
	}

	if !errors.Is(err, ErrNoFetcher) {
		logging.Ctx(ctx).Warn().Err(err).
			Bool("hardened", c.hardened).
			Msg("Outdoor fetch failed with nothing cached, serving fallback snapshot")
	}
	if c.hardened {
		return c.record(Result{Snapshot: ZeroedSnapshot(c.now()), Source: SourceZeroed})
	}
	return c.record(Result{Snapshot: SyntheticSnapshot(c.now(), c.jitter), Source: SourceSynthetic})
}

// Refresh fetches a new snapshot when the cached one is missing or past its
// TTL and returns the fetch error, if any. It is a no-op in mock mode.
func (c *Cache) Refresh(ctx context.Context) error {
	if c.mock {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.validLocked() {
		return nil
	}
	return c.fetchLocked(ctx)
}

// FetchedAt returns when the cached snapshot was fetched, or the zero time.
func (c *Cache) FetchedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchedAt
}

// TTL returns the configured freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

func (c *Cache) validLocked() bool {
	return c.snapshot != nil && c.now().Sub(c.fetchedAt) < c.ttl
}

// fetchLocked replaces the cached snapshot on success only.
func (c *Cache) fetchLocked(ctx context.Context) error {
	if c.fetcher == nil {
		return ErrNoFetcher
	}

	snapshot, err := c.fetcher.Fetch(ctx)
	if err != nil {
		return err
	}

	stored := *snapshot
	c.snapshot = &stored
	c.fetchedAt = c.now()
	c.logger.Debug().Str("ts", stored.TS).Msg("Outdoor snapshot refreshed")
	return nil
}

func (c *Cache) record(r Result) Result {
	var age time.Duration
	if !r.FetchedAt.IsZero() {
		age = c.now().Sub(r.FetchedAt)
	}
	metrics.RecordOutdoorSnapshot(string(r.Source), age)
	return r
}
