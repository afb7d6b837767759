// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

package outdoor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher returns snapshots with TP set to the call number.
type fakeFetcher struct {
	calls atomic.Int32
	fail  atomic.Bool
	delay time.Duration
}

var errStationDown = errors.New("station down")

func (f *fakeFetcher) Fetch(ctx context.Context) (*Snapshot, error) {
	n := f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail.Load() {
		return nil, errStationDown
	}
	return &Snapshot{TP: float64(n), MainUS: "pm25", MainCN: "pm25"}, nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache(f Fetcher, clock *testClock, cfg CacheConfig) *Cache {
	return NewCache(f, cfg, WithClock(clock.Now))
}

func TestCache_ServesCachedWithinTTL(t *testing.T) {
	f := &fakeFetcher{}
	clock := newTestClock()
	c := newTestCache(f, clock, CacheConfig{TTL: 5 * time.Minute})
	ctx := context.Background()

	first := c.Snapshot(ctx)
	assert.Equal(t, SourceFresh, first.Source)
	assert.Equal(t, clock.Now(), first.FetchedAt)

	clock.Advance(4*time.Minute + 59*time.Second)
	second := c.Snapshot(ctx)
	assert.Equal(t, SourceCached, second.Source)
	assert.Equal(t, first.Snapshot, second.Snapshot)

	assert.Equal(t, int32(1), f.calls.Load())
}

func TestCache_RefetchesAtTTL(t *testing.T) {
	f := &fakeFetcher{}
	clock := newTestClock()
	c := newTestCache(f, clock, CacheConfig{TTL: 5 * time.Minute})
	ctx := context.Background()

	c.Snapshot(ctx)
	clock.Advance(5 * time.Minute)
	r := c.Snapshot(ctx)

	assert.Equal(t, SourceFresh, r.Source)
	assert.InDelta(t, 2, r.Snapshot.TP, 1e-9)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestCache_ServesStaleWhenRefetchFails(t *testing.T) {
	f := &fakeFetcher{}
	clock := newTestClock()
	c := newTestCache(f, clock, CacheConfig{TTL: 5 * time.Minute})
	ctx := context.Background()

	fresh := c.Snapshot(ctx)
	fetchedAt := fresh.FetchedAt

	f.fail.Store(true)
	clock.Advance(6 * time.Minute)
	stale := c.Snapshot(ctx)

	assert.Equal(t, SourceStale, stale.Source)
	assert.Equal(t, fresh.Snapshot, stale.Snapshot)
	assert.Equal(t, fetchedAt, stale.FetchedAt)
	assert.Equal(t, fetchedAt, c.FetchedAt(), "a failed fetch must not touch the cache")

	// Still expired, so every read retries upstream.
	c.Snapshot(ctx)
	assert.Equal(t, int32(3), f.calls.Load())

	// Recovery replaces the stale entry.
	f.fail.Store(false)
	recovered := c.Snapshot(ctx)
	assert.Equal(t, SourceFresh, recovered.Source)
	assert.InDelta(t, 4, recovered.Snapshot.TP, 1e-9)
}

func TestCache_ColdFailureFallsBackToSynthetic(t *testing.T) {
	f := &fakeFetcher{}
	f.fail.Store(true)
	clock := newTestClock()
	c := NewCache(f, CacheConfig{Jitter: true}, WithClock(clock.Now))

	r := c.Snapshot(context.Background())

	assert.Equal(t, SourceSynthetic, r.Source)
	assert.True(t, r.FetchedAt.IsZero())
	assert.InDelta(t, 14, r.Snapshot.PM25.Conc, 1)
	assert.InDelta(t, 18.5, r.Snapshot.TP, 1)
	assert.Equal(t, "2026-10-14T12:00:00.000Z", r.Snapshot.TS)
	assert.True(t, c.FetchedAt().IsZero(), "fallback is never cached")
}

func TestCache_ColdFailureHardenedIsZeroed(t *testing.T) {
	f := &fakeFetcher{}
	f.fail.Store(true)
	clock := newTestClock()
	c := newTestCache(f, clock, CacheConfig{Hardened: true, Jitter: true})

	r := c.Snapshot(context.Background())

	assert.Equal(t, SourceZeroed, r.Source)
	assert.Equal(t, ZeroedSnapshot(clock.Now()), r.Snapshot)
}

func TestCache_HardenedStillServesStale(t *testing.T) {
	f := &fakeFetcher{}
	clock := newTestClock()
	c := newTestCache(f, clock, CacheConfig{Hardened: true})

	fresh := c.Snapshot(context.Background())
	f.fail.Store(true)
	clock.Advance(10 * time.Minute)

	r := c.Snapshot(context.Background())
	assert.Equal(t, SourceStale, r.Source)
	assert.Equal(t, fresh.Snapshot, r.Snapshot)
}

func TestCache_ConcurrentReadersShareOneFetch(t *testing.T) {
	f := &fakeFetcher{delay: 50 * time.Millisecond}
	c := newTestCache(f, newTestClock(), CacheConfig{})

	const readers = 20
	var wg sync.WaitGroup
	results := make([]Result, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Snapshot(context.Background())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), f.calls.Load())
	fresh := 0
	for _, r := range results {
		assert.InDelta(t, 1, r.Snapshot.TP, 1e-9)
		if r.Source == SourceFresh {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh)
}

func TestCache_MockModeNeverFetches(t *testing.T) {
	f := &fakeFetcher{}
	c := NewCache(f, CacheConfig{Mock: true, Jitter: true}, WithJitter(func() float64 { return 0.5 }))

	r := c.Snapshot(context.Background())
	require.NoError(t, c.Refresh(context.Background()))

	assert.Equal(t, SourceMock, r.Source)
	assert.InDelta(t, 14.5, r.Snapshot.PM25.Conc, 1e-9)
	assert.InDelta(t, 19, r.Snapshot.TP, 1e-9)
	assert.InDelta(t, 65.5, r.Snapshot.HM, 1e-9)
	assert.Equal(t, int32(0), f.calls.Load())
}

func TestCache_JitterDisabled(t *testing.T) {
	c := NewCache(nil, CacheConfig{Jitter: false}, WithJitter(func() float64 { return 0.9 }))

	r := c.Snapshot(context.Background())
	assert.Equal(t, SourceSynthetic, r.Source)
	assert.InDelta(t, 14, r.Snapshot.PM25.Conc, 1e-9)
	assert.InDelta(t, 18.5, r.Snapshot.TP, 1e-9)
}

func TestCache_Refresh(t *testing.T) {
	f := &fakeFetcher{}
	clock := newTestClock()
	c := newTestCache(f, clock, CacheConfig{TTL: time.Minute})
	ctx := context.Background()

	require.NoError(t, c.Refresh(ctx))
	require.NoError(t, c.Refresh(ctx))
	assert.Equal(t, int32(1), f.calls.Load(), "refresh within TTL is a no-op")

	clock.Advance(time.Minute)
	f.fail.Store(true)
	assert.ErrorIs(t, c.Refresh(ctx), errStationDown)

	r := c.Snapshot(ctx)
	assert.Equal(t, SourceStale, r.Source)
}

func TestCache_RefreshWithoutFetcher(t *testing.T) {
	c := NewCache(nil, CacheConfig{})
	assert.ErrorIs(t, c.Refresh(context.Background()), ErrNoFetcher)
	assert.Equal(t, DefaultTTL, c.TTL())
}
