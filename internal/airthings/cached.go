// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

package airthings

import (
	"context"

	"github.com/tomtom215/airboard/internal/cache"
	"github.com/tomtom215/airboard/internal/metrics"
)

const (
	cacheTypeAccounts = "accounts"
	cacheTypeDevices  = "devices"
)

// CachedClient caches successful account and device listings.
// Sensor readings and Ping always go upstream.
type CachedClient struct {
	next  ClientInterface
	cache *cache.Cache
}

// NewCachedClient wraps next with c. Entries expire after c's TTL.
func NewCachedClient(next ClientInterface, c *cache.Cache) *CachedClient {
	return &CachedClient{next: next, cache: c}
}

// GetAccounts returns the cached account list or fetches it.
func (c *CachedClient) GetAccounts(ctx context.Context) ([]Account, error) {
	key := cache.GenerateKey(cacheTypeAccounts, nil)
	if v, ok := c.cache.Get(key); ok {
		metrics.RecordCacheLookup(cacheTypeAccounts, true)
		return v.([]Account), nil
	}
	metrics.RecordCacheLookup(cacheTypeAccounts, false)

	accounts, err := c.next.GetAccounts(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, accounts)
	return accounts, nil
}

// GetDevices returns the cached device list for accountID or fetches it.
func (c *CachedClient) GetDevices(ctx context.Context, accountID string) (*DevicesResponse, error) {
	key := cache.GenerateKey(cacheTypeDevices, accountID)
	if v, ok := c.cache.Get(key); ok {
		metrics.RecordCacheLookup(cacheTypeDevices, true)
		return v.(*DevicesResponse), nil
	}
	metrics.RecordCacheLookup(cacheTypeDevices, false)

	devices, err := c.next.GetDevices(ctx, accountID)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, devices)
	return devices, nil
}

// GetSensors passes through; readings change on every poll.
func (c *CachedClient) GetSensors(ctx context.Context, accountID string, serialNumbers []string, page int) (*SensorsPage, error) {
	return c.next.GetSensors(ctx, accountID, serialNumbers, page)
}

// Ping passes through so that it always exercises authentication.
func (c *CachedClient) Ping(ctx context.Context) ([]Account, error) {
	return c.next.Ping(ctx)
}
