// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

/*
Package outdoor provides the outdoor air-quality snapshot served next to the
indoor readings.

Components:
  - Client: fetches the current snapshot of one IQAir station
  - CircuitBreakerClient: sony/gobreaker wrapper that stops hammering a
    failing station
  - Cache: TTL cache that never fails outward; it serves stale data on error
    and falls back to synthetic (development) or zeroed (hardened) values
    when nothing was ever fetched

Fallback Policy:

	empty  + fetch ok   -> fresh
	empty  + fetch err  -> synthetic | zeroed
	age<TTL             -> cached (no fetch)
	age>=TTL + fetch ok -> fresh
	age>=TTL + fetch err -> stale (previous values)
*/
package outdoor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/airboard/internal/metrics"
	"github.com/tomtom215/airboard/internal/upstream"
)

const (
	defaultTimeout      = 10 * time.Second
	maxResponseBodySize = 1 << 20 // 1MB

	// endpointStation is the metrics label for the station request.
	endpointStation = "/{deviceId}"
)

// ErrMissingCurrent is returned when a 2xx response has no "current" block.
var ErrMissingCurrent = errors.New("outdoor response missing current data")

// Fetcher retrieves the current outdoor snapshot.
//
// Implemented by Client and CircuitBreakerClient.
type Fetcher interface {
	Fetch(ctx context.Context) (*Snapshot, error)
}

// ClientConfig holds the station endpoint settings.
type ClientConfig struct {
	BaseURL  string
	DeviceID string
	Timeout  time.Duration
}

// Client fetches snapshots from one outdoor station.
type Client struct {
	stationURL string
	httpClient *http.Client
}

// NewClient creates a Client. A nil httpClient uses one with the configured timeout.
func NewClient(cfg ClientConfig, httpClient *http.Client) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		stationURL: strings.TrimRight(cfg.BaseURL, "/") + "/" + url.PathEscape(cfg.DeviceID),
		httpClient: httpClient,
	}
}

// Fetch returns the station's current snapshot.
func (c *Client) Fetch(ctx context.Context) (*Snapshot, error) {
	op := http.MethodGet + " " + endpointStation

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.stationURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(metrics.UpstreamIQAir, endpointStation, metrics.OutcomeNetworkError, time.Since(start))
		return nil, &upstream.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body := upstream.ReadBodyForError(resp.Body)
		metrics.RecordUpstreamRequest(metrics.UpstreamIQAir, endpointStation, metrics.OutcomeHTTPError, time.Since(start))
		return nil, &upstream.HTTPError{Status: resp.StatusCode, Body: body, Endpoint: endpointStation}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		metrics.RecordUpstreamRequest(metrics.UpstreamIQAir, endpointStation, metrics.OutcomeNetworkError, time.Since(start))
		return nil, &upstream.NetworkError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	var station stationResponse
	if err := json.Unmarshal(body, &station); err != nil {
		metrics.RecordUpstreamRequest(metrics.UpstreamIQAir, endpointStation, metrics.OutcomeDecodeError, time.Since(start))
		return nil, fmt.Errorf("decode outdoor response: %w", err)
	}
	if station.Current == nil {
		metrics.RecordUpstreamRequest(metrics.UpstreamIQAir, endpointStation, metrics.OutcomeDecodeError, time.Since(start))
		return nil, ErrMissingCurrent
	}

	metrics.RecordUpstreamRequest(metrics.UpstreamIQAir, endpointStation, metrics.OutcomeSuccess, time.Since(start))
	return station.Current, nil
}
