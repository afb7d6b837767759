// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

/*
Package airthings is the authenticated client for the Airthings consumer API.

Components:
  - TokenManager: OAuth2 client-credentials token, cached until rejected,
    acquired through a single in-flight request
  - Client: accounts, devices and sensors endpoints; every request carries a
    per-request bearer header and is retried exactly once after a 401
  - CachedClient: short-lived response cache for the slow-changing accounts
    and device lists

Request Flow:

	EnsureToken -> GET -> 401? -> Invalidate -> EnsureToken -> GET -> 401? -> AuthError

Failures are reported with the types in internal/upstream.
*/
package airthings

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/airboard/internal/logging"
	"github.com/tomtom215/airboard/internal/metrics"
	"github.com/tomtom215/airboard/internal/upstream"
)

const (
	defaultTimeout = 10 * time.Second

	// maxResponseBodySize bounds successful response bodies.
	maxResponseBodySize = 8 << 20 // 8MB

	endpointAccounts = "/v1/accounts"
	endpointDevices  = "/v1/accounts/{id}/devices"
	endpointSensors  = "/v1/accounts/{id}/sensors"
)

// ClientInterface defines the Airthings operations used by the proxy API.
//
// Implemented by Client and CachedClient.
type ClientInterface interface {
	GetAccounts(ctx context.Context) ([]Account, error)
	GetDevices(ctx context.Context, accountID string) (*DevicesResponse, error)
	GetSensors(ctx context.Context, accountID string, serialNumbers []string, page int) (*SensorsPage, error)
	// Ping checks that authentication works end to end. Never cached.
	Ping(ctx context.Context) ([]Account, error)
}

// ClientConfig holds the REST endpoint settings.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	// RateLimit is the outbound request rate per second; 0 disables limiting.
	RateLimit float64
	RateBurst int
}

// Client talks to the Airthings REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
	limiter    *rate.Limiter
	timeout    time.Duration
}

// NewClient creates a Client. A nil httpClient uses one with the configured timeout.
func NewClient(cfg ClientConfig, tokens TokenProvider, httpClient *http.Client) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
		limiter:    limiter,
		timeout:    timeout,
	}
}

// requestConfig holds configuration for building HTTP requests
type requestConfig struct {
	endpoint string // route template used for metrics and errors
	path     string
	query    url.Values
}

// GetAccounts lists the accounts visible to the client credentials.
func (c *Client) GetAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	err := c.doRequest(ctx, requestConfig{
		endpoint: endpointAccounts,
		path:     endpointAccounts,
	}, func(body []byte) error {
		var err error
		accounts, err = decodeAccounts(body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetDevices lists the devices registered to accountID.
func (c *Client) GetDevices(ctx context.Context, accountID string) (*DevicesResponse, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, upstream.InvalidArgument("accountID must not be empty")
	}

	var resp DevicesResponse
	err := c.doRequest(ctx, requestConfig{
		endpoint: endpointDevices,
		path:     "/v1/accounts/" + url.PathEscape(accountID) + "/devices",
	}, func(body []byte) error {
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("decode devices response: %w", err)
		}
		resp.Raw = body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSensors returns one page of latest readings for accountID.
//
// serialNumbers filters the devices; nil means all devices, an empty non-nil
// slice is rejected. Each serial is sent as its own sn query parameter
// (?sn=A&sn=B). A page of 0 means page 1.
func (c *Client) GetSensors(ctx context.Context, accountID string, serialNumbers []string, page int) (*SensorsPage, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, upstream.InvalidArgument("accountID must not be empty")
	}
	if serialNumbers != nil && len(serialNumbers) == 0 {
		return nil, upstream.InvalidArgument("serialNumbers must not be empty when given")
	}
	for _, sn := range serialNumbers {
		if strings.TrimSpace(sn) == "" {
			return nil, upstream.InvalidArgument("serial numbers must not be blank")
		}
	}
	if page < 0 {
		return nil, upstream.InvalidArgument("page must be >= 1, got %d", page)
	}
	if page == 0 {
		page = 1
	}

	query := url.Values{}
	for _, sn := range serialNumbers {
		query.Add("sn", sn)
	}
	query.Set("page", strconv.Itoa(page))

	var result SensorsPage
	err := c.doRequest(ctx, requestConfig{
		endpoint: endpointSensors,
		path:     "/v1/accounts/" + url.PathEscape(accountID) + "/sensors",
		query:    query,
	}, func(body []byte) error {
		if err := json.Unmarshal(body, &result); err != nil {
			return fmt.Errorf("decode sensors response: %w", err)
		}
		result.Raw = body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Ping acquires a token (if needed) and lists accounts.
func (c *Client) Ping(ctx context.Context) ([]Account, error) {
	accounts, err := c.GetAccounts(ctx)
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Debug().Int("accounts", len(accounts)).Msg("Airthings ping succeeded")
	return accounts, nil
}

// doRequest executes cfg with a bearer token and hands a 2xx body to decode.
//
// A 401 invalidates the token and the request is sent once more with a fresh
// one. A second 401 is an AuthError; there is never a third attempt.
func (c *Client) doRequest(ctx context.Context, cfg requestConfig, decode func([]byte) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	for attempt := 1; ; attempt++ {
		token, err := c.tokens.EnsureToken(ctx)
		if err != nil {
			return err
		}

		status, body, err := c.send(ctx, cfg, token, decode)
		if err != nil {
			return err
		}
		if status != http.StatusUnauthorized {
			return nil
		}

		c.tokens.Invalidate(token)
		if attempt >= 2 {
			return &upstream.AuthError{
				Status: status,
				Body:   body,
				Reason: "bearer token rejected after refresh",
			}
		}

		metrics.RecordAuthRetry(cfg.endpoint)
		logging.Ctx(ctx).Info().
			Str("endpoint", cfg.endpoint).
			Msg("Upstream rejected bearer token, refreshing and retrying once")
	}
}

// send performs one attempt. It returns the status and error body for a 401
// so the caller can decide whether to retry; other non-2xx statuses become
// *upstream.HTTPError.
func (c *Client) send(ctx context.Context, cfg requestConfig, token string, decode func([]byte) error) (int, []byte, error) {
	op := http.MethodGet + " " + cfg.endpoint

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			metrics.RecordUpstreamRequest(metrics.UpstreamAirthings, cfg.endpoint, metrics.OutcomeNetworkError, 0)
			return 0, nil, &upstream.NetworkError{Op: op, Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+cfg.path, http.NoBody)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if len(cfg.query) > 0 {
		req.URL.RawQuery = cfg.query.Encode()
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(metrics.UpstreamAirthings, cfg.endpoint, metrics.OutcomeNetworkError, time.Since(start))
		return 0, nil, &upstream.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	logger := logging.Ctx(ctx).With().Str("component", "airthings").Logger()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		body := upstream.ReadBodyForError(resp.Body)
		metrics.RecordUpstreamRequest(metrics.UpstreamAirthings, cfg.endpoint, metrics.OutcomeAuthError, time.Since(start))
		return resp.StatusCode, body, nil

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body := upstream.ReadBodyForError(resp.Body)
		metrics.RecordUpstreamRequest(metrics.UpstreamAirthings, cfg.endpoint, metrics.OutcomeHTTPError, time.Since(start))
		logger.Warn().
			Str("endpoint", cfg.endpoint).
			Int("status", resp.StatusCode).
			Str("body", logging.SanitizeBody(string(body))).
			Msg("Upstream request failed")
		return resp.StatusCode, nil, &upstream.HTTPError{Status: resp.StatusCode, Body: body, Endpoint: cfg.endpoint}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		metrics.RecordUpstreamRequest(metrics.UpstreamAirthings, cfg.endpoint, metrics.OutcomeNetworkError, time.Since(start))
		return 0, nil, &upstream.NetworkError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	if err := decode(body); err != nil {
		metrics.RecordUpstreamRequest(metrics.UpstreamAirthings, cfg.endpoint, metrics.OutcomeDecodeError, time.Since(start))
		return 0, nil, err
	}

	metrics.RecordUpstreamRequest(metrics.UpstreamAirthings, cfg.endpoint, metrics.OutcomeSuccess, time.Since(start))
	logger.Debug().
		Str("endpoint", cfg.endpoint).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Upstream request completed")
	return resp.StatusCode, nil, nil
}
