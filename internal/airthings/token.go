// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

package airthings

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/airboard/internal/logging"
	"github.com/tomtom215/airboard/internal/metrics"
	"github.com/tomtom215/airboard/internal/upstream"
)

// TokenProvider supplies bearer tokens to the Client.
type TokenProvider interface {
	// EnsureToken returns the cached token, acquiring one if necessary.
	EnsureToken(ctx context.Context) (string, error)
	// Invalidate drops token if it is still the cached one and reports whether it did.
	Invalidate(token string) bool
}

// TokenConfig holds the OAuth2 client-credentials settings.
type TokenConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
	Timeout      time.Duration
}

const tokenFlightKey = "token"

// TokenManager acquires and caches an OAuth2 client-credentials bearer token.
//
// The token is treated as valid until a data request is rejected with 401;
// there is no expiry timer. Concurrent callers that find the cache empty share
// a single request to the token endpoint.
type TokenManager struct {
	creds      clientcredentials.Config
	httpClient *http.Client
	timeout    time.Duration
	logger     zerolog.Logger

	group singleflight.Group

	mu         sync.RWMutex
	token      string
	acquiredAt time.Time
}

// NewTokenManager creates a TokenManager. A nil httpClient uses a client with
// the configured timeout.
func NewTokenManager(cfg TokenConfig, httpClient *http.Client) *TokenManager {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	// oauth2 does not set Accept on token requests; the vendor expects it.
	tokenClient := *httpClient
	tokenClient.Transport = &acceptJSONTransport{base: httpClient.Transport}

	return &TokenManager{
		creds: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       strings.Fields(cfg.Scope),
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		httpClient: &tokenClient,
		timeout:    timeout,
		logger:     logging.WithComponent("token-manager"),
	}
}

// EnsureToken returns the cached token or acquires a new one.
//
// The acquisition itself is detached from ctx cancellation so that one caller
// giving up does not fail the others waiting on the same flight; ctx still
// bounds how long this caller waits.
func (m *TokenManager) EnsureToken(ctx context.Context) (string, error) {
	if token := m.cached(); token != "" {
		return token, nil
	}

	ch := m.group.DoChan(tokenFlightKey, func() (interface{}, error) {
		return m.acquire(ctx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", &upstream.NetworkError{Op: "POST " + m.creds.TokenURL, Err: ctx.Err()}
	}
}

// Invalidate clears the cached token only if it is still the one the caller
// saw rejected. A caller holding an older token therefore cannot discard a
// token another goroutine has just acquired.
func (m *TokenManager) Invalidate(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token == "" || m.token != token {
		return false
	}
	m.token = ""
	m.acquiredAt = time.Time{}
	logging.TokenEvent(m.logger, "invalidated", token, true)
	return true
}

// HasToken reports whether a token is cached.
func (m *TokenManager) HasToken() bool {
	return m.cached() != ""
}

// AcquiredAt returns when the cached token was obtained, or the zero time.
func (m *TokenManager) AcquiredAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.acquiredAt
}

func (m *TokenManager) cached() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// acquire runs inside the singleflight group.
func (m *TokenManager) acquire(ctx context.Context) (string, error) {
	// A flight that finished just before this one started may have filled the cache.
	if token := m.cached(); token != "" {
		return token, nil
	}

	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
	defer cancel()
	fetchCtx = context.WithValue(fetchCtx, oauth2.HTTPClient, m.httpClient)

	start := time.Now()
	tok, err := m.creds.Token(fetchCtx)
	if err != nil {
		metrics.RecordTokenAcquisition(false)
		classified := m.classify(err)
		m.logger.Warn().
			Err(classified).
			Dur("duration", time.Since(start)).
			Msg("Token acquisition failed")
		return "", classified
	}

	m.mu.Lock()
	m.token = tok.AccessToken
	m.acquiredAt = time.Now()
	m.mu.Unlock()

	metrics.RecordTokenAcquisition(true)
	logging.TokenEvent(m.logger, "acquired", tok.AccessToken, true)
	return tok.AccessToken, nil
}

// classify maps an oauth2 error onto the upstream taxonomy.
func (m *TokenManager) classify(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		return &upstream.AuthError{
			Status: status,
			Body:   retrieveErr.Body,
			Reason: "token endpoint rejected the request",
			Err:    err,
		}
	}

	if upstream.IsTransport(err) {
		return &upstream.NetworkError{Op: "POST " + m.creds.TokenURL, Err: err}
	}

	// Includes a 2xx response without access_token.
	return &upstream.AuthError{Reason: "no access token received", Err: err}
}

// acceptJSONTransport adds Accept: application/json to requests that lack it.
type acceptJSONTransport struct {
	base http.RoundTripper
}

func (t *acceptJSONTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	if req.Header.Get("Accept") != "" {
		return base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	req.Header.Set("Accept", "application/json")
	return base.RoundTrip(req)
}
