// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

package airthings

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/airboard/internal/upstream"
)

// testEnv wires a Client to fake token and data servers.
type testEnv struct {
	client    *Client
	tokens    *TokenManager
	tokenSrv  *tokenServer
	dataSrv   *httptest.Server
	dataCalls atomic.Int32
}

func newTestEnv(t *testing.T, handler http.HandlerFunc) *testEnv {
	t.Helper()
	env := &testEnv{}
	env.tokenSrv = newTokenServer(t, nil)
	env.tokens = newTestTokenManager(env.tokenSrv)
	env.dataSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.dataCalls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(env.dataSrv.Close)
	env.client = NewClient(ClientConfig{
		BaseURL: env.dataSrv.URL,
		Timeout: 2 * time.Second,
	}, env.tokens, nil)
	return env
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestClient_GetAccounts_SendsBearerToken(t *testing.T) {
	var gotAuth, gotAccept, gotPath string
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		gotPath = r.URL.Path
		writeJSON(w, http.StatusOK, `{"accounts":[{"id":"acct-1","name":"Home"}]}`)
	})

	accounts, err := env.client.GetAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "acct-1", accounts[0].ID)
	assert.Equal(t, "Home", accounts[0].Name)

	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "/v1/accounts", gotPath)
}

func TestClient_GetAccounts_NormalizesShapes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantIDs []string
	}{
		{"wrapped list", `{"accounts":[{"id":"a1"},{"id":"a2"}]}`, []string{"a1", "a2"}},
		{"bare list", `[{"id":"a1"},{"id":"a2"}]`, []string{"a1", "a2"}},
		{"single object", `{"id":"a1","name":"Home"}`, []string{"a1"}},
		{"empty wrapped list", `{"accounts":[]}`, []string{}},
		{"null accounts wraps object", `{"accounts":null,"id":"x"}`, []string{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tt.body)
			})

			accounts, err := env.client.GetAccounts(context.Background())
			require.NoError(t, err)

			ids := make([]string, 0, len(accounts))
			for _, a := range accounts {
				ids = append(ids, a.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestDecodeAccounts(t *testing.T) {
	t.Run("accounts field wins over top-level id", func(t *testing.T) {
		accounts, err := decodeAccounts([]byte(`{"id":"outer","accounts":[{"id":"inner"}]}`))
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, "inner", accounts[0].ID)
	})

	t.Run("keeps unknown fields", func(t *testing.T) {
		accounts, err := decodeAccounts([]byte(`[{"id":"a1","role":"owner"}]`))
		require.NoError(t, err)
		out, err := json.Marshal(accounts[0])
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"a1","role":"owner"}`, string(out))
	})

	for _, body := range []string{"", "   ", `"text"`, `42`, `{"accounts":"nope"}`, `[1,2]`, `{broken`} {
		t.Run("rejects "+body, func(t *testing.T) {
			_, err := decodeAccounts([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestClient_GetSensors_RepeatsSerialParameter(t *testing.T) {
	const payload = `{"results":[{"serialNumber":"SN1","sensors":[{"sensorType":"radonShortTermAvg","value":12,"unit":"bq"}],"batteryPercentage":88,"extra":true}],"hasNext":false,"totalPages":3}`

	var gotQuery map[string][]string
	var gotPath string
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotPath = r.URL.Path
		writeJSON(w, http.StatusOK, payload)
	})

	page, err := env.client.GetSensors(context.Background(), "acct-1", []string{"SN1", "SN2"}, 2)
	require.NoError(t, err)

	assert.Equal(t, "/v1/accounts/acct-1/sensors", gotPath)
	assert.Equal(t, []string{"SN1", "SN2"}, gotQuery["sn"])
	assert.Equal(t, []string{"2"}, gotQuery["page"])

	require.Len(t, page.Results, 1)
	assert.Equal(t, "SN1", page.Results[0].SerialNumber)
	assert.Equal(t, 3, page.TotalPages)
	require.NotNil(t, page.Results[0].BatteryPercentage)
	assert.Equal(t, 88, *page.Results[0].BatteryPercentage)

	// The upstream body is relayed as-is, including fields the model does not know.
	out, err := json.Marshal(page)
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(out))
}

func TestClient_GetSensors_DefaultsToFirstPage(t *testing.T) {
	var gotQuery map[string][]string
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		writeJSON(w, http.StatusOK, `{"results":[],"hasNext":false,"totalPages":1}`)
	})

	_, err := env.client.GetSensors(context.Background(), "acct-1", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, gotQuery["page"])
	assert.Empty(t, gotQuery["sn"])
}

func TestClient_GetDevices_EscapesAccountID(t *testing.T) {
	var gotRawPath string
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		gotRawPath = r.URL.EscapedPath()
		writeJSON(w, http.StatusOK, `{"devices":[{"serialNumber":"SN1","name":"Living room"}]}`)
	})

	resp, err := env.client.GetDevices(context.Background(), "acct/1")
	require.NoError(t, err)
	require.Len(t, resp.Devices, 1)
	assert.Equal(t, "SN1", resp.Devices[0].SerialNumber)
	assert.Equal(t, "/v1/accounts/acct%2F1/devices", gotRawPath)
}

func TestClient_InvalidArgumentsNeverReachNetwork(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})
	ctx := context.Background()

	calls := []struct {
		name string
		call func() error
	}{
		{"devices without account", func() error { _, err := env.client.GetDevices(ctx, ""); return err }},
		{"sensors without account", func() error { _, err := env.client.GetSensors(ctx, " ", []string{"SN1"}, 1); return err }},
		{"sensors with empty serial list", func() error { _, err := env.client.GetSensors(ctx, "acct-1", []string{}, 1); return err }},
		{"sensors with blank serial", func() error { _, err := env.client.GetSensors(ctx, "acct-1", []string{"SN1", ""}, 1); return err }},
		{"sensors with negative page", func() error { _, err := env.client.GetSensors(ctx, "acct-1", nil, -1); return err }},
	}

	for _, tc := range calls {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			require.Error(t, err)
			assert.True(t, errors.Is(err, upstream.ErrInvalidArgument), "got %v", err)
		})
	}

	assert.Equal(t, int32(0), env.dataCalls.Load())
	assert.Equal(t, int32(0), env.tokenSrv.requests.Load())
}

func TestClient_ReusesTokenAcrossRequests(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"accounts":[]}`)
	})

	for i := 0; i < 5; i++ {
		_, err := env.client.GetAccounts(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, int32(5), env.dataCalls.Load())
	assert.Equal(t, int32(1), env.tokenSrv.requests.Load())
}

func TestClient_RetriesOnceAfterUnauthorized(t *testing.T) {
	var tokensSeen []string
	var mu sync.Mutex
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		mu.Lock()
		tokensSeen = append(tokensSeen, auth)
		mu.Unlock()
		if auth == "Bearer tok-1" {
			writeJSON(w, http.StatusUnauthorized, `{"error":"token expired"}`)
			return
		}
		writeJSON(w, http.StatusOK, `[{"id":"acct-1"}]`)
	})

	accounts, err := env.client.GetAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	assert.Equal(t, []string{"Bearer tok-1", "Bearer tok-2"}, tokensSeen)
	assert.Equal(t, int32(2), env.tokenSrv.requests.Load())
}

func TestClient_SecondUnauthorizedIsAuthError(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"error":"unauthorized"}`)
	})

	_, err := env.client.GetAccounts(context.Background())
	require.Error(t, err)

	var authErr *upstream.AuthError
	require.True(t, errors.As(err, &authErr), "expected *upstream.AuthError, got %T", err)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
	assert.Contains(t, string(authErr.Body), "unauthorized")

	assert.Equal(t, int32(2), env.dataCalls.Load(), "exactly one retry")
	assert.Equal(t, int32(2), env.tokenSrv.requests.Load())
	assert.False(t, env.tokens.HasToken())
}

func TestClient_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer tok-1" {
			writeJSON(w, http.StatusUnauthorized, `{}`)
			return
		}
		writeJSON(w, http.StatusOK, `[]`)
	})

	// Acquire tok-1 up front so every caller starts with the same stale token.
	_, err := env.tokens.EnsureToken(context.Background())
	require.NoError(t, err)

	const callers = 10
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.client.GetAccounts(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(2), env.tokenSrv.requests.Load())
}

func TestClient_UpstreamStatusIsHTTPError(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, `{"message":"maintenance"}`)
	})

	_, err := env.client.GetDevices(context.Background(), "acct-1")

	var httpErr *upstream.HTTPError
	require.True(t, errors.As(err, &httpErr), "expected *upstream.HTTPError, got %T", err)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.Status)
	assert.JSONEq(t, `{"message":"maintenance"}`, string(httpErr.Body))
	assert.Equal(t, endpointDevices, httpErr.Endpoint)

	assert.Equal(t, int32(1), env.dataCalls.Load(), "non-401 statuses are not retried")
	assert.True(t, env.tokens.HasToken(), "non-401 statuses keep the token")
}

func TestClient_TimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(release) })

	env.client.timeout = 50 * time.Millisecond
	_, err := env.client.GetAccounts(context.Background())

	var netErr *upstream.NetworkError
	require.True(t, errors.As(err, &netErr), "expected *upstream.NetworkError, got %T", err)
	assert.True(t, netErr.Timeout())
	assert.True(t, env.tokens.HasToken(), "a timeout must not discard the token")
}

func TestClient_UnreachableUpstreamIsNetworkError(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})
	env.dataSrv.Close()

	_, err := env.client.GetAccounts(context.Background())

	var netErr *upstream.NetworkError
	require.True(t, errors.As(err, &netErr), "expected *upstream.NetworkError, got %T", err)
	assert.True(t, strings.HasPrefix(netErr.Op, "GET "))
}

func TestClient_MalformedBodyIsNotNetworkError(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"results":`)
	})

	_, err := env.client.GetSensors(context.Background(), "acct-1", nil, 1)
	require.Error(t, err)

	var netErr *upstream.NetworkError
	assert.False(t, errors.As(err, &netErr))
}

func TestClient_Ping(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":"acct-1"}`)
	})

	accounts, err := env.client.Ping(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "acct-1", accounts[0].ID)
}
