// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/airboard/internal/airthings"
	"github.com/tomtom215/airboard/internal/config"
	"github.com/tomtom215/airboard/internal/outdoor"
	"github.com/tomtom215/airboard/internal/upstream"
)

// mockClient is a scriptable airthings.ClientInterface.
type mockClient struct {
	accounts    []airthings.Account
	accountsErr error
	devices     *airthings.DevicesResponse
	devicesErr  error
	sensors     *airthings.SensorsPage
	sensorsErr  error

	gotAccountID string
	gotSerials   []string
	gotPage      int
	sensorsCalls int
	devicesCalls int
}

func (m *mockClient) GetAccounts(_ context.Context) ([]airthings.Account, error) {
	return m.accounts, m.accountsErr
}

func (m *mockClient) GetDevices(_ context.Context, accountID string) (*airthings.DevicesResponse, error) {
	m.devicesCalls++
	m.gotAccountID = accountID
	return m.devices, m.devicesErr
}

func (m *mockClient) GetSensors(_ context.Context, accountID string, serials []string, page int) (*airthings.SensorsPage, error) {
	m.sensorsCalls++
	m.gotAccountID = accountID
	m.gotSerials = serials
	m.gotPage = page
	return m.sensors, m.sensorsErr
}

func (m *mockClient) Ping(ctx context.Context) ([]airthings.Account, error) {
	return m.GetAccounts(ctx)
}

type mockTokens struct {
	has bool
	err error
}

func (m *mockTokens) HasToken() bool { return m.has }

func (m *mockTokens) EnsureToken(_ context.Context) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "tok", nil
}

type mockOutdoor struct {
	result outdoor.Result
}

func (m *mockOutdoor) Snapshot(_ context.Context) outdoor.Result { return m.result }

func newTestHandler(client *mockClient) *Handler {
	cfg := &config.Config{
		Airthings: config.AirthingsConfig{
			DeviceNames: map[string]string{"2960010620": "Stue"},
		},
	}
	return NewHandler(client, &mockTokens{has: true}, &mockOutdoor{}, cfg)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body %q: %v", w.Body.String(), err)
	}
	return body
}

// =====================================================
// Airthings Proxy Handlers
// =====================================================

func TestAccounts_Success(t *testing.T) {
	client := &mockClient{accounts: []airthings.Account{{ID: "a", Name: "Home"}}}
	h := newTestHandler(client)

	w := httptest.NewRecorder()
	h.Accounts(w, httptest.NewRequest("GET", "/api/accounts", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `[{"id":"a","name":"Home"}]` {
		t.Errorf("body = %s", got)
	}
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}
}

func TestAccounts_EmptyIsArray(t *testing.T) {
	h := newTestHandler(&mockClient{})

	w := httptest.NewRecorder()
	h.Accounts(w, httptest.NewRequest("GET", "/api/accounts", nil))

	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body = %s, want []", got)
	}
}

func TestDevices_MissingAccountID(t *testing.T) {
	client := &mockClient{}
	h := newTestHandler(client)

	w := httptest.NewRecorder()
	h.Devices(w, httptest.NewRequest("GET", "/api/devices", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	body := decodeBody(t, w)
	if body["error"] != "Account ID is required" {
		t.Errorf("error = %v", body["error"])
	}
	if client.gotAccountID != "" {
		t.Error("upstream should not be called")
	}
}

func TestDevices_PassesUpstreamBody(t *testing.T) {
	raw := `{"devices":[{"serialNumber":"SN1","extra":true}]}`
	client := &mockClient{devices: &airthings.DevicesResponse{Raw: []byte(raw)}}
	h := newTestHandler(client)

	w := httptest.NewRecorder()
	h.Devices(w, httptest.NewRequest("GET", "/api/devices?accountId=acct1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if client.gotAccountID != "acct1" {
		t.Errorf("accountID = %q, want acct1", client.gotAccountID)
	}
	if got := strings.TrimSpace(w.Body.String()); got != raw {
		t.Errorf("body = %s, want %s", got, raw)
	}
}

func TestSensors_Validation(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"missing account", "/api/sensors?sn=SN1"},
		{"missing serials", "/api/sensors?accountId=acct1"},
		{"blank serial", "/api/sensors?accountId=acct1&sn=%20"},
		{"page zero", "/api/sensors?accountId=acct1&sn=SN1&page=0"},
		{"page too large", "/api/sensors?accountId=acct1&sn=SN1&page=10001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockClient{}
			h := newTestHandler(client)

			w := httptest.NewRecorder()
			h.Sensors(w, httptest.NewRequest("GET", tt.query, nil))

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if body := decodeBody(t, w); body["error"] != "Account ID and serial numbers are required" {
				t.Errorf("error = %v", body["error"])
			}
			if client.sensorsCalls != 0 {
				t.Error("upstream should not be called")
			}
		})
	}
}

func TestSensors_ForwardsRepeatedSerials(t *testing.T) {
	raw := `{"results":[],"hasNext":true,"totalPages":5}`
	client := &mockClient{sensors: &airthings.SensorsPage{Raw: []byte(raw)}}
	h := newTestHandler(client)

	w := httptest.NewRecorder()
	h.Sensors(w, httptest.NewRequest("GET", "/api/sensors?accountId=acct1&sn=SN1&sn=SN2&page=2", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if len(client.gotSerials) != 2 || client.gotSerials[0] != "SN1" || client.gotSerials[1] != "SN2" {
		t.Errorf("serials = %v, want [SN1 SN2]", client.gotSerials)
	}
	if client.gotPage != 2 {
		t.Errorf("page = %d, want 2", client.gotPage)
	}
	if got := strings.TrimSpace(w.Body.String()); got != raw {
		t.Errorf("body = %s, want %s", got, raw)
	}
}

func TestSensorsLatest_LabelsReadings(t *testing.T) {
	client := &mockClient{
		accounts: []airthings.Account{{ID: "acct1"}, {ID: "acct2"}},
		sensors: &airthings.SensorsPage{
			Results: []airthings.SensorReading{
				{SerialNumber: "2960010620", Sensors: []airthings.Sensor{{SensorType: "co2", Value: 612, Unit: "ppm"}}},
				{SerialNumber: "999"},
			},
			HasNext:    true,
			TotalPages: 3,
		},
	}
	h := newTestHandler(client)

	w := httptest.NewRecorder()
	h.SensorsLatest(w, httptest.NewRequest("GET", "/api/sensors/latest?page=2", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if client.gotAccountID != "acct1" {
		t.Errorf("accountID = %q, want first account", client.gotAccountID)
	}
	if client.gotSerials != nil {
		t.Errorf("serials = %v, want nil (all devices)", client.gotSerials)
	}

	var resp latestSensorsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Error("success should be true")
	}
	if len(resp.Data.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(resp.Data.Results))
	}
	if resp.Data.Results[0].DeviceName != "Stue" {
		t.Errorf("deviceName = %q, want Stue", resp.Data.Results[0].DeviceName)
	}
	if resp.Data.Results[1].DeviceName != "Sensor 999" {
		t.Errorf("deviceName = %q, want Sensor 999", resp.Data.Results[1].DeviceName)
	}
	want := pagination{CurrentPage: 2, HasNextPage: true, TotalPages: 3}
	if resp.Data.Pagination != want {
		t.Errorf("pagination = %+v, want %+v", resp.Data.Pagination, want)
	}
	if resp.Debug.AccountsFound != 2 || resp.Debug.SensorsFound != 2 {
		t.Errorf("debug = %+v", resp.Debug)
	}
}

func TestSensorsLatest_NoAccounts(t *testing.T) {
	client := &mockClient{}
	h := newTestHandler(client)

	w := httptest.NewRecorder()
	h.SensorsLatest(w, httptest.NewRequest("GET", "/api/sensors/latest", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if client.sensorsCalls != 0 {
		t.Error("sensors should not be fetched without an account")
	}
	var resp latestSensorsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Results == nil || len(resp.Data.Results) != 0 {
		t.Errorf("results = %v, want empty array", resp.Data.Results)
	}
	if resp.Data.Pagination.CurrentPage != 1 || resp.Data.TotalPages != 0 {
		t.Errorf("pagination = %+v", resp.Data.Pagination)
	}
}

func TestTest_Success(t *testing.T) {
	h := newTestHandler(&mockClient{accounts: []airthings.Account{{ID: "a"}}})

	w := httptest.NewRecorder()
	h.Test(w, httptest.NewRequest("GET", "/api/test", nil))

	body := decodeBody(t, w)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	if body["message"] != "API test successful - authentication works" {
		t.Errorf("message = %v", body["message"])
	}
}

func TestTestDevices_UsesFirstAccount(t *testing.T) {
	client := &mockClient{
		accounts: []airthings.Account{{ID: "acct1"}},
		devices:  &airthings.DevicesResponse{Devices: []airthings.Device{{SerialNumber: "SN1"}}},
	}
	h := newTestHandler(client)

	w := httptest.NewRecorder()
	h.TestDevices(w, httptest.NewRequest("GET", "/api/test/devices", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if client.gotAccountID != "acct1" {
		t.Errorf("accountID = %q", client.gotAccountID)
	}
	if body := decodeBody(t, w); body["accountId"] != "acct1" {
		t.Errorf("accountId = %v", body["accountId"])
	}
}

func TestTestDevices_NoAccounts(t *testing.T) {
	h := newTestHandler(&mockClient{})

	w := httptest.NewRecorder()
	h.TestDevices(w, httptest.NewRequest("GET", "/api/test/devices", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestFirstAccountWithoutID_BadGateway(t *testing.T) {
	tests := []struct {
		name  string
		serve func(h *Handler, w http.ResponseWriter, r *http.Request)
		path  string
	}{
		{"sensors latest", (*Handler).SensorsLatest, "/api/sensors/latest"},
		{"test devices", (*Handler).TestDevices, "/api/test/devices"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockClient{accounts: []airthings.Account{{Name: "Home"}}}
			h := newTestHandler(client)

			w := httptest.NewRecorder()
			tt.serve(h, w, httptest.NewRequest("GET", tt.path, nil))

			if w.Code != http.StatusBadGateway {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadGateway)
			}
			if body := decodeBody(t, w); body["error"] != "API Error" {
				t.Errorf("error = %v, want API Error", body["error"])
			}
			if client.sensorsCalls != 0 || client.devicesCalls != 0 {
				t.Error("upstream should not be queried with an empty account id")
			}
		})
	}
}

// =====================================================
// Error Mapping
// =====================================================

func TestUpstreamErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "upstream http error keeps status",
			err:        &upstream.HTTPError{Status: http.StatusNotFound, Body: []byte(`{"message":"no such account"}`), Endpoint: "/v1/accounts/x/devices"},
			wantStatus: http.StatusNotFound,
			wantError:  "API Error",
		},
		{
			name:       "auth error with status",
			err:        &upstream.AuthError{Status: http.StatusUnauthorized, Reason: "unauthorized after retry"},
			wantStatus: http.StatusUnauthorized,
			wantError:  "Authentication Error",
		},
		{
			name:       "auth error without status",
			err:        &upstream.AuthError{Reason: "no access token received"},
			wantStatus: http.StatusBadGateway,
			wantError:  "Authentication Error",
		},
		{
			name:       "network error",
			err:        &upstream.NetworkError{Op: "GET /v1/accounts", Err: context.DeadlineExceeded},
			wantStatus: http.StatusBadGateway,
			wantError:  "Request Error",
		},
		{
			name:       "invalid argument",
			err:        upstream.InvalidArgument("accountID must not be empty"),
			wantStatus: http.StatusBadRequest,
			wantError:  "Bad Request",
		},
		{
			name:       "generic",
			err:        errors.New("decode accounts response: unexpected EOF"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&mockClient{accountsErr: tt.err})

			w := httptest.NewRecorder()
			h.Accounts(w, httptest.NewRequest("GET", "/api/accounts", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			body := decodeBody(t, w)
			if body["error"] != tt.wantError {
				t.Errorf("error = %v, want %s", body["error"], tt.wantError)
			}
			if body["message"] == "" || body["message"] == nil {
				t.Error("message should be set")
			}
		})
	}
}

func TestUpstreamErrorMapping_Details(t *testing.T) {
	status, body := errorResponseFor(&upstream.HTTPError{Status: 503, Body: []byte(`{"error":"maintenance"}`)})
	if status != 503 || body.Status != 503 {
		t.Errorf("status = %d/%d, want 503", status, body.Status)
	}
	raw, ok := body.Details.(json.RawMessage)
	if !ok || string(raw) != `{"error":"maintenance"}` {
		t.Errorf("details = %#v, want raw JSON", body.Details)
	}

	_, body = errorResponseFor(&upstream.HTTPError{Status: 502, Body: []byte("Bad Gateway")})
	if body.Details != "Bad Gateway" {
		t.Errorf("details = %#v, want plain string", body.Details)
	}

	_, body = errorResponseFor(&upstream.NetworkError{Op: "GET /v1/accounts", Err: errors.New("connection refused")})
	if body.Message != noResponseMessage {
		t.Errorf("message = %q", body.Message)
	}

	_, body = errorResponseFor(errors.New("boom"))
	if _, err := time.Parse(time.RFC3339Nano, body.Timestamp); err != nil {
		t.Errorf("timestamp %q: %v", body.Timestamp, err)
	}
}

// =====================================================
// Outdoor and Health
// =====================================================

func TestOutdoor_WrapsSnapshot(t *testing.T) {
	fetched := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	src := &mockOutdoor{result: outdoor.Result{
		Snapshot:  outdoor.Snapshot{TP: 18.5, PM25: outdoor.Measurement{Conc: 14}},
		Source:    outdoor.SourceCached,
		FetchedAt: fetched,
	}}
	h := NewHandler(&mockClient{}, &mockTokens{}, src, nil)

	w := httptest.NewRecorder()
	h.Outdoor(w, httptest.NewRequest("GET", "/api/outdoor", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp outdoorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Source != outdoor.SourceCached {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Data.Current.TP != 18.5 || resp.Data.Current.PM25.Conc != 14 {
		t.Errorf("current = %+v", resp.Data.Current)
	}
	if resp.FetchedAt != "2026-01-02T03:04:05Z" {
		t.Errorf("fetchedAt = %q", resp.FetchedAt)
	}
}

func TestOutdoor_GeneratedOmitsFetchedAt(t *testing.T) {
	src := &mockOutdoor{result: outdoor.Result{Source: outdoor.SourceZeroed}}
	h := NewHandler(&mockClient{}, &mockTokens{}, src, nil)

	w := httptest.NewRecorder()
	h.Outdoor(w, httptest.NewRequest("GET", "/api/outdoor", nil))

	body := decodeBody(t, w)
	if _, ok := body["fetchedAt"]; ok {
		t.Error("fetchedAt should be omitted for generated snapshots")
	}
	if body["source"] != "zeroed" {
		t.Errorf("source = %v", body["source"])
	}
}

func TestHealthLive(t *testing.T) {
	h := newTestHandler(&mockClient{})

	w := httptest.NewRecorder()
	h.HealthLive(w, httptest.NewRequest("GET", "/health/live", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name       string
		tokens     TokenStatus
		wantStatus int
	}{
		{"token held", &mockTokens{has: true}, http.StatusOK},
		{"token acquirable", &mockTokens{}, http.StatusOK},
		{"token endpoint failing", &mockTokens{err: &upstream.AuthError{Status: 401, Reason: "token request rejected"}}, http.StatusServiceUnavailable},
		{"no token manager", nil, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&mockClient{}, tt.tokens, &mockOutdoor{}, nil)

			w := httptest.NewRecorder()
			h.HealthReady(w, httptest.NewRequest("GET", "/health/ready", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
