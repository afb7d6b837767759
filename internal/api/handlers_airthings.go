// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

package api

import (
	"net/http"
	"strings"

	"github.com/tomtom215/airboard/internal/airthings"
	"github.com/tomtom215/airboard/internal/logging"
)

// Accounts handles GET /api/accounts.
func (h *Handler) Accounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.client.GetAccounts(r.Context())
	if err != nil {
		respondUpstreamError(w, r, "accounts", err)
		return
	}
	if accounts == nil {
		accounts = []airthings.Account{}
	}
	respondJSON(w, http.StatusOK, accounts)
}

// Devices handles GET /api/devices?accountId=.
func (h *Handler) Devices(w http.ResponseWriter, r *http.Request) {
	req := parseDevicesRequest(r)
	if apiErr := validateRequest(&req); apiErr != nil {
		respondBadRequest(w, "Account ID is required", apiErr.Message)
		return
	}

	devices, err := h.client.GetDevices(r.Context(), req.AccountID)
	if err != nil {
		respondUpstreamError(w, r, "devices", err)
		return
	}
	respondJSON(w, http.StatusOK, devices)
}

// Sensors handles GET /api/sensors?accountId=&sn=&sn=&page=.
// The upstream page is returned unmodified.
func (h *Handler) Sensors(w http.ResponseWriter, r *http.Request) {
	req := parseSensorsRequest(r)
	if apiErr := validateRequest(&req); apiErr != nil {
		respondBadRequest(w, "Account ID and serial numbers are required", apiErr.Message)
		return
	}

	page, err := h.client.GetSensors(r.Context(), req.AccountID, req.SerialNumbers, req.Page)
	if err != nil {
		respondUpstreamError(w, r, "sensors", err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// labelledReading is a sensor reading with its configured room label.
type labelledReading struct {
	airthings.SensorReading
	DeviceName string `json:"deviceName"`
}

type pagination struct {
	CurrentPage int  `json:"currentPage"`
	HasNextPage bool `json:"hasNextPage"`
	TotalPages  int  `json:"totalPages"`
}

type latestSensorsData struct {
	AccountID  string            `json:"accountId,omitempty"`
	Results    []labelledReading `json:"results"`
	HasNext    bool              `json:"hasNext"`
	TotalPages int               `json:"totalPages"`
	Pagination pagination        `json:"pagination"`
}

type latestSensorsDebug struct {
	AccountsFound int `json:"accountsFound"`
	SensorsFound  int `json:"sensorsFound"`
}

type latestSensorsResponse struct {
	Success bool               `json:"success"`
	Data    latestSensorsData  `json:"data"`
	Debug   latestSensorsDebug `json:"debug"`
}

// SensorsLatest handles GET /api/sensors/latest?page=.
//
// It reads every device of the first account and labels each reading with
// the configured room name. No accounts yields an empty first page.
func (h *Handler) SensorsLatest(w http.ResponseWriter, r *http.Request) {
	req := parseLatestSensorsRequest(r)
	if apiErr := validateRequest(&req); apiErr != nil {
		respondBadRequest(w, "Invalid page", apiErr.Message)
		return
	}

	accounts, err := h.client.GetAccounts(r.Context())
	if err != nil {
		respondUpstreamError(w, r, "sensors_latest", err)
		return
	}

	if len(accounts) == 0 {
		respondJSON(w, http.StatusOK, latestSensorsResponse{
			Success: true,
			Data: latestSensorsData{
				Results:    []labelledReading{},
				Pagination: pagination{CurrentPage: 1},
			},
		})
		return
	}

	accountID := accounts[0].ID
	if strings.TrimSpace(accountID) == "" {
		respondUpstreamError(w, r, "sensors_latest", errAccountWithoutID)
		return
	}
	page, err := h.client.GetSensors(r.Context(), accountID, nil, req.Page)
	if err != nil {
		respondUpstreamError(w, r, "sensors_latest", err)
		return
	}

	results := make([]labelledReading, 0, len(page.Results))
	for _, reading := range page.Results {
		results = append(results, labelledReading{
			SensorReading: reading,
			DeviceName:    h.deviceName(reading.SerialNumber),
		})
	}

	logging.Ctx(r.Context()).Debug().
		Int("accounts", len(accounts)).
		Int("readings", len(results)).
		Int("page", req.Page).
		Msg("Served latest sensor readings")

	respondJSON(w, http.StatusOK, latestSensorsResponse{
		Success: true,
		Data: latestSensorsData{
			AccountID:  accountID,
			Results:    results,
			HasNext:    page.HasNext,
			TotalPages: page.TotalPages,
			Pagination: pagination{
				CurrentPage: req.Page,
				HasNextPage: page.HasNext,
				TotalPages:  page.TotalPages,
			},
		},
		Debug: latestSensorsDebug{
			AccountsFound: len(accounts),
			SensorsFound:  len(results),
		},
	})
}

// Test handles GET /api/test: lists accounts to prove authentication works.
func (h *Handler) Test(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.client.Ping(r.Context())
	if err != nil {
		respondUpstreamError(w, r, "test", err)
		return
	}
	if accounts == nil {
		accounts = []airthings.Account{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "API test successful - authentication works",
		"accounts": accounts,
	})
}

// TestDevices handles GET /api/test/devices: lists devices of the first account.
func (h *Handler) TestDevices(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.client.GetAccounts(r.Context())
	if err != nil {
		respondUpstreamError(w, r, "test_devices", err)
		return
	}
	if len(accounts) == 0 {
		respondJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   "Not Found",
			Message: "No Airthings accounts available",
		})
		return
	}

	if strings.TrimSpace(accounts[0].ID) == "" {
		respondUpstreamError(w, r, "test_devices", errAccountWithoutID)
		return
	}

	devices, err := h.client.GetDevices(r.Context(), accounts[0].ID)
	if err != nil {
		respondUpstreamError(w, r, "test_devices", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Devices test successful",
		"accountId": accounts[0].ID,
		"devices":   devices,
	})
}
