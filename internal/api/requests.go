// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

package api

import "net/http"

// DevicesRequest represents the validated query parameters for /api/devices.
type DevicesRequest struct {
	AccountID string `query:"accountId" validate:"required,notblank,max=128"`
}

// SensorsRequest represents the validated query parameters for /api/sensors.
//
// Fields:
//   - AccountID: Airthings account ID
//   - SerialNumbers: one or more device serials, sent as repeated sn parameters
//   - Page: 1-based page (default 1)
type SensorsRequest struct {
	AccountID     string   `query:"accountId" validate:"required,notblank,max=128"`
	SerialNumbers []string `query:"sn" validate:"required,min=1,max=50,dive,notblank,max=64"`
	Page          int      `query:"page" validate:"gte=1,lte=10000"`
}

// LatestSensorsRequest represents the validated query parameters for /api/sensors/latest.
type LatestSensorsRequest struct {
	Page int `query:"page" validate:"gte=1,lte=10000"`
}

func parseDevicesRequest(r *http.Request) DevicesRequest {
	return DevicesRequest{AccountID: r.URL.Query().Get("accountId")}
}

func parseSensorsRequest(r *http.Request) SensorsRequest {
	q := r.URL.Query()
	return SensorsRequest{
		AccountID:     q.Get("accountId"),
		SerialNumbers: q["sn"],
		Page:          getIntParam(r, "page", 1),
	}
}

func parseLatestSensorsRequest(r *http.Request) LatestSensorsRequest {
	return LatestSensorsRequest{Page: getIntParam(r, "page", 1)}
}
