// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/airboard/internal/outdoor"
)

type outdoorData struct {
	Current outdoor.Snapshot `json:"current"`
}

type outdoorResponse struct {
	Success   bool           `json:"success"`
	Data      outdoorData    `json:"data"`
	Source    outdoor.Source `json:"source"`
	FetchedAt string         `json:"fetchedAt,omitempty"`
}

// Outdoor handles GET /api/outdoor. The cache never fails, so neither does this.
func (h *Handler) Outdoor(w http.ResponseWriter, r *http.Request) {
	result := h.outdoor.Snapshot(r.Context())

	resp := outdoorResponse{
		Success: true,
		Data:    outdoorData{Current: result.Snapshot},
		Source:  result.Source,
	}
	if !result.FetchedAt.IsZero() {
		resp.FetchedAt = result.FetchedAt.UTC().Format(time.RFC3339)
	}
	respondJSON(w, http.StatusOK, resp)
}
