// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/airboard/internal/logging"
)

// readinessTimeout bounds the token acquisition a cold readiness probe triggers.
const readinessTimeout = 5 * time.Second

type healthMetadata struct {
	Timestamp time.Time `json:"timestamp"`
}

type healthResponse struct {
	Status   string                 `json:"status"`
	Data     map[string]interface{} `json:"data"`
	Metadata healthMetadata         `json:"metadata"`
}

// HealthLive handles liveness probe requests (Kubernetes-style)
// Returns 200 OK if the process is alive, regardless of dependencies
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: healthMetadata{Timestamp: time.Now()},
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style)
// Returns 200 OK once an Airthings token is held or can be acquired, 503 otherwise.
// The outdoor station never gates readiness since its cache always serves.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ready := h.tokens != nil && h.tokens.HasToken()
	var reason string

	if !ready && h.tokens != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		_, err := h.tokens.EnsureToken(ctx)
		cancel()
		if err != nil {
			reason = err.Error()
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Readiness check failed")
		} else {
			ready = true
		}
	} else if h.tokens == nil {
		reason = "token manager not configured"
	}

	data := map[string]interface{}{
		"ready":     ready,
		"airthings": ready,
	}
	status := http.StatusOK
	statusText := "success"
	if !ready {
		status = http.StatusServiceUnavailable
		statusText = "error"
		data["reason"] = reason
	}

	respondJSON(w, status, healthResponse{
		Status:   statusText,
		Data:     data,
		Metadata: healthMetadata{Timestamp: time.Now()},
	})
}
