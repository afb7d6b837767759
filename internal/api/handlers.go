// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

package api

import (
	"context"
	"time"

	"github.com/tomtom215/airboard/internal/airthings"
	"github.com/tomtom215/airboard/internal/config"
	"github.com/tomtom215/airboard/internal/outdoor"
)

// TokenStatus reports whether the upstream credential works. Implemented by
// *airthings.TokenManager.
type TokenStatus interface {
	HasToken() bool
	EnsureToken(ctx context.Context) (string, error)
}

// OutdoorSource serves the outdoor snapshot. Implemented by *outdoor.Cache.
type OutdoorSource interface {
	Snapshot(ctx context.Context) outdoor.Result
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers_airthings.go: indoor proxy and smoke-test endpoints
//   - handlers_outdoor.go: outdoor snapshot endpoint
//   - handlers_health.go: liveness and readiness probes
type Handler struct {
	client    airthings.ClientInterface
	tokens    TokenStatus
	outdoor   OutdoorSource
	config    *config.Config
	startTime time.Time
}

// NewHandler creates a new API handler.
//
// Example:
//
//	handler := api.NewHandler(cachedClient, tokenManager, outdoorCache, cfg)
//	router := api.NewRouter(handler, api.ChiMiddlewareConfigFromSecurity(cfg.Security))
//	http.ListenAndServe(":3000", router.SetupChi())
func NewHandler(client airthings.ClientInterface, tokens TokenStatus, outdoorSrc OutdoorSource, cfg *config.Config) *Handler {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &Handler{
		client:    client,
		tokens:    tokens,
		outdoor:   outdoorSrc,
		config:    cfg,
		startTime: time.Now(),
	}
}

// deviceName returns the room label for a serial number.
func (h *Handler) deviceName(serial string) string {
	return h.config.Airthings.DeviceName(serial)
}
