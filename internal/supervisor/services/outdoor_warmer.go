// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/airboard/internal/logging"
)

// OutdoorRefresher refreshes the outdoor cache when its entry is missing or
// expired. Implemented by *outdoor.Cache.
type OutdoorRefresher interface {
	Refresh(ctx context.Context) error
}

// OutdoorWarmerService keeps the outdoor cache warm so browser polls are
// served from memory. A refresh runs immediately and then every interval.
// Failures are logged and retried on the next tick; the cache keeps serving
// stale or fallback data in the meantime.
type OutdoorWarmerService struct {
	cache    OutdoorRefresher
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
	name     string
}

// NewOutdoorWarmerService creates an outdoor cache warmer.
// Each refresh is bounded by the interval so ticks never pile up.
func NewOutdoorWarmerService(cache OutdoorRefresher, interval time.Duration) *OutdoorWarmerService {
	return &OutdoorWarmerService{
		cache:    cache,
		interval: interval,
		timeout:  interval,
		logger:   logging.WithComponent("outdoor-warmer"),
		name:     "outdoor-warmer",
	}
}

// Serve implements suture.Service. A non-positive interval disables the
// warmer and tells suture not to restart it.
func (s *OutdoorWarmerService) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		s.logger.Info().Msg("outdoor warmer disabled")
		return suture.ErrDoNotRestart
	}

	s.logger.Info().Dur("interval", s.interval).Msg("outdoor warmer starting")
	s.refresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("outdoor warmer shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *OutdoorWarmerService) refresh(ctx context.Context) {
	refreshCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.cache.Refresh(refreshCtx)
	switch {
	case err == nil:
		s.logger.Debug().Msg("outdoor cache refreshed")
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		// shutting down
	default:
		s.logger.Warn().Err(err).Msg("outdoor refresh failed")
	}
}

// String returns the service name for logging.
func (s *OutdoorWarmerService) String() string {
	return s.name
}
