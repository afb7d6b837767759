// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/airboard/internal/logging"
)

// TokenAcquirer acquires the upstream bearer token. Implemented by
// *airthings.TokenManager.
type TokenAcquirer interface {
	EnsureToken(ctx context.Context) (string, error)
}

// TokenWarmerService acquires the Airthings token once at startup so the first
// browser request does not pay for the token round trip. On failure it
// returns the error and suture retries it with backoff; once a token is held
// it exits for good. Requests acquire tokens lazily regardless.
type TokenWarmerService struct {
	tokens  TokenAcquirer
	timeout time.Duration
	logger  zerolog.Logger
	name    string
}

// NewTokenWarmerService creates a token warmer. timeout bounds each attempt.
func NewTokenWarmerService(tokens TokenAcquirer, timeout time.Duration) *TokenWarmerService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TokenWarmerService{
		tokens:  tokens,
		timeout: timeout,
		logger:  logging.WithComponent("token-warmer"),
		name:    "token-warmer",
	}
}

// Serve implements suture.Service.
func (s *TokenWarmerService) Serve(ctx context.Context) error {
	attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.tokens.EnsureToken(attemptCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn().Err(err).Msg("initial token acquisition failed")
		return fmt.Errorf("warm token: %w", err)
	}

	s.logger.Info().Msg("upstream token acquired")
	return suture.ErrDoNotRestart
}

// String returns the service name for logging.
func (s *TokenWarmerService) String() string {
	return s.name
}
