// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/airboard/internal/airthings"
	"github.com/tomtom215/airboard/internal/api"
	"github.com/tomtom215/airboard/internal/cache"
	"github.com/tomtom215/airboard/internal/config"
	"github.com/tomtom215/airboard/internal/logging"
	"github.com/tomtom215/airboard/internal/metrics"
	"github.com/tomtom215/airboard/internal/outdoor"
	"github.com/tomtom215/airboard/internal/supervisor"
	"github.com/tomtom215/airboard/internal/supervisor/services"
)

// version is set at build time: -ldflags "-X main.version=v1.2.3".
var version = "dev"

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) {
			logging.Fatal().Err(err).Str("key", cfgErr.Key).Msg("Invalid configuration")
		}
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stdout,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("airthings_url", cfg.Airthings.BaseURL).
		Str("client_id", logging.SanitizeValue("client_id", cfg.Airthings.ClientID)).
		Bool("outdoor_enabled", cfg.Outdoor.Enabled).
		Bool("outdoor_mock", cfg.Outdoor.Mock).
		Bool("outdoor_hardened", cfg.Outdoor.Hardened).
		Str("version", version).
		Msg("Starting Airboard")
	metrics.SetAppInfo(version, runtime.Version())

	// === AIRTHINGS (INDOOR) ===

	tokens := airthings.NewTokenManager(airthings.TokenConfig{
		TokenURL:     cfg.Airthings.AuthURL,
		ClientID:     cfg.Airthings.ClientID,
		ClientSecret: cfg.Airthings.ClientSecret,
		Scope:        cfg.Airthings.Scope,
		Timeout:      cfg.Airthings.Timeout,
	}, nil)

	var client airthings.ClientInterface = airthings.NewClient(airthings.ClientConfig{
		BaseURL:   cfg.Airthings.BaseURL,
		Timeout:   cfg.Airthings.Timeout,
		RateLimit: cfg.Airthings.RateLimit,
		RateBurst: cfg.Airthings.RateBurst,
	}, tokens, nil)

	if cfg.Airthings.CacheTTL > 0 {
		responseCache := cache.New(cfg.Airthings.CacheTTL, cfg.Airthings.CacheTTL)
		defer responseCache.Close()
		client = airthings.NewCachedClient(client, responseCache)
		logging.Info().Dur("ttl", cfg.Airthings.CacheTTL).Msg("Airthings accounts/devices cache enabled")
	}

	// === OUTDOOR (IQAIR) ===

	outdoorCache := newOutdoorCache(cfg.Outdoor)

	// === SUPERVISOR TREE ===

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	handler := api.NewHandler(client, tokens, outdoorCache, cfg)
	router := api.NewRouter(handler, api.ChiMiddlewareConfigFromSecurity(cfg.Security))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree.AddUpstreamService(services.NewTokenWarmerService(tokens, cfg.Airthings.Timeout))
	if cfg.Outdoor.Enabled && !cfg.Outdoor.Mock {
		tree.AddUpstreamService(services.NewOutdoorWarmerService(outdoorCache, cfg.Outdoor.RefreshInterval))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	// === START ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// newOutdoorCache builds the outdoor snapshot cache. Disabled or mock
// configurations get a cache without an upstream fetcher.
func newOutdoorCache(cfg config.OutdoorConfig) *outdoor.Cache {
	cacheCfg := outdoor.CacheConfig{
		TTL:      cfg.CacheTTL,
		Hardened: cfg.Hardened,
		Mock:     cfg.Mock,
		Jitter:   cfg.Jitter,
	}

	if !cfg.Enabled || cfg.Mock {
		logging.Info().Bool("mock", cfg.Mock).Msg("Outdoor station not contacted, serving generated snapshots")
		return outdoor.NewCache(nil, cacheCfg)
	}

	station := outdoor.NewClient(outdoor.ClientConfig{
		BaseURL:  cfg.BaseURL,
		DeviceID: cfg.DeviceID,
		Timeout:  cfg.Timeout,
	}, nil)
	breaker := outdoor.NewCircuitBreakerClient(station, outdoor.DefaultBreakerConfig())

	return outdoor.NewCache(breaker, cacheCfg)
}
