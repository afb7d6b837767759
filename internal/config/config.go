// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

/*
Package config provides centralized configuration management for Airboard.

Configuration is loaded by LoadWithKoanf from three layers, highest priority
last:

  - Built-in defaults (defaultConfig)
  - Optional YAML file (CONFIG_PATH, config.yaml, /etc/airboard/config.yaml)
  - Environment variables

Required Environment Variables:
  - AIRTHINGS_BASE_URL: REST API base, e.g. https://ext-api.airthings.com
  - AIRTHINGS_AUTH_URL: OAuth2 token endpoint, e.g. https://accounts-api.airthings.com/v1/token
  - AIRTHINGS_CLIENT_ID / AIRTHINGS_CLIENT_SECRET: client credentials
  - AIRTHINGS_SCOPE: requested scope, e.g. read:device:current_values
  - IQAIR_BASE_URL / IQAIR_DEVICE_ID: outdoor station (unless IQAIR_ENABLED=false or IQAIR_MOCK=true)

The NEXT_PUBLIC_AIRTHINGS_* spelling of the Airthings variables is accepted
as a fallback; the unprefixed name wins when both are set.

A missing or malformed required value fails startup with a *ConfigError
naming the environment variable.
*/
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Airthings AirthingsConfig `koanf:"airthings"`
	Outdoor   OutdoorConfig   `koanf:"outdoor"`
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// AirthingsConfig holds the upstream sensor API connection settings.
//
// Environment Variables:
//   - AIRTHINGS_TIMEOUT: per-call upstream timeout (default: 10s)
//   - AIRTHINGS_RATE_LIMIT: outbound requests per second, 0 disables (default: 1)
//   - AIRTHINGS_RATE_BURST: outbound burst size (default: 5)
//   - AIRTHINGS_CACHE_TTL: accounts/devices response cache, 0 disables (default: 5m)
//   - AIRTHINGS_DEVICE_NAMES: serial to room label map, "2960012345=Bedroom,2930054321=Office"
type AirthingsConfig struct {
	BaseURL      string            `koanf:"base_url"`
	AuthURL      string            `koanf:"auth_url"`
	ClientID     string            `koanf:"client_id"`
	ClientSecret string            `koanf:"client_secret"`
	Scope        string            `koanf:"scope"`
	Timeout      time.Duration     `koanf:"timeout"`
	RateLimit    float64           `koanf:"rate_limit"`
	RateBurst    int               `koanf:"rate_burst"`
	CacheTTL     time.Duration     `koanf:"cache_ttl"`
	DeviceNames  map[string]string `koanf:"device_names"`
}

// OutdoorConfig holds the outdoor air-quality station settings.
//
// Hardened selects the production fallback (zeroed snapshot instead of
// synthetic values). When not set explicitly it follows ENVIRONMENT=production.
//
// Environment Variables:
//   - IQAIR_ENABLED (default: true)
//   - IQAIR_CACHE_TTL (default: 5m)
//   - IQAIR_TIMEOUT (default: 10s)
//   - IQAIR_HARDENED (default: derived from ENVIRONMENT)
//   - IQAIR_MOCK: serve synthetic data without contacting upstream (default: false)
//   - IQAIR_JITTER: jitter synthetic readings (default: true)
//   - IQAIR_REFRESH_INTERVAL: background warm interval, 0 disables (default: 60s)
type OutdoorConfig struct {
	Enabled         bool          `koanf:"enabled"`
	BaseURL         string        `koanf:"base_url"`
	DeviceID        string        `koanf:"device_id"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	Timeout         time.Duration `koanf:"timeout"`
	Hardened        bool          `koanf:"hardened"`
	Mock            bool          `koanf:"mock"`
	Jitter          bool          `koanf:"jitter"`
	RefreshInterval time.Duration `koanf:"refresh_interval"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // "development", "staging", "production"
}

// IsProduction reports whether the server runs in production mode.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// SecurityConfig holds browser-facing HTTP protections.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// DeviceName returns the configured room label for a serial number.
// Unmapped serials are labelled "Sensor <serial>".
func (a AirthingsConfig) DeviceName(serial string) string {
	if name, ok := a.DeviceNames[serial]; ok && name != "" {
		return name
	}
	return "Sensor " + serial
}
