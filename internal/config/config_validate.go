// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

package config

import (
	"fmt"
	"strings"
)

// Validate checks that required configuration is present and valid.
// The first problem found is returned as a *ConfigError.
func (c *Config) Validate() error {
	if err := c.validateAirthings(); err != nil {
		return err
	}

	if err := c.validateOutdoor(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateAirthings validates the upstream sensor API settings.
// Required keys are checked in a fixed order so the reported key is stable.
func (c *Config) validateAirthings() error {
	required := []struct {
		key   string
		value string
	}{
		{"AIRTHINGS_BASE_URL", c.Airthings.BaseURL},
		{"AIRTHINGS_AUTH_URL", c.Airthings.AuthURL},
		{"AIRTHINGS_CLIENT_ID", c.Airthings.ClientID},
		{"AIRTHINGS_CLIENT_SECRET", c.Airthings.ClientSecret},
		{"AIRTHINGS_SCOPE", c.Airthings.Scope},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return missing(r.key)
		}
	}

	if err := validateHTTPURL(c.Airthings.BaseURL, "AIRTHINGS_BASE_URL", false); err != nil {
		return invalid("AIRTHINGS_BASE_URL", err)
	}
	// The token endpoint is a full URL, path included.
	if err := validateHTTPURL(c.Airthings.AuthURL, "AIRTHINGS_AUTH_URL", true); err != nil {
		return invalid("AIRTHINGS_AUTH_URL", err)
	}

	if c.Airthings.Timeout <= 0 {
		return invalid("AIRTHINGS_TIMEOUT", fmt.Errorf("must be positive, got %s", c.Airthings.Timeout))
	}
	if c.Airthings.RateLimit < 0 {
		return invalid("AIRTHINGS_RATE_LIMIT", fmt.Errorf("must not be negative, got %v", c.Airthings.RateLimit))
	}
	if c.Airthings.RateLimit > 0 && c.Airthings.RateBurst < 1 {
		return invalid("AIRTHINGS_RATE_BURST", fmt.Errorf("must be at least 1 when rate limiting is enabled, got %d", c.Airthings.RateBurst))
	}
	if c.Airthings.CacheTTL < 0 {
		return invalid("AIRTHINGS_CACHE_TTL", fmt.Errorf("must not be negative, got %s", c.Airthings.CacheTTL))
	}
	return nil
}

// validateOutdoor validates the outdoor station settings (only if enabled).
// Mock mode never contacts upstream, so the station is not required there.
func (c *Config) validateOutdoor() error {
	if !c.Outdoor.Enabled {
		return nil
	}

	if c.Outdoor.CacheTTL <= 0 {
		return invalid("IQAIR_CACHE_TTL", fmt.Errorf("must be positive, got %s", c.Outdoor.CacheTTL))
	}
	if c.Outdoor.RefreshInterval < 0 {
		return invalid("IQAIR_REFRESH_INTERVAL", fmt.Errorf("must not be negative, got %s", c.Outdoor.RefreshInterval))
	}

	if c.Outdoor.Mock {
		return nil
	}

	if strings.TrimSpace(c.Outdoor.BaseURL) == "" {
		return missing("IQAIR_BASE_URL")
	}
	if strings.TrimSpace(c.Outdoor.DeviceID) == "" {
		return missing("IQAIR_DEVICE_ID")
	}
	// Station URLs commonly carry an API version path (e.g. /v2).
	if err := validateHTTPURL(c.Outdoor.BaseURL, "IQAIR_BASE_URL", true); err != nil {
		return invalid("IQAIR_BASE_URL", err)
	}
	if strings.Contains(c.Outdoor.DeviceID, "/") {
		return invalid("IQAIR_DEVICE_ID", fmt.Errorf("must not contain '/'"))
	}
	if c.Outdoor.Timeout <= 0 {
		return invalid("IQAIR_TIMEOUT", fmt.Errorf("must be positive, got %s", c.Outdoor.Timeout))
	}
	return nil
}

// validateServer validates server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("HTTP_PORT", fmt.Errorf("must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.Timeout <= 0 {
		return invalid("SERVER_TIMEOUT", fmt.Errorf("must be positive, got %s", c.Server.Timeout))
	}

	switch c.Server.Environment {
	case "development", "staging", "production":
		return nil
	default:
		return invalid("ENVIRONMENT", fmt.Errorf("must be one of development, staging, production, got %q", c.Server.Environment))
	}
}

// validateSecurity validates CORS and inbound rate limit settings
func (c *Config) validateSecurity() error {
	if len(c.Security.CORSOrigins) == 0 {
		return missing("CORS_ORIGINS")
	}
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return invalid("RATE_LIMIT_REQUESTS", fmt.Errorf("must be at least 1, got %d", c.Security.RateLimitReqs))
	}
	if c.Security.RateLimitWindow <= 0 {
		return invalid("RATE_LIMIT_WINDOW", fmt.Errorf("must be positive, got %s", c.Security.RateLimitWindow))
	}
	return nil
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return invalid("LOG_LEVEL", fmt.Errorf("must be one of trace, debug, info, warn, error, got %q", c.Logging.Level))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return invalid("LOG_FORMAT", fmt.Errorf("must be json or console, got %q", c.Logging.Format))
	}
}
