// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/airboard/config.yaml",
	"/etc/airboard/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Airthings: AirthingsConfig{
			BaseURL:      "",
			AuthURL:      "",
			ClientID:     "",
			ClientSecret: "",
			Scope:        "",
			Timeout:      10 * time.Second,
			RateLimit:    1, // vendor API allows roughly 120 requests per hour per client
			RateBurst:    5,
			CacheTTL:     5 * time.Minute,
			DeviceNames: map[string]string{
				"2960010620": "Stue",
				"2960082469": "Kontor",
				"2960082972": "Soveværelse",
			},
		},
		Outdoor: OutdoorConfig{
			Enabled:         true,
			BaseURL:         "",
			DeviceID:        "",
			CacheTTL:        5 * time.Minute,
			Timeout:         10 * time.Second,
			Hardened:        false, // derived from server.environment unless set
			Mock:            false,
			Jitter:          true,
			RefreshInterval: time.Minute,
		},
		Server: ServerConfig{
			Port:        3000,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in defaults
//  2. Config File: optional YAML config file
//  3. Legacy environment names (NEXT_PUBLIC_AIRTHINGS_*)
//  4. Environment Variables
//
// Validation failures are returned as *ConfigError (wrapped).
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// User-supplied layers are collected separately so that "explicitly set"
	// can be told apart from "left at default".
	user := koanf.New(".")

	if configPath := findConfigFile(); configPath != "" {
		if err := user.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := user.Load(env.Provider("", ".", legacyEnvTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load legacy environment variables: %w", err)
	}
	if err := user.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := k.Merge(user); err != nil {
		return nil, fmt.Errorf("failed to merge configuration: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}
	if err := processMapFields(k); err != nil {
		return nil, fmt.Errorf("failed to process map fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if !user.Exists("outdoor.hardened") {
		cfg.Outdoor.Hardened = cfg.Server.IsProduction()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file found, or "" when none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// mapConfigPaths defines which config paths accept "key=value,key=value" strings.
var mapConfigPaths = []string{
	"airthings.device_names",
}

// processMapFields converts "k=v,k=v" string values to maps for known map fields.
// Values from YAML already arrive as maps and are left alone.
func processMapFields(k *koanf.Koanf) error {
	for _, path := range mapConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}

		parsed := parseKeyValueList(strVal)
		k.Delete(path)
		if len(parsed) == 0 {
			continue
		}
		if err := k.Set(path, parsed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// parseKeyValueList parses "a=1, b=2" into a map. Entries without "=" are skipped.
func parseKeyValueList(raw string) map[string]interface{} {
	result := make(map[string]interface{})
	for _, item := range strings.Split(raw, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(item), "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			continue
		}
		result[key] = strings.TrimSpace(value)
	}
	return result
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	// Airthings (indoor sensors)
	"airthings_base_url":      "airthings.base_url",
	"airthings_auth_url":      "airthings.auth_url",
	"airthings_client_id":     "airthings.client_id",
	"airthings_client_secret": "airthings.client_secret",
	"airthings_scope":         "airthings.scope",
	"airthings_timeout":       "airthings.timeout",
	"airthings_rate_limit":    "airthings.rate_limit",
	"airthings_rate_burst":    "airthings.rate_burst",
	"airthings_cache_ttl":     "airthings.cache_ttl",
	"airthings_device_names":  "airthings.device_names",

	// IQAir (outdoor station)
	"iqair_enabled":          "outdoor.enabled",
	"iqair_base_url":         "outdoor.base_url",
	"iqair_device_id":        "outdoor.device_id",
	"iqair_cache_ttl":        "outdoor.cache_ttl",
	"iqair_timeout":          "outdoor.timeout",
	"iqair_hardened":         "outdoor.hardened",
	"iqair_mock":             "outdoor.mock",
	"iqair_jitter":           "outdoor.jitter",
	"iqair_refresh_interval": "outdoor.refresh_interval",

	// Server
	"http_port":      "server.port",
	"http_host":      "server.host",
	"server_timeout": "server.timeout",
	"environment":    "server.environment",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - AIRTHINGS_CLIENT_ID -> airthings.client_id
//   - IQAIR_DEVICE_ID -> outdoor.device_id
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// legacyEnvTransformFunc maps the NEXT_PUBLIC_AIRTHINGS_* names used by older
// deployments onto the same paths as their unprefixed counterparts.
func legacyEnvTransformFunc(key string) string {
	lower := strings.ToLower(key)
	if !strings.HasPrefix(lower, "next_public_airthings_") {
		return ""
	}
	return envMappings[strings.TrimPrefix(lower, "next_public_")]
}
