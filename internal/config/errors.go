// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

package config

import "fmt"

// ConfigError reports a missing or invalid configuration value.
// Key is the environment variable an operator has to set or fix.
//
//nolint:revive // config.ConfigError reads naturally at call sites
type ConfigError struct {
	Key    string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("configuration error: %s %s", e.Key, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// missing returns the ConfigError for an unset required key.
func missing(key string) *ConfigError {
	return &ConfigError{Key: key, Reason: "is required"}
}

// invalid returns the ConfigError for a value that failed validation.
func invalid(key string, err error) *ConfigError {
	return &ConfigError{Key: key, Reason: "is invalid", Err: err}
}
