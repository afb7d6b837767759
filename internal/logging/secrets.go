// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// maxLoggedBodyLen bounds upstream bodies echoed into log lines.
const maxLoggedBodyLen = 200

// SanitizeToken masks a credential, showing only the first and last 4 characters.
// Example: "eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9" -> "eyJh...VCJ9"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// sensitiveKeys lists field names whose values are always masked.
var sensitiveKeys = map[string]bool{
	"access_token":  true,
	"token":         true,
	"client_secret": true,
	"secret":        true,
	"authorization": true,
	"bearer":        true,
	"api_key":       true,
	"apikey":        true,
	"password":      true,
}

// SanitizeValue masks value when key names a credential.
func SanitizeValue(key, value string) string {
	if sensitiveKeys[strings.ToLower(key)] {
		return SanitizeToken(value)
	}
	return value
}

// SanitizeBody trims an upstream response body for logging and drops it
// entirely when it looks like it carries a credential.
func SanitizeBody(body string) string {
	lower := strings.ToLower(body)
	if strings.Contains(lower, "access_token") || strings.Contains(lower, "client_secret") {
		return "(redacted)"
	}
	return truncateString(body, maxLoggedBodyLen)
}

// TokenEvent logs token lifecycle transitions for the upstream credential.
// The token value itself is never written, only a masked fingerprint.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func TokenEvent(logger zerolog.Logger, event, token string, success bool) {
	e := logger.Info()
	if !success {
		e = logger.Warn()
	}
	e.Str("event", event).
		Bool("success", success).
		Str("token", SanitizeToken(token)).
		Msg("Upstream token event")
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
