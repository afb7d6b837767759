// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

/*
Package upstream holds the failure taxonomy shared by the Airthings and IQAir
clients, plus the small HTTP helpers both use to produce it.

Every error returned by an upstream client is one of:

  - *AuthError: the token endpoint rejected the client, returned no
    access_token, or a data endpoint answered 401 twice in a row
  - *HTTPError: a data endpoint answered with a non-2xx status other than 401
  - *NetworkError: no response was received (timeout, refused connection,
    cancelled context, rate limiter wait exceeded the deadline)
  - ErrInvalidArgument (wrapped): a precondition failed before any I/O

Callers branch with errors.As and errors.Is; the proxy layer maps each kind
to an HTTP status.
*/
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
)

// ErrInvalidArgument marks precondition violations detected before any network call.
var ErrInvalidArgument = errors.New("invalid argument")

// maxErrorBodySize limits the maximum amount of response body read for error reporting
const maxErrorBodySize = 64 * 1024 // 64KB

// AuthError reports a failure to obtain or use a bearer token.
// Status and Body are set when the failure came with an HTTP response.
type AuthError struct {
	Status int
	Body   []byte
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	msg := "authentication failed: " + e.Reason
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// HTTPError reports a non-2xx response from a data endpoint.
// Body holds at most 64KB of the response.
type HTTPError struct {
	Status   int
	Body     []byte
	Endpoint string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Endpoint, e.Status)
}

// NetworkError reports that no response was received.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: no response received: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a deadline rather than a refusal.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// InvalidArgument returns an error wrapping ErrInvalidArgument.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// IsTransport reports whether err means the request never got a response:
// a *url.Error from http.Client.Do, a net.Error, or a cancelled/expired context.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// ReadBodyForError reads the response body for error reporting (max 64KB).
// Returns the body content or a placeholder message if reading fails.
func ReadBodyForError(r io.Reader) []byte {
	limitedReader := io.LimitReader(r, maxErrorBodySize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return []byte("(failed to read response body)")
	}
	// If we hit the limit, indicate truncation
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}
