// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/airboard/internal/logging"
	"github.com/tomtom215/airboard/internal/upstream"
)

// ErrorResponse is the body of every non-2xx proxy response.
type ErrorResponse struct {
	Error     string      `json:"error"`
	Message   string      `json:"message,omitempty"`
	Details   interface{} `json:"details,omitempty"`
	Status    int         `json:"status,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
}

const noResponseMessage = "No response received from API"

// errorResponseFor maps an upstream failure onto a status code and body:
//
//   - *upstream.HTTPError: the upstream status, "API Error"
//   - *upstream.AuthError: the token or API status if known, else 502, "Authentication Error"
//   - *upstream.NetworkError: 502, "Request Error"
//   - ErrInvalidArgument: 400, "Bad Request"
//   - anything else: 500, "Internal Server Error"
func errorResponseFor(err error) (int, ErrorResponse) {
	var httpErr *upstream.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status, ErrorResponse{
			Error:   "API Error",
			Message: err.Error(),
			Details: bodyDetails(httpErr.Body),
			Status:  httpErr.Status,
		}
	}

	var authErr *upstream.AuthError
	if errors.As(err, &authErr) {
		status := http.StatusBadGateway
		if authErr.Status >= 400 {
			status = authErr.Status
		}
		return status, ErrorResponse{
			Error:   "Authentication Error",
			Message: err.Error(),
			Details: bodyDetails(authErr.Body),
			Status:  status,
		}
	}

	var netErr *upstream.NetworkError
	if errors.As(err, &netErr) {
		return http.StatusBadGateway, ErrorResponse{
			Error:   "Request Error",
			Message: noResponseMessage,
			Details: err.Error(),
		}
	}

	if errors.Is(err, upstream.ErrInvalidArgument) {
		return http.StatusBadRequest, ErrorResponse{
			Error:   "Bad Request",
			Message: err.Error(),
		}
	}

	return http.StatusInternalServerError, ErrorResponse{
		Error:     "Internal Server Error",
		Message:   err.Error(),
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// bodyDetails returns an upstream error body as JSON when it is JSON, as a
// string otherwise, and nil when empty.
func bodyDetails(body []byte) interface{} {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return string(body)
}

// respondUpstreamError logs err and writes the mapped error response.
func respondUpstreamError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, body := errorResponseFor(err)

	event := logging.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		event = logging.Ctx(r.Context()).Error()
	}
	event.Err(err).
		Str("op", op).
		Str("path", sanitizeLogValue(r.URL.Path)).
		Int("status", status).
		Msg("Proxy request failed")

	respondJSON(w, status, body)
}

// respondBadRequest writes a 400 with a fixed summary and the validation detail.
func respondBadRequest(w http.ResponseWriter, summary, message string) {
	respondJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   summary,
		Message: message,
	})
}

// errAccountWithoutID is reported when upstream lists an account with no id.
var errAccountWithoutID = &upstream.HTTPError{
	Status:   http.StatusBadGateway,
	Body:     []byte(`"account has no id"`),
	Endpoint: "/v1/accounts",
}

func notFound(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusNotFound, ErrorResponse{Error: "Not Found", Message: "No route for " + sanitizeLogValue(r.URL.Path)})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method Not Allowed", Message: r.Method + " is not supported"})
}
