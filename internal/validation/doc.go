// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

// Package validation provides struct validation using go-playground/validator v10.
//
// The package wraps the validator in a thread-safe singleton and translates
// field errors into short human-readable messages for the proxy's 400
// responses.
//
// # Quick Start
//
//	type SensorsRequest struct {
//	    AccountID     string   `query:"accountId" validate:"required,notblank"`
//	    SerialNumbers []string `query:"sn" validate:"required,min=1,dive,notblank"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    // respond 400 with apiErr.Message
//	}
//
// # Field Names
//
// Messages use the `query` struct tag when present, so a failure on
// AccountID reads "accountId is required".
//
// # Custom Tags
//
//   - notblank: string must contain something other than whitespace
//
// # Message Translation
//
//	required   -> "accountId is required"
//	notblank   -> "sn[0] must not be blank"
//	min=1      -> "sn must be at least 1 items"
//	max=64     -> "sn[0] must be at most 64 characters"
//	gte=1      -> "page must be greater than or equal to 1"
//
// # Thread Safety
//
// The singleton validator is initialized once and safe for concurrent use.
package validation
