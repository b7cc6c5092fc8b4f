// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/shoprec/internal/recommend"
)

// Error codes returned in models.APIError.
const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeDataUnavailable = "DATA_UNAVAILABLE"
	ErrCodeTimeout         = "TIMEOUT"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// classifyError maps an engine or storage error to an HTTP status, error
// code and client-facing message. Internal details are never exposed.
func classifyError(err error) (status int, code, message string) {
	switch {
	case errors.Is(err, recommend.ErrInvalidRequest):
		return http.StatusBadRequest, ErrCodeValidation, err.Error()
	case errors.Is(err, recommend.ErrUnknownStrategy):
		return http.StatusNotFound, ErrCodeNotFound, err.Error()
	case errors.Is(err, recommend.ErrDataUnavailable):
		return http.StatusServiceUnavailable, ErrCodeDataUnavailable, "Recommendation data is temporarily unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrCodeTimeout, "Request timed out"
	default:
		return http.StatusInternalServerError, ErrCodeInternal, "Internal server error"
	}
}
