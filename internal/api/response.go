// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package api

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/bouldhq/fitrec/internal/logging"
	"github.com/bouldhq/fitrec/internal/middleware"
	"github.com/bouldhq/fitrec/internal/validation"
)

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	ErrorCode string                 `json:"error_code"`
	Message   string                 `json:"message"`
	RequestID string                 `json:"request_id,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Error codes used across handlers.
const (
	codeValidation  = "VALIDATION_ERROR"
	codeBadRequest  = "BAD_REQUEST"
	codeNotFound    = "NOT_FOUND"
	codeUpstream    = "UPSTREAM_ERROR"
	codeInternal    = "INTERNAL_ERROR"
	codeUnsupported = "UNSUPPORTED_MEDIA_TYPE"
)

// respondJSON encodes v and writes it with the given status.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("encode response")
	}
}

// respondError writes the error envelope, attaching the request ID
// from the request context.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, status, &ErrorResponse{
		ErrorCode: code,
		Message:   message,
		RequestID: middleware.GetRequestID(r.Context()),
	})
}

// respondValidationError writes a 400 carrying the per-field detail.
func respondValidationError(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	respondJSON(w, http.StatusBadRequest, &ErrorResponse{
		ErrorCode: apiErr.Code,
		Message:   apiErr.Message,
		RequestID: middleware.GetRequestID(r.Context()),
		Details:   apiErr.Details,
	})
}
