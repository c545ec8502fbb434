// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

// Package api provides the HTTP surface: chi routing, request
// decoding and validation, and the thin glue between transport and
// the recommendation engine. Handlers never contain fit logic; they
// assemble a recommend.Request from multipart or JSON input, call the
// engine, and encode the result.
//
// Error responses use one envelope across all endpoints:
//
//	{"error_code": "VALIDATION_ERROR", "message": "...", "request_id": "..."}
//
// Validation failures map to 400, unknown tasks to 404, upstream
// failures to 502.
package api
