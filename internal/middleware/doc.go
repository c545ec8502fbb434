// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

// Package middleware provides the chi middleware stack for the HTTP
// surface: request ID propagation, structured request logging,
// Prometheus instrumentation, gzip compression, and rate limiting.
// All middlewares use the standard func(http.Handler) http.Handler
// shape so they compose with chi's Use.
package middleware
