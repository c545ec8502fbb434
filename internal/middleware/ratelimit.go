// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/bouldhq/fitrec/internal/logging"
	"github.com/bouldhq/fitrec/internal/metrics"
)

// RateLimit returns a token-bucket limiter keyed by client IP.
// Rejections answer 429 with a Retry-After header and are counted
// per endpoint.
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.APIRateLimitHits.WithLabelValues(r.URL.Path).Inc()
			logging.Ctx(r.Context()).Warn().
				Str("path", r.URL.Path).
				Str("remote", r.RemoteAddr).
				Msg("rate limit exceeded")

			w.Header().Set("Retry-After", "60")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		}),
	)
}
