// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bouldhq/fitrec/internal/middleware"
)

// RouterConfig tunes the HTTP surface around the handlers.
type RouterConfig struct {
	// RateLimitPerMinute caps requests per client IP on the /v1 API
	// group. Zero disables rate limiting.
	RateLimitPerMinute int

	// CORSOrigins lists allowed origins. Empty allows all.
	CORSOrigins []string
}

// NewRouter assembles the full route tree. Health and metrics sit
// outside the rate-limited group so probes and scrapes never starve.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestLogger)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			if cfg.RateLimitPerMinute > 0 {
				r.Use(middleware.RateLimit(cfg.RateLimitPerMinute))
			}
			r.Use(middleware.PrometheusMetrics)
			r.Use(middleware.Compression)

			r.Post("/recommend", h.Recommend)
			r.Post("/process", h.Process)

			r.Post("/try-on", h.CreateTryOn)
			r.Get("/try-on/{taskID}", h.GetTryOn)
			r.Post("/try-on/callback", h.TryOnCallback)
		})
	})

	return r
}
