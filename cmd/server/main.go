// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

// Package main is the entry point for the FitRec server.
//
// FitRec recommends garment sizes from body measurements and
// photo-derived size charts, and brokers virtual try-on jobs against
// an image generation vendor.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered koanf loading (defaults, YAML, env)
//  2. Logging: zerolog, JSON by default
//  3. Recommendation engine and feedback generator
//  4. Upstream clients: garment processing API, body measurement API
//  5. Try-on provider (mock or remote vendor) and the task store
//  6. Caches: size charts (LFU) and recommendation responses (TTL)
//  7. HTTP server under a suture supervision tree
//
// # Configuration
//
// Configuration is loaded via koanf v2 with layered sources (highest
// priority wins): environment variables, config.yaml, built-in
// defaults. The garment API URL is the only required setting:
//
//	export GARMENT_API_URL=http://garments:8001/v1
//	export BODY_API_URL=http://body:8002/api/v1
//	export TRYON_PROVIDER=mock
//	./fitrec
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the listener stops
// accepting connections, in-flight requests drain under the configured
// timeout, and the supervision tree winds down its services.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bouldhq/fitrec/internal/api"
	"github.com/bouldhq/fitrec/internal/cache"
	"github.com/bouldhq/fitrec/internal/clients"
	"github.com/bouldhq/fitrec/internal/config"
	"github.com/bouldhq/fitrec/internal/feedback"
	"github.com/bouldhq/fitrec/internal/logging"
	"github.com/bouldhq/fitrec/internal/recommend"
	"github.com/bouldhq/fitrec/internal/supervisor"
	"github.com/bouldhq/fitrec/internal/tryon"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	log := logging.WithComponent("main")
	log.Info().Str("version", version).Msg("starting fitrec")

	gen := buildFeedbackGenerator(cfg)
	engine, err := recommend.NewEngine(&cfg.Engine, logging.Logger(), gen)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	garment := clients.NewGarmentClient(clients.GarmentConfig{
		BaseURL: cfg.Garment.BaseURL,
		Timeout: cfg.Garment.Timeout,
	})

	var body api.BodyAnalyzer
	if cfg.Body.BaseURL != "" {
		body = clients.NewBodyClient(clients.BodyConfig{
			BaseURL:  cfg.Body.BaseURL,
			Username: cfg.Body.Username,
			Password: cfg.Body.Password,
			Timeout:  cfg.Body.Timeout,
		})
	} else {
		log.Warn().Msg("body API not configured; photo-based measurement is disabled")
	}

	provider := buildTryOnProvider(cfg)
	tasks := tryon.NewStore(cfg.TryOn.TaskTTL)

	chartCache := cache.NewCacher("charts", cfg.Caches.Charts)
	recCache := cache.NewCacher("recommendations", cfg.Caches.Recommendations)

	handler := api.NewHandler(api.Deps{
		Engine:      engine,
		Garment:     garment,
		Body:        body,
		Provider:    provider,
		Tasks:       tasks,
		ChartCache:  chartCache,
		RecCache:    recCache,
		DefaultUnit: cfg.Engine.DefaultUnit,
	})
	router := api.NewRouter(handler, api.RouterConfig{
		RateLimitPerMinute: cfg.RateLimit.PerMinute,
		CORSOrigins:        cfg.Server.CORSOrigins,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)
	tree.AddAPIService(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))
	tree.AddMaintenanceService(tasks)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("addr", server.Addr).
		Str("tryon_provider", provider.Name()).
		Msg("serving")

	err = tree.Serve(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("shutdown complete")
		return nil
	}
	return err
}

// buildFeedbackGenerator returns the remote chat generator when it is
// configured and enabled, and the deterministic rule-based generator
// otherwise.
func buildFeedbackGenerator(cfg *config.Config) recommend.FeedbackGenerator {
	if cfg.Feedback.Enabled {
		return feedback.NewRemote(feedback.RemoteConfig{
			BaseURL:   cfg.Feedback.BaseURL,
			APIKey:    cfg.Feedback.APIKey,
			Model:     cfg.Feedback.Model,
			Timeout:   cfg.Feedback.Timeout,
			MaxTokens: cfg.Feedback.MaxTokens,
		})
	}
	return feedback.NewRuleBased()
}

func buildTryOnProvider(cfg *config.Config) tryon.Provider {
	if cfg.TryOn.Provider == "remote" {
		return tryon.NewRemoteProvider(tryon.RemoteConfig{
			BaseURL:   cfg.TryOn.BaseURL,
			APIKey:    cfg.TryOn.APIKey,
			Model:     cfg.TryOn.Model,
			Timeout:   cfg.TryOn.Timeout,
			QueryRate: cfg.TryOn.QueryRate,
		})
	}
	return tryon.NewMockProvider()
}
