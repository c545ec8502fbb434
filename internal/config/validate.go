// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package config

import (
	"fmt"

	"github.com/bouldhq/fitrec/internal/cache"
)

// Validate rejects configurations that cannot produce a working
// service. It is called by Load after all layers are merged.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}

	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not a known level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q must be json or console", c.Logging.Format)
	}

	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	if c.Feedback.Enabled {
		if c.Feedback.BaseURL == "" {
			return fmt.Errorf("feedback.base_url is required when feedback.enabled")
		}
		if c.Feedback.APIKey == "" {
			return fmt.Errorf("feedback.api_key is required when feedback.enabled")
		}
		if c.Feedback.Model == "" {
			return fmt.Errorf("feedback.model is required when feedback.enabled")
		}
	}

	if c.Garment.BaseURL == "" {
		return fmt.Errorf("garment.base_url is required")
	}

	switch c.TryOn.Provider {
	case "mock":
	case "remote":
		if c.TryOn.APIKey == "" {
			return fmt.Errorf("tryon.api_key is required with the remote provider")
		}
		if c.TryOn.BaseURL == "" {
			return fmt.Errorf("tryon.base_url is required with the remote provider")
		}
	default:
		return fmt.Errorf("tryon.provider %q must be mock or remote", c.TryOn.Provider)
	}
	if c.TryOn.TaskTTL <= 0 {
		return fmt.Errorf("tryon.task_ttl must be positive")
	}

	for name, cc := range map[string]cache.Config{
		"caches.charts":          c.Caches.Charts,
		"caches.recommendations": c.Caches.Recommendations,
	} {
		switch cc.Type {
		case cache.TypeTTL, cache.TypeLFU, "":
		default:
			return fmt.Errorf("%s.type %q must be ttl or lfu", name, cc.Type)
		}
		if cc.TTL < 0 {
			return fmt.Errorf("%s.ttl must not be negative", name)
		}
	}

	if c.RateLimit.PerMinute < 0 {
		return fmt.Errorf("rate_limit.per_minute must not be negative")
	}
	return nil
}
