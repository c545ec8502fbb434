// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/fitrec/config.yaml",
	"/etc/fitrec/config.yml",
}

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the configuration from three layers, lowest priority
// first: built-in defaults, an optional YAML file, then environment
// variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps environment variable names to koanf paths.
// Unmapped variables are dropped so arbitrary environment noise cannot
// reach the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server
		"http_host":          "server.host",
		"http_port":          "server.port",
		"http_read_timeout":  "server.read_timeout",
		"http_write_timeout": "server.write_timeout",
		"shutdown_timeout":   "server.shutdown_timeout",
		"cors_origins":       "server.cors_origins",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Engine
		"default_unit":       "engine.default_unit",
		"tight_tolerance_cm": "engine.tight_tolerance_cm",
		"tight_factor":       "engine.tight_factor",
		"snug_factor":        "engine.snug_factor",
		"loose_factor":       "engine.loose_factor",
		"missing_penalty":    "engine.missing_penalty",
		"range_discount":     "engine.range_discount",

		// Feedback generator
		"feedback_enabled":    "feedback.enabled",
		"feedback_base_url":   "feedback.base_url",
		"feedback_api_key":    "feedback.api_key",
		"feedback_model":      "feedback.model",
		"feedback_timeout":    "feedback.timeout",
		"feedback_max_tokens": "feedback.max_tokens",

		// Upstream services
		"garment_api_url":     "garment.base_url",
		"garment_api_timeout": "garment.timeout",
		"body_api_url":        "body.base_url",
		"body_api_username":   "body.username",
		"body_api_password":   "body.password",
		"body_api_timeout":    "body.timeout",

		// Try-on
		"tryon_provider":   "tryon.provider",
		"tryon_base_url":   "tryon.base_url",
		"tryon_api_key":    "tryon.api_key",
		"tryon_model":      "tryon.model",
		"tryon_timeout":    "tryon.timeout",
		"tryon_query_rate": "tryon.query_rate",
		"tryon_task_ttl":   "tryon.task_ttl",

		// Caches
		"chart_cache_type":     "caches.charts.type",
		"chart_cache_ttl":      "caches.charts.ttl",
		"chart_cache_capacity": "caches.charts.capacity",
		"rec_cache_type":       "caches.recommendations.type",
		"rec_cache_ttl":        "caches.recommendations.ttl",

		// Rate limiting
		"rate_limit_per_min": "rate_limit.per_minute",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated strings when they
// arrive through the environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}
