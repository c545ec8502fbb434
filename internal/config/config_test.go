// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bouldhq/fitrec/internal/cache"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "/nonexistent/config.yaml")
	t.Setenv("GARMENT_API_URL", "http://garments:8001/v1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("server.port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults = %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
	if cfg.Engine.DefaultUnit != "cm" {
		t.Errorf("engine.default_unit = %q", cfg.Engine.DefaultUnit)
	}
	if cfg.TryOn.Provider != "mock" {
		t.Errorf("tryon.provider = %q, want mock", cfg.TryOn.Provider)
	}
	if cfg.TryOn.TaskTTL != 30*time.Minute {
		t.Errorf("tryon.task_ttl = %v", cfg.TryOn.TaskTTL)
	}
	if cfg.Caches.Charts.Type != cache.TypeLFU {
		t.Errorf("charts cache type = %q, want lfu", cfg.Caches.Charts.Type)
	}
	if cfg.RateLimit.PerMinute != 60 {
		t.Errorf("rate_limit.per_minute = %d", cfg.RateLimit.PerMinute)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlContent := `
server:
  port: 9090
logging:
  level: debug
  format: console
garment:
  base_url: http://garments.internal/v1
tryon:
  provider: remote
  api_key: vendor-key
rate_limit:
  per_minute: 120
`
	if err := os.WriteFile(path, []byte(yamlContent), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q", cfg.Logging.Level)
	}
	if cfg.TryOn.Provider != "remote" || cfg.TryOn.APIKey != "vendor-key" {
		t.Errorf("tryon = %+v", cfg.TryOn)
	}
	if cfg.RateLimit.PerMinute != 120 {
		t.Errorf("rate_limit.per_minute = %d", cfg.RateLimit.PerMinute)
	}
	// Paths the file does not mention keep defaults.
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("server.host = %q", cfg.Server.Host)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlContent := `
server:
  port: 9090
garment:
  base_url: http://garments.internal/v1
`
	if err := os.WriteFile(path, []byte(yamlContent), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("CORS_ORIGINS", "https://shop.example.com, https://admin.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("server.port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("logging.level = %q", cfg.Logging.Level)
	}
	want := []string{"https://shop.example.com", "https://admin.example.com"}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[0] != want[0] || cfg.Server.CORSOrigins[1] != want[1] {
		t.Errorf("cors_origins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
}

func TestLoad_UnmappedEnvIgnored(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "/nonexistent/config.yaml")
	t.Setenv("GARMENT_API_URL", "http://garments:8001/v1")
	t.Setenv("RANDOM_UNRELATED_VAR", "junk")

	if _, err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := defaultConfig()
		cfg.Garment.BaseURL = "http://garments:8001/v1"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"missing garment url", func(c *Config) { c.Garment.BaseURL = "" }, true},
		{"bad engine unit", func(c *Config) { c.Engine.DefaultUnit = "furlong" }, true},
		{"feedback enabled without key", func(c *Config) { c.Feedback.Enabled = true; c.Feedback.BaseURL = "http://x"; c.Feedback.Model = "m" }, true},
		{"feedback enabled complete", func(c *Config) {
			c.Feedback.Enabled = true
			c.Feedback.BaseURL = "http://x"
			c.Feedback.APIKey = "k"
			c.Feedback.Model = "m"
		}, false},
		{"unknown tryon provider", func(c *Config) { c.TryOn.Provider = "hologram" }, true},
		{"remote tryon without key", func(c *Config) { c.TryOn.Provider = "remote" }, true},
		{"remote tryon complete", func(c *Config) { c.TryOn.Provider = "remote"; c.TryOn.APIKey = "k" }, false},
		{"zero task ttl", func(c *Config) { c.TryOn.TaskTTL = 0 }, true},
		{"bad cache type", func(c *Config) { c.Caches.Charts.Type = "arc" }, true},
		{"negative rate limit", func(c *Config) { c.RateLimit.PerMinute = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
