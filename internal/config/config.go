// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package config

import (
	"time"

	"github.com/bouldhq/fitrec/internal/cache"
	"github.com/bouldhq/fitrec/internal/recommend"
)

// Config is the full service configuration tree.
type Config struct {
	Server    ServerConfig     `koanf:"server"`
	Logging   LoggingConfig    `koanf:"logging"`
	Engine    recommend.Config `koanf:"engine"`
	Feedback  FeedbackConfig   `koanf:"feedback"`
	Garment   GarmentConfig    `koanf:"garment"`
	Body      BodyConfig       `koanf:"body"`
	TryOn     TryOnConfig      `koanf:"tryon"`
	Caches    CachesConfig     `koanf:"caches"`
	RateLimit RateLimitConfig  `koanf:"rate_limit"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// ReadTimeout covers header and body reads; generous because
	// requests carry image uploads.
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// ShutdownTimeout bounds graceful drain on termination.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins lists allowed browser origins. Empty allows all.
	CORSOrigins []string `koanf:"cors_origins"`
}

// LoggingConfig holds the log output settings.
type LoggingConfig struct {
	// Level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format: json or console.
	Format string `koanf:"format"`

	// Caller includes file and line in every event.
	Caller bool `koanf:"caller"`
}

// FeedbackConfig selects and configures the narrative generator.
type FeedbackConfig struct {
	// Enabled switches from the rule-based generator to the remote
	// chat API. The rule-based generator always remains the fallback.
	Enabled bool `koanf:"enabled"`

	BaseURL   string        `koanf:"base_url"`
	APIKey    string        `koanf:"api_key"`
	Model     string        `koanf:"model"`
	Timeout   time.Duration `koanf:"timeout"`
	MaxTokens int           `koanf:"max_tokens"`
}

// GarmentConfig points at the garment processing API.
type GarmentConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// BodyConfig points at the body measurement API.
type BodyConfig struct {
	BaseURL  string        `koanf:"base_url"`
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	Timeout  time.Duration `koanf:"timeout"`
}

// TryOnConfig selects the try-on provider and sizes the task store.
type TryOnConfig struct {
	// Provider is "mock" or "remote".
	Provider string `koanf:"provider"`

	BaseURL   string        `koanf:"base_url"`
	APIKey    string        `koanf:"api_key"`
	Model     string        `koanf:"model"`
	Timeout   time.Duration `koanf:"timeout"`
	QueryRate float64       `koanf:"query_rate"`

	// TaskTTL bounds how long a finished or abandoned task stays
	// queryable.
	TaskTTL time.Duration `koanf:"task_ttl"`
}

// CachesConfig sizes the two caches.
type CachesConfig struct {
	Charts          cache.Config `koanf:"charts"`
	Recommendations cache.Config `koanf:"recommendations"`
}

// RateLimitConfig caps request rates on the API group.
type RateLimitConfig struct {
	// PerMinute is the per-IP request budget. Zero disables limiting.
	PerMinute int `koanf:"per_minute"`
}

// defaultConfig returns the built-in defaults, the first koanf layer.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     2 * time.Minute,
			WriteTimeout:    3 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Engine: *recommend.DefaultConfig(),
		Feedback: FeedbackConfig{
			Enabled:   false,
			Timeout:   10 * time.Second,
			MaxTokens: 160,
		},
		Garment: GarmentConfig{
			Timeout: 2 * time.Minute,
		},
		Body: BodyConfig{
			Timeout: 2 * time.Minute,
		},
		TryOn: TryOnConfig{
			Provider:  "mock",
			BaseURL:   "https://api.kie.ai",
			Timeout:   time.Minute,
			QueryRate: 2,
			TaskTTL:   30 * time.Minute,
		},
		Caches: CachesConfig{
			Charts: cache.Config{
				Type:     cache.TypeLFU,
				TTL:      10 * time.Minute,
				Capacity: 10000,
			},
			Recommendations: cache.Config{
				Type: cache.TypeTTL,
				TTL:  10 * time.Minute,
			},
		},
		RateLimit: RateLimitConfig{
			PerMinute: 60,
		},
	}
}
