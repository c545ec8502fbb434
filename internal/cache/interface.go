// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package cache

import "time"

// Cacher is the interface both cache strategies implement, so the
// API layer can switch between them through configuration.
type Cacher interface {
	// Get retrieves a value; the bool reports presence and freshness.
	Get(key string) (interface{}, bool)

	// Set stores a value with the default TTL.
	Set(key string, value interface{})

	// SetWithTTL stores a value with a custom TTL.
	SetWithTTL(key string, value interface{}, ttl time.Duration)

	// Clear removes every entry.
	Clear()

	// GetStats returns the cache counters.
	GetStats() Stats

	// HitRate returns the hit percentage.
	HitRate() float64
}

// Type selects a cache strategy.
type Type string

const (
	// TypeTTL is the unbounded TTL cache, the default.
	TypeTTL Type = "ttl"

	// TypeLFU is the bounded least-frequently-used cache. Better hit
	// rates when a few popular garments dominate requests.
	TypeLFU Type = "lfu"
)

// Config selects and sizes a cache.
type Config struct {
	// Type is the strategy, ttl or lfu.
	Type Type `koanf:"type" json:"type"`

	// TTL is the default entry lifetime.
	TTL time.Duration `koanf:"ttl" json:"ttl"`

	// Capacity bounds the LFU cache; ignored for TTL.
	Capacity int `koanf:"capacity" json:"capacity"`
}

// NewCacher builds a cache from config. name labels it in metrics.
func NewCacher(name string, cfg Config) Cacher {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}

	switch cfg.Type {
	case TypeLFU:
		return NewLFUCache(name, cfg.Capacity, cfg.TTL)
	default:
		return New(name, cfg.TTL)
	}
}

var (
	_ Cacher = (*Cache)(nil)
	_ Cacher = (*LFUCache)(nil)
)
