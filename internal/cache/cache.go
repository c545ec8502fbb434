// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

// Package cache provides in-memory caches for chart payloads and
// recommendation responses. Two strategies exist: a plain TTL cache
// and an LFU cache for catalogs where a small set of popular garments
// dominates traffic. Both report hits, misses, and evictions to the
// shared Prometheus registry under their configured name.
package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/bouldhq/fitrec/internal/metrics"
)

// entry is a cached value with its expiry.
type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Cache is a thread-safe TTL cache. Expired entries are evicted on
// read; a background sweep removes the rest every cleanupInterval.
type Cache struct {
	mu      sync.RWMutex
	name    string
	entries map[string]entry
	ttl     time.Duration
	stop    chan struct{}

	statsMu   sync.Mutex
	hits      int64
	misses    int64
	evictions int64
	totalKeys int64
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	TotalKeys int64
}

const cleanupInterval = 5 * time.Minute

// New creates a TTL cache. name labels the cache in metrics.
func New(name string, ttl time.Duration) *Cache {
	c := &Cache{
		name:    name,
		entries: make(map[string]entry),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get returns the value for key if present and unexpired. An expired
// entry is deleted and counted as a miss.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		c.recordMiss()
		return nil, false
	}

	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		c.recordMiss()
		c.recordEvictions(1)
		return nil, false
	}

	c.recordHit()
	return e.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key with a custom TTL.
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	size := len(c.entries)
	c.mu.Unlock()

	c.setTotalKeys(size)
}

// Delete removes key from the cache. Deleting an absent key is a
// no-op aside from the eviction counter.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	size := len(c.entries)
	c.mu.Unlock()

	c.recordEvictions(1)
	c.setTotalKeys(size)
}

// Clear drops every entry, typically after a catalog update
// invalidates all cached charts at once.
func (c *Cache) Clear() {
	c.mu.Lock()
	evicted := int64(len(c.entries))
	c.entries = make(map[string]entry)
	c.mu.Unlock()

	c.recordEvictions(evicted)
	c.setTotalKeys(0)
}

// Close stops the background sweep goroutine.
func (c *Cache) Close() {
	close(c.stop)
}

// GetStats returns a copy of the current counters.
func (c *Cache) GetStats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		TotalKeys: c.totalKeys,
	}
}

// HitRate returns the hit percentage across the cache's lifetime.
func (c *Cache) HitRate() float64 {
	s := c.GetStats()
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}
	return float64(s.Hits) / float64(total) * 100.0
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *Cache) cleanup() {
	now := time.Now()

	c.mu.Lock()
	evicted := int64(0)
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	if evicted > 0 {
		c.recordEvictions(evicted)
	}
	c.setTotalKeys(size)
}

func (c *Cache) recordHit() {
	c.statsMu.Lock()
	c.hits++
	c.statsMu.Unlock()
	metrics.RecordCacheHit(c.name)
}

func (c *Cache) recordMiss() {
	c.statsMu.Lock()
	c.misses++
	c.statsMu.Unlock()
	metrics.RecordCacheMiss(c.name)
}

func (c *Cache) recordEvictions(n int64) {
	c.statsMu.Lock()
	c.evictions += n
	c.statsMu.Unlock()
	metrics.RecordCacheEviction(c.name, int(n))
}

func (c *Cache) setTotalKeys(n int) {
	c.statsMu.Lock()
	c.totalKeys = int64(n)
	c.statsMu.Unlock()
	metrics.UpdateCacheEntries(c.name, n)
}

// GenerateKey derives a stable cache key from an operation name and
// its parameters. Params are JSON-serialized and hashed so arbitrary
// request structs can key a cache without leaking their contents.
func GenerateKey(op string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", op, params)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", op, hash[:16])
}
