// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package cache

import (
	"sync"
	"time"

	"github.com/bouldhq/fitrec/internal/metrics"
)

// lfuEntry is one cached value in a frequency list.
type lfuEntry struct {
	key       string
	value     interface{}
	freq      int
	expiresAt time.Time
	prev      *lfuEntry
	next      *lfuEntry
}

// freqList is a doubly-linked list of entries sharing one frequency,
// most recently touched at the front.
type freqList struct {
	head *lfuEntry
	tail *lfuEntry
	size int
}

func newFreqList() *freqList {
	fl := &freqList{head: &lfuEntry{}, tail: &lfuEntry{}}
	fl.head.next = fl.tail
	fl.tail.prev = fl.head
	return fl
}

func (fl *freqList) addToFront(e *lfuEntry) {
	e.prev = fl.head
	e.next = fl.head.next
	fl.head.next.prev = e
	fl.head.next = e
	fl.size++
}

func (fl *freqList) remove(e *lfuEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev = nil
	e.next = nil
	fl.size--
}

func (fl *freqList) removeLast() *lfuEntry {
	if fl.size == 0 {
		return nil
	}
	e := fl.tail.prev
	fl.remove(e)
	return e
}

func (fl *freqList) isEmpty() bool { return fl.size == 0 }

// LFUCache is a bounded least-frequently-used cache with O(1) get,
// set, and eviction, plus lazy TTL expiry. Garment chart traffic is
// heavily skewed toward a handful of popular products, which is the
// access pattern LFU eviction serves best.
//
// keyMap gives O(1) lookup; freqMap buckets entries by access count;
// minFreq tracks the lowest occupied bucket so eviction is O(1) too.
type LFUCache struct {
	mu sync.RWMutex

	name     string
	capacity int
	ttl      time.Duration

	keyMap  map[string]*lfuEntry
	freqMap map[int]*freqList
	minFreq int

	hits   int64
	misses int64
}

// NewLFUCache creates a bounded LFU cache. name labels the cache in
// metrics; capacity defaults to 10000, ttl to 5 minutes.
func NewLFUCache(name string, capacity int, ttl time.Duration) *LFUCache {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &LFUCache{
		name:     name,
		capacity: capacity,
		ttl:      ttl,
		keyMap:   make(map[string]*lfuEntry, capacity),
		freqMap:  make(map[int]*freqList),
	}
}

// Get returns the value for key and bumps its frequency. Expired
// entries are removed and counted as misses.
func (c *LFUCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.keyMap[key]
	if !ok {
		c.misses++
		metrics.RecordCacheMiss(c.name)
		return nil, false
	}

	if time.Now().After(e.expiresAt) {
		c.removeEntry(e)
		c.misses++
		metrics.RecordCacheMiss(c.name)
		metrics.RecordCacheEviction(c.name, 1)
		return nil, false
	}

	c.incrementFreq(e)
	c.hits++
	metrics.RecordCacheHit(c.name)
	return e.value, true
}

// Set stores value with the default TTL, evicting the least
// frequently used entry when at capacity.
func (c *LFUCache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value with a custom TTL.
func (c *LFUCache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(ttl)

	if e, ok := c.keyMap[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.incrementFreq(e)
		return
	}

	if len(c.keyMap) >= c.capacity {
		c.evict()
	}

	e := &lfuEntry{key: key, value: value, freq: 1, expiresAt: expiresAt}
	if c.freqMap[1] == nil {
		c.freqMap[1] = newFreqList()
	}
	c.freqMap[1].addToFront(e)
	c.keyMap[key] = e
	c.minFreq = 1

	metrics.UpdateCacheEntries(c.name, len(c.keyMap))
}

// Delete removes key and reports whether it was present.
func (c *LFUCache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.keyMap[key]; ok {
		c.removeEntry(e)
		metrics.RecordCacheEviction(c.name, 1)
		return true
	}
	return false
}

// Contains reports key presence without touching its frequency.
func (c *LFUCache) Contains(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if e, ok := c.keyMap[key]; ok {
		return !time.Now().After(e.expiresAt)
	}
	return false
}

// Len returns the current entry count.
func (c *LFUCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.keyMap)
}

// Clear drops every entry.
func (c *LFUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.keyMap = make(map[string]*lfuEntry, c.capacity)
	c.freqMap = make(map[int]*freqList)
	c.minFreq = 0
	metrics.UpdateCacheEntries(c.name, 0)
}

// Frequency returns the access count for key, 0 when absent.
func (c *LFUCache) Frequency(key string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if e, ok := c.keyMap[key]; ok {
		return e.freq
	}
	return 0
}

// CleanupExpired removes every expired entry and returns the count.
func (c *LFUCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for _, e := range c.keyMap {
		if now.After(e.expiresAt) {
			c.removeEntry(e)
			removed++
		}
	}
	if removed > 0 {
		metrics.RecordCacheEviction(c.name, removed)
		metrics.UpdateCacheEntries(c.name, len(c.keyMap))
	}
	return removed
}

// GetStats returns a snapshot matching the TTL cache's counters.
func (c *LFUCache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		TotalKeys: int64(len(c.keyMap)),
	}
}

// HitRate returns the hit percentage across the cache's lifetime.
func (c *LFUCache) HitRate() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	if total == 0 {
		return 0.0
	}
	return float64(c.hits) / float64(total) * 100.0
}

// incrementFreq moves e to the next frequency bucket. Caller holds
// the lock.
func (c *LFUCache) incrementFreq(e *lfuEntry) {
	if fl, ok := c.freqMap[e.freq]; ok {
		fl.remove(e)
		if fl.isEmpty() && c.minFreq == e.freq {
			c.minFreq++
		}
	}

	e.freq++
	if c.freqMap[e.freq] == nil {
		c.freqMap[e.freq] = newFreqList()
	}
	c.freqMap[e.freq].addToFront(e)
}

// evict removes the least frequently used entry, oldest first within
// the bucket. Caller holds the lock.
func (c *LFUCache) evict() {
	fl := c.freqMap[c.minFreq]
	if fl == nil || fl.isEmpty() {
		return
	}
	if e := fl.removeLast(); e != nil {
		delete(c.keyMap, e.key)
		metrics.RecordCacheEviction(c.name, 1)
	}
}

// removeEntry unlinks e from its bucket and the key map. Caller
// holds the lock.
func (c *LFUCache) removeEntry(e *lfuEntry) {
	if fl, ok := c.freqMap[e.freq]; ok {
		fl.remove(e)
	}
	delete(c.keyMap, e.key)
}
