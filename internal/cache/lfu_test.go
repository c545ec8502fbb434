// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestLFUCache_SetGet(t *testing.T) {
	c := NewLFUCache("test", 10, time.Minute)

	c.Set("chart:hoodie", "payload")
	got, ok := c.Get("chart:hoodie")
	if !ok || got != "payload" {
		t.Errorf("got (%v, %v)", got, ok)
	}
}

func TestLFUCache_EvictsLeastFrequent(t *testing.T) {
	c := NewLFUCache("test", 3, time.Minute)

	c.Set("popular", 1)
	c.Set("occasional", 2)
	c.Set("rare", 3)

	// Drive frequencies apart.
	for i := 0; i < 5; i++ {
		c.Get("popular")
	}
	c.Get("occasional")

	// 4th insert must evict "rare", the only frequency-1 entry.
	c.Set("new", 4)

	if c.Contains("rare") {
		t.Error("least frequent entry must be evicted")
	}
	for _, key := range []string{"popular", "occasional", "new"} {
		if !c.Contains(key) {
			t.Errorf("%q must survive eviction", key)
		}
	}
}

func TestLFUCache_EvictsOldestWithinFrequency(t *testing.T) {
	c := NewLFUCache("test", 2, time.Minute)

	c.Set("first", 1)
	c.Set("second", 2)
	// Both at frequency 1; inserting a third evicts the one least
	// recently touched.
	c.Set("third", 3)

	if c.Contains("first") {
		t.Error("oldest frequency-1 entry must be evicted first")
	}
	if !c.Contains("second") || !c.Contains("third") {
		t.Error("newer entries must survive")
	}
}

func TestLFUCache_UpdateExisting(t *testing.T) {
	c := NewLFUCache("test", 10, time.Minute)

	c.Set("k", "old")
	c.Set("k", "new")

	got, _ := c.Get("k")
	if got != "new" {
		t.Errorf("value = %v", got)
	}
	if c.Len() != 1 {
		t.Errorf("len = %d, want 1", c.Len())
	}
}

func TestLFUCache_Expiry(t *testing.T) {
	c := NewLFUCache("test", 10, time.Minute)

	c.SetWithTTL("k", "v", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry must miss")
	}
	if c.Len() != 0 {
		t.Errorf("len = %d after lazy eviction", c.Len())
	}
}

func TestLFUCache_Frequency(t *testing.T) {
	c := NewLFUCache("test", 10, time.Minute)

	c.Set("k", "v")
	if got := c.Frequency("k"); got != 1 {
		t.Errorf("freq = %d, want 1", got)
	}

	c.Get("k")
	c.Get("k")
	if got := c.Frequency("k"); got != 3 {
		t.Errorf("freq = %d, want 3", got)
	}

	if got := c.Frequency("absent"); got != 0 {
		t.Errorf("absent freq = %d, want 0", got)
	}
}

func TestLFUCache_ContainsDoesNotBumpFrequency(t *testing.T) {
	c := NewLFUCache("test", 10, time.Minute)

	c.Set("k", "v")
	c.Contains("k")
	c.Contains("k")

	if got := c.Frequency("k"); got != 1 {
		t.Errorf("freq = %d, Contains must not count as access", got)
	}
}

func TestLFUCache_CleanupExpired(t *testing.T) {
	c := NewLFUCache("test", 10, time.Minute)

	c.SetWithTTL("a", 1, -time.Second)
	c.SetWithTTL("b", 2, -time.Second)
	c.Set("c", 3)

	if removed := c.CleanupExpired(); removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if c.Len() != 1 {
		t.Errorf("len = %d, want 1", c.Len())
	}
}

func TestLFUCache_Clear(t *testing.T) {
	c := NewLFUCache("test", 10, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("len = %d after clear", c.Len())
	}
	if c.Contains("a") {
		t.Error("cleared key must be absent")
	}
}

func TestLFUCache_HitRate(t *testing.T) {
	c := NewLFUCache("test", 10, time.Minute)

	c.Set("k", "v")
	c.Get("k")
	c.Get("absent")

	if got := c.HitRate(); got != 50.0 {
		t.Errorf("hit rate = %v, want 50", got)
	}
}

func TestLFUCache_ConcurrentAccess(t *testing.T) {
	c := NewLFUCache("test", 100, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", n%5)
				c.Set(key, j)
				c.Get(key)
				c.Contains(key)
			}
		}(i)
	}
	wg.Wait()

	if c.Len() != 5 {
		t.Errorf("len = %d, want 5", c.Len())
	}
}

func TestLFUCache_DefaultsApplied(t *testing.T) {
	c := NewLFUCache("test", 0, 0)
	if c.capacity != 10000 {
		t.Errorf("capacity = %d, want default 10000", c.capacity)
	}
	if c.ttl != 5*time.Minute {
		t.Errorf("ttl = %v, want default 5m", c.ttl)
	}
}
