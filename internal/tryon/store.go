// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package tryon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bouldhq/fitrec/internal/logging"
	"github.com/bouldhq/fitrec/internal/metrics"
)

// Task is the stored record of one try-on job. VendorTaskID is the
// provider's identifier; ID is the public handle callers poll with.
type Task struct {
	ID           string    `json:"id"`
	Provider     string    `json:"provider"`
	VendorTaskID string    `json:"vendor_task_id"`
	State        string    `json:"state"`
	ResultURLs   []string  `json:"result_urls,omitempty"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	expiresAt time.Time
}

// Terminal reports whether the task reached a final state.
func (t Task) Terminal() bool {
	return t.State == StateSuccess || t.State == StateFail
}

// Store holds in-flight try-on tasks in memory with a per-task TTL.
// Expired tasks are evicted on read; the janitor sweeps the rest.
type Store struct {
	mu    sync.RWMutex
	tasks map[string]*Task
	ttl   time.Duration
	tick  time.Duration
}

// NewStore creates a task store. Tasks expire ttl after creation;
// zero ttl defaults to 30 minutes.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{
		tasks: make(map[string]*Task),
		ttl:   ttl,
		tick:  time.Minute,
	}
}

// Create records a freshly submitted task in the queued state and
// returns a snapshot of it.
func (s *Store) Create(provider, vendorTaskID string) Task {
	now := time.Now()
	t := &Task{
		ID:           uuid.NewString(),
		Provider:     provider,
		VendorTaskID: vendorTaskID,
		State:        StateQueued,
		CreatedAt:    now,
		UpdatedAt:    now,
		expiresAt:    now.Add(s.ttl),
	}

	s.mu.Lock()
	s.tasks[t.ID] = t
	size := len(s.tasks)
	s.mu.Unlock()

	metrics.RecordTryOnTask(provider)
	metrics.UpdateCacheEntries("tryon_tasks", size)
	return *t
}

// Get returns a snapshot of the task, evicting it first if expired.
func (s *Store) Get(id string) (Task, error) {
	s.mu.RLock()
	t, ok := s.tasks[id]
	s.mu.RUnlock()

	if !ok {
		return Task{}, ErrTaskNotFound
	}

	if time.Now().After(t.expiresAt) {
		s.mu.Lock()
		delete(s.tasks, id)
		size := len(s.tasks)
		s.mu.Unlock()

		if !t.Terminal() {
			metrics.RecordTryOnTransition(StateFail, true)
		}
		metrics.UpdateCacheEntries("tryon_tasks", size)
		return Task{}, ErrTaskNotFound
	}
	return *t, nil
}

// FindByVendorID resolves a vendor task ID to a snapshot; webhook
// callbacks carry only the vendor's identifier.
func (s *Store) FindByVendorID(vendorTaskID string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tasks {
		if t.VendorTaskID == vendorTaskID {
			return *t, nil
		}
	}
	return Task{}, ErrTaskNotFound
}

// Apply merges a provider result into the stored task. Terminal
// states are sticky: once a task succeeds or fails, later results are
// ignored.
func (s *Store) Apply(id string, res TaskResult) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	if t.Terminal() {
		return *t, nil
	}
	if res.State == "" || res.State == t.State {
		return *t, nil
	}

	t.State = res.State
	t.UpdatedAt = time.Now()
	if len(res.ResultURLs) > 0 {
		t.ResultURLs = res.ResultURLs
	}
	if res.Error != "" {
		t.Error = res.Error
	}

	metrics.RecordTryOnTransition(t.State, t.Terminal())
	return *t, nil
}

// Len returns the number of stored tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Sweep evicts expired tasks and returns how many were removed.
func (s *Store) Sweep() int {
	now := time.Now()

	s.mu.Lock()
	evicted := 0
	for id, t := range s.tasks {
		if now.After(t.expiresAt) {
			delete(s.tasks, id)
			evicted++
			if !t.Terminal() {
				metrics.RecordTryOnTransition(StateFail, true)
			}
		}
	}
	size := len(s.tasks)
	s.mu.Unlock()

	if evicted > 0 {
		metrics.RecordCacheEviction("tryon_tasks", evicted)
	}
	metrics.UpdateCacheEntries("tryon_tasks", size)
	return evicted
}

// Serve runs the sweep loop until the context ends, satisfying the
// supervisor's service contract.
func (s *Store) Serve(ctx context.Context) error {
	log := logging.WithComponent("tryon-janitor")
	log.Debug().Dur("interval", s.tick).Msg("task janitor started")

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("task janitor stopping")
			return ctx.Err()
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Debug().Int("evicted", n).Msg("swept expired tasks")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (s *Store) String() string {
	return fmt.Sprintf("tryon-store(%d tasks)", s.Len())
}
