// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package tryon

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockProvider completes every task immediately with a deterministic
// placeholder result. It backs local development and tests where no
// vendor credentials exist.
type MockProvider struct {
	mu      sync.Mutex
	results map[string]TaskResult
}

// NewMockProvider creates a mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{results: make(map[string]TaskResult)}
}

// Name implements Provider.
func (p *MockProvider) Name() string { return "mock" }

// CreateTask implements Provider. The task succeeds instantly with a
// synthetic result URL derived from the task ID.
func (p *MockProvider) CreateTask(ctx context.Context, req TaskRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	taskID := uuid.NewString()

	p.mu.Lock()
	p.results[taskID] = TaskResult{
		TaskID:     taskID,
		State:      StateSuccess,
		ResultURLs: []string{fmt.Sprintf("/files/tryon_%s.jpg", taskID)},
	}
	p.mu.Unlock()

	return taskID, nil
}

// QueryTask implements Provider.
func (p *MockProvider) QueryTask(ctx context.Context, taskID string) (TaskResult, error) {
	if err := ctx.Err(); err != nil {
		return TaskResult{}, err
	}

	p.mu.Lock()
	res, ok := p.results[taskID]
	p.mu.Unlock()

	if !ok {
		return TaskResult{}, ErrTaskNotFound
	}
	return res, nil
}
