// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

// Package tryon drives virtual try-on image generation through
// pluggable providers and tracks the resulting asynchronous tasks in
// an in-memory store.
//
// A Provider submits a generation job to a vendor and reports its
// progress. Tasks move through queued → processing → success/fail;
// transitions come from vendor callbacks or from polling. Task state
// is deliberately not persisted: a restart loses in-flight tasks and
// callers re-submit.
package tryon

import (
	"context"
	"errors"
)

// Task states. Terminal states are StateSuccess and StateFail.
const (
	StateQueued     = "queued"
	StateProcessing = "processing"
	StateSuccess    = "success"
	StateFail       = "fail"
)

// ErrTaskNotFound is returned when a task ID is unknown or expired.
var ErrTaskNotFound = errors.New("tryon: task not found")

// TaskRequest describes a try-on generation job.
type TaskRequest struct {
	// Prompt guides the image edit.
	Prompt string `json:"prompt" validate:"required"`

	// ImageURLs are the source images, person first then garment.
	ImageURLs []string `json:"image_urls" validate:"required,min=1,dive,url"`

	// CallbackURL, when set, receives the vendor's completion webhook.
	CallbackURL string `json:"callback_url,omitempty" validate:"omitempty,url"`

	// OutputFormat and ImageSize are passed through to the vendor.
	OutputFormat string `json:"output_format,omitempty"`
	ImageSize    string `json:"image_size,omitempty"`
}

// TaskResult is a provider's view of a task at query time.
type TaskResult struct {
	TaskID     string   `json:"task_id"`
	State      string   `json:"state"`
	ResultURLs []string `json:"result_urls,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Terminal reports whether the result's state allows no further
// transitions.
func (r TaskResult) Terminal() bool {
	return r.State == StateSuccess || r.State == StateFail
}

// Provider submits try-on jobs to a generation backend.
type Provider interface {
	// CreateTask submits the job and returns the vendor task ID.
	CreateTask(ctx context.Context, req TaskRequest) (string, error)

	// QueryTask reports the current state of a submitted job.
	QueryTask(ctx context.Context, taskID string) (TaskResult, error)

	// Name identifies the provider in logs and metrics.
	Name() string
}
