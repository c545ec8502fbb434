// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/bouldhq/fitrec/internal/logging"
	"github.com/bouldhq/fitrec/internal/tryon"
	"github.com/bouldhq/fitrec/internal/validation"
)

// TryOnResponse is the task view returned by the try-on endpoints.
type TryOnResponse struct {
	TaskID     string    `json:"task_id"`
	State      string    `json:"state"`
	ResultURLs []string  `json:"result_urls,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func tryOnResponse(t tryon.Task) TryOnResponse {
	return TryOnResponse{
		TaskID:     t.ID,
		State:      t.State,
		ResultURLs: t.ResultURLs,
		Error:      t.Error,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

// CreateTryOn answers POST /v1/try-on: it submits a generation task to
// the configured provider and registers it in the task store.
func (h *Handler) CreateTryOn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req tryon.TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, codeBadRequest, "malformed try-on request body")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	vendorID, err := h.provider.CreateTask(ctx, req)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("provider", h.provider.Name()).Msg("try-on task creation failed")
		respondError(w, r, http.StatusBadGateway, codeUpstream, "try-on task creation failed")
		return
	}

	task := h.tasks.Create(h.provider.Name(), vendorID)
	logging.Ctx(ctx).Info().
		Str("task_id", task.ID).
		Str("provider", task.Provider).
		Msg("try-on task created")

	respondJSON(w, http.StatusAccepted, tryOnResponse(task))
}

// GetTryOn answers GET /v1/try-on/{taskID}. Non-terminal tasks are
// refreshed from the provider before answering, so callbacks are an
// optimization rather than a requirement.
func (h *Handler) GetTryOn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	taskID := chi.URLParam(r, "taskID")

	task, err := h.tasks.Get(taskID)
	if errors.Is(err, tryon.ErrTaskNotFound) {
		respondError(w, r, http.StatusNotFound, codeNotFound, "try-on task not found")
		return
	}

	if !task.Terminal() {
		res, qerr := h.provider.QueryTask(ctx, task.VendorTaskID)
		if qerr != nil {
			// Stale state still answers the poll; the vendor may
			// recover before the next one.
			logging.Ctx(ctx).Warn().Err(qerr).Str("task_id", taskID).Msg("try-on status refresh failed")
		} else if updated, aerr := h.tasks.Apply(taskID, res); aerr == nil {
			task = updated
		}
	}

	respondJSON(w, http.StatusOK, tryOnResponse(task))
}

// tryOnCallback is the vendor webhook envelope.
type tryOnCallback struct {
	Code json.RawMessage `json:"code"`
	Data struct {
		TaskID     string `json:"taskId"`
		State      string `json:"state"`
		FailMsg    string `json:"failMsg"`
		ResultJSON string `json:"resultJson"`
	} `json:"data"`
}

// TryOnCallback answers POST /v1/try-on/callback, the vendor's push
// notification. Unknown task IDs are acknowledged with 200 so the
// vendor stops retrying after a sweep already evicted the task.
func (h *Handler) TryOnCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logging.Ctx(ctx)

	var cb tryOnCallback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		respondError(w, r, http.StatusBadRequest, codeBadRequest, "malformed callback body")
		return
	}
	if cb.Data.TaskID == "" {
		respondError(w, r, http.StatusBadRequest, codeBadRequest, "callback missing taskId")
		return
	}

	task, err := h.tasks.FindByVendorID(cb.Data.TaskID)
	if errors.Is(err, tryon.ErrTaskNotFound) {
		log.Warn().Str("vendor_task_id", cb.Data.TaskID).Msg("callback for unknown try-on task")
		respondJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	res := tryon.TaskResult{
		TaskID: cb.Data.TaskID,
		State:  tryon.MapVendorState(cb.Data.State),
		Error:  cb.Data.FailMsg,
	}
	if cb.Data.ResultJSON != "" {
		var payload struct {
			ResultURLs []string `json:"resultUrls"`
		}
		if perr := json.Unmarshal([]byte(cb.Data.ResultJSON), &payload); perr == nil {
			res.ResultURLs = payload.ResultURLs
		} else {
			log.Warn().Err(perr).Str("task_id", task.ID).Msg("callback resultJson unparseable")
		}
	}

	updated, err := h.tasks.Apply(task.ID, res)
	if err != nil {
		respondError(w, r, http.StatusNotFound, codeNotFound, "try-on task not found")
		return
	}

	log.Info().
		Str("task_id", updated.ID).
		Str("state", updated.State).
		Msg("try-on callback applied")
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
