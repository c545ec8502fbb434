// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package api

import (
	"net/http"
	"time"
)

// HealthResponse reports service liveness and cache health.
type HealthResponse struct {
	Status        string             `json:"status"`
	UptimeSeconds float64            `json:"uptime_seconds"`
	ActiveTasks   int                `json:"active_tasks"`
	CacheHitRates map[string]float64 `json:"cache_hit_rates,omitempty"`
}

// Health answers GET /v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}
	if h.tasks != nil {
		resp.ActiveTasks = h.tasks.Len()
	}

	rates := make(map[string]float64)
	if h.chartCache != nil {
		rates["charts"] = h.chartCache.HitRate()
	}
	if h.recCache != nil {
		rates["recommendations"] = h.recCache.HitRate()
	}
	if len(rates) > 0 {
		resp.CacheHitRates = rates
	}

	respondJSON(w, http.StatusOK, resp)
}
