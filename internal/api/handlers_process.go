// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package api

import (
	"net/http"
	"strconv"

	"github.com/bouldhq/fitrec/internal/logging"
	"github.com/bouldhq/fitrec/internal/recommend"
	"github.com/bouldhq/fitrec/internal/validation"
)

// processForm validates the scalar fields of POST /v1/process.
type processForm struct {
	CategoryID int    `validate:"required,gte=1,lte=13"`
	TrueSize   string `validate:"required,sizename"`
	Unit       string `validate:"omitempty,unit"`
}

// ProcessResponse is the garment processing passthrough payload.
type ProcessResponse struct {
	SizeScale      string `json:"size_scale"`
	MeasurementVis string `json:"measurement_vis,omitempty"`
}

// Process answers POST /v1/process: it runs measurement extraction on
// a garment photo without producing a recommendation, so callers can
// inspect or pre-warm a chart.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, r, http.StatusUnsupportedMediaType, codeUnsupported, "expected multipart form data")
		return
	}

	var form processForm
	if raw := r.FormValue("category_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, codeValidation, "category_id must be an integer")
			return
		}
		form.CategoryID = id
	}
	form.TrueSize = r.FormValue("true_size")
	form.Unit = r.FormValue("unit")

	if verr := validation.ValidateStruct(&form); verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	image, filename, ok := readFormFile(w, r, "garment_image", true)
	if !ok {
		return
	}

	unit := recommend.NormalizeUnit(form.Unit)
	if form.Unit == "" {
		unit = h.defaultUnit
	}

	result, err := h.garment.ProcessImage(r.Context(), image, filename, form.CategoryID, form.TrueSize, unit)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("garment processing failed")
		respondError(w, r, http.StatusBadGateway, codeUpstream, "garment processing failed")
		return
	}

	respondJSON(w, http.StatusOK, ProcessResponse{
		SizeScale:      result.SizeScale,
		MeasurementVis: result.MeasurementVis,
	})
}
