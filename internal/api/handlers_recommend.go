// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package api

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/bouldhq/fitrec/internal/cache"
	"github.com/bouldhq/fitrec/internal/logging"
	"github.com/bouldhq/fitrec/internal/metrics"
	"github.com/bouldhq/fitrec/internal/middleware"
	"github.com/bouldhq/fitrec/internal/recommend"
	"github.com/bouldhq/fitrec/internal/validation"
)

// maxUploadBytes bounds the multipart form held in memory per request.
const maxUploadBytes = 32 << 20

// recommendForm is the validated field set of POST /v1/recommend.
// Images and JSON blobs are checked separately after decoding.
type recommendForm struct {
	CategoryID int     `validate:"required,gte=1,lte=13"`
	TrueSize   string  `validate:"required,sizename"`
	Unit       string  `validate:"omitempty,unit"`
	Tone       string  `validate:"omitempty,tone"`
	Height     float64 `validate:"omitempty,gt=0,lt=300"`
}

// Recommend answers POST /v1/recommend. The request is multipart:
// a garment photo plus either a measurements_json blob or a user
// photo with a height for body analysis.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logging.Ctx(ctx)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, r, http.StatusUnsupportedMediaType, codeUnsupported, "expected multipart form data")
		return
	}

	form, ok := h.parseRecommendForm(w, r)
	if !ok {
		return
	}

	body, ok := h.resolveBody(w, r, form)
	if !ok {
		return
	}

	garmentImage, garmentName, ok := readFormFile(w, r, "garment_image", true)
	if !ok {
		return
	}

	unit := recommend.NormalizeUnit(form.Unit)
	if form.Unit == "" {
		unit = h.defaultUnit
	}

	chart, ok := h.resolveChart(w, r, garmentImage, garmentName, form, unit)
	if !ok {
		return
	}

	brandChart, ok := parseBrandChart(w, r)
	if !ok {
		return
	}

	req := recommend.Request{
		Body:       body,
		BodyUnit:   unit,
		Chart:      chart,
		BrandChart: brandChart,
		CategoryID: form.CategoryID,
		Unit:       unit,
		Tone:       form.Tone,
		HeightCM:   form.Height,
		Debug:      r.FormValue("debug") == "true",
		RequestID:  middleware.GetRequestID(ctx),
	}

	// Identical inputs give identical results, so non-debug responses
	// are served from cache when one is configured.
	var recKey string
	if h.recCache != nil && !req.Debug {
		// The request ID changes every call; it must not shape the key.
		keyed := req
		keyed.RequestID = ""
		recKey = cache.GenerateKey("recommendation", keyed)
		if cached, hit := h.recCache.Get(recKey); hit {
			if result, isResult := cached.(*recommend.Result); isResult {
				respondJSON(w, http.StatusOK, result)
				return
			}
		}
	}

	result, err := h.engine.Recommend(ctx, req)
	if err != nil {
		if errors.Is(err, recommend.ErrInvalidChartType) {
			respondError(w, r, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("recommendation failed")
		respondError(w, r, http.StatusInternalServerError, codeInternal, "recommendation failed")
		return
	}

	guardrail := false
	for _, reason := range result.Reasons {
		if reason == recommend.ReasonGuardrailApplied {
			guardrail = true
			break
		}
	}
	metrics.RecordRecommendation(result.RecommendedSize, result.Confidence, guardrail, time.Since(start))

	if recKey != "" {
		h.recCache.Set(recKey, result)
	}

	respondJSON(w, http.StatusOK, result)
}

// parseRecommendForm extracts and validates the scalar form fields.
// It writes the error response itself and reports success.
func (h *Handler) parseRecommendForm(w http.ResponseWriter, r *http.Request) (recommendForm, bool) {
	var form recommendForm

	if raw := r.FormValue("category_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, codeValidation, "category_id must be an integer")
			return form, false
		}
		form.CategoryID = id
	}
	if raw := r.FormValue("height"); raw != "" {
		height, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, codeValidation, "height must be a number")
			return form, false
		}
		form.Height = height
	}
	form.TrueSize = r.FormValue("true_size")
	form.Unit = r.FormValue("unit")
	form.Tone = r.FormValue("tone")

	if verr := validation.ValidateStruct(&form); verr != nil {
		respondValidationError(w, r, verr)
		return form, false
	}
	return form, true
}

// resolveBody produces the shopper's measurements, either from the
// measurements_json field or by analyzing a user photo.
func (h *Handler) resolveBody(w http.ResponseWriter, r *http.Request, form recommendForm) (recommend.Measurements, bool) {
	if raw := r.FormValue("measurements_json"); raw != "" {
		var body recommend.Measurements
		if err := json.Unmarshal([]byte(raw), &body); err != nil {
			respondError(w, r, http.StatusBadRequest, codeBadRequest, "measurements_json is not a valid measurement map")
			return nil, false
		}
		if len(body) == 0 {
			respondError(w, r, http.StatusBadRequest, codeBadRequest, "measurements_json must not be empty")
			return nil, false
		}
		return body, true
	}

	image, filename, ok := readFormFile(w, r, "user_image", false)
	if !ok {
		return nil, false
	}
	if image == nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, "either measurements_json or user_image is required")
		return nil, false
	}
	if form.Height <= 0 {
		respondError(w, r, http.StatusBadRequest, codeValidation, "height is required with user_image")
		return nil, false
	}
	if h.body == nil {
		respondError(w, r, http.StatusBadGateway, codeUpstream, "body analysis is not configured")
		return nil, false
	}

	body, err := h.body.Analyze(r.Context(), form.Height, image, filename)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("body analysis failed")
		respondError(w, r, http.StatusBadGateway, codeUpstream, "body analysis failed")
		return nil, false
	}
	return body, true
}

// resolveChart maps a garment photo to its size chart, processing the
// image upstream on a cache miss.
func (h *Handler) resolveChart(w http.ResponseWriter, r *http.Request, image []byte, filename string, form recommendForm, unit string) (recommend.RawChart, bool) {
	ctx := r.Context()

	var key string
	if h.chartCache != nil {
		hash := sha256.Sum256(image)
		key = cache.GenerateKey("chart", struct {
			Hash       string `json:"hash"`
			CategoryID int    `json:"category_id"`
			TrueSize   string `json:"true_size"`
			Unit       string `json:"unit"`
		}{fmt.Sprintf("%x", hash), form.CategoryID, form.TrueSize, unit})

		if cached, hit := h.chartCache.Get(key); hit {
			if chart, isChart := cached.(recommend.RawChart); isChart {
				return chart, true
			}
		}
	}

	processed, err := h.garment.ProcessImage(ctx, image, filename, form.CategoryID, form.TrueSize, unit)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("garment processing failed")
		respondError(w, r, http.StatusBadGateway, codeUpstream, "garment processing failed")
		return recommend.RawChart{}, false
	}

	chart, err := h.garment.FetchChart(ctx, processed.SizeScale)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("path", processed.SizeScale).Msg("chart fetch failed")
		respondError(w, r, http.StatusBadGateway, codeUpstream, "size chart fetch failed")
		return recommend.RawChart{}, false
	}

	if key != "" {
		h.chartCache.Set(key, chart)
	}
	return chart, true
}

// parseBrandChart decodes the optional brand_chart_json field.
func parseBrandChart(w http.ResponseWriter, r *http.Request) (*recommend.RawChart, bool) {
	raw := r.FormValue("brand_chart_json")
	if raw == "" {
		return nil, true
	}
	var chart recommend.RawChart
	if err := json.Unmarshal([]byte(raw), &chart); err != nil {
		respondError(w, r, http.StatusBadRequest, codeBadRequest, "brand_chart_json is not a valid size chart")
		return nil, false
	}
	return &chart, true
}

// readFormFile reads one uploaded file fully into memory. A missing
// file is an error only when required; otherwise (nil, "", true).
func readFormFile(w http.ResponseWriter, r *http.Request, field string, required bool) ([]byte, string, bool) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		if required {
			respondError(w, r, http.StatusBadRequest, codeValidation, field+" file is required")
			return nil, "", false
		}
		return nil, "", true
	}
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeBadRequest, "malformed "+field+" upload")
		return nil, "", false
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeBadRequest, "reading "+field+" failed")
		return nil, "", false
	}
	return data, header.Filename, true
}
