// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package api

import (
	"context"
	"time"

	"github.com/bouldhq/fitrec/internal/cache"
	"github.com/bouldhq/fitrec/internal/clients"
	"github.com/bouldhq/fitrec/internal/recommend"
	"github.com/bouldhq/fitrec/internal/tryon"
)

// GarmentProcessor is the slice of the garment API client the
// handlers need. Satisfied by *clients.GarmentClient.
type GarmentProcessor interface {
	ProcessImage(ctx context.Context, image []byte, filename string, categoryID int, trueSize, unit string) (clients.ProcessResult, error)
	FetchChart(ctx context.Context, path string) (recommend.RawChart, error)
}

// BodyAnalyzer is the slice of the body API client the handlers need.
// Satisfied by *clients.BodyClient.
type BodyAnalyzer interface {
	Analyze(ctx context.Context, heightCM float64, image []byte, filename string) (recommend.Measurements, error)
}

// Deps carries the collaborators a Handler is built from.
type Deps struct {
	Engine   *recommend.Engine
	Garment  GarmentProcessor
	Body     BodyAnalyzer
	Provider tryon.Provider
	Tasks    *tryon.Store

	// ChartCache holds processed size charts keyed by garment image
	// hash. RecCache holds full recommendation responses. Either may
	// be nil to disable that cache.
	ChartCache cache.Cacher
	RecCache   cache.Cacher

	// DefaultUnit applies when a request omits its unit.
	DefaultUnit string
}

// Handler holds the endpoint implementations. Methods are split
// across files: handlers_health.go, handlers_recommend.go,
// handlers_process.go, handlers_tryon.go.
type Handler struct {
	engine      *recommend.Engine
	garment     GarmentProcessor
	body        BodyAnalyzer
	provider    tryon.Provider
	tasks       *tryon.Store
	chartCache  cache.Cacher
	recCache    cache.Cacher
	defaultUnit string
	startTime   time.Time
}

// NewHandler creates the API handler.
func NewHandler(deps Deps) *Handler {
	unit := deps.DefaultUnit
	if unit == "" {
		unit = recommend.UnitCM
	}
	return &Handler{
		engine:      deps.Engine,
		garment:     deps.Garment,
		body:        deps.Body,
		provider:    deps.Provider,
		tasks:       deps.Tasks,
		chartCache:  deps.ChartCache,
		recCache:    deps.RecCache,
		defaultUnit: unit,
		startTime:   time.Now(),
	}
}
