// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package recommend

import "context"

// Measurements maps lower-cased metric names (chest, waist, hips,
// shoulder_width, sleeve_length, inseam, thigh, length, ...) to lengths.
// All values in one Measurements instance share a single unit; the unit is
// tracked separately, never embedded per key.
type Measurements map[string]float64

// Clone returns a deep copy of the measurement set.
func (m Measurements) Clone() Measurements {
	out := make(Measurements, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ChartType distinguishes charts expressed as finished-garment
// measurements (ease included) from body-equivalent measurements.
type ChartType string

const (
	// ChartTypeGarment marks a chart of finished-garment measurements.
	ChartTypeGarment ChartType = "garment"
	// ChartTypeBody marks a chart of body-equivalent measurements.
	ChartTypeBody ChartType = "body"
)

// RawChart is the wire shape of a garment or brand size chart as supplied
// by upstream services. Charts may declare a single legacy scale with a
// unit, or explicit dual-unit tables which take precedence when present.
type RawChart struct {
	// Unit is the declared unit of the legacy Scale table.
	Unit string `json:"unit,omitempty"`

	// ChartType is "garment" (includes ease) or "body"; empty defaults
	// to "garment" for legacy compatibility.
	ChartType string `json:"chart_type,omitempty"`

	// TrueSize is the vendor-declared reference size, informational only.
	TrueSize string `json:"true_size,omitempty"`

	// Scale is the legacy single-unit size table.
	Scale map[string]Measurements `json:"scale,omitempty"`

	// ScaleCM and ScaleIn are the explicit dual-unit tables.
	ScaleCM map[string]Measurements `json:"scale_cm,omitempty"`
	ScaleIn map[string]Measurements `json:"scale_in,omitempty"`
}

// Chart is a size chart resolved into exactly one unit with normalized
// metric keys. Sizes are a subset of the canonical order.
type Chart struct {
	// Unit is the resolved calculation unit, UnitCM or UnitInch.
	Unit string

	// Type is the resolved chart type (garment by default).
	Type ChartType

	// Sizes maps canonical size names to normalized measurements.
	Sizes map[string]Measurements
}

// FirstSize returns the measurements of the first size present in
// canonical order, or nil for an empty chart.
func (c Chart) FirstSize() Measurements {
	for _, size := range SizeOrder {
		if m, ok := c.Sizes[size]; ok {
			return m
		}
	}
	return nil
}

// Request carries one recommendation call's inputs.
type Request struct {
	// Body is the shopper's measurement set in BodyUnit.
	Body Measurements `json:"body"`

	// BodyUnit is the unit Body was supplied in. Empty means the
	// requested calculation unit.
	BodyUnit string `json:"body_unit,omitempty"`

	// Chart is the garment-derived size chart.
	Chart RawChart `json:"chart"`

	// BrandChart, when present, takes precedence over Chart.
	BrandChart *RawChart `json:"brand_chart,omitempty"`

	// CategoryID is the garment category identifier.
	CategoryID int `json:"category_id"`

	// Unit is the requested calculation unit ("cm" or "inch" aliases).
	// Empty falls back to the engine's default unit.
	Unit string `json:"unit,omitempty"`

	// Tone is the caller's fit preference (e.g. "regular", "tight").
	Tone string `json:"tone,omitempty"`

	// HeightCM enables the height range constraint and guardrail when
	// greater than zero.
	HeightCM float64 `json:"height_cm,omitempty"`

	// Debug requests the structured diagnostic payload.
	Debug bool `json:"debug,omitempty"`

	// RequestID is a unique identifier for tracing.
	RequestID string `json:"request_id,omitempty"`
}

// Reason codes recorded on a Result. They explain non-obvious decisions
// during triage and are stable identifiers, not display text.
const (
	// ReasonGuardrailApplied: the height guardrail floor replaced the
	// scored selection.
	ReasonGuardrailApplied = "height_guardrail_applied"

	// ReasonTightFitOverride: the guardrail floor would have applied but
	// the caller requested a tight fit, so the scored selection stands.
	ReasonTightFitOverride = "tight_fit_override"

	// ReasonRangeFallback: the height range excluded every chart size and
	// candidates were widened to the full canonical order.
	ReasonRangeFallback = "height_range_no_overlap"

	// ReasonConfidenceWarning: final confidence below 0.5.
	ReasonConfidenceWarning = "confidence_warning"

	// ReasonLowConfidence: final confidence below 0.3.
	ReasonLowConfidence = "low_confidence"
)

// Result is the outcome of one recommendation call. It is immutable after
// construction and never persisted.
type Result struct {
	// RecommendedSize is a key of the supplied chart, or empty when the
	// chart held no known sizes.
	RecommendedSize string `json:"recommended_size"`

	// Confidence is clamped to [0,1] and rounded to three decimals.
	Confidence float64 `json:"confidence"`

	// Slacks maps metric names to garment-minus-body differences in Unit.
	// Negative means tighter than the body.
	Slacks map[string]float64 `json:"slacks"`

	// Unit is the calculation unit the slacks are expressed in.
	Unit string `json:"unit"`

	// TailorFeedback mirrors FinalFeedback for backward compatibility.
	TailorFeedback string `json:"tailor_feedback"`

	// PreviewFeedback is a short list of per-area fit sentences.
	PreviewFeedback []string `json:"preview_feedback"`

	// FinalFeedback is the assembled fit narrative.
	FinalFeedback string `json:"final_feedback"`

	// Reasons lists the reason codes recorded during selection.
	Reasons []string `json:"reasons,omitempty"`

	// Debug is present only when Request.Debug was set.
	Debug *DebugInfo `json:"debug,omitempty"`
}

// DebugInfo exposes everything required to reproduce a decision during
// triage.
type DebugInfo struct {
	Unit             string                        `json:"unit"`
	ChartType        string                        `json:"chart_type"`
	Body             Measurements                  `json:"body"`
	SizeMetrics      map[string][]string           `json:"size_metrics"`
	SizeSlacks       map[string]map[string]float64 `json:"size_slacks"`
	SizeScores       map[string]float64            `json:"size_scores"`
	ChosenSize       string                        `json:"chosen_size"`
	ChosenScore      float64                       `json:"chosen_score"`
	Confidence       float64                       `json:"confidence"`
	Reasons          []string                      `json:"reasons"`
	HeightCM         float64                       `json:"height_cm,omitempty"`
	HeightRange      []string                      `json:"height_range,omitempty"`
	GuardrailApplied bool                          `json:"guardrail_applied"`
	GuardrailFloor   string                        `json:"guardrail_floor,omitempty"`
	RelevantMetrics  []string                      `json:"relevant_metrics"`
	CategoryID       int                           `json:"category_id"`
}

// FeedbackInput is handed to the FeedbackGenerator collaborator.
type FeedbackInput struct {
	CategoryID int                `json:"category_id"`
	Body       Measurements       `json:"body"`
	Garment    Measurements       `json:"garment"`
	Slacks     map[string]float64 `json:"slacks"`
	Size       string             `json:"size"`
	Tone       string             `json:"tone,omitempty"`
	Unit       string             `json:"unit"`
}

// Feedback is the FeedbackGenerator's product.
type Feedback struct {
	// Final is the assembled fit narrative.
	Final string `json:"final"`

	// Preview is a short list of per-area sentences.
	Preview []string `json:"preview"`
}

// FeedbackGenerator produces human-readable fit feedback for a chosen
// size. Implementations must not let internal failures escape: any error
// or malformed upstream answer becomes the documented fallback text. The
// engine still guards its side of the contract and substitutes the
// deterministic fallback if an implementation returns an error anyway.
type FeedbackGenerator interface {
	// Generate returns preview sentences and a final narrative.
	Generate(ctx context.Context, in FeedbackInput) (Feedback, error)
}
