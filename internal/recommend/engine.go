// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// criticalMetrics degrade confidence when absent from the final slack map
// or when severely tight.
var criticalMetrics = []string{"chest", "waist", "hips"}

// tightTones are fit preferences that veto the height guardrail.
var tightTones = map[string]bool{
	"tight":  true,
	"slim":   true,
	"fitted": true,
}

// Engine produces size recommendations. It is stateless per call: the
// only suspension point is the feedback collaborator, so concurrent
// Recommend calls are fully independent.
type Engine struct {
	cfg      *Config
	log      zerolog.Logger
	feedback FeedbackGenerator
}

// NewEngine creates a recommendation engine. A nil config selects
// DefaultConfig. A nil generator leaves every result with the
// deterministic fallback narrative.
func NewEngine(cfg *Config, logger zerolog.Logger, gen FeedbackGenerator) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Engine{
		cfg:      cfg.Clone(),
		log:      logger.With().Str("component", "recommend").Logger(),
		feedback: gen,
	}, nil
}

// Recommend runs one size recommendation. The only error it returns is
// the chart_type validation failure; every other degradation (missing
// metrics, empty height range, feedback collaborator failure) is absorbed
// into the result's confidence, reason codes, or fallback narrative.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Result, error) {
	calcUnit := req.Unit
	if strings.TrimSpace(calcUnit) == "" {
		calcUnit = e.cfg.DefaultUnit
	}

	raw := req.Chart
	if req.BrandChart != nil {
		raw = *req.BrandChart
	}
	chart, err := NormalizeChart(raw, calcUnit)
	if err != nil {
		return nil, fmt.Errorf("normalize chart: %w", err)
	}

	bodyUnit := req.BodyUnit
	if strings.TrimSpace(bodyUnit) == "" {
		bodyUnit = calcUnit
	}
	body := convertMeasurements(normalizeMeasurements(req.Body), bodyUnit, chart.Unit)

	if len(chart.Sizes) == 0 {
		e.log.Warn().Str("request_id", req.RequestID).Msg("chart has no known sizes")
		fb := fallbackFeedback(FeedbackInput{Unit: chart.Unit})
		return &Result{
			Confidence:      0,
			Slacks:          map[string]float64{},
			Unit:            chart.Unit,
			TailorFeedback:  fb.Final,
			PreviewFeedback: fb.Preview,
			FinalFeedback:   fb.Final,
		}, nil
	}

	categoryID := resolveCategory(req.CategoryID, chart.FirstSize())
	metrics := MetricsForCategory(categoryID)
	group := CategoryGroupFor(categoryID)

	var (
		hasRange bool
		hr       HeightRange
	)
	if req.HeightCM > 0 {
		hasRange = true
		hr = heightRangeFor(req.HeightCM, body, chart.Unit)
	}

	var (
		chosen     string
		bestDetail ScoreDetail
		bestScore  = math.MaxFloat64
		scoredAny  bool
		reasons    []string

		// pureBest is the winner over the whole chart, ignoring the
		// height restriction. The guardrail is judged against it: when
		// unconstrained scoring would have landed below the floor, the
		// height enforcement is what changed the outcome.
		pureBest      string
		pureBestScore = math.MaxFloat64

		sizeScores  = make(map[string]float64, len(chart.Sizes))
		sizeSlacks  = make(map[string]map[string]float64, len(chart.Sizes))
		sizeMetrics = make(map[string][]string, len(chart.Sizes))
	)

	for _, size := range SizeOrder {
		garment, ok := chart.Sizes[size]
		if !ok {
			continue
		}

		detail := scoreSize(e.cfg, metrics, body, garment, group, chart.Unit)

		// Strict inequality keeps the first (smallest) size on ties.
		if detail.Score < pureBestScore {
			pureBest, pureBestScore = size, detail.Score
		}

		inRange := !hasRange || sizeInRange(size, hr.Min, hr.Max)
		score := detail.Score
		if hasRange && inRange {
			score *= e.cfg.RangeDiscount
		}

		sizeScores[size] = score
		sizeSlacks[size] = detail.Slacks
		sizeMetrics[size] = detail.Scored

		// Sizes outside the height range are diagnosed but never selected.
		if !inRange {
			continue
		}
		if score < bestScore {
			chosen, bestScore, bestDetail = size, score, detail
		}
		scoredAny = true
	}

	if !scoredAny {
		// The height range excluded every chart size. Fall back to the
		// first chart size in canonical order, with no slack evidence.
		reasons = append(reasons, ReasonRangeFallback)
		for _, size := range SizeOrder {
			if _, ok := chart.Sizes[size]; ok {
				chosen = size
				break
			}
		}
		bestScore = 0
		bestDetail = ScoreDetail{Slacks: map[string]float64{}}
	}

	confidence := clamp(1-bestScore/100, 0, 1)
	for _, metric := range criticalMetrics {
		if _, ok := bestDetail.Slacks[metric]; !ok {
			confidence *= e.cfg.MissingCriticalFactor
		}
	}
	for _, metric := range criticalMetrics {
		if slack, ok := bestDetail.Slacks[metric]; ok && ToCM(slack, chart.Unit) < e.cfg.CriticalSlackCM {
			confidence *= e.cfg.MissingCriticalFactor
			break
		}
	}

	var (
		guardApplied bool
		guardFloor   string
	)
	if req.HeightCM > 0 {
		if g := guardrailFor(req.HeightCM); g != nil {
			guardFloor = g.floor
			if SizeLess(pureBest, g.floor) {
				// Unconstrained scoring landed below the floor, so the
				// height enforcement is binding.
				if tightTones[strings.ToLower(strings.TrimSpace(req.Tone))] {
					reasons = append(reasons, ReasonTightFitOverride)
				} else {
					if SizeLess(chosen, g.floor) {
						if target := promoteToFloor(g, &chart, chosen); target != chosen {
							detail := scoreSize(e.cfg, metrics, body, chart.Sizes[target], group, chart.Unit)
							score := detail.Score
							if hasRange && sizeInRange(target, hr.Min, hr.Max) {
								score *= e.cfg.RangeDiscount
							}
							sizeScores[target] = score
							sizeSlacks[target] = detail.Slacks
							sizeMetrics[target] = detail.Scored
							chosen, bestScore, bestDetail = target, score, detail
						}
					}
					confidence *= e.cfg.GuardrailConfidenceFactor
					guardApplied = true
					reasons = append(reasons, ReasonGuardrailApplied)
					if !bodyMeetsMinimums(g, body, chart.Unit) {
						e.log.Debug().
							Str("request_id", req.RequestID).
							Str("floor", g.floor).
							Msg("guardrail enforced below its body minimums")
					}
				}
			}
		}
	}

	confidence = round3(confidence)
	if confidence < 0.5 {
		reasons = append(reasons, ReasonConfidenceWarning)
	}
	if confidence < 0.3 {
		reasons = append(reasons, ReasonLowConfidence)
	}

	fbIn := FeedbackInput{
		CategoryID: categoryID,
		Body:       body,
		Garment:    chart.Sizes[chosen],
		Slacks:     bestDetail.Slacks,
		Size:       chosen,
		Tone:       req.Tone,
		Unit:       chart.Unit,
	}
	fb := e.generateFeedback(ctx, req.RequestID, fbIn)

	result := &Result{
		RecommendedSize: chosen,
		Confidence:      confidence,
		Slacks:          bestDetail.Slacks,
		Unit:            chart.Unit,
		TailorFeedback:  fb.Final,
		PreviewFeedback: fb.Preview,
		FinalFeedback:   fb.Final,
		Reasons:         reasons,
	}
	if result.Slacks == nil {
		result.Slacks = map[string]float64{}
	}

	if req.Debug {
		dbg := &DebugInfo{
			Unit:             chart.Unit,
			ChartType:        string(chart.Type),
			Body:             body,
			SizeMetrics:      sizeMetrics,
			SizeSlacks:       sizeSlacks,
			SizeScores:       sizeScores,
			ChosenSize:       chosen,
			ChosenScore:      bestScore,
			Confidence:       confidence,
			Reasons:          reasons,
			HeightCM:         req.HeightCM,
			GuardrailApplied: guardApplied,
			GuardrailFloor:   guardFloor,
			RelevantMetrics:  metrics,
			CategoryID:       categoryID,
		}
		if hasRange {
			dbg.HeightRange = []string{hr.Min, hr.Max}
		}
		result.Debug = dbg
	}

	e.log.Debug().
		Str("request_id", req.RequestID).
		Str("size", chosen).
		Float64("confidence", confidence).
		Strs("reasons", reasons).
		Msg("recommendation computed")

	return result, nil
}

// generateFeedback calls the collaborator and substitutes the
// deterministic fallback on any failure, including context cancellation.
// A recommendation never fails because feedback generation failed.
func (e *Engine) generateFeedback(ctx context.Context, requestID string, in FeedbackInput) Feedback {
	if e.feedback == nil {
		return fallbackFeedback(in)
	}
	fb, err := e.feedback.Generate(ctx, in)
	if err != nil {
		e.log.Warn().
			Err(err).
			Str("request_id", requestID).
			Msg("feedback generator failed, using fallback narrative")
		return fallbackFeedback(in)
	}
	if fb.Final == "" {
		return fallbackFeedback(in)
	}
	return fb
}

// fallbackFeedback builds the deterministic narrative used when the
// feedback collaborator is absent, failing, or cancelled.
func fallbackFeedback(in FeedbackInput) Feedback {
	if in.Size == "" {
		return Feedback{
			Final: "We could not determine a fit from the provided size chart.",
		}
	}

	var tight, loose []string
	for metric, slack := range in.Slacks {
		switch {
		case ToCM(slack, in.Unit) < 0:
			tight = append(tight, strings.ReplaceAll(metric, "_", " "))
		case ToCM(slack, in.Unit) > 8:
			loose = append(loose, strings.ReplaceAll(metric, "_", " "))
		}
	}
	sort.Strings(tight)
	sort.Strings(loose)

	var preview []string
	var b strings.Builder
	fmt.Fprintf(&b, "Size %s is the closest match for your measurements.", in.Size)
	if len(tight) > 0 {
		preview = append(preview, fmt.Sprintf("Expect a close fit around the %s.", strings.Join(tight, " and ")))
		fmt.Fprintf(&b, " It will sit close around the %s.", strings.Join(tight, " and "))
	}
	if len(loose) > 0 {
		preview = append(preview, fmt.Sprintf("Expect a relaxed fit around the %s.", strings.Join(loose, " and ")))
		fmt.Fprintf(&b, " It will drape loosely around the %s.", strings.Join(loose, " and "))
	}
	if len(preview) == 0 {
		preview = append(preview, "Expect a comfortable overall fit.")
	}
	return Feedback{Final: b.String(), Preview: preview}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// round3 rounds to three decimals for the response contract.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
