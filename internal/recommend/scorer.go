// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package recommend

import "sort"

// metricWeights ranks metrics by how strongly a mismatch affects fit.
// Chest dominates, waist and hips follow, shoulder width matters for
// tailored cuts, and everything else contributes evenly.
var metricWeights = map[string]float64{
	"chest":          2.0,
	"waist":          1.5,
	"hips":           1.5,
	"shoulder_width": 1.2,
}

// targetEaseCM is the slack, in cm, at which a metric scores best. Chest
// carries the largest ease because garments are cut with substantial room
// there; shoulders fit close to the body.
var targetEaseCM = map[string]float64{
	"chest":          6.0,
	"waist":          4.0,
	"hips":           4.0,
	"shoulder_width": 1.5,
}

const (
	defaultWeight    = 1.0
	defaultEaseCM    = 2.0
	lowerWaistEaseCM = 2.0
)

func metricWeight(metric string) float64 {
	if w, ok := metricWeights[metric]; ok {
		return w
	}
	return defaultWeight
}

// metricEaseCM returns the target ease for a metric in cm. Waist ease is
// tighter for lower-body garments, which sit on the waist rather than
// draping over it.
func metricEaseCM(metric string, group CategoryGroup) float64 {
	if metric == "waist" && group == GroupLower {
		return lowerWaistEaseCM
	}
	if e, ok := targetEaseCM[metric]; ok {
		return e
	}
	return defaultEaseCM
}

// ScoreDetail is the outcome of scoring one chart size against a body.
type ScoreDetail struct {
	// Score is the total weighted penalty; lower is better.
	Score float64
	// Slacks maps each scored metric to garment minus body, in the
	// calculation unit.
	Slacks map[string]float64
	// Missing lists relevant metrics absent from either side.
	Missing []string
	// Scored lists the metrics that contributed measured penalties.
	Scored []string
}

// scoreSize computes the asymmetric fit penalty of one garment size.
// Deviations from the target ease are penalized per cm: tightness beyond
// tolerance at TightFactor, snugness below ease at SnugFactor, looseness
// at LooseFactor, each scaled by the metric weight. Metrics missing from
// either side incur MissingPenalty times the weight, so incomplete data
// degrades a size rather than silently favoring it.
func scoreSize(cfg *Config, metrics []string, body, garment Measurements, group CategoryGroup, unit string) ScoreDetail {
	detail := ScoreDetail{
		Slacks: make(map[string]float64, len(metrics)),
	}
	for _, metric := range metrics {
		bodyVal, haveBody := body[metric]
		garmentVal, haveGarment := garment[metric]
		if !haveBody || !haveGarment {
			detail.Missing = append(detail.Missing, metric)
			detail.Score += cfg.MissingPenalty * metricWeight(metric)
			continue
		}

		slack := garmentVal - bodyVal
		slackCM := ToCM(slack, unit)
		ease := metricEaseCM(metric, group)
		devCM := slackCM - ease

		weight := metricWeight(metric)
		var penalty float64
		switch {
		case devCM < 0 && slackCM < -cfg.TightToleranceCM:
			// Garment smaller than the body: wearing it is painful or
			// impossible, so the deficit dominates the score.
			penalty = -slackCM * cfg.TightFactor * weight
		case devCM < 0:
			penalty = -devCM * cfg.SnugFactor * weight
		default:
			penalty = devCM * cfg.LooseFactor * weight
		}

		detail.Score += penalty
		detail.Slacks[metric] = slack
		detail.Scored = append(detail.Scored, metric)
	}
	sort.Strings(detail.Missing)
	sort.Strings(detail.Scored)
	return detail
}
