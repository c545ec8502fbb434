// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package recommend

// HeightRange bounds the plausible sizes for a stature, inclusive on
// both ends in canonical size order.
type HeightRange struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// leanChestRatio and leanWaistRatio separate lean tall builds from broad
// ones; both body ratios must fall below the cutoffs (cm over cm).
const (
	leanChestRatio = 0.53
	leanWaistRatio = 0.45
)

// heightRangeFor returns the inclusive size band for a height in cm.
// Tall statures split on build: a lean frame stays a band lower than a
// broad one at the same height.
func heightRangeFor(heightCM float64, body Measurements, bodyUnit string) HeightRange {
	switch {
	case heightCM < 165:
		return HeightRange{Min: "XS", Max: "S"}
	case heightCM < 170:
		return HeightRange{Min: "S", Max: "L"}
	case heightCM < 178:
		return HeightRange{Min: "M", Max: "L"}
	case heightCM < 188:
		return HeightRange{Min: "L", Max: "XL"}
	default:
		if isLeanBuild(heightCM, body, bodyUnit) {
			return HeightRange{Min: "L", Max: "XL"}
		}
		return HeightRange{Min: "XL", Max: "XXL"}
	}
}

// isLeanBuild reports whether chest and waist are both proportionally
// small for the stature. Missing metrics fail the test: without evidence
// of a lean frame, a tall body is treated as broad.
func isLeanBuild(heightCM float64, body Measurements, bodyUnit string) bool {
	chest, ok := body["chest"]
	if !ok {
		return false
	}
	waist, ok := body["waist"]
	if !ok {
		return false
	}
	chestCM := ToCM(chest, bodyUnit)
	waistCM := ToCM(waist, bodyUnit)
	return chestCM/heightCM < leanChestRatio && waistCM/heightCM < leanWaistRatio
}

// guardrail is a minimum-size floor for tall statures, dropped when the
// chart's garments are generously cut at the floor size.
type guardrail struct {
	heightCM    float64
	floor       string
	minChestCM  float64
	minShoulCM  float64
}

// guardrails are ordered ascending by threshold; the highest threshold
// at or below the body height wins.
var guardrails = []guardrail{
	{heightCM: 183, floor: "L", minChestCM: 95, minShoulCM: 42},
	{heightCM: 190, floor: "XL", minChestCM: 98, minShoulCM: 44},
}

// guardrailFor returns the floor applicable to a height, or nil.
func guardrailFor(heightCM float64) *guardrail {
	var match *guardrail
	for i := range guardrails {
		if heightCM >= guardrails[i].heightCM {
			match = &guardrails[i]
		}
	}
	return match
}

// bodyMeetsMinimums reports whether the body's chest and shoulder width
// reach the guardrail's minimums. The floor is enforced either way; this
// only shapes the explanation attached to the override.
func bodyMeetsMinimums(g *guardrail, body Measurements, unit string) bool {
	if chest, ok := body["chest"]; ok && ToCM(chest, unit) < g.minChestCM {
		return false
	}
	if shoulder, ok := body["shoulder_width"]; ok && ToCM(shoulder, unit) < g.minShoulCM {
		return false
	}
	return true
}

// promoteToFloor picks the size a guardrail override lands on: the floor
// itself when the chart has it, otherwise the smallest chart size at or
// above the floor. Charts with nothing at or above the floor keep the
// original choice.
func promoteToFloor(g *guardrail, chart *Chart, original string) string {
	if _, ok := chart.Sizes[g.floor]; ok {
		return g.floor
	}
	floorIdx := SizeIndex(g.floor)
	best := ""
	bestIdx := -1
	for size := range chart.Sizes {
		idx := SizeIndex(size)
		if idx < floorIdx {
			continue
		}
		if bestIdx == -1 || idx < bestIdx {
			best, bestIdx = size, idx
		}
	}
	if best == "" {
		return original
	}
	return best
}
