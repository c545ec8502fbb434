// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package recommend

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidChartType is the single validation error the engine surfaces:
// chart_type was supplied but is neither "garment" nor "body".
var ErrInvalidChartType = errors.New("invalid chart_type")

// metricAliases maps vendor chart key spellings to canonical metric names.
var metricAliases = map[string]string{
	"shoulder_to_shoulder": "shoulder_width",
	"hem":                  "hips",
}

// canonicalMetric lower-cases a metric key and applies vendor aliases.
func canonicalMetric(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	if alias, ok := metricAliases[k]; ok {
		return alias
	}
	return k
}

// normalizeMeasurements rewrites a measurement set with canonical metric
// keys, dropping non-positive lengths. A normalized set never contains
// negative values.
func normalizeMeasurements(m Measurements) Measurements {
	out := make(Measurements, len(m))
	for k, v := range m {
		if v <= 0 {
			continue
		}
		out[canonicalMetric(k)] = v
	}
	return out
}

// resolveChartType validates and defaults the chart_type tag. Absence
// defaults to garment with no error for legacy charts.
func resolveChartType(tag string) (ChartType, error) {
	switch ChartType(strings.ToLower(strings.TrimSpace(tag))) {
	case "":
		return ChartTypeGarment, nil
	case ChartTypeGarment:
		return ChartTypeGarment, nil
	case ChartTypeBody:
		return ChartTypeBody, nil
	default:
		return "", fmt.Errorf("%w: %q (want %q or %q)", ErrInvalidChartType, tag, ChartTypeGarment, ChartTypeBody)
	}
}

// NormalizeChart resolves a raw chart into a single-unit Chart.
//
// Resolution order:
//  1. An explicit dual-unit table matching the requested unit wins
//     (scale_in for inch requests, scale_cm for cm requests).
//  2. Any present dual-unit table is used with its own unit, preferring
//     scale_cm. The caller's body measurements follow the resolved unit.
//  3. The legacy single scale resolves to cm: garment-type values are
//     taken as cm verbatim regardless of the declared unit (documented
//     legacy behavior), body-type values are converted from the declared
//     unit.
//
// Sizes outside the canonical order are dropped; metric keys are
// lower-cased and de-aliased.
func NormalizeChart(raw RawChart, requestedUnit string) (Chart, error) {
	chartType, err := resolveChartType(raw.ChartType)
	if err != nil {
		return Chart{}, err
	}

	want := NormalizeUnit(requestedUnit)

	switch {
	case want == UnitInch && len(raw.ScaleIn) > 0:
		return buildChart(raw.ScaleIn, UnitInch, chartType), nil
	case want == UnitCM && len(raw.ScaleCM) > 0:
		return buildChart(raw.ScaleCM, UnitCM, chartType), nil
	case len(raw.ScaleCM) > 0:
		return buildChart(raw.ScaleCM, UnitCM, chartType), nil
	case len(raw.ScaleIn) > 0:
		return buildChart(raw.ScaleIn, UnitInch, chartType), nil
	}

	// Legacy single-scale path: resolve to cm.
	sizes := make(map[string]Measurements, len(raw.Scale))
	declared := NormalizeUnit(raw.Unit)
	for name, metrics := range raw.Scale {
		size := CanonicalSize(name)
		if size == "" {
			continue
		}
		m := normalizeMeasurements(metrics)
		if chartType == ChartTypeBody && declared == UnitInch {
			m = convertMeasurements(m, UnitInch, UnitCM)
		}
		sizes[size] = m
	}
	return Chart{Unit: UnitCM, Type: chartType, Sizes: sizes}, nil
}

// buildChart normalizes a dual-unit table into a Chart.
func buildChart(scale map[string]Measurements, unit string, chartType ChartType) Chart {
	sizes := make(map[string]Measurements, len(scale))
	for name, metrics := range scale {
		size := CanonicalSize(name)
		if size == "" {
			continue
		}
		sizes[size] = normalizeMeasurements(metrics)
	}
	return Chart{Unit: unit, Type: chartType, Sizes: sizes}
}
