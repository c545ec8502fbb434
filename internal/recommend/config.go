// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package recommend

import "fmt"

// Config holds the engine's scoring and selection parameters. The zero
// value is not usable; start from DefaultConfig.
type Config struct {
	// DefaultUnit is the calculation unit when a request does not state
	// one ("cm" or "inch").
	DefaultUnit string `koanf:"default_unit" json:"default_unit"`

	// TightToleranceCM is how far below the body a garment may measure
	// before the severe tightness penalty applies.
	TightToleranceCM float64 `koanf:"tight_tolerance_cm" json:"tight_tolerance_cm"`

	// TightFactor multiplies per-cm deficits when the garment is smaller
	// than the body beyond tolerance.
	TightFactor float64 `koanf:"tight_factor" json:"tight_factor"`

	// SnugFactor multiplies per-cm deviations when slack is positive but
	// below the target ease.
	SnugFactor float64 `koanf:"snug_factor" json:"snug_factor"`

	// LooseFactor multiplies per-cm deviations beyond the target ease.
	LooseFactor float64 `koanf:"loose_factor" json:"loose_factor"`

	// MissingPenalty is the flat per-metric penalty (scaled by the metric
	// weight) when a relevant metric is absent from either side.
	MissingPenalty float64 `koanf:"missing_penalty" json:"missing_penalty"`

	// RangeDiscount multiplies scores of sizes inside the height-derived
	// band, reinforcing the hard range restriction.
	RangeDiscount float64 `koanf:"range_discount" json:"range_discount"`

	// GuardrailConfidenceFactor multiplies confidence when the guardrail
	// overrides the scored selection.
	GuardrailConfidenceFactor float64 `koanf:"guardrail_confidence_factor" json:"guardrail_confidence_factor"`

	// MissingCriticalFactor multiplies confidence once per critical
	// metric (chest, waist, hips) absent from the final slack map.
	MissingCriticalFactor float64 `koanf:"missing_critical_factor" json:"missing_critical_factor"`

	// CriticalSlackCM is the per-metric tightness (in cm, negative) below
	// which confidence is degraded once more: the body likely does not
	// match the chart at all.
	CriticalSlackCM float64 `koanf:"critical_slack_cm" json:"critical_slack_cm"`
}

// DefaultConfig returns the production scoring parameters.
func DefaultConfig() *Config {
	return &Config{
		DefaultUnit:               UnitCM,
		TightToleranceCM:          1.0,
		TightFactor:               10.0,
		SnugFactor:                2.0,
		LooseFactor:               1.0,
		MissingPenalty:            50.0,
		RangeDiscount:             0.95,
		GuardrailConfidenceFactor: 0.85,
		MissingCriticalFactor:     0.8,
		CriticalSlackCM:           -2.0,
	}
}

// Validate checks parameter sanity.
func (c *Config) Validate() error {
	if u := NormalizeUnit(c.DefaultUnit); u != UnitCM && u != UnitInch {
		return fmt.Errorf("default_unit %q is not a known unit", c.DefaultUnit)
	}
	if c.TightToleranceCM < 0 {
		return fmt.Errorf("tight_tolerance_cm must be >= 0, got %v", c.TightToleranceCM)
	}
	if c.TightFactor <= 0 || c.SnugFactor <= 0 || c.LooseFactor <= 0 {
		return fmt.Errorf("penalty factors must be positive")
	}
	if c.TightFactor < c.SnugFactor || c.SnugFactor < c.LooseFactor {
		return fmt.Errorf("penalty factors must order tight >= snug >= loose")
	}
	if c.MissingPenalty < 0 {
		return fmt.Errorf("missing_penalty must be >= 0, got %v", c.MissingPenalty)
	}
	if c.RangeDiscount <= 0 || c.RangeDiscount > 1 {
		return fmt.Errorf("range_discount must be in (0,1], got %v", c.RangeDiscount)
	}
	if c.GuardrailConfidenceFactor <= 0 || c.GuardrailConfidenceFactor > 1 {
		return fmt.Errorf("guardrail_confidence_factor must be in (0,1], got %v", c.GuardrailConfidenceFactor)
	}
	if c.MissingCriticalFactor <= 0 || c.MissingCriticalFactor > 1 {
		return fmt.Errorf("missing_critical_factor must be in (0,1], got %v", c.MissingCriticalFactor)
	}
	if c.CriticalSlackCM >= 0 {
		return fmt.Errorf("critical_slack_cm must be negative, got %v", c.CriticalSlackCM)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	return &out
}
