// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package recommend

import "strings"

// Calculation units.
const (
	UnitCM   = "cm"
	UnitInch = "inch"
)

// cmPerInch is exact by definition of the international inch.
const cmPerInch = 2.54

// NormalizeUnit maps a unit string to UnitCM or UnitInch,
// case-insensitively. Unknown or empty unit strings resolve to UnitCM;
// permissive by contract, not a validation failure.
func NormalizeUnit(unit string) string {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "inch", "inches", "in":
		return UnitInch
	case "cm", "centimeter", "centimeters":
		return UnitCM
	default:
		return UnitCM
	}
}

// ToCM converts a length from the given unit to centimeters.
func ToCM(value float64, unit string) float64 {
	if NormalizeUnit(unit) == UnitInch {
		return value * cmPerInch
	}
	return value
}

// FromCM converts a length from centimeters to the given unit.
func FromCM(value float64, unit string) float64 {
	if NormalizeUnit(unit) == UnitInch {
		return value / cmPerInch
	}
	return value
}

// ConvertUnit converts a length between two units.
func ConvertUnit(value float64, from, to string) float64 {
	return FromCM(ToCM(value, from), to)
}

// convertMeasurements converts every value of a measurement set between
// two units. The input map is not modified.
func convertMeasurements(m Measurements, from, to string) Measurements {
	if NormalizeUnit(from) == NormalizeUnit(to) {
		return m.Clone()
	}
	out := make(Measurements, len(m))
	for k, v := range m {
		out[k] = ConvertUnit(v, from, to)
	}
	return out
}
