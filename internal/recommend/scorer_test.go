// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package recommend

import (
	"math"
	"testing"
)

func TestScoreSize_PerfectEase(t *testing.T) {
	cfg := DefaultConfig()
	got := scoreSize(cfg, []string{"chest"}, Measurements{"chest": 100}, Measurements{"chest": 106}, GroupUpper, UnitCM)
	if got.Score != 0 {
		t.Errorf("score = %v, want 0 at exact target ease", got.Score)
	}
	if got.Slacks["chest"] != 6 {
		t.Errorf("slack = %v, want 6", got.Slacks["chest"])
	}
}

func TestScoreSize_TightnessAsymmetry(t *testing.T) {
	cfg := DefaultConfig()
	body := Measurements{"chest": 104}

	snug := scoreSize(cfg, []string{"chest"}, body, Measurements{"chest": 104}, GroupUpper, UnitCM)
	loose := scoreSize(cfg, []string{"chest"}, body, Measurements{"chest": 112}, GroupUpper, UnitCM)

	// Zero slack sits 6 cm below target ease: 6*2*2.0 = 24.
	if snug.Score != 24 {
		t.Errorf("snug score = %v, want 24", snug.Score)
	}
	// 8 cm slack overshoots ease by 2: 2*1*2.0 = 4.
	if loose.Score != 4 {
		t.Errorf("loose score = %v, want 4", loose.Score)
	}
	if loose.Score >= snug.Score {
		t.Error("looseness past ease must be cheaper than equal-magnitude tightness")
	}
}

func TestScoreSize_SevereTightness(t *testing.T) {
	cfg := DefaultConfig()
	got := scoreSize(cfg, []string{"chest"}, Measurements{"chest": 104}, Measurements{"chest": 100}, GroupUpper, UnitCM)
	// Garment 4 cm smaller than the body: 4*10*2.0 = 80.
	if got.Score != 80 {
		t.Errorf("score = %v, want 80", got.Score)
	}
	if got.Slacks["chest"] != -4 {
		t.Errorf("slack = %v, want -4", got.Slacks["chest"])
	}
}

func TestScoreSize_MissingMetric(t *testing.T) {
	cfg := DefaultConfig()
	got := scoreSize(cfg, []string{"chest", "waist"}, Measurements{"chest": 100, "waist": 80}, Measurements{"chest": 106}, GroupUpper, UnitCM)
	// Chest at perfect ease, waist absent: 50*1.5 = 75.
	if got.Score != 75 {
		t.Errorf("score = %v, want 75", got.Score)
	}
	if len(got.Missing) != 1 || got.Missing[0] != "waist" {
		t.Errorf("missing = %v, want [waist]", got.Missing)
	}
	if len(got.Scored) != 1 || got.Scored[0] != "chest" {
		t.Errorf("scored = %v, want [chest]", got.Scored)
	}
	if _, ok := got.Slacks["waist"]; ok {
		t.Error("missing metric must not appear in the slack map")
	}
}

func TestScoreSize_LowerBodyWaistEase(t *testing.T) {
	cfg := DefaultConfig()
	lower := scoreSize(cfg, []string{"waist"}, Measurements{"waist": 80}, Measurements{"waist": 82}, GroupLower, UnitCM)
	if lower.Score != 0 {
		t.Errorf("lower-body waist at +2 cm = %v, want 0 (ease 2)", lower.Score)
	}
	upper := scoreSize(cfg, []string{"waist"}, Measurements{"waist": 80}, Measurements{"waist": 82}, GroupUpper, UnitCM)
	if upper.Score != 6 {
		t.Errorf("upper-body waist at +2 cm = %v, want 6 (2 below ease 4, *2*1.5)", upper.Score)
	}
}

func TestScoreSize_InchInputsNormalizeToCM(t *testing.T) {
	cfg := DefaultConfig()
	got := scoreSize(cfg, []string{"chest"}, Measurements{"chest": 40}, Measurements{"chest": 42}, GroupUpper, UnitInch)
	// Slack 2 in = 5.08 cm, 0.92 cm under ease: 0.92*2*2.0 = 3.68.
	if math.Abs(got.Score-3.68) > 1e-9 {
		t.Errorf("score = %v, want 3.68", got.Score)
	}
	// Slack stays in the calculation unit.
	if got.Slacks["chest"] != 2 {
		t.Errorf("slack = %v inch, want 2", got.Slacks["chest"])
	}
}
