// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package feedback

import (
	"context"
	"strings"
	"testing"

	"github.com/bouldhq/fitrec/internal/recommend"
)

func TestRuleBased_Generate(t *testing.T) {
	gen := NewRuleBased()

	fb, err := gen.Generate(context.Background(), recommend.FeedbackInput{
		Size: "M",
		Unit: recommend.UnitCM,
		Slacks: map[string]float64{
			"chest":          -1.5,
			"waist":          5.0,
			"shoulder_width": 1.0,
		},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(fb.Final, "Areas likely tight: chest.") {
		t.Errorf("final missing tight area: %q", fb.Final)
	}
	if !strings.Contains(fb.Final, "Areas with generous ease: waist.") {
		t.Errorf("final missing loose area: %q", fb.Final)
	}
	if !strings.Contains(fb.Final, "Recommended size: M.") {
		t.Errorf("final missing size: %q", fb.Final)
	}
	if len(fb.Preview) != 2 {
		t.Errorf("preview = %v, want tight and loose sentences", fb.Preview)
	}
}

func TestCompose_Deterministic(t *testing.T) {
	in := recommend.FeedbackInput{
		Size:   "L",
		Unit:   recommend.UnitCM,
		Slacks: map[string]float64{"chest": 3, "waist": -2, "hips": 4},
	}
	first := Compose(in)
	second := Compose(in)
	if first.Final != second.Final {
		t.Errorf("narratives differ:\n%q\n%q", first.Final, second.Final)
	}
}

func TestCompose_InchSlacksClassifiedInCM(t *testing.T) {
	// 1.5 inch = 3.81 cm, past the loose threshold.
	fb := Compose(recommend.FeedbackInput{
		Size:   "M",
		Unit:   recommend.UnitInch,
		Slacks: map[string]float64{"chest": 1.5},
	})
	if !strings.Contains(fb.Final, "generous ease: chest") {
		t.Errorf("inch slack not converted before classification: %q", fb.Final)
	}
}

func TestCompose_TightToneSkipsSizeUpAdvice(t *testing.T) {
	in := recommend.FeedbackInput{
		Size:   "M",
		Unit:   recommend.UnitCM,
		Slacks: map[string]float64{"chest": -1},
	}

	regular := Compose(in)
	if !strings.Contains(regular.Final, "sizing up") {
		t.Errorf("regular tone should suggest sizing up: %q", regular.Final)
	}

	in.Tone = "tight"
	tight := Compose(in)
	if strings.Contains(tight.Final, "sizing up") {
		t.Errorf("tight tone should not push a size up: %q", tight.Final)
	}
	if !strings.Contains(tight.Final, "requested fit") {
		t.Errorf("tight tone should acknowledge the preference: %q", tight.Final)
	}
}

func TestCompose_ComfortableFit(t *testing.T) {
	fb := Compose(recommend.FeedbackInput{
		Size:   "M",
		Unit:   recommend.UnitCM,
		Slacks: map[string]float64{"chest": 1, "waist": 0.5},
	})
	if len(fb.Preview) != 1 || !strings.Contains(fb.Preview[0], "Comfortable") {
		t.Errorf("preview = %v, want single comfortable-fit sentence", fb.Preview)
	}
}

func TestCompose_EmptySize(t *testing.T) {
	fb := Compose(recommend.FeedbackInput{})
	if fb.Final == "" || len(fb.Preview) == 0 {
		t.Errorf("empty-size fallback must still narrate: %+v", fb)
	}
}
