// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

// Package feedback implements the engine's FeedbackGenerator
// collaborator: a deterministic rule-based generator and a remote
// LLM-backed one. Both honor the collaborator contract: internal
// failures become usable fallback text, never an error surfaced to the
// engine.
package feedback

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bouldhq/fitrec/internal/recommend"
)

// looseSlackCM is the slack beyond which an area reads as generously
// cut rather than merely eased.
const looseSlackCM = 2.0

// RuleBased produces deterministic fit narratives from the slack map.
// It is the default generator and the fallback behind Remote.
type RuleBased struct{}

// NewRuleBased creates the deterministic generator.
func NewRuleBased() *RuleBased {
	return &RuleBased{}
}

// Generate never fails; the error return exists to satisfy the
// collaborator interface.
func (g *RuleBased) Generate(_ context.Context, in recommend.FeedbackInput) (recommend.Feedback, error) {
	return Compose(in), nil
}

// Compose builds the deterministic narrative for a feedback input. It is
// exported so the remote generator can reuse it as its failure path.
func Compose(in recommend.FeedbackInput) recommend.Feedback {
	if in.Size == "" {
		return recommend.Feedback{
			Final:   "We could not determine a fit from the provided size chart.",
			Preview: []string{"No size data was available for this garment."},
		}
	}

	var tight, loose []string
	for metric, slack := range in.Slacks {
		cm := recommend.ToCM(slack, in.Unit)
		switch {
		case cm < 0:
			tight = append(tight, displayMetric(metric))
		case cm > looseSlackCM:
			loose = append(loose, displayMetric(metric))
		}
	}
	sort.Strings(tight)
	sort.Strings(loose)

	var preview []string
	var parts []string
	if len(tight) > 0 {
		preview = append(preview, fmt.Sprintf("Close fit around the %s.", joinAreas(tight)))
		parts = append(parts, fmt.Sprintf("Areas likely tight: %s.", strings.Join(tight, ", ")))
	}
	if len(loose) > 0 {
		preview = append(preview, fmt.Sprintf("Relaxed fit around the %s.", joinAreas(loose)))
		parts = append(parts, fmt.Sprintf("Areas with generous ease: %s.", strings.Join(loose, ", ")))
	}
	if len(preview) == 0 {
		preview = append(preview, "Comfortable fit across all measured areas.")
	}

	parts = append(parts, fmt.Sprintf("Recommended size: %s.", in.Size))
	switch {
	case len(tight) > 0 && strings.EqualFold(in.Tone, "tight"):
		parts = append(parts, "A close cut matches the requested fit; size up only if movement feels restricted.")
	case len(tight) > 0:
		parts = append(parts, "Consider sizing up or a let-out alteration where tight.")
	case len(loose) > 0:
		parts = append(parts, "A take-in alteration can sharpen the silhouette where loose.")
	}

	return recommend.Feedback{
		Final:   strings.Join(parts, " "),
		Preview: preview,
	}
}

func displayMetric(metric string) string {
	return strings.ReplaceAll(metric, "_", " ")
}

func joinAreas(areas []string) string {
	if len(areas) == 1 {
		return areas[0]
	}
	return strings.Join(areas[:len(areas)-1], ", ") + " and " + areas[len(areas)-1]
}
