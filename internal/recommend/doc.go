// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

// Package recommend implements the garment size recommendation engine.
//
// The engine compares a shopper's body measurements against a garment's
// per-size measurement chart and selects the size with the lowest weighted
// fit penalty. A recommendation pass runs through six stages:
//
//	NORMALIZE       resolve the raw chart and body into one calculation unit
//	CONSTRAIN_RANGE restrict candidate sizes to the height-derived band
//	SCORE_ALL       score every remaining size in the chart
//	SELECT_BEST     pick the minimum-penalty size (canonical-order tie-break)
//	APPLY_GUARDRAIL enforce the height-based minimum size floor
//	FINALIZE        compute confidence, reason codes, and fit feedback
//
// Scoring is asymmetric: a garment that is tighter than the body is
// penalized an order of magnitude harder than one that is looser than the
// target ease. Metrics missing from either side contribute a flat penalty
// and degrade confidence rather than failing the call.
//
// The engine is stateless per call and safe for concurrent use. Its only
// outbound dependency is the FeedbackGenerator collaborator; failures and
// cancellations there are absorbed into a deterministic fallback narrative
// so a usable Result is always produced.
package recommend
