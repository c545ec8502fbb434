// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

// Package validation wraps go-playground/validator v10 behind a
// thread-safe singleton with the fit-domain custom tags registered:
//
//   - unit: a measurement-unit alias (cm, centimeter, inch, in, ...)
//   - sizename: a size on the canonical XXS through 6XL ladder
//   - tone: a fit-tone hint (tight, slim, fitted, regular, ...)
//
// Handlers validate decoded request structs and convert failures to
// the API error envelope:
//
//	if err := validation.ValidateStruct(&req); err != nil {
//	    apiErr := err.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message)
//	    return
//	}
package validation
