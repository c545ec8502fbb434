// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

// Package clients holds the upstream HTTP clients: the garment
// processing API (image → size chart) and the body measurement API
// (photo + height → body measurements). Both authenticate with a
// cached bearer token that is dropped on a 401 so the next call
// re-authenticates. Neither client retries; callers decide whether a
// failed upstream call is worth repeating.
package clients
