// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

// Package supervisor runs the service processes under a suture v4
// supervision tree.
//
// The tree has two child supervisors under the root: the api layer
// (HTTP server) and the maintenance layer (try-on task store janitor).
// A crash in either layer restarts only that layer's services, with
// exponential backoff once the failure threshold is exceeded.
//
// Services implement suture.Service: a blocking Serve(ctx) that
// returns when the context is canceled. Supervisor lifecycle events
// flow to the structured log through sutureslog.
package supervisor
