// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

/*
Package metrics provides Prometheus metrics collection and export.

The package instruments:
  - API request latency, throughput, and rate-limit rejections
  - Recommendation outcomes: sizes, confidence distribution, guardrail
    overrides, and fallback-narrative usage
  - Upstream garment/body/feedback API calls and circuit breaker state
  - Cache hit/miss/eviction rates
  - Try-on task lifecycle

Metrics are exposed at the /metrics endpoint in Prometheus text format.
All metric names carry the fitrec_ prefix. Collectors are registered via
promauto at package load; record through the helper functions rather
than touching the collectors directly so label conventions stay in one
place.
*/
package metrics
