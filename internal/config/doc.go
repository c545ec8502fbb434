// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

// Package config loads and validates the service configuration.
//
// Configuration is layered with koanf, lowest priority first:
//
//  1. Built-in defaults (defaultConfig)
//  2. An optional YAML file (config.yaml, or CONFIG_PATH)
//  3. Environment variables (GARMENT_API_URL, TRYON_PROVIDER, ...)
//
// Environment variables go through an explicit allow-list mapping to
// koanf paths; unknown variables never reach the configuration. The
// merged tree is validated before it is handed to the rest of the
// service, so a bad deployment fails at startup rather than on the
// first request.
package config
