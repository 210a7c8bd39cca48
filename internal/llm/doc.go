// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm builds the pipeline's Generator from configuration.
//
// New picks the provider client (cloud for OpenAI-compatible endpoints,
// ollama for a local server) and wraps it with a shared client-side rate
// limiter and per-call logging. Retries live in the provider clients; the
// pipeline itself never retries.
package llm
