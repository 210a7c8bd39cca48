// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides a client for OpenAI-compatible chat completion APIs.
//
// The default endpoint is api.openai.com; any service speaking the same
// /chat/completions protocol (OpenRouter, vLLM, LM Studio) works by changing
// BaseURL.
//
// # Key Types
//
//   - Client: HTTP client with retry and backoff for transient errors
//   - ChatMessage / ChatRequest / ChatResponse: wire types
//   - APIError: non-2xx response that maps to no sentinel
//
// # Usage
//
//	client := cloud.NewClient(cloud.Config{APIKey: key, Model: "gpt-4o-mini"})
//	text, err := client.Generate(ctx, prompt)
//
// API keys are never logged; MaskKey gives a display form showing only the
// key length and a short SHA-256 fingerprint.
package cloud
