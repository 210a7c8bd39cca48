// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for a local Ollama server.
//
// Only the non-streaming /api/generate endpoint is used: each pipeline stage
// sends one prompt and waits for the whole completion.
//
// # Key Types
//
//   - Client: HTTP client for Ollama API communication
//   - ClientError: categorized failure (not running, timeout, model not found)
//   - GenerateRequest / GenerateResponse: /api/generate payloads
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
//	    BaseURL:      "http://127.0.0.1:11434",
//	    DefaultModel: "llama3.1:8b",
//	})
//	text, err := client.Generate(ctx, prompt)
package ollama
