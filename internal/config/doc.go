// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for planforge.
//
// Supports TOML (default) and JSON configuration files, with defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ServerConfig: HTTP API, CORS and rate limit settings
//   - LLMConfig: provider selection and generation parameters
//   - ValidateErrors: every validation problem found, not just the first
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (OPENAI_API_KEY, HOST, PORT, PLANFORGE_*)
//   - ~/.planforge/config.toml, or the file given with --config
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err) // e.g. llm.api_key missing for the openai provider
//	}
package config
