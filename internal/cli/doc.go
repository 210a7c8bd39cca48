// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the planforge command line.
//
// # Commands
//
//   - serve: run the HTTP API
//   - run: run the pipeline on a project file
//   - list, show, delete: inspect stored projects
//   - config: init, show, path, get, set
//   - check, models: provider diagnostics
//   - version
//
// Global flags --config, --log-level and --db apply to every command.
package cli
