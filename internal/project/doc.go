// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package project holds the structured project description accepted by the
// HTTP API and the run command, and formats it into the single input string
// the pipeline consumes.
package project
