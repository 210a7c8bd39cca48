// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists projects and their pipeline outputs in SQLite.
//
// # Key Types
//
//   - Repository: Open/Create/SaveResults/Get/List/Delete over one database
//   - Project: a stored request with its four stage outputs and statuses
//   - Summary: the lightweight row returned by List
//
// # Usage
//
//	repo, err := storage.Open(path, logger)
//	p, err := repo.Create(ctx, req)
//	err = repo.SaveResults(ctx, p.ID, state)
//
// The database uses the pure Go modernc.org/sqlite driver in WAL mode with
// a single connection, so one Repository may be shared by concurrent HTTP
// handlers.
package storage
