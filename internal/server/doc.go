// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server exposes the planning pipeline over HTTP.
//
// # Endpoints
//
//   - POST   /projects             - Create a project and run the pipeline
//   - GET    /projects             - List projects, newest first
//   - GET    /projects/{id}        - Project outputs
//   - GET    /projects/{id}/report - Rendered HTML report (?source=local re-renders)
//   - DELETE /projects/{id}        - Delete a project
//   - GET    /health               - Health check
//
// # Middleware
//
// Every request passes through panic recovery, request logging, CORS, a
// per-client token bucket and a request body size limit, in that order.
//
// # Usage
//
//	srv := server.New(cfg, pipe, repo, logger)
//	go srv.Start()
//	defer srv.Shutdown(ctx)
package server
