// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"io"
	"log/slog"

	"github.com/jeranaias/planforge/internal/project"
)

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleRequest() *project.Request {
	return &project.Request{
		ProjectType: "Web Application",
		Objectives:  "Build a store",
		TeamMembers: []string{"Alice"},
	}
}
