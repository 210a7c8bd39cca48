// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"time"

	"github.com/jeranaias/planforge/internal/pipeline"
	"github.com/jeranaias/planforge/internal/storage"
)

// Run status values reported in ProjectResponse.Status.
const (
	StatusCompleted = "completed"
	StatusPartial   = "partial"
)

// ProjectResponse is the full view of a project.
type ProjectResponse struct {
	ID           string    `json:"id"`
	ProjectType  string    `json:"project_type"`
	Plan         string    `json:"plan"`
	Schedule     string    `json:"schedule"`
	Review       string    `json:"review"`
	HTMLOutput   string    `json:"html_output"`
	CreatedAt    time.Time `json:"created_at"`
	Status       string    `json:"status"`
	FailedStages []string  `json:"failed_stages"`
}

// ProjectListItem is one entry of GET /projects.
type ProjectListItem struct {
	ID          string    `json:"id"`
	ProjectType string    `json:"project_type"`
	Objectives  string    `json:"objectives"`
	Industry    string    `json:"industry"`
	CreatedAt   time.Time `json:"created_at"`
}

// HealthResponse is the body of GET /health. Status is "degraded" when the
// project store cannot be queried.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Projects int    `json:"projects"`
}

// ErrorResponse wraps every error body.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes an API error.
type ErrorDetail struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func newProjectResponse(p *storage.Project) ProjectResponse {
	st := p.State()

	failed := []string{}
	for _, name := range st.Failed() {
		failed = append(failed, string(name))
	}
	status := StatusCompleted
	if !st.Complete() {
		status = StatusPartial
	}

	return ProjectResponse{
		ID:           p.ID,
		ProjectType:  p.ProjectType,
		Plan:         st.Text(pipeline.Planner),
		Schedule:     st.Text(pipeline.Scheduler),
		Review:       st.Text(pipeline.Reviewer),
		HTMLOutput:   st.Text(pipeline.Renderer),
		CreatedAt:    p.CreatedAt,
		Status:       status,
		FailedStages: failed,
	}
}
