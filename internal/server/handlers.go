// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jeranaias/planforge/internal/pipeline"
	"github.com/jeranaias/planforge/internal/project"
	"github.com/jeranaias/planforge/internal/report"
	"github.com/jeranaias/planforge/internal/storage"
)

// handleCreateProject stores the request, runs the pipeline synchronously
// and returns the outputs. Stage failures produce a 201 with status
// "partial", never an error status.
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req project.Request
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx := r.Context()
	p, err := s.store.Create(ctx, &req)
	if err != nil {
		s.logger.Error("failed to create project", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create project")
		return
	}

	runCtx := ctx
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	log := s.logger.With("project_id", p.ID)
	log.Info("project run started")

	st := s.pipeline.Run(runCtx, pipeline.NewState(p.Input))
	log.Info("project run finished", "complete", st.Complete(), "failed_stages", len(st.Failed()))

	// Persist even if the client has gone away.
	if err := s.store.SaveResults(context.WithoutCancel(ctx), p.ID, st); err != nil {
		log.Error("failed to save results", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save results")
		return
	}

	p.Plan, p.Schedule, p.Review, p.Rendered = st.Plan, st.Schedule, st.Review, st.Rendered
	writeJSON(w, http.StatusCreated, newProjectResponse(p))
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list projects", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}

	items := make([]ProjectListItem, 0, len(summaries))
	for _, sum := range summaries {
		items = append(items, ProjectListItem{
			ID:          sum.ID,
			ProjectType: sum.ProjectType,
			Objectives:  sum.Objectives,
			Industry:    sum.Industry,
			CreatedAt:   sum.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProject(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newProjectResponse(p))
}

// handleReport serves the stored HTML. With ?source=local it renders the
// stored markdown locally instead, which is useful when the renderer stage
// failed but the other stages did not.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProject(w, r)
	if !ok {
		return
	}

	var doc string
	switch source := r.URL.Query().Get("source"); source {
	case "", "llm":
		if p.Rendered.Status == pipeline.StatusNotRun {
			writeError(w, http.StatusNotFound, "report not generated")
			return
		}
		doc = p.Rendered.Text
	case "local":
		var err error
		doc, err = report.Document(report.Sections{
			Title:       p.ProjectType,
			Summary:     p.Input,
			Plan:        p.Plan.Text,
			Schedule:    p.Schedule.Text,
			Review:      p.Review.Text,
			GeneratedAt: p.UpdatedAt,
		})
		if err != nil {
			s.logger.Error("failed to render local report", "project_id", p.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to render report")
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "unknown report source: "+source)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc))
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrProjectNotFound) {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		s.logger.Error("failed to delete project", "project_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Version:  s.cfg.Version,
		Provider: s.cfg.Provider,
		Model:    s.cfg.Model,
	}

	n, err := s.store.Count(r.Context())
	if err != nil {
		s.logger.Error("health check: count projects", "error", err)
		resp.Status = "degraded"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Projects = n
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) loadProject(w http.ResponseWriter, r *http.Request) (*storage.Project, bool) {
	id := r.PathValue("id")
	p, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrProjectNotFound) {
			writeError(w, http.StatusNotFound, "project not found")
			return nil, false
		}
		s.logger.Error("failed to load project", "project_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load project")
		return nil, false
	}
	return p, true
}
