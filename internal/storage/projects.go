// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/planforge/internal/logging"
	"github.com/jeranaias/planforge/internal/pipeline"
	"github.com/jeranaias/planforge/internal/project"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrProjectNotFound is returned when no project has the requested ID.
var ErrProjectNotFound = errors.New("project not found")

// =============================================================================
// TYPES
// =============================================================================

// Project is a stored request together with its pipeline outputs.
type Project struct {
	ID string
	project.Request

	Input    string
	Plan     pipeline.Output
	Schedule pipeline.Output
	Review   pipeline.Output
	Rendered pipeline.Output

	CreatedAt time.Time
	UpdatedAt time.Time
}

// State rebuilds the pipeline state the outputs came from. Error values are
// not persisted, only the marker text and status.
func (p *Project) State() *pipeline.State {
	return &pipeline.State{
		Input:    p.Input,
		Plan:     p.Plan,
		Schedule: p.Schedule,
		Review:   p.Review,
		Rendered: p.Rendered,
	}
}

// Summary is the listing view of a project.
type Summary struct {
	ID          string
	ProjectType string
	Objectives  string
	Industry    string
	CreatedAt   time.Time
}

// =============================================================================
// REPOSITORY
// =============================================================================

// Repository stores projects in a SQLite database. It is safe for
// concurrent use.
type Repository struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open opens or creates the database at path. ":memory:" opens a private
// in-memory database.
func Open(path string, logger *slog.Logger) (*Repository, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time. One connection also keeps
	// an in-memory database alive for the life of the Repository.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	logger.Debug("storage opened", "path", path)
	return &Repository{db: db, logger: logger, now: time.Now}, nil
}

// Close releases the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Create stores req as a new project with a fresh ID and empty outputs.
func (r *Repository) Create(ctx context.Context, req *project.Request) (*Project, error) {
	members, err := json.Marshal(nonNil(req.TeamMembers))
	if err != nil {
		return nil, fmt.Errorf("failed to encode team members: %w", err)
	}
	requirements, err := json.Marshal(nonNil(req.Requirements))
	if err != nil {
		return nil, fmt.Errorf("failed to encode requirements: %w", err)
	}

	now := r.now().UTC()
	p := &Project{
		ID:        uuid.NewString(),
		Request:   *req,
		Input:     req.Format(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO projects (id, project_type, objectives, industry, team_members, requirements,
			input, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, req.ProjectType, req.Objectives, req.Industry, string(members), string(requirements),
		p.Input, now.UnixNano(), now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to insert project: %w", err)
	}

	r.logger.Debug("project created", "id", p.ID, "project_type", req.ProjectType)
	return p, nil
}

// SaveResults overwrites the four outputs of project id with st's slots.
func (r *Repository) SaveResults(ctx context.Context, id string, st *pipeline.State) error {
	now := r.now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects SET
			plan = ?, plan_status = ?,
			schedule = ?, schedule_status = ?,
			review = ?, review_status = ?,
			html_output = ?, html_status = ?,
			updated_at = ?
		WHERE id = ?`,
		st.Text(pipeline.Planner), st.Get(pipeline.Planner).Status.String(),
		st.Text(pipeline.Scheduler), st.Get(pipeline.Scheduler).Status.String(),
		st.Text(pipeline.Reviewer), st.Get(pipeline.Reviewer).Status.String(),
		st.Text(pipeline.Renderer), st.Get(pipeline.Renderer).Status.String(),
		now.UnixNano(), id)
	if err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}
	if n == 0 {
		return ErrProjectNotFound
	}

	r.logger.Debug("project results saved", "id", id, "failed_stages", len(st.Failed()))
	return nil
}

// Get loads the project with the given ID.
func (r *Repository) Get(ctx context.Context, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, project_type, objectives, industry, team_members, requirements, input,
			plan, plan_status, schedule, schedule_status, review, review_status,
			html_output, html_status, created_at, updated_at
		FROM projects WHERE id = ?`, id)

	var p Project
	var members, requirements string
	var planSt, scheduleSt, reviewSt, renderedSt string
	var created, updated int64
	err := row.Scan(&p.ID, &p.ProjectType, &p.Objectives, &p.Industry, &members, &requirements, &p.Input,
		&p.Plan.Text, &planSt, &p.Schedule.Text, &scheduleSt, &p.Review.Text, &reviewSt,
		&p.Rendered.Text, &renderedSt, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	if err := json.Unmarshal([]byte(members), &p.TeamMembers); err != nil {
		return nil, fmt.Errorf("failed to decode team members: %w", err)
	}
	if err := json.Unmarshal([]byte(requirements), &p.Requirements); err != nil {
		return nil, fmt.Errorf("failed to decode requirements: %w", err)
	}

	for _, s := range []struct {
		raw string
		out *pipeline.Output
	}{
		{planSt, &p.Plan}, {scheduleSt, &p.Schedule}, {reviewSt, &p.Review}, {renderedSt, &p.Rendered},
	} {
		status, err := pipeline.ParseStatus(s.raw)
		if err != nil {
			return nil, err
		}
		s.out.Status = status
	}

	p.CreatedAt = time.Unix(0, created).UTC()
	p.UpdatedAt = time.Unix(0, updated).UTC()
	return &p, nil
}

// List returns every project, newest first.
func (r *Repository) List(ctx context.Context) ([]Summary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_type, objectives, industry, created_at
		FROM projects ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var s Summary
		var created int64
		if err := rows.Scan(&s.ID, &s.ProjectType, &s.Objectives, &s.Industry, &created); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		s.CreatedAt = time.Unix(0, created).UTC()
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Delete removes the project with the given ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if n == 0 {
		return ErrProjectNotFound
	}
	r.logger.Debug("project deleted", "id", id)
	return nil
}

// Count returns the number of stored projects.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return n, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
