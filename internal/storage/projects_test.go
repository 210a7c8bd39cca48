// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/planforge/internal/pipeline"
	"github.com/jeranaias/planforge/internal/project"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "nested", "planforge.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleRequest() *project.Request {
	return &project.Request{
		ProjectType:  "Web Application",
		Objectives:   "Build a store",
		Industry:     "Retail",
		TeamMembers:  []string{"Alice (Dev)", "Bob (PM)"},
		Requirements: []string{"Checkout"},
	}
}

// fixedClock returns a clock that advances one second per call.
func fixedClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, sampleRequest())
	require.NoError(t, err)
	_, err = uuid.Parse(created.ID)
	require.NoError(t, err, "ID should be a UUID")
	assert.Equal(t, sampleRequest().Format(), created.Input)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Web Application", got.ProjectType)
	assert.Equal(t, []string{"Alice (Dev)", "Bob (PM)"}, got.TeamMembers)
	assert.Equal(t, []string{"Checkout"}, got.Requirements)
	assert.Equal(t, created.Input, got.Input)
	assert.Equal(t, created.CreatedAt, got.CreatedAt)

	for _, name := range pipeline.Order {
		assert.Equal(t, pipeline.StatusNotRun, got.State().Get(name).Status, name)
	}
}

func TestCreate_NilLists(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	req := sampleRequest()
	req.Requirements = nil
	created, err := repo.Create(ctx, req)
	require.NoError(t, err)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Requirements)
}

func TestSaveResults(t *testing.T) {
	repo := openTestRepo(t)
	repo.now = fixedClock()
	ctx := context.Background()

	created, err := repo.Create(ctx, sampleRequest())
	require.NoError(t, err)

	st := pipeline.NewState(created.Input)
	st.Plan = pipeline.Output{Status: pipeline.StatusOK, Text: "# Project Plan"}
	st.Schedule = pipeline.Output{Status: pipeline.StatusError, Text: "Error generating schedule: boom"}
	st.Review = pipeline.Output{Status: pipeline.StatusOK, Text: "No significant issues found."}
	st.Rendered = pipeline.Output{Status: pipeline.StatusOK, Text: "<!DOCTYPE html><html></html>"}

	require.NoError(t, repo.SaveResults(ctx, created.ID, st))

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	restored := got.State()

	assert.Equal(t, st.Fields(), restored.Fields())
	assert.Equal(t, []pipeline.StageName{pipeline.Scheduler}, restored.Failed())
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestSaveResults_Overwrites(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, sampleRequest())
	require.NoError(t, err)

	first := pipeline.NewState(created.Input)
	first.Plan = pipeline.Output{Status: pipeline.StatusError, Text: "Error generating plan: down"}
	require.NoError(t, repo.SaveResults(ctx, created.ID, first))

	second := pipeline.NewState(created.Input)
	second.Plan = pipeline.Output{Status: pipeline.StatusOK, Text: "# Project Plan"}
	require.NoError(t, repo.SaveResults(ctx, created.ID, second))

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "# Project Plan", got.Plan.Text)
	assert.True(t, got.Plan.OK())
}

func TestNotFound(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	missing := uuid.NewString()

	_, err := repo.Get(ctx, missing)
	assert.ErrorIs(t, err, ErrProjectNotFound)

	err = repo.SaveResults(ctx, missing, pipeline.NewState(""))
	assert.ErrorIs(t, err, ErrProjectNotFound)

	err = repo.Delete(ctx, missing)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestList_NewestFirst(t *testing.T) {
	repo := openTestRepo(t)
	repo.now = fixedClock()
	ctx := context.Background()

	empty, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	var ids []string
	for _, kind := range []string{"first", "second", "third"} {
		req := sampleRequest()
		req.ProjectType = kind
		p, err := repo.Create(ctx, req)
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].ProjectType)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, "first", list[2].ProjectType)
	assert.Equal(t, "Retail", list[1].Industry)
}

func TestDelete(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	p, err := repo.Create(ctx, sampleRequest())
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, p.ID))

	_, err = repo.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrProjectNotFound)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planforge.db")
	ctx := context.Background()

	repo, err := Open(path, nil)
	require.NoError(t, err)
	p, err := repo.Create(ctx, sampleRequest())
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = Open(path, nil)
	require.NoError(t, err)
	defer repo.Close()

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestInMemory(t *testing.T) {
	repo, err := Open(":memory:", nil)
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	_, err = repo.Create(ctx, sampleRequest())
	require.NoError(t, err)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestConcurrentWrites(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := repo.Create(ctx, sampleRequest())
			if err != nil {
				errs <- err
				return
			}
			st := pipeline.NewState(p.Input)
			st.Plan = pipeline.Output{Status: pipeline.StatusOK, Text: "plan"}
			errs <- repo.SaveResults(ctx, p.ID, st)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}

func TestClosed(t *testing.T) {
	repo, err := Open(filepath.Join(t.TempDir(), "closed.db"), nil)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	_, err = repo.List(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrProjectNotFound))
}
