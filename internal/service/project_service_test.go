package service

import (
	"context"
	"testing"

	"github.com/dori/gtdsync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectService_CreateAndGet(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()

	p, err := ts.projects.Create(ctx, model.ProjectDraft{Name: " Garden ", Goal: "Grow tomatoes", Color: "#00ff00"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Garden", p.Name)
	assert.False(t, p.Archived)

	fetched, err := ts.projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, fetched)

	_, err = ts.projects.Create(ctx, model.ProjectDraft{Name: ""})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = ts.projects.Get(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestProjectService_ArchiveFilters(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()

	active, err := ts.projects.Create(ctx, model.ProjectDraft{Name: "Active"})
	require.NoError(t, err)
	old, err := ts.projects.Create(ctx, model.ProjectDraft{Name: "Old"})
	require.NoError(t, err)

	_, err = ts.projects.Archive(ctx, old.ID)
	require.NoError(t, err)

	all, err := ts.projects.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, active.ID, all[0].ID)

	archived, err := ts.projects.Archived(ctx)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, old.ID, archived[0].ID)

	_, err = ts.projects.Unarchive(ctx, old.ID)
	require.NoError(t, err)
	all, err = ts.projects.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestProjectService_Update(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	p, err := ts.projects.Create(ctx, model.ProjectDraft{Name: "Garden", Description: "back yard"})
	require.NoError(t, err)

	name := "Allotment"
	updated, err := ts.projects.Update(ctx, p.ID, model.ProjectPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Allotment", updated.Name)
	assert.Equal(t, "back yard", updated.Description)

	blank := " "
	_, err = ts.projects.Update(ctx, p.ID, model.ProjectPatch{Name: &blank})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = ts.projects.Update(ctx, "missing", model.ProjectPatch{Name: &name})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestProjectService_Delete_DetachesTasks(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()

	p, err := ts.projects.Create(ctx, model.ProjectDraft{Name: "Move house"})
	require.NoError(t, err)
	other, err := ts.projects.Create(ctx, model.ProjectDraft{Name: "Other"})
	require.NoError(t, err)

	var referencing []string
	for _, title := range []string{"Pack", "Hire van", "Change address"} {
		task := ts.createTask(t, model.TaskDraft{Title: title, ProjectID: &p.ID})
		referencing = append(referencing, task.ID)
	}
	unrelated := ts.createTask(t, model.TaskDraft{Title: "Unrelated", ProjectID: &other.ID})

	require.NoError(t, ts.projects.Delete(ctx, p.ID))

	doc, err := ts.store.Cached(ctx)
	require.NoError(t, err)
	assert.Len(t, doc.Projects, 1)
	assert.Equal(t, -1, doc.ProjectIndex(p.ID))

	for _, id := range referencing {
		task, err := ts.tasks.Get(ctx, id)
		require.NoError(t, err, "task must survive project deletion")
		assert.Nil(t, task.ProjectID)
	}
	kept, err := ts.tasks.Get(ctx, unrelated.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, *kept.ProjectID)

	assert.NoError(t, ts.projects.Delete(ctx, p.ID), "second delete is a no-op")
}

func TestProjectService_TaskCounts(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	p, err := ts.projects.Create(ctx, model.ProjectDraft{Name: "P"})
	require.NoError(t, err)

	ts.createTask(t, model.TaskDraft{Title: "a", ProjectID: &p.ID})
	done := ts.createTask(t, model.TaskDraft{Title: "b", ProjectID: &p.ID})
	ts.createTask(t, model.TaskDraft{Title: "loose"})
	_, err = ts.tasks.Complete(ctx, done.ID)
	require.NoError(t, err)

	counts, err := ts.projects.TaskCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]TaskCount{p.ID: {Open: 1, Completed: 1}}, counts)
}
