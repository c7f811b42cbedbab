package service

import (
	"context"
	"testing"
	"time"

	"github.com/dori/gtdsync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskService_Create_Defaults(t *testing.T) {
	ts := setupServices(t)

	task := ts.createTask(t, model.TaskDraft{Title: "  Buy milk  "})

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, model.StatusInbox, task.Status)
	assert.Empty(t, task.TagIDs)
	assert.NotNil(t, task.TagIDs, "tagIds should encode as []")
	assert.False(t, task.Completed)
	assert.Nil(t, task.CompletedAt)
	assert.Equal(t, fixedNow.UnixMilli(), task.CreatedAt)
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)

	fetched, err := ts.tasks.Get(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, task, fetched)
}

func TestTaskService_Create_Validation(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		draft model.TaskDraft
	}{
		{"empty title", model.TaskDraft{Title: ""}},
		{"blank title", model.TaskDraft{Title: "   "}},
		{"bad status", model.TaskDraft{Title: "x", Status: "doing"}},
		{"bad priority", model.TaskDraft{Title: "x", Priority: "urgent"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ts.tasks.Create(ctx, tc.draft)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}

	all, err := ts.tasks.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTaskService_Create_DedupesTags(t *testing.T) {
	ts := setupServices(t)
	task := ts.createTask(t, model.TaskDraft{Title: "x", TagIDs: []string{"a", "b", "a", ""}})
	assert.Equal(t, []string{"a", "b"}, task.TagIDs)
}

func TestTaskService_Update_NotFound(t *testing.T) {
	ts := setupServices(t)
	title := "x"
	_, err := ts.tasks.Update(context.Background(), "missing", model.TaskPatch{Title: &title})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestTaskService_Update_MergesAndStampsUpdatedAt(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	task := ts.createTask(t, model.TaskDraft{Title: "Draft", Description: "keep me", Status: model.StatusWaiting})

	later := fixedNow.Add(time.Hour)
	ts.tasks.now = func() time.Time { return later }

	title := "Final"
	prio := model.PriorityHigh
	updated, err := ts.tasks.Update(ctx, task.ID, model.TaskPatch{Title: &title, Priority: &prio})
	require.NoError(t, err)

	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, "keep me", updated.Description)
	assert.Equal(t, model.PriorityHigh, updated.Priority)
	assert.Equal(t, model.StatusWaiting, updated.Status)
	assert.Equal(t, task.CreatedAt, updated.CreatedAt)
	assert.Equal(t, later.UnixMilli(), updated.UpdatedAt)
}

func TestTaskService_Update_ClearsNullableFields(t *testing.T) {
	ts := setupServices(t)
	project := "p1"
	task := ts.createTask(t, model.TaskDraft{Title: "x", Status: model.StatusNext, DueDate: ms(fixedNow), ProjectID: &project})

	updated, err := ts.tasks.Update(context.Background(), task.ID, model.TaskPatch{
		DueDate:   model.Null[int64](),
		ProjectID: model.Null[string](),
	})
	require.NoError(t, err)
	assert.Nil(t, updated.DueDate)
	assert.Nil(t, updated.ProjectID)
	assert.Equal(t, model.StatusNext, updated.Status)
}

func TestTaskService_Update_PromotesInboxOnDueDate(t *testing.T) {
	ts := setupServices(t)
	task := ts.createTask(t, model.TaskDraft{Title: "Plan trip"})
	require.Equal(t, model.StatusInbox, task.Status)

	updated, err := ts.tasks.Update(context.Background(), task.ID, model.TaskPatch{
		DueDate: model.Set(fixedNow.Add(48 * time.Hour).UnixMilli()),
	})
	require.NoError(t, err)
	assert.NotEqual(t, model.StatusInbox, updated.Status)
	assert.Equal(t, model.DefaultActiveStatus, updated.Status)
}

func TestTaskService_Update_PromotesInboxToExplicitStatus(t *testing.T) {
	ts := setupServices(t)
	task := ts.createTask(t, model.TaskDraft{Title: "Plan trip"})

	waiting := model.StatusWaiting
	updated, err := ts.tasks.Update(context.Background(), task.ID, model.TaskPatch{
		Status:  &waiting,
		DueDate: model.Set(fixedNow.UnixMilli()),
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusWaiting, updated.Status)
}

func TestTaskService_Update_NoPromotionForActiveTasks(t *testing.T) {
	ts := setupServices(t)
	task := ts.createTask(t, model.TaskDraft{Title: "Someday trip", Status: model.StatusSomeday})

	updated, err := ts.tasks.Update(context.Background(), task.ID, model.TaskPatch{
		DueDate: model.Set(fixedNow.UnixMilli()),
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusSomeday, updated.Status)
}

func TestTaskService_CompleteUncomplete_KeepsCompletedAtInStep(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	task := ts.createTask(t, model.TaskDraft{Title: "x"})
	assert.Equal(t, task.Completed, task.CompletedAt != nil)

	done, err := ts.tasks.Complete(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, fixedNow.UnixMilli(), *done.CompletedAt)

	reopened, err := ts.tasks.Uncomplete(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, reopened.Completed)
	assert.Nil(t, reopened.CompletedAt)

	_, err = ts.tasks.Complete(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestTaskService_Complete_TwiceKeepsFirstTimestamp(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	task := ts.createTask(t, model.TaskDraft{Title: "x"})

	_, err := ts.tasks.Complete(ctx, task.ID)
	require.NoError(t, err)

	ts.tasks.now = func() time.Time { return fixedNow.Add(time.Hour) }
	again, err := ts.tasks.Complete(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.UnixMilli(), *again.CompletedAt)
}

func TestTaskService_Delete_Idempotent(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	task := ts.createTask(t, model.TaskDraft{Title: "x"})

	require.NoError(t, ts.tasks.Delete(ctx, task.ID))
	require.NoError(t, ts.tasks.Delete(ctx, task.ID))

	_, err := ts.tasks.Get(ctx, task.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestTaskService_ArchiveOlderThan(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	day := 24 * time.Hour

	ts.seedTasks(t,
		model.Task{ID: "old", Title: "old", Completed: true, CompletedAt: ms(fixedNow.Add(-31 * day)), TagIDs: []string{}},
		model.Task{ID: "recent", Title: "recent", Completed: true, CompletedAt: ms(fixedNow.Add(-1 * day)), TagIDs: []string{}},
		model.Task{ID: "no-timestamp", Title: "legacy", Completed: true, TagIDs: []string{}},
		model.Task{ID: "open", Title: "open", CreatedAt: fixedNow.Add(-90 * day).UnixMilli(), TagIDs: []string{}},
	)

	removed, err := ts.tasks.ArchiveOlderThan(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	all, err := ts.tasks.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"recent", "no-timestamp", "open"}, taskIDs(all))
}

func TestTaskService_TemporalViews(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()

	midnight := time.Date(2024, 5, 15, 0, 0, 0, 0, time.Local)
	ts.seedTasks(t,
		model.Task{ID: "yesterday", Status: model.StatusNext, DueDate: ms(midnight.Add(-time.Millisecond)), TagIDs: []string{}},
		model.Task{ID: "yesterday-done", Status: model.StatusNext, DueDate: ms(midnight.Add(-time.Hour)), Completed: true, CompletedAt: ms(fixedNow), TagIDs: []string{}},
		model.Task{ID: "today-start", Status: model.StatusNext, DueDate: ms(midnight), TagIDs: []string{}},
		model.Task{ID: "today-end", Status: model.StatusNext, DueDate: ms(midnight.AddDate(0, 0, 1).Add(-time.Millisecond)), TagIDs: []string{}},
		model.Task{ID: "tomorrow", Status: model.StatusNext, DueDate: ms(midnight.AddDate(0, 0, 1)), TagIDs: []string{}},
		model.Task{ID: "day-after", Status: model.StatusNext, DueDate: ms(midnight.AddDate(0, 0, 2)), TagIDs: []string{}},
		model.Task{ID: "inbox", Status: model.StatusInbox, TagIDs: []string{}},
		model.Task{ID: "inbox-dated", Status: model.StatusInbox, DueDate: ms(midnight.AddDate(0, 0, 5)), TagIDs: []string{}},
		model.Task{ID: "inbox-done", Status: model.StatusInbox, Completed: true, CompletedAt: ms(fixedNow), TagIDs: []string{}},
	)

	today, err := ts.tasks.Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"today-start", "today-end"}, taskIDs(today))

	tomorrow, err := ts.tasks.Tomorrow(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tomorrow"}, taskIDs(tomorrow))

	overdue, err := ts.tasks.Overdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"yesterday"}, taskIDs(overdue))

	inbox, err := ts.tasks.Inbox(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"inbox"}, taskIDs(inbox))

	upcoming, err := ts.tasks.Upcoming(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"tomorrow", "day-after", "inbox-dated"}, taskIDs(upcoming))

	byStatus, err := ts.tasks.ByStatus(ctx, model.StatusInbox)
	require.NoError(t, err)
	assert.Equal(t, []string{"inbox", "inbox-dated", "inbox-done"}, taskIDs(byStatus))
}

func TestTaskService_Completed_MostRecentFirst(t *testing.T) {
	ts := setupServices(t)
	ts.seedTasks(t,
		model.Task{ID: "first", Completed: true, CompletedAt: ms(fixedNow.Add(-3 * time.Hour)), TagIDs: []string{}},
		model.Task{ID: "open", TagIDs: []string{}},
		model.Task{ID: "last", Completed: true, CompletedAt: ms(fixedNow.Add(-time.Hour)), TagIDs: []string{}},
		model.Task{ID: "middle", Completed: true, CompletedAt: ms(fixedNow.Add(-2 * time.Hour)), TagIDs: []string{}},
	)

	done, err := ts.tasks.Completed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"last", "middle", "first"}, taskIDs(done))
}

func TestTaskService_ByProjectByTagSearch(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	home := "home"
	ts.seedTasks(t,
		model.Task{ID: "a", Title: "Paint fence", ProjectID: &home, TagIDs: []string{"outdoor"}},
		model.Task{ID: "b", Title: "Fix sink", Description: "kitchen FENCE of pipes", TagIDs: []string{}},
		model.Task{ID: "c", Title: "Mow lawn", TagIDs: []string{"outdoor"}},
	)

	byProject, err := ts.tasks.ByProject(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, taskIDs(byProject))

	byTag, err := ts.tasks.ByTag(ctx, "outdoor")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, taskIDs(byTag))

	found, err := ts.tasks.Search(ctx, "fence")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, taskIDs(found))

	none, err := ts.tasks.Search(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTaskService_ToggleTag(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	task := ts.createTask(t, model.TaskDraft{Title: "x", TagIDs: []string{"a"}})

	added, err := ts.tasks.ToggleTag(ctx, task.ID, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, added.TagIDs)

	removed, err := ts.tasks.ToggleTag(ctx, task.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, removed.TagIDs)
}

func TestTaskService_ObservesMutations(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	task := ts.createTask(t, model.TaskDraft{Title: "x"})
	_, _ = ts.tasks.Complete(ctx, task.ID)
	_ = ts.tasks.Delete(ctx, task.ID)
	_, _ = ts.tasks.Create(ctx, model.TaskDraft{})

	assert.Equal(t, []string{"create-task", "update-task", "delete-task", "create-task"}, ts.events.names())
	last := ts.events.events[3]
	assert.False(t, last.Success)
	assert.ErrorIs(t, last.Err, model.ErrValidation)
}
