package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dori/gtdsync/internal/kv"
	"github.com/dori/gtdsync/internal/model"
	"github.com/dori/gtdsync/internal/store"
	"github.com/stretchr/testify/require"
)

// fixedNow is a Wednesday afternoon in local time.
var fixedNow = time.Date(2024, 5, 15, 14, 30, 0, 0, time.Local)

type testServices struct {
	store    *store.Store
	tasks    *TaskService
	projects *ProjectService
	tags     *TagService
	events   *recordingObserver
}

func setupServices(t *testing.T) *testServices {
	t.Helper()
	s := store.New(kv.NewMemory())
	obs := &recordingObserver{}
	opts := []Option{WithClock(func() time.Time { return fixedNow }), WithObserver(obs)}
	return &testServices{
		store:    s,
		tasks:    NewTaskService(s, opts...),
		projects: NewProjectService(s, opts...),
		tags:     NewTagService(s, opts...),
		events:   obs,
	}
}

func ms(t time.Time) *int64 {
	v := t.UnixMilli()
	return &v
}

func (ts *testServices) createTask(t *testing.T, draft model.TaskDraft) model.Task {
	t.Helper()
	task, err := ts.tasks.Create(context.Background(), draft)
	require.NoError(t, err)
	return task
}

// seedTasks writes tasks straight into the document, bypassing Create.
func (ts *testServices) seedTasks(t *testing.T, tasks ...model.Task) {
	t.Helper()
	err := ts.store.Update(context.Background(), func(doc *model.Document) error {
		doc.Tasks = append(doc.Tasks, tasks...)
		return nil
	})
	require.NoError(t, err)
}

func taskIDs(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (r *recordingObserver) ObserveUseCase(_ context.Context, event UseCaseEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingObserver) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Name
	}
	return out
}
