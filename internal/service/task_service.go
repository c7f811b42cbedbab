// Package service implements the task, project and tag use cases on top of
// the persisted Document.
package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dori/gtdsync/internal/ids"
	"github.com/dori/gtdsync/internal/model"
	"github.com/dori/gtdsync/internal/store"
)

const dayMillis = int64(86400000)

// TaskService provides task CRUD and the derived task views
type TaskService struct {
	base
}

// NewTaskService creates a TaskService over s
func NewTaskService(s *store.Store, opts ...Option) *TaskService {
	return &TaskService{base: newBase(s, opts)}
}

func (s *TaskService) filter(ctx context.Context, keep func(t *model.Task) bool) ([]model.Task, error) {
	doc, err := s.store.Cached(ctx)
	if err != nil {
		return nil, err
	}
	out := []model.Task{}
	for i := range doc.Tasks {
		if keep(&doc.Tasks[i]) {
			out = append(out, doc.Tasks[i])
		}
	}
	return out, nil
}

// All returns every task in document order
func (s *TaskService) All(ctx context.Context) ([]model.Task, error) {
	return s.filter(ctx, func(*model.Task) bool { return true })
}

// Get returns the task with id
func (s *TaskService) Get(ctx context.Context, id string) (model.Task, error) {
	doc, err := s.store.Cached(ctx)
	if err != nil {
		return model.Task{}, err
	}
	idx := doc.TaskIndex(id)
	if idx < 0 {
		return model.Task{}, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}
	return doc.Tasks[idx], nil
}

// ByStatus returns tasks with the given status
func (s *TaskService) ByStatus(ctx context.Context, status model.Status) ([]model.Task, error) {
	return s.filter(ctx, func(t *model.Task) bool { return t.Status == status })
}

// Inbox returns open, unscheduled tasks still in the inbox
func (s *TaskService) Inbox(ctx context.Context) ([]model.Task, error) {
	return s.filter(ctx, func(t *model.Task) bool {
		return t.Status == model.StatusInbox && !t.Completed && t.DueDate == nil
	})
}

// Today returns tasks due between local midnight today and tomorrow
func (s *TaskService) Today(ctx context.Context) ([]model.Task, error) {
	from := dayStart(s.now())
	to := from.AddDate(0, 0, 1)
	return s.filter(ctx, func(t *model.Task) bool { return t.DueBetween(from, to) })
}

// Tomorrow returns tasks due on the next local calendar day
func (s *TaskService) Tomorrow(ctx context.Context) ([]model.Task, error) {
	from := dayStart(s.now()).AddDate(0, 0, 1)
	to := from.AddDate(0, 0, 1)
	return s.filter(ctx, func(t *model.Task) bool { return t.DueBetween(from, to) })
}

// Overdue returns open tasks due before local midnight today
func (s *TaskService) Overdue(ctx context.Context) ([]model.Task, error) {
	start := dayStart(s.now())
	return s.filter(ctx, func(t *model.Task) bool { return t.IsOverdue(start) })
}

// Upcoming returns open tasks due in the days days after today, soonest first
func (s *TaskService) Upcoming(ctx context.Context, days int) ([]model.Task, error) {
	from := dayStart(s.now()).AddDate(0, 0, 1)
	to := from.AddDate(0, 0, days)
	tasks, err := s.filter(ctx, func(t *model.Task) bool {
		return !t.Completed && t.DueBetween(from, to)
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(tasks, func(a, b model.Task) int {
		return cmp.Compare(*a.DueDate, *b.DueDate)
	})
	return tasks, nil
}

// ByProject returns tasks referencing projectID
func (s *TaskService) ByProject(ctx context.Context, projectID string) ([]model.Task, error) {
	return s.filter(ctx, func(t *model.Task) bool { return t.InProject(projectID) })
}

// ByTag returns tasks carrying tagID
func (s *TaskService) ByTag(ctx context.Context, tagID string) ([]model.Task, error) {
	return s.filter(ctx, func(t *model.Task) bool { return t.HasTag(tagID) })
}

// Completed returns completed tasks, most recently completed first
func (s *TaskService) Completed(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.filter(ctx, func(t *model.Task) bool { return t.Completed })
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(tasks, func(a, b model.Task) int {
		return cmp.Compare(completedAt(b), completedAt(a))
	})
	return tasks, nil
}

// Search matches query case-insensitively against title and description
func (s *TaskService) Search(ctx context.Context, query string) ([]model.Task, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	return s.filter(ctx, func(t *model.Task) bool {
		if q == "" {
			return false
		}
		return strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Description), q)
	})
}

// Create adds a task. Status defaults to inbox.
func (s *TaskService) Create(ctx context.Context, draft model.TaskDraft) (task model.Task, err error) {
	defer s.observe(ctx, "create-task", map[string]any{"title": draft.Title})(&err)

	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return model.Task{}, fmt.Errorf("%w: task title is required", model.ErrValidation)
	}
	status := draft.Status
	if status == "" {
		status = model.StatusInbox
	}
	if !status.Valid() {
		return model.Task{}, fmt.Errorf("%w: unknown status %q", model.ErrValidation, status)
	}
	if !draft.Priority.Valid() {
		return model.Task{}, fmt.Errorf("%w: unknown priority %q", model.ErrValidation, draft.Priority)
	}

	now := s.nowMillis()
	task = model.Task{
		ID:          ids.New(),
		Title:       title,
		Description: draft.Description,
		Status:      status,
		Priority:    draft.Priority,
		DueDate:     draft.DueDate,
		ProjectID:   draft.ProjectID,
		TagIDs:      uniqueIDs(draft.TagIDs),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.store.Update(ctx, func(doc *model.Document) error {
		doc.Tasks = append(doc.Tasks, task.Clone())
		return nil
	})
	if err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// Update merges patch into the task with id. An inbox task that gains a
// due date or a non-inbox status is promoted (see model.PromoteStatus).
func (s *TaskService) Update(ctx context.Context, id string, patch model.TaskPatch) (task model.Task, err error) {
	defer s.observe(ctx, "update-task", map[string]any{"task_id": id})(&err)

	if err := validateTaskPatch(patch); err != nil {
		return model.Task{}, err
	}

	err = s.store.Update(ctx, func(doc *model.Document) error {
		idx := doc.TaskIndex(id)
		if idx < 0 {
			return fmt.Errorf("task %s: %w", id, model.ErrNotFound)
		}
		applyTaskPatch(&doc.Tasks[idx], patch, s.nowMillis())
		task = doc.Tasks[idx].Clone()
		return nil
	})
	if err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// Complete marks the task done and stamps completedAt
func (s *TaskService) Complete(ctx context.Context, id string) (model.Task, error) {
	done := true
	return s.Update(ctx, id, model.TaskPatch{Completed: &done})
}

// Uncomplete reopens the task and clears completedAt
func (s *TaskService) Uncomplete(ctx context.Context, id string) (model.Task, error) {
	done := false
	return s.Update(ctx, id, model.TaskPatch{Completed: &done})
}

// ToggleTag attaches tagID to the task, or detaches it if already present
func (s *TaskService) ToggleTag(ctx context.Context, id, tagID string) (model.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	tags := slices.DeleteFunc(slices.Clone(task.TagIDs), func(t string) bool { return t == tagID })
	if len(tags) == len(task.TagIDs) {
		tags = append(tags, tagID)
	}
	return s.Update(ctx, id, model.TaskPatch{TagIDs: &tags})
}

// Delete removes the task. Deleting an absent id is a no-op.
func (s *TaskService) Delete(ctx context.Context, id string) (err error) {
	defer s.observe(ctx, "delete-task", map[string]any{"task_id": id})(&err)

	return s.store.Update(ctx, func(doc *model.Document) error {
		doc.Tasks = slices.DeleteFunc(doc.Tasks, func(t model.Task) bool { return t.ID == id })
		return nil
	})
}

// ArchiveOlderThan removes completed tasks whose completedAt is more than
// days days ago and returns how many were removed. Completed tasks without a
// completedAt are kept.
func (s *TaskService) ArchiveOlderThan(ctx context.Context, days int) (removed int, err error) {
	fields := map[string]any{"days": days}
	defer s.observe(ctx, "archive-tasks", fields)(&err)

	cutoff := s.nowMillis() - int64(days)*dayMillis
	err = s.store.Update(ctx, func(doc *model.Document) error {
		before := len(doc.Tasks)
		doc.Tasks = slices.DeleteFunc(doc.Tasks, func(t model.Task) bool {
			return t.Completed && t.CompletedAt != nil && *t.CompletedAt < cutoff
		})
		removed = before - len(doc.Tasks)
		return nil
	})
	if err != nil {
		return 0, err
	}
	fields["removed"] = removed
	return removed, nil
}

func validateTaskPatch(patch model.TaskPatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return fmt.Errorf("%w: task title cannot be empty", model.ErrValidation)
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", model.ErrValidation, *patch.Status)
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", model.ErrValidation, *patch.Priority)
	}
	return nil
}

func applyTaskPatch(t *model.Task, patch model.TaskPatch, now int64) {
	t.Status = model.PromoteStatus(t.Status, patch)

	if patch.Title != nil {
		t.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	patch.DueDate.Apply(&t.DueDate)
	patch.ProjectID.Apply(&t.ProjectID)
	if patch.TagIDs != nil {
		t.TagIDs = uniqueIDs(*patch.TagIDs)
	}
	if patch.Completed != nil {
		setCompleted(t, *patch.Completed, now)
	}
	t.UpdatedAt = now
}

// setCompleted keeps completed and completedAt in lockstep. Re-completing a
// done task keeps its original completion time.
func setCompleted(t *model.Task, done bool, now int64) {
	switch {
	case done && !t.Completed:
		t.Completed = true
		t.CompletedAt = &now
	case done && t.CompletedAt == nil:
		t.CompletedAt = &now
	case !done:
		t.Completed = false
		t.CompletedAt = nil
	}
}

func completedAt(t model.Task) int64 {
	if t.CompletedAt == nil {
		return 0
	}
	return *t.CompletedAt
}

func uniqueIDs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, id := range in {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
