package model

import (
	"slices"
	"time"
)

// Status represents where a task sits in the GTD workflow
type Status string

const (
	StatusInbox   Status = "inbox"
	StatusNext    Status = "next"
	StatusWaiting Status = "waiting"
	StatusSomeday Status = "someday"
)

// DefaultActiveStatus is the status an inbox task is promoted to when an
// edit schedules it without naming a status.
const DefaultActiveStatus = StatusNext

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusInbox, StatusNext, StatusWaiting, StatusSomeday:
		return true
	}
	return false
}

// Priority represents task priority level
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is empty (unset) or a known priority
func (p Priority) Valid() bool {
	switch p {
	case "", PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task represents a todo item. Timestamps are epoch milliseconds.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      Status   `json:"status,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
	DueDate     *int64   `json:"dueDate,omitempty"`
	ProjectID   *string  `json:"projectId,omitempty"`
	TagIDs      []string `json:"tagIds"`
	Completed   bool     `json:"completed"`
	CompletedAt *int64   `json:"completedAt,omitempty"`
	CreatedAt   int64    `json:"createdAt"`
	UpdatedAt   int64    `json:"updatedAt"`
}

// IsOverdue returns true if the task is open and due before dayStart
func (t *Task) IsOverdue(dayStart time.Time) bool {
	if t.DueDate == nil || t.Completed {
		return false
	}
	return *t.DueDate < dayStart.UnixMilli()
}

// DueBetween reports whether the due date falls in [from, to)
func (t *Task) DueBetween(from, to time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	return *t.DueDate >= from.UnixMilli() && *t.DueDate < to.UnixMilli()
}

// HasTag reports whether tagID is attached to the task
func (t *Task) HasTag(tagID string) bool {
	return slices.Contains(t.TagIDs, tagID)
}

// InProject reports whether the task references projectID
func (t *Task) InProject(projectID string) bool {
	return t.ProjectID != nil && *t.ProjectID == projectID
}

// PriorityWeight returns a numeric weight for sorting by priority
func (t *Task) PriorityWeight() int {
	switch t.Priority {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Clone returns a deep copy of the task
func (t Task) Clone() Task {
	c := t
	c.DueDate = clonePtr(t.DueDate)
	c.ProjectID = clonePtr(t.ProjectID)
	c.CompletedAt = clonePtr(t.CompletedAt)
	c.TagIDs = append([]string{}, t.TagIDs...)
	return c
}

// TaskDraft carries the caller-supplied fields of a new task
type TaskDraft struct {
	Title       string
	Description string
	Status      Status
	Priority    Priority
	DueDate     *int64
	ProjectID   *string
	TagIDs      []string
}

// TaskPatch is a partial update. Nil pointers and unset Nullables leave the
// field untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	DueDate     Nullable[int64]
	ProjectID   Nullable[string]
	TagIDs      *[]string
	Completed   *bool
}

// PromoteStatus returns the status a task ends up with when patch is applied
// to a task currently in prev.
//
// Only inbox tasks are promoted: scheduling one (setting a due date) or
// naming a non-inbox status moves it out of the inbox. A due date without an
// explicit status lands on DefaultActiveStatus, even if the patch asks for
// inbox.
func PromoteStatus(prev Status, patch TaskPatch) Status {
	if prev != StatusInbox {
		if patch.Status != nil {
			return *patch.Status
		}
		return prev
	}

	if patch.Status != nil && *patch.Status != StatusInbox {
		return *patch.Status
	}
	if patch.DueDate.IsSet() && !patch.DueDate.IsNull() {
		return DefaultActiveStatus
	}
	return StatusInbox
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
