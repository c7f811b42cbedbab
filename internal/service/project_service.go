package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dori/gtdsync/internal/ids"
	"github.com/dori/gtdsync/internal/model"
	"github.com/dori/gtdsync/internal/store"
)

// ProjectService provides project CRUD
type ProjectService struct {
	base
}

// NewProjectService creates a ProjectService over s
func NewProjectService(s *store.Store, opts ...Option) *ProjectService {
	return &ProjectService{base: newBase(s, opts)}
}

// TaskCount summarises the tasks that reference a project
type TaskCount struct {
	Open      int
	Completed int
}

func (s *ProjectService) filter(ctx context.Context, keep func(p *model.Project) bool) ([]model.Project, error) {
	doc, err := s.store.Cached(ctx)
	if err != nil {
		return nil, err
	}
	out := []model.Project{}
	for i := range doc.Projects {
		if keep(&doc.Projects[i]) {
			out = append(out, doc.Projects[i])
		}
	}
	return out, nil
}

// All returns all non-archived projects
func (s *ProjectService) All(ctx context.Context) ([]model.Project, error) {
	return s.filter(ctx, func(p *model.Project) bool { return !p.Archived })
}

// Archived returns only archived projects
func (s *ProjectService) Archived(ctx context.Context) ([]model.Project, error) {
	return s.filter(ctx, func(p *model.Project) bool { return p.Archived })
}

// Get returns a single project by ID
func (s *ProjectService) Get(ctx context.Context, id string) (model.Project, error) {
	doc, err := s.store.Cached(ctx)
	if err != nil {
		return model.Project{}, err
	}
	idx := doc.ProjectIndex(id)
	if idx < 0 {
		return model.Project{}, fmt.Errorf("project %s: %w", id, model.ErrNotFound)
	}
	return doc.Projects[idx], nil
}

// TaskCounts returns open and completed task counts keyed by project id
func (s *ProjectService) TaskCounts(ctx context.Context) (map[string]TaskCount, error) {
	doc, err := s.store.Cached(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]TaskCount)
	for _, t := range doc.Tasks {
		if t.ProjectID == nil {
			continue
		}
		c := counts[*t.ProjectID]
		if t.Completed {
			c.Completed++
		} else {
			c.Open++
		}
		counts[*t.ProjectID] = c
	}
	return counts, nil
}

// Create creates a new project
func (s *ProjectService) Create(ctx context.Context, draft model.ProjectDraft) (project model.Project, err error) {
	defer s.observe(ctx, "create-project", map[string]any{"name": draft.Name})(&err)

	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return model.Project{}, fmt.Errorf("%w: project name is required", model.ErrValidation)
	}

	now := s.nowMillis()
	project = model.Project{
		ID:          ids.New(),
		Name:        name,
		Description: draft.Description,
		Goal:        draft.Goal,
		Color:       draft.Color,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.store.Update(ctx, func(doc *model.Document) error {
		doc.Projects = append(doc.Projects, project)
		return nil
	})
	if err != nil {
		return model.Project{}, err
	}
	return project, nil
}

// Update merges patch into the project with id
func (s *ProjectService) Update(ctx context.Context, id string, patch model.ProjectPatch) (project model.Project, err error) {
	defer s.observe(ctx, "update-project", map[string]any{"project_id": id})(&err)

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return model.Project{}, fmt.Errorf("%w: project name cannot be empty", model.ErrValidation)
	}

	err = s.store.Update(ctx, func(doc *model.Document) error {
		idx := doc.ProjectIndex(id)
		if idx < 0 {
			return fmt.Errorf("project %s: %w", id, model.ErrNotFound)
		}
		p := &doc.Projects[idx]
		if patch.Name != nil {
			p.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if patch.Goal != nil {
			p.Goal = *patch.Goal
		}
		if patch.Color != nil {
			p.Color = *patch.Color
		}
		if patch.Archived != nil {
			p.Archived = *patch.Archived
		}
		p.UpdatedAt = s.nowMillis()
		project = *p
		return nil
	})
	if err != nil {
		return model.Project{}, err
	}
	return project, nil
}

// Archive hides the project from All
func (s *ProjectService) Archive(ctx context.Context, id string) (model.Project, error) {
	archived := true
	return s.Update(ctx, id, model.ProjectPatch{Archived: &archived})
}

// Unarchive restores an archived project
func (s *ProjectService) Unarchive(ctx context.Context, id string) (model.Project, error) {
	archived := false
	return s.Update(ctx, id, model.ProjectPatch{Archived: &archived})
}

// Delete removes the project and clears projectId on every task that
// referenced it. The tasks themselves are kept. Deleting an absent id is a
// no-op.
func (s *ProjectService) Delete(ctx context.Context, id string) (err error) {
	fields := map[string]any{"project_id": id}
	defer s.observe(ctx, "delete-project", fields)(&err)

	return s.store.Update(ctx, func(doc *model.Document) error {
		now := s.nowMillis()
		detached := 0
		for i := range doc.Tasks {
			if doc.Tasks[i].InProject(id) {
				doc.Tasks[i].ProjectID = nil
				doc.Tasks[i].UpdatedAt = now
				detached++
			}
		}
		doc.Projects = slices.DeleteFunc(doc.Projects, func(p model.Project) bool { return p.ID == id })
		fields["detached_tasks"] = detached
		return nil
	})
}
