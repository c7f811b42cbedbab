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

// TagService provides tag CRUD. Tag names are unique ignoring case.
type TagService struct {
	base
}

// NewTagService creates a TagService over s
func NewTagService(s *store.Store, opts ...Option) *TagService {
	return &TagService{base: newBase(s, opts)}
}

// All returns all tags ordered by name
func (s *TagService) All(ctx context.Context) ([]model.Tag, error) {
	doc, err := s.store.Cached(ctx)
	if err != nil {
		return nil, err
	}
	tags := doc.Tags
	slices.SortStableFunc(tags, func(a, b model.Tag) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return tags, nil
}

// Get returns a single tag by ID
func (s *TagService) Get(ctx context.Context, id string) (model.Tag, error) {
	doc, err := s.store.Cached(ctx)
	if err != nil {
		return model.Tag{}, err
	}
	idx := doc.TagIndex(id)
	if idx < 0 {
		return model.Tag{}, fmt.Errorf("tag %s: %w", id, model.ErrNotFound)
	}
	return doc.Tags[idx], nil
}

// Create creates a new tag. A tag whose name differs only in case already
// existing is a validation error.
func (s *TagService) Create(ctx context.Context, name, color string) (tag model.Tag, err error) {
	defer s.observe(ctx, "create-tag", map[string]any{"name": name})(&err)

	err = s.store.Update(ctx, func(doc *model.Document) error {
		var err error
		tag, err = s.insert(doc, name, color)
		return err
	})
	if err != nil {
		return model.Tag{}, err
	}
	return tag, nil
}

// GetOrCreateByName returns the tag whose name matches ignoring case, or
// creates it.
func (s *TagService) GetOrCreateByName(ctx context.Context, name string) (tag model.Tag, err error) {
	defer s.observe(ctx, "get-or-create-tag", map[string]any{"name": name})(&err)

	doc, err := s.store.Cached(ctx)
	if err != nil {
		return model.Tag{}, err
	}
	if idx := findTagByName(doc, name); idx >= 0 {
		return doc.Tags[idx], nil
	}

	err = s.store.Update(ctx, func(doc *model.Document) error {
		// The cached copy may be stale by now.
		if idx := findTagByName(doc, name); idx >= 0 {
			tag = doc.Tags[idx]
			return nil
		}
		var err error
		tag, err = s.insert(doc, name, "")
		return err
	})
	if err != nil {
		return model.Tag{}, err
	}
	return tag, nil
}

// Update renames or recolours a tag
func (s *TagService) Update(ctx context.Context, id string, patch model.TagPatch) (tag model.Tag, err error) {
	defer s.observe(ctx, "update-tag", map[string]any{"tag_id": id})(&err)

	err = s.store.Update(ctx, func(doc *model.Document) error {
		idx := doc.TagIndex(id)
		if idx < 0 {
			return fmt.Errorf("tag %s: %w", id, model.ErrNotFound)
		}
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return fmt.Errorf("%w: tag name cannot be empty", model.ErrValidation)
			}
			if other := findTagByName(doc, name); other >= 0 && other != idx {
				return fmt.Errorf("%w: tag %q already exists", model.ErrValidation, name)
			}
			doc.Tags[idx].Name = name
		}
		if patch.Color != nil {
			doc.Tags[idx].Color = *patch.Color
		}
		tag = doc.Tags[idx]
		return nil
	})
	if err != nil {
		return model.Tag{}, err
	}
	return tag, nil
}

// Delete removes the tag and strips it from every task. Deleting an absent
// id is a no-op.
func (s *TagService) Delete(ctx context.Context, id string) (err error) {
	fields := map[string]any{"tag_id": id}
	defer s.observe(ctx, "delete-tag", fields)(&err)

	return s.store.Update(ctx, func(doc *model.Document) error {
		now := s.nowMillis()
		untagged := 0
		for i := range doc.Tasks {
			t := &doc.Tasks[i]
			if !t.HasTag(id) {
				continue
			}
			t.TagIDs = slices.DeleteFunc(t.TagIDs, func(tagID string) bool { return tagID == id })
			t.UpdatedAt = now
			untagged++
		}
		doc.Tags = slices.DeleteFunc(doc.Tags, func(t model.Tag) bool { return t.ID == id })
		fields["untagged_tasks"] = untagged
		return nil
	})
}

func (s *TagService) insert(doc *model.Document, name, color string) (model.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Tag{}, fmt.Errorf("%w: tag name is required", model.ErrValidation)
	}
	if findTagByName(doc, name) >= 0 {
		return model.Tag{}, fmt.Errorf("%w: tag %q already exists", model.ErrValidation, name)
	}
	tag := model.Tag{
		ID:        ids.New(),
		Name:      name,
		Color:     color,
		CreatedAt: s.nowMillis(),
	}
	doc.Tags = append(doc.Tags, tag)
	return tag, nil
}

func findTagByName(doc *model.Document, name string) int {
	return slices.IndexFunc(doc.Tags, func(t model.Tag) bool { return t.SameName(name) })
}
