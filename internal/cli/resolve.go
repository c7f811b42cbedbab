package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dori/gtdsync/internal/model"
)

// matchID picks the one id equal to input, ending with it (the short form
// list prints) or starting with it.
func matchID(kind, input string, ids []string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%s ID is required", kind)
	}
	if slices.Contains(ids, input) {
		return input, nil
	}

	var matches []string
	for _, id := range ids {
		if strings.HasSuffix(id, input) || strings.HasPrefix(id, input) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s %q: %w", kind, input, model.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%s ID %q is ambiguous (%d matches)", kind, input, len(matches))
	}
}

func resolveTask(ctx context.Context, rt *runtime, input string) (model.Task, error) {
	tasks, err := rt.app.Tasks.All(ctx)
	if err != nil {
		return model.Task{}, err
	}
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	id, err := matchID("task", input, ids)
	if err != nil {
		return model.Task{}, err
	}
	return rt.app.Tasks.Get(ctx, id)
}

// resolveProject accepts an id, a short id or a project name, archived
// projects included.
func resolveProject(ctx context.Context, rt *runtime, input string) (model.Project, error) {
	active, err := rt.app.Projects.All(ctx)
	if err != nil {
		return model.Project{}, err
	}
	archived, err := rt.app.Projects.Archived(ctx)
	if err != nil {
		return model.Project{}, err
	}
	projects := append(active, archived...)

	for _, p := range projects {
		if strings.EqualFold(p.Name, strings.TrimSpace(input)) {
			return p, nil
		}
	}
	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	id, err := matchID("project", input, ids)
	if err != nil {
		return model.Project{}, err
	}
	return rt.app.Projects.Get(ctx, id)
}

// resolveTag accepts an id, a short id or a tag name with or without @.
func resolveTag(ctx context.Context, rt *runtime, input string) (model.Tag, error) {
	tags, err := rt.app.Tags.All(ctx)
	if err != nil {
		return model.Tag{}, err
	}
	if i := tagByName(tags, input); i >= 0 {
		return tags[i], nil
	}
	ids := make([]string, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	id, err := matchID("tag", input, ids)
	if err != nil {
		return model.Tag{}, err
	}
	return rt.app.Tags.Get(ctx, id)
}

func tagByName(tags []model.Tag, name string) int {
	name = tagName(name)
	return slices.IndexFunc(tags, func(t model.Tag) bool { return strings.EqualFold(tagName(t.Name), name) })
}

func tagName(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "@")
}
