package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dori/gtdsync/internal/model"
)

var requiredCollections = []string{"tasks", "projects", "tags"}

// Export returns the current Document as indented JSON.
func (s *Store) Export(ctx context.Context) (string, error) {
	doc, err := s.Cached(ctx)
	if err != nil {
		return "", err
	}
	return Marshal(doc)
}

// Import replaces the whole Document with the one encoded in text. The
// payload must be a JSON object carrying tasks, projects and tags arrays.
func (s *Store) Import(ctx context.Context, text string) error {
	doc, err := Parse(text)
	if err != nil {
		return err
	}
	return s.Save(ctx, doc)
}

// Marshal encodes doc the way Export does
func Marshal(doc *model.Document) (string, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: encode document: %w", model.ErrStorage, err)
	}
	return string(data), nil
}

// Parse validates and decodes a Document payload.
func Parse(text string) (*model.Document, error) {
	var shape map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &shape); err != nil {
		return nil, fmt.Errorf("%w: payload is not a JSON object: %w", model.ErrValidation, err)
	}
	for _, key := range requiredCollections {
		raw, ok := shape[key]
		if !ok || len(raw) == 0 || raw[0] != '[' {
			return nil, fmt.Errorf("%w: payload has no %q array", model.ErrValidation, key)
		}
	}

	doc, err := decode(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrValidation, err)
	}
	return doc, nil
}
