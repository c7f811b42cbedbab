// Package store owns the persisted Document: one JSON value in a key/value
// medium, fronted by an in-memory read-through cache.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dori/gtdsync/internal/kv"
	"github.com/dori/gtdsync/internal/model"
)

// DocumentKey is the medium key holding the Document
const DocumentKey = "gtd_data"

// Store loads and saves the Document. The cache is only replaced after the
// medium accepted a write, so a failed Save leaves readers on the previous
// state.
type Store struct {
	medium kv.Store

	mu    sync.Mutex
	cache *model.Document
}

// New creates a Store over medium
func New(medium kv.Store) *Store {
	return &Store{medium: medium}
}

// Load reads the Document from the medium, bypassing the cache. An absent
// key yields (and persists) a fresh empty Document.
func (s *Store) Load(ctx context.Context) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadLocked(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Clone(), nil
}

// Cached returns a copy of the cached Document, loading it on first use.
func (s *Store) Cached(ctx context.Context) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.cachedLocked(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Clone(), nil
}

// Save stamps the schema version on doc and writes it.
func (s *Store) Save(ctx context.Context, doc *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeLocked(ctx, doc)
}

// Update runs fn on a copy of the current Document and saves the result.
// Nothing is written when fn returns an error.
func (s *Store) Update(ctx context.Context, fn func(doc *model.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.cachedLocked(ctx)
	if err != nil {
		return err
	}

	doc := current.Clone()
	if err := fn(doc); err != nil {
		return err
	}
	return s.writeLocked(ctx, doc)
}

// Clear deletes the stored Document and drops the cache. The next Load
// behaves like a fresh install.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.medium.Delete(ctx, DocumentKey); err != nil {
		return fmt.Errorf("%w: delete document: %w", model.ErrStorage, err)
	}
	s.cache = nil
	return nil
}

func (s *Store) cachedLocked(ctx context.Context) (*model.Document, error) {
	if s.cache != nil {
		return s.cache, nil
	}
	return s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) (*model.Document, error) {
	raw, err := s.medium.Get(ctx, DocumentKey)
	if errors.Is(err, kv.ErrNotFound) {
		doc := model.NewDocument()
		if err := s.writeLocked(ctx, doc); err != nil {
			return nil, err
		}
		return s.cache, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read document: %w", model.ErrStorage, err)
	}

	doc, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: parse document: %w", model.ErrStorage, err)
	}
	s.cache = doc
	return doc, nil
}

func (s *Store) writeLocked(ctx context.Context, doc *model.Document) error {
	doc.Version = model.SchemaVersion
	doc.Normalize()

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: encode document: %w", model.ErrStorage, err)
	}
	if err := s.medium.Set(ctx, DocumentKey, string(data)); err != nil {
		return fmt.Errorf("%w: write document: %w", model.ErrStorage, err)
	}
	s.cache = doc.Clone()
	return nil
}

func decode(raw string) (*model.Document, error) {
	var doc model.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, err
	}
	doc.Normalize()
	return &doc, nil
}
