// Package memstore is an in-process docstore backend used in tests and local development.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
)

// Store keeps documents in a map guarded by a mutex.
type Store struct {
	mu   sync.RWMutex
	docs map[string]docstore.Data
	now  func() time.Time
}

// New constructs an empty store.
func New() *Store {
	return &Store{docs: make(map[string]docstore.Data), now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the clock used for server timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Get returns a copy of the document at path.
func (s *Store) Get(ctx context.Context, path string) (*docstore.Document, error) {
	if _, _, err := docstore.SplitDocPath(path); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.docs[path]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return s.document(path, data), nil
}

// Set overwrites the document at path.
func (s *Store) Set(ctx context.Context, path string, data docstore.Data) error {
	if _, _, err := docstore.SplitDocPath(path); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path] = docstore.Resolve(data, s.now())
	return nil
}

// Merge deep merges data into the document, creating it when missing.
func (s *Store) Merge(ctx context.Context, path string, data docstore.Data) error {
	if _, _, err := docstore.SplitDocPath(path); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path] = docstore.ApplyMerge(s.docs[path], data, s.now())
	return nil
}

// Update patches an existing document.
func (s *Store) Update(ctx context.Context, path string, updates docstore.Data) error {
	if _, _, err := docstore.SplitDocPath(path); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.docs[path]
	if !ok {
		return docstore.ErrNotFound
	}
	s.docs[path] = docstore.ApplyUpdate(existing, updates, s.now())
	return nil
}

// Delete removes the document; a missing document is not an error.
func (s *Store) Delete(ctx context.Context, path string) error {
	if _, _, err := docstore.SplitDocPath(path); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, path)
	return nil
}

// List returns the direct children of collection ordered by path.
func (s *Store) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	return s.Query(ctx, collection)
}

// Query returns direct children of collection matching every filter.
func (s *Store) Query(ctx context.Context, collection string, filters ...docstore.Filter) ([]docstore.Document, error) {
	if err := docstore.ValidateCollectionPath(collection); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []docstore.Document
	for path, data := range s.docs {
		parent, _, err := docstore.SplitDocPath(path)
		if err != nil || parent != collection {
			continue
		}
		if !docstore.Matches(data, filters) {
			continue
		}
		result = append(result, *s.document(path, data))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}

func (s *Store) document(path string, data docstore.Data) *docstore.Document {
	_, id, _ := docstore.SplitDocPath(path)
	return &docstore.Document{Path: path, ID: id, Data: docstore.Clone(data)}
}
