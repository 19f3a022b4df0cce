// Package docstore defines a small schemaless document store contract with
// nested collections addressed by slash-separated paths.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("docstore: document not found")

// Data is the schemaless body of a document.
type Data = map[string]interface{}

// Document is a stored document together with its location.
type Document struct {
	Path string
	ID   string
	Data Data
}

// Op identifies a query filter operator.
type Op string

// Supported filter operators.
const (
	OpEqual         Op = "=="
	OpArrayContains Op = "array-contains"
)

// Filter restricts a query on a (possibly dotted) field.
type Filter struct {
	Field string
	Op    Op
	Value interface{}
}

// Where builds an equality filter.
func Where(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpEqual, Value: value}
}

// ArrayContains builds an array membership filter.
func ArrayContains(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpArrayContains, Value: value}
}

// Store is implemented by every backend.
type Store interface {
	Get(ctx context.Context, path string) (*Document, error)
	Set(ctx context.Context, path string, data Data) error
	Merge(ctx context.Context, path string, data Data) error
	Update(ctx context.Context, path string, updates Data) error
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, collection string) ([]Document, error)
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
}

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// SplitDocPath returns the collection path and id of a document path.
func SplitDocPath(path string) (collection, id string, err error) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) < 2 || len(segments)%2 != 0 {
		return "", "", fmt.Errorf("docstore: %q is not a document path", path)
	}
	for _, s := range segments {
		if s == "" {
			return "", "", fmt.Errorf("docstore: %q has an empty segment", path)
		}
	}
	return strings.Join(segments[:len(segments)-1], "/"), segments[len(segments)-1], nil
}

// ValidateCollectionPath checks that path addresses a collection.
func ValidateCollectionPath(path string) error {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments)%2 != 1 {
		return fmt.Errorf("docstore: %q is not a collection path", path)
	}
	for _, s := range segments {
		if s == "" {
			return fmt.Errorf("docstore: %q has an empty segment", path)
		}
	}
	return nil
}

// ParentOf returns the parent document path of a collection ("" for root collections).
func ParentOf(collection string) string {
	idx := strings.LastIndex(collection, "/")
	if idx < 0 {
		return ""
	}
	return collection[:idx]
}
