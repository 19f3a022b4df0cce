// Package pgstore keeps documents in a single PostgreSQL JSONB table.
package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
)

// Schema creates the backing table.
const Schema = `CREATE TABLE IF NOT EXISTS documents (
    path TEXT PRIMARY KEY,
    collection TEXT NOT NULL,
    data JSONB NOT NULL DEFAULT '{}'::jsonb,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS documents_collection_idx ON documents (collection);`

const upsertQuery = `INSERT INTO documents (path, collection, data, updated_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (path) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`

type documentRow struct {
	Path string `db:"path"`
	Data []byte `db:"data"`
}

// Store implements docstore.Store on PostgreSQL.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// New constructs the store.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// EnsureSchema creates the documents table if needed.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

// Get loads the document at path.
func (s *Store) Get(ctx context.Context, path string) (*docstore.Document, error) {
	if _, _, err := docstore.SplitDocPath(path); err != nil {
		return nil, err
	}
	var row documentRow
	if err := s.db.GetContext(ctx, &row, `SELECT path, data FROM documents WHERE path = $1`, path); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, docstore.ErrNotFound
		}
		return nil, fmt.Errorf("select document %s: %w", path, err)
	}
	return decodeRow(row)
}

// Set overwrites the document at path.
func (s *Store) Set(ctx context.Context, path string, data docstore.Data) error {
	collection, _, err := docstore.SplitDocPath(path)
	if err != nil {
		return err
	}
	now := s.now()
	payload, err := json.Marshal(docstore.Resolve(data, now))
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", path, err)
	}
	if _, err := s.db.ExecContext(ctx, upsertQuery, path, collection, payload, now); err != nil {
		return fmt.Errorf("upsert document %s: %w", path, err)
	}
	return nil
}

// Merge deep merges data into the document, creating it when missing.
func (s *Store) Merge(ctx context.Context, path string, data docstore.Data) error {
	return s.mutate(ctx, path, true, func(existing docstore.Data, now time.Time) docstore.Data {
		return docstore.ApplyMerge(existing, data, now)
	})
}

// Update patches an existing document.
func (s *Store) Update(ctx context.Context, path string, updates docstore.Data) error {
	return s.mutate(ctx, path, false, func(existing docstore.Data, now time.Time) docstore.Data {
		return docstore.ApplyUpdate(existing, updates, now)
	})
}

// Delete removes the document at path.
func (s *Store) Delete(ctx context.Context, path string) error {
	if _, _, err := docstore.SplitDocPath(path); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE path = $1`, path); err != nil {
		return fmt.Errorf("delete document %s: %w", path, err)
	}
	return nil
}

// List returns every document of collection.
func (s *Store) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	return s.Query(ctx, collection)
}

// Query returns documents of collection matching every filter.
func (s *Store) Query(ctx context.Context, collection string, filters ...docstore.Filter) ([]docstore.Document, error) {
	if err := docstore.ValidateCollectionPath(collection); err != nil {
		return nil, err
	}
	query, args, err := buildQuery(collection, filters)
	if err != nil {
		return nil, err
	}
	var rows []documentRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query documents %s: %w", collection, err)
	}
	docs := make([]docstore.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

func (s *Store) mutate(ctx context.Context, path string, create bool, apply func(docstore.Data, time.Time) docstore.Data) (err error) {
	collection, _, err := docstore.SplitDocPath(path)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var raw []byte
	existing := docstore.Data{}
	err = tx.GetContext(ctx, &raw, `SELECT data FROM documents WHERE path = $1 FOR UPDATE`, path)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if !create {
			return docstore.ErrNotFound
		}
		err = nil
	case err != nil:
		return fmt.Errorf("lock document %s: %w", path, err)
	default:
		if err = json.Unmarshal(raw, &existing); err != nil {
			return fmt.Errorf("decode document %s: %w", path, err)
		}
	}

	now := s.now()
	payload, err := json.Marshal(apply(existing, now))
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", path, err)
	}
	if _, err = tx.ExecContext(ctx, upsertQuery, path, collection, payload, now); err != nil {
		return fmt.Errorf("write document %s: %w", path, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit document %s: %w", path, err)
	}
	return nil
}

func buildQuery(collection string, filters []docstore.Filter) (string, []interface{}, error) {
	conditions := []string{"collection = $1"}
	args := []interface{}{collection}
	for _, f := range filters {
		fieldPath := pq.Array(strings.Split(f.Field, "."))
		switch f.Op {
		case docstore.OpArrayContains:
			element, err := json.Marshal([]interface{}{f.Value})
			if err != nil {
				return "", nil, fmt.Errorf("marshal filter %s: %w", f.Field, err)
			}
			conditions = append(conditions, fmt.Sprintf("data #> $%d @> $%d::jsonb", len(args)+1, len(args)+2))
			args = append(args, fieldPath, string(element))
		default:
			conditions = append(conditions, fmt.Sprintf("data #>> $%d = $%d", len(args)+1, len(args)+2))
			args = append(args, fieldPath, textValue(f.Value))
		}
	}
	query := "SELECT path, data FROM documents WHERE " + strings.Join(conditions, " AND ") + " ORDER BY path"
	return query, args, nil
}

func textValue(v interface{}) string {
	switch value := v.(type) {
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return fmt.Sprint(value)
	}
}

func decodeRow(row documentRow) (*docstore.Document, error) {
	data := docstore.Data{}
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &data); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", row.Path, err)
		}
	}
	_, id, err := docstore.SplitDocPath(row.Path)
	if err != nil {
		return nil, err
	}
	return &docstore.Document{Path: row.Path, ID: id, Data: data}, nil
}
