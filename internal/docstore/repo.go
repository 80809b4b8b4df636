package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/sislog/internal/apperr"
)

// Add stores data as a new document with a store-assigned id and returns
// the id.
func (s *Store) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	if s.closed.Load() {
		return "", apperr.ErrClosed
	}
	now := s.clock.Now()
	id := s.newID()
	raw, err := json.Marshal(resolveFields(data, now))
	if err != nil {
		return "", fmt.Errorf("docstore: encode: %w", err)
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, collection, id, string(raw), now.UnixNano(), now.UnixNano())
	if err != nil {
		return "", fmt.Errorf("docstore: add to %s: %w", collection, err)
	}
	s.notify(collection)
	return id, nil
}

// Set writes data as the full content of document id, creating it if
// needed. The creation time of an existing document is kept.
func (s *Store) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if s.closed.Load() {
		return apperr.ErrClosed
	}
	now := s.clock.Now()
	raw, err := json.Marshal(resolveFields(data, now))
	if err != nil {
		return fmt.Errorf("docstore: encode: %w", err)
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			data       = excluded.data,
			updated_at = excluded.updated_at
	`, collection, id, string(raw), now.UnixNano(), now.UnixNano())
	if err != nil {
		return fmt.Errorf("docstore: set %s/%s: %w", collection, id, err)
	}
	s.notify(collection)
	return nil
}

// Get returns one document, or apperr.ErrNotFound.
func (s *Store) Get(ctx context.Context, collection, id string) (Document, error) {
	if s.closed.Load() {
		return Document{}, apperr.ErrClosed
	}
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, data, created_at, updated_at
		FROM documents WHERE collection = ? AND id = ?
	`, collection, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("docstore: get %s/%s: %w", collection, id, apperr.ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("docstore: get %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

// Update merges fields into document id. Keys not in fields are left as
// they are. Returns apperr.ErrNotFound if the document does not exist.
func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if s.closed.Load() {
		return apperr.ErrClosed
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("docstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("docstore: update %s/%s: %w", collection, id, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("docstore: update %s/%s: %w", collection, id, err)
	}

	data := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return fmt.Errorf("docstore: decode %s/%s: %w", collection, id, err)
	}
	now := s.clock.Now()
	for k, v := range resolveFields(fields, now) {
		data[k] = v
	}
	merged, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("docstore: encode: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE documents SET data = ?, updated_at = ?
		WHERE collection = ? AND id = ?
	`, string(merged), now.UnixNano(), collection, id); err != nil {
		return fmt.Errorf("docstore: update %s/%s: %w", collection, id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("docstore: commit: %w", err)
	}
	s.notify(collection)
	return nil
}

// Delete removes document id. Deleting a document that does not exist is
// a no-op and returns nil.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if s.closed.Load() {
		return apperr.ErrClosed
	}
	res, err := s.conn.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("docstore: delete %s/%s: %w", collection, id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.notify(collection)
	}
	return nil
}

// List returns every document in collection, oldest first.
func (s *Store) List(ctx context.Context, collection string) ([]Document, error) {
	if s.closed.Load() {
		return nil, apperr.ErrClosed
	}
	return s.list(ctx, collection)
}

func (s *Store) list(ctx context.Context, collection string) ([]Document, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, data, created_at, updated_at
		FROM documents WHERE collection = ?
		ORDER BY created_at, id
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("docstore: list %s: %w", collection, err)
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("docstore: list %s: %w", collection, err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (Document, error) {
	var (
		doc                  Document
		raw                  string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&doc.ID, &raw, &createdAt, &updatedAt); err != nil {
		return Document{}, err
	}
	doc.Data = map[string]any{}
	if err := json.Unmarshal([]byte(raw), &doc.Data); err != nil {
		return Document{}, err
	}
	doc.CreateTime = time.Unix(0, createdAt).UTC()
	doc.UpdateTime = time.Unix(0, updatedAt).UTC()
	return doc, nil
}
