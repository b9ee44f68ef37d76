package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/fmea/internal/model"
	"github.com/roach88/fmea/internal/obs"
)

// Load reads the whole document. Collections with no rows load as empty.
func (s *Store) Load(ctx context.Context) (doc *model.Document, err error) {
	start := time.Now()
	defer func() { obs.ObserveStore(BackendName, "load", start, err) }()

	doc, err = loadRows(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return doc, nil
}

// Save replaces every stored record with the contents of doc in one
// transaction.
func (s *Store) Save(ctx context.Context, doc *model.Document) (err error) {
	start := time.Now()
	defer func() { obs.ObserveStore(BackendName, "save", start, err) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err = saveRows(ctx, tx, doc); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("save: commit: %w", err)
	}
	return nil
}

// Update runs one read-modify-write cycle inside a single immediate
// transaction. The document is written only if fn returns nil; fn's error is
// returned as is.
func (s *Store) Update(ctx context.Context, fn func(doc *model.Document) error) (err error) {
	start := time.Now()
	defer func() { obs.ObserveStore(BackendName, "update", start, err) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	doc, err := loadRows(ctx, tx)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if err = fn(doc); err != nil {
		return err
	}
	if err = saveRows(ctx, tx, doc); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("update: commit: %w", err)
	}
	return nil
}

// View loads the document and hands it to fn. Changes fn makes are not
// persisted.
func (s *Store) View(ctx context.Context, fn func(doc *model.Document) error) error {
	doc, err := s.Load(ctx)
	if err != nil {
		return err
	}
	return fn(doc)
}

// Counts returns the number of stored records per collection without decoding
// any bodies. Every known collection is present in the result, and so is any
// unmodeled collection that has rows.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(model.Collections))
	for _, name := range model.Collections {
		counts[name] = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT collection, COUNT(*)
		FROM records
		GROUP BY collection
		ORDER BY collection ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("counts: scan: %w", err)
		}
		counts[name] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("counts: %w", err)
	}
	return counts, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func loadRows(ctx context.Context, q querier) (*model.Document, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT collection, id, position, body
		FROM records
		ORDER BY collection ASC, position ASC, id ASC COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var all []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.collection, &r.id, &r.position, &r.body); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	meta, err := loadMeta(ctx, q)
	if err != nil {
		return nil, err
	}
	return joinDocument(all, meta)
}

func loadMeta(ctx context.Context, q querier) (map[string]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT key, value FROM document_meta ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("query document_meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan document_meta: %w", err)
		}
		meta[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document_meta: %w", err)
	}
	return meta, nil
}

func saveRows(ctx context.Context, q querier, doc *model.Document) error {
	rows, meta, err := splitDocument(doc)
	if err != nil {
		return err
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM document_meta`); err != nil {
		return fmt.Errorf("clear document_meta: %w", err)
	}
	for key, value := range meta {
		if _, err := q.ExecContext(ctx, `INSERT INTO document_meta (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("insert document_meta %s: %w", key, err)
		}
	}

	dropped := 0
	for _, r := range rows {
		// ON CONFLICT keeps the first record when a collection repeats an id,
		// matching the first-match lookup rule of the query layer.
		res, err := q.ExecContext(ctx, `
			INSERT INTO records (collection, id, position, body)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(collection, id) DO NOTHING
		`, r.collection, r.id, r.position, r.body)
		if err != nil {
			return fmt.Errorf("insert %s/%s: %w", r.collection, r.id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			dropped++
		}
	}
	if dropped > 0 {
		slog.Warn("dropped records with duplicate ids", "count", dropped)
	}
	return nil
}
