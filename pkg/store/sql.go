package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
)

const templateSchema = `
CREATE TABLE IF NOT EXISTS view_templates (
    kind       TEXT    NOT NULL,
    name       TEXT    NOT NULL,
    body       TEXT    NOT NULL,
    updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
    PRIMARY KEY (kind, name)
);
`

// SetupSchema creates the template table. It is idempotent and safe to call
// on an already-initialized database.
func SetupSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	// Rollback after a successful Commit is a no-op.
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(templateSchema); err != nil {
		return fmt.Errorf("could not create template schema: %w", err)
	}
	return tx.Commit()
}

// SQLStore keeps templates in the view_templates table of a SQLite database.
// Like FileStore, pages and partials share one namespace.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps db. The schema must already exist, see SetupSchema.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func rowKind(kind Kind) string {
	if kind == KindLayout {
		return KindLayout.String()
	}
	return KindPage.String()
}

func rowName(name string) (string, bool) {
	p, ok := Normalize(name)
	if !ok {
		return "", false
	}
	return filepath.ToSlash(p), true
}

// Load implements Store.
func (s *SQLStore) Load(kind Kind, name string) (string, error) {
	return s.LoadContext(context.Background(), kind, name)
}

// LoadContext is Load with a caller supplied context.
func (s *SQLStore) LoadContext(ctx context.Context, kind Kind, name string) (string, error) {
	key, ok := rowName(name)
	if !ok {
		return "", notFound(kind, name)
	}

	var body string
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM view_templates WHERE kind = ? AND name = ?",
		rowKind(kind), key).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", notFound(kind, name)
		}
		return "", fmt.Errorf("could not query %s '%s': %w", kind, name, err)
	}
	return body, nil
}

// Save inserts or replaces a template.
func (s *SQLStore) Save(kind Kind, name, text string) error {
	key, ok := rowName(name)
	if !ok {
		return fmt.Errorf("invalid %s name '%s'", kind, name)
	}
	_, err := s.db.Exec(`
INSERT INTO view_templates (kind, name, body) VALUES (?, ?, ?)
ON CONFLICT (kind, name) DO UPDATE SET body = excluded.body, updated_at = strftime('%s', 'now')`,
		rowKind(kind), key, text)
	if err != nil {
		return fmt.Errorf("could not save %s '%s': %w", kind, name, err)
	}
	return nil
}

// Names lists the stored names for a kind, sorted.
func (s *SQLStore) Names(kind Kind) ([]string, error) {
	rows, err := s.db.Query("SELECT name FROM view_templates WHERE kind = ? ORDER BY name", rowKind(kind))
	if err != nil {
		return nil, fmt.Errorf("could not list %s templates: %w", kind, err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	names := []string{}
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("could not scan template name: %w", err)
		}
		names = append(names, name)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("could not list %s templates: %w", kind, err)
	}
	return names, nil
}
