package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/glabrego/spacedeck/internal/app"
)

const keyPaperQuery = "paper_query"

// Repository persists UI preferences (the paper query) between runs.
// Fetched content is never stored.
type Repository struct {
	db *sql.DB
}

func NewRepository(path string) (*Repository, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) Init(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS ui_preferences (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (r *Repository) SaveUIPreferences(ctx context.Context, prefs app.UIPreferences) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO ui_preferences (key, value, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
  value=excluded.value,
  updated_at=excluded.updated_at
`)
	if err != nil {
		return fmt.Errorf("prepare save statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := stmt.ExecContext(ctx, keyPaperQuery, prefs.PaperQuery, now); err != nil {
		return fmt.Errorf("save preference %s: %w", keyPaperQuery, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// LoadUIPreferences returns zero values for keys that were never saved.
func (r *Repository) LoadUIPreferences(ctx context.Context) (app.UIPreferences, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM ui_preferences`)
	if err != nil {
		return app.UIPreferences{}, fmt.Errorf("query ui preferences: %w", err)
	}
	defer rows.Close()

	var prefs app.UIPreferences
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return app.UIPreferences{}, fmt.Errorf("scan ui preference: %w", err)
		}
		if key == keyPaperQuery {
			prefs.PaperQuery = value
		}
	}
	if err := rows.Err(); err != nil {
		return app.UIPreferences{}, fmt.Errorf("rows iteration: %w", err)
	}
	return prefs, nil
}

// Open is NewRepository plus Init. An empty path disables persistence and
// returns a nil repository.
func Open(ctx context.Context, path string) (*Repository, error) {
	if path == "" {
		return nil, nil
	}
	repo, err := NewRepository(path)
	if err != nil {
		return nil, err
	}
	if err := repo.Init(ctx); err != nil {
		return nil, errors.Join(err, repo.Close())
	}
	return repo, nil
}
