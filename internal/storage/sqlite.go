package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

var _ Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS lookups (
		name TEXT PRIMARY KEY,
		image_url TEXT NOT NULL DEFAULT '',
		synopsis TEXT NOT NULL DEFAULT '',
		found INTEGER NOT NULL DEFAULT 1,
		fetched_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_lookups_fetched_at ON lookups(fetched_at);
	`
	_, err := db.Exec(schema)
	return err
}

// GetLookup returns the stored lookup for name, or ErrNotFound.
func (s *SQLiteStorage) GetLookup(ctx context.Context, name string) (*LookupRecord, error) {
	var rec LookupRecord
	var found int
	err := s.db.QueryRowContext(ctx,
		`SELECT name, image_url, synopsis, found, fetched_at FROM lookups WHERE name = ?`, name,
	).Scan(&rec.Info.Name, &rec.Info.ImageURL, &rec.Info.Synopsis, &found, &rec.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	rec.Found = found != 0
	return &rec, nil
}

// PutLookup inserts or replaces the lookup for rec.Info.Name. A zero FetchedAt is set to now.
func (s *SQLiteStorage) PutLookup(ctx context.Context, rec *LookupRecord) error {
	if rec.Info.Name == "" {
		return fmt.Errorf("lookup record has no name")
	}
	if rec.FetchedAt.IsZero() {
		rec.FetchedAt = time.Now().UTC()
	}
	found := 0
	if rec.Found {
		found = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lookups (name, image_url, synopsis, found, fetched_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   image_url = excluded.image_url,
		   synopsis = excluded.synopsis,
		   found = excluded.found,
		   fetched_at = excluded.fetched_at`,
		rec.Info.Name, rec.Info.ImageURL, rec.Info.Synopsis, found, rec.FetchedAt,
	)
	return err
}

// DeleteLookupsBefore removes lookups fetched before the given time and reports how many.
func (s *SQLiteStorage) DeleteLookupsBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM lookups WHERE fetched_at < ?`, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// CountLookups returns the number of stored lookups.
func (s *SQLiteStorage) CountLookups(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lookups`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
