// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package history keeps a local SQLite index of every SQL artifact written,
// so past generations can be listed without scanning the output directory.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schemaDDL = `
	CREATE TABLE IF NOT EXISTS artifacts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		createdAt INTEGER NOT NULL,
		sessionId TEXT NOT NULL,
		dialect TEXT NOT NULL,
		model TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		path TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_artifacts_created ON artifacts(createdAt DESC);
`

// Entry is one recorded artifact.
type Entry struct {
	ID          int64
	CreatedAt   time.Time
	SessionID   string
	Dialect     string
	Model       string
	Description string
	Path        string
}

// Store is the history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	s, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and ensures the schema exists.
func New(db *sql.DB) (*Store, error) {
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping history database: %w", err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		return nil, fmt.Errorf("migrate history database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts e and returns its id. A zero CreatedAt is set to now.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (createdAt, sessionId, dialect, model, description, path)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.CreatedAt.UnixMilli(), e.SessionID, e.Dialect, e.Model, e.Description, e.Path)
	if err != nil {
		return 0, fmt.Errorf("insert artifact: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.query(ctx, `
		SELECT id, createdAt, sessionId, dialect, model, description, path
		FROM artifacts
		ORDER BY createdAt DESC, id DESC
		LIMIT ?
	`, limit)
}

// ForSession returns the entries of one session in creation order.
func (s *Store) ForSession(ctx context.Context, sessionID string) ([]Entry, error) {
	return s.query(ctx, `
		SELECT id, createdAt, sessionId, dialect, model, description, path
		FROM artifacts
		WHERE sessionId = ?
		ORDER BY createdAt ASC, id ASC
	`, sessionID)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var createdAt int64
		if err := rows.Scan(&e.ID, &createdAt, &e.SessionID, &e.Dialect, &e.Model, &e.Description, &e.Path); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		e.CreatedAt = time.UnixMilli(createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}
