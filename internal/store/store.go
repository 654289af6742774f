// Package store provides the SQLite persistence layer for documents, rounds
// and chapters.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/roundup/internal/apperr"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	id              TEXT PRIMARY KEY,
	filename        TEXT NOT NULL,
	content_type    TEXT NOT NULL DEFAULT 'text/plain',
	size            INTEGER NOT NULL DEFAULT 0,
	hash            TEXT NOT NULL UNIQUE,
	content         TEXT NOT NULL,
	cleaned_content TEXT,
	last_step       INTEGER NOT NULL DEFAULT 1,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS rounds (
	id              TEXT PRIMARY KEY,
	document_id     TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	round_number    INTEGER NOT NULL,
	start_line      INTEGER NOT NULL,
	end_line        INTEGER NOT NULL,
	line_count      INTEGER NOT NULL,
	character_count INTEGER NOT NULL,
	content         TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chapters (
	id             TEXT PRIMARY KEY,
	document_id    TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	round_id       TEXT NOT NULL REFERENCES rounds(id) ON DELETE CASCADE,
	chapter_number INTEGER NOT NULL,
	title          TEXT NOT NULL DEFAULT '',
	content        TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_rounds_document ON rounds(document_id, round_number);
CREATE INDEX IF NOT EXISTS idx_chapters_round ON chapters(round_id);
`

// DB wraps a sql.DB with document and round operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// isUniqueViolation reports whether err is a sqlite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// notFound maps sql.ErrNoRows to apperr.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return err
}
