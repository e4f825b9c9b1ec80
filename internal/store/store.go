// Package store is the relational record store: books, notes, the
// cross-reference graph and per-note vector sync state, all in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS Book (
	id        TEXT PRIMARY KEY,
	title     TEXT NOT NULL,
	author    TEXT NOT NULL DEFAULT '',
	publisher TEXT NOT NULL DEFAULT '',
	cover     TEXT NOT NULL DEFAULT '',
	positionX REAL NOT NULL DEFAULT 0,
	positionY REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS Note (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	bookId TEXT NOT NULL REFERENCES Book(id),
	type   INTEGER NOT NULL DEFAULT 0,
	title  TEXT NOT NULL DEFAULT '',
	text   TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_note_book ON Note(bookId);

CREATE TABLE IF NOT EXISTS BookConnection (
	baseNoteId   INTEGER NOT NULL,
	baseBookId   TEXT NOT NULL,
	targetBookId TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bookconn_base ON BookConnection(baseNoteId);

CREATE TABLE IF NOT EXISTS NoteConnection (
	baseNoteId   INTEGER NOT NULL,
	baseBookId   TEXT NOT NULL,
	targetBookId TEXT NOT NULL,
	targetNoteId INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_noteconn_base ON NoteConnection(baseNoteId);

CREATE TABLE IF NOT EXISTS NoteVectorState (
	noteId      INTEGER PRIMARY KEY,
	vectorCount INTEGER NOT NULL,
	checksum    TEXT NOT NULL DEFAULT '',
	syncedAt    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS NoteGraphState (
	noteId   INTEGER PRIMARY KEY,
	checksum TEXT NOT NULL DEFAULT '',
	syncedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// DB wraps a sql.DB with record-store operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
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
	if err := initBookSearch(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply book search schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Conn exposes the underlying handle so other SQLite-backed components
// (the vector index) can share the database file.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
