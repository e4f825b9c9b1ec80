package vectorindex

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const sqliteSchemaSQL = `
CREATE TABLE IF NOT EXISTS VectorRecord (
	namespace  TEXT NOT NULL,
	id         TEXT NOT NULL,
	noteId     INTEGER NOT NULL,
	bookId     TEXT NOT NULL,
	bookTitle  TEXT NOT NULL,
	sentence   TEXT NOT NULL,
	embedding  BLOB NOT NULL,
	updatedAt  DATETIME NOT NULL,
	PRIMARY KEY (namespace, id)
);

CREATE INDEX IF NOT EXISTS idx_vector_note ON VectorRecord(namespace, noteId);
`

// SQLite keeps vectors in a table of the relational database and ranks them
// by brute-force cosine similarity.
type SQLite struct {
	conn      *sql.DB
	namespace string
}

// NewSQLite applies the vector schema to conn. The caller owns conn;
// Close does not close it.
func NewSQLite(conn *sql.DB, namespace string) (*SQLite, error) {
	if _, err := conn.Exec(sqliteSchemaSQL); err != nil {
		return nil, fmt.Errorf("vectorindex: apply sqlite schema: %w", err)
	}
	return &SQLite{conn: conn, namespace: namespace}, nil
}

// Upsert implements Index.
func (s *SQLite) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("vectorindex: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO VectorRecord (namespace, id, noteId, bookId, bookTitle, sentence, embedding, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(namespace, id) DO UPDATE SET
			noteId    = excluded.noteId,
			bookId    = excluded.bookId,
			bookTitle = excluded.bookTitle,
			sentence  = excluded.sentence,
			embedding = excluded.embedding,
			updatedAt = excluded.updatedAt
	`)
	if err != nil {
		return fmt.Errorf("vectorindex: prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range records {
		md := r.Metadata
		if _, err := stmt.ExecContext(ctx, s.namespace, r.ID, md.NoteID, md.BookID, md.BookTitle,
			md.Sentence, encodeVector(r.Values), now); err != nil {
			return fmt.Errorf("vectorindex: upsert %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// DeleteMany implements Index.
func (s *SQLite) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("vectorindex: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM VectorRecord WHERE namespace = ? AND id = ?`)
	if err != nil {
		return fmt.Errorf("vectorindex: prepare delete: %w", err)
	}
	defer stmt.Close()
	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, s.namespace, id); err != nil {
			return fmt.Errorf("vectorindex: delete %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// Query implements Index.
func (s *SQLite) Query(ctx context.Context, vector []float32, opts QueryOptions) ([]Match, error) {
	q := `SELECT id, noteId, bookId, bookTitle, sentence, embedding FROM VectorRecord WHERE namespace = ?`
	args := []any{s.namespace}
	if opts.ExcludeNoteID != nil {
		q += ` AND noteId != ?`
		args = append(args, *opts.ExcludeNoteID)
	}
	rows, err := s.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: query: %w", err)
	}
	defer rows.Close()

	r := newRanker(vector)
	for rows.Next() {
		var (
			id   string
			md   Metadata
			blob []byte
		)
		if err := rows.Scan(&id, &md.NoteID, &md.BookID, &md.BookTitle, &md.Sentence, &blob); err != nil {
			return nil, fmt.Errorf("vectorindex: scan: %w", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, err
		}
		r.add(id, vec, md)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vectorindex: query: %w", err)
	}
	return r.top(opts.TopK), nil
}

// Close implements Index. The shared connection stays open.
func (s *SQLite) Close() error { return nil }
