package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/justreadit/internal/models"
)

// ConnectionSet is the full set of outgoing links of one note.
type ConnectionSet struct {
	BaseNoteID int64
	BaseBookID string
	BookIDs    []string
	NoteIDs    []int64
	// Checksum of the text the links came from. It is recorded with the
	// edges so a failed replacement leaves the previous checksum behind.
	Checksum string
}

// ReplaceResult reports how many edges were written.
type ReplaceResult struct {
	BookEdges int
	NoteEdges int
	// Unresolved counts note links whose target note does not exist.
	Unresolved int
}

// ReplaceConnections deletes every edge whose base is cs.BaseNoteID and
// inserts cs in its place, all within one transaction. Note links are
// resolved to the target note's owning book inside the same transaction;
// links to unknown notes are skipped. Duplicates are written as given.
func (db *DB) ReplaceConnections(ctx context.Context, cs ConnectionSet) (ReplaceResult, error) {
	var res ReplaceResult
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.ExecContext(ctx, `DELETE FROM BookConnection WHERE baseNoteId = ?`, cs.BaseNoteID); err != nil {
		return res, fmt.Errorf("store: delete book connections: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM NoteConnection WHERE baseNoteId = ?`, cs.BaseNoteID); err != nil {
		return res, fmt.Errorf("store: delete note connections: %w", err)
	}

	if len(cs.BookIDs) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO BookConnection (baseNoteId, baseBookId, targetBookId) VALUES (?, ?, ?)`)
		if err != nil {
			return res, fmt.Errorf("store: prepare book connection insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range cs.BookIDs {
			if _, err := stmt.ExecContext(ctx, cs.BaseNoteID, cs.BaseBookID, target); err != nil {
				return res, fmt.Errorf("store: insert book connection: %w", err)
			}
			res.BookEdges++
		}
	}

	if len(cs.NoteIDs) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO NoteConnection (baseNoteId, baseBookId, targetBookId, targetNoteId) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return res, fmt.Errorf("store: prepare note connection insert: %w", err)
		}
		defer stmt.Close()
		owners := make(map[int64]string)
		for _, target := range cs.NoteIDs {
			owner, ok := owners[target]
			if !ok {
				err := tx.QueryRowContext(ctx, `SELECT bookId FROM Note WHERE id = ?`, target).Scan(&owner)
				if errors.Is(err, sql.ErrNoRows) {
					res.Unresolved++
					continue
				}
				if err != nil {
					return res, fmt.Errorf("store: resolve note %d: %w", target, err)
				}
				owners[target] = owner
			}
			if _, err := stmt.ExecContext(ctx, cs.BaseNoteID, cs.BaseBookID, owner, target); err != nil {
				return res, fmt.Errorf("store: insert note connection: %w", err)
			}
			res.NoteEdges++
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO NoteGraphState (noteId, checksum, syncedAt) VALUES (?, ?, ?)
		ON CONFLICT(noteId) DO UPDATE SET checksum = excluded.checksum, syncedAt = excluded.syncedAt
	`, cs.BaseNoteID, cs.Checksum, time.Now().UTC()); err != nil {
		return res, fmt.Errorf("store: record graph state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("store: commit connections: %w", err)
	}
	return res, nil
}

// GraphChecksum returns the text checksum recorded by the last successful
// ReplaceConnections for noteID. ok is false when none succeeded yet.
func (db *DB) GraphChecksum(ctx context.Context, noteID int64) (sum string, ok bool, err error) {
	err = db.conn.QueryRowContext(ctx,
		`SELECT checksum FROM NoteGraphState WHERE noteId = ?`, noteID).Scan(&sum)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: get graph state: %w", err)
	}
	return sum, true, nil
}

// Graph returns every edge in the store.
func (db *DB) Graph(ctx context.Context) ([]models.BookConnection, []models.NoteConnection, error) {
	return db.connections(ctx, "", nil)
}

// ConnectionsFrom returns the outgoing edges of one note.
func (db *DB) ConnectionsFrom(ctx context.Context, noteID int64) ([]models.BookConnection, []models.NoteConnection, error) {
	return db.connections(ctx, " WHERE baseNoteId = ?", []any{noteID})
}

func (db *DB) connections(ctx context.Context, where string, args []any) ([]models.BookConnection, []models.NoteConnection, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT baseNoteId, baseBookId, targetBookId FROM BookConnection`+where+` ORDER BY rowid`, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("store: book connections: %w", err)
	}
	books := []models.BookConnection{}
	for rows.Next() {
		var c models.BookConnection
		if err := rows.Scan(&c.BaseNoteID, &c.BaseBookID, &c.TargetBookID); err != nil {
			rows.Close()
			return nil, nil, err
		}
		books = append(books, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	rows, err = db.conn.QueryContext(ctx,
		`SELECT baseNoteId, baseBookId, targetBookId, targetNoteId FROM NoteConnection`+where+` ORDER BY rowid`, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("store: note connections: %w", err)
	}
	defer rows.Close()
	notes := []models.NoteConnection{}
	for rows.Next() {
		var c models.NoteConnection
		if err := rows.Scan(&c.BaseNoteID, &c.BaseBookID, &c.TargetBookID, &c.TargetNoteID); err != nil {
			return nil, nil, err
		}
		notes = append(notes, c)
	}
	return books, notes, rows.Err()
}
