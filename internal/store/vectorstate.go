package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/justreadit/internal/models"
)

// GetVectorState returns the recorded vector state of a note.
// ok is false when the note has never been synced.
func (db *DB) GetVectorState(ctx context.Context, noteID int64) (st models.VectorState, ok bool, err error) {
	err = db.conn.QueryRowContext(ctx,
		`SELECT noteId, vectorCount, checksum, syncedAt FROM NoteVectorState WHERE noteId = ?`, noteID,
	).Scan(&st.NoteID, &st.VectorCount, &st.Checksum, &st.SyncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return st, false, nil
	}
	if err != nil {
		return st, false, fmt.Errorf("store: get vector state: %w", err)
	}
	return st, true, nil
}

// PutVectorState records the vector state of a note.
func (db *DB) PutVectorState(ctx context.Context, st models.VectorState) error {
	if st.SyncedAt.IsZero() {
		st.SyncedAt = time.Now().UTC()
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO NoteVectorState (noteId, vectorCount, checksum, syncedAt)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(noteId) DO UPDATE SET
			vectorCount = excluded.vectorCount,
			checksum    = excluded.checksum,
			syncedAt    = excluded.syncedAt
	`, st.NoteID, st.VectorCount, st.Checksum, st.SyncedAt)
	if err != nil {
		return fmt.Errorf("store: put vector state: %w", err)
	}
	return nil
}
