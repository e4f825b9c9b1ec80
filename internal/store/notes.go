package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/justreadit/internal/apperr"
	"github.com/starford/justreadit/internal/models"
)

// DefaultNoteTitle is the title given to freshly created notes.
const DefaultNoteTitle = "Untitled"

// GetNote returns a note by id.
func (db *DB) GetNote(ctx context.Context, id int64) (models.Note, error) {
	var n models.Note
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, bookId, type, title, text FROM Note WHERE id = ?`, id,
	).Scan(&n.ID, &n.BookID, &n.Type, &n.Title, &n.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return n, fmt.Errorf("store: note %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return n, fmt.Errorf("store: get note: %w", err)
	}
	return n, nil
}

// SaveNoteText replaces the text of a note owned by bookID.
// A note that does not exist, or belongs to another book, is ErrNotFound.
func (db *DB) SaveNoteText(ctx context.Context, id int64, bookID, text string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE Note SET text = ? WHERE id = ? AND bookId = ?`, text, id, bookID)
	if err != nil {
		return fmt.Errorf("store: save note text: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: save note text: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("store: note %d in book %q: %w", id, bookID, apperr.ErrNotFound)
	}
	return nil
}

// CreateNote inserts an empty note titled DefaultNoteTitle and returns it.
func (db *DB) CreateNote(ctx context.Context, bookID string, typ models.NoteType) (models.Note, error) {
	if _, err := db.GetBook(ctx, bookID); err != nil {
		return models.Note{}, err
	}
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO Note (bookId, type, title, text) VALUES (?, ?, ?, '')`,
		bookID, int(typ), DefaultNoteTitle)
	if err != nil {
		return models.Note{}, fmt.Errorf("store: create note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Note{}, fmt.Errorf("store: create note: %w", err)
	}
	return models.Note{ID: id, BookID: bookID, Type: typ, Title: DefaultNoteTitle}, nil
}

// NotesByBook lists the notes of a book ordered by id.
func (db *DB) NotesByBook(ctx context.Context, bookID string) ([]models.Note, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, bookId, type, title, text FROM Note WHERE bookId = ? ORDER BY id`, bookID)
	if err != nil {
		return nil, fmt.Errorf("store: notes by book: %w", err)
	}
	defer rows.Close()

	out := []models.Note{}
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.BookID, &n.Type, &n.Title, &n.Text); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

const noteInfoSelect = `
	SELECT n.id, n.title, n.text,
	       b.id, b.title, b.author, b.publisher, b.cover, b.positionX, b.positionY
	FROM Note n JOIN Book b ON b.id = n.bookId`

func scanNoteInfo(sc interface{ Scan(...any) error }) (models.NoteInfo, error) {
	var ni models.NoteInfo
	b := &ni.Book
	err := sc.Scan(&ni.NoteID, &ni.NoteTitle, &ni.Text,
		&b.ID, &b.Title, &b.Author, &b.Publisher, &b.Cover, &b.PositionX, &b.PositionY)
	return ni, err
}

// NoteInfo returns a note joined with its book.
func (db *DB) NoteInfo(ctx context.Context, id int64) (models.NoteInfo, error) {
	ni, err := scanNoteInfo(db.conn.QueryRowContext(ctx, noteInfoSelect+` WHERE n.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return ni, fmt.Errorf("store: note %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return ni, fmt.Errorf("store: note info: %w", err)
	}
	return ni, nil
}

// AllNoteInfo returns every note joined with its book, ordered by note id.
func (db *DB) AllNoteInfo(ctx context.Context) ([]models.NoteInfo, error) {
	rows, err := db.conn.QueryContext(ctx, noteInfoSelect+` ORDER BY n.id`)
	if err != nil {
		return nil, fmt.Errorf("store: all notes: %w", err)
	}
	defer rows.Close()

	var out []models.NoteInfo
	for rows.Next() {
		ni, err := scanNoteInfo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ni)
	}
	return out, rows.Err()
}
