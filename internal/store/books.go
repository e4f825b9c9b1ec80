package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/justreadit/internal/apperr"
	"github.com/starford/justreadit/internal/models"
)

const bookColumns = `id, title, author, publisher, cover, positionX, positionY`

func scanBook(sc interface{ Scan(...any) error }) (models.Book, error) {
	var b models.Book
	err := sc.Scan(&b.ID, &b.Title, &b.Author, &b.Publisher, &b.Cover, &b.PositionX, &b.PositionY)
	return b, err
}

func scanBooks(rows *sql.Rows) ([]models.Book, error) {
	defer rows.Close()
	out := []models.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListBooks returns every book with its canvas position.
func (db *DB) ListBooks(ctx context.Context) ([]models.Book, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+bookColumns+` FROM Book ORDER BY title, id`)
	if err != nil {
		return nil, fmt.Errorf("store: list books: %w", err)
	}
	return scanBooks(rows)
}

// GetBook returns a book by id.
func (db *DB) GetBook(ctx context.Context, id string) (models.Book, error) {
	b, err := scanBook(db.conn.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM Book WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return b, fmt.Errorf("store: book %q: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return b, fmt.Errorf("store: get book: %w", err)
	}
	return b, nil
}

// AddBook inserts a book. A duplicate id is ErrAlreadyExists.
func (db *DB) AddBook(ctx context.Context, b models.Book) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.ExecContext(ctx, `INSERT INTO Book (`+bookColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Title, b.Author, b.Publisher, b.Cover, b.PositionX, b.PositionY)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && (se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			se.ExtendedCode == sqlite3.ErrConstraintUnique) {
			return fmt.Errorf("store: book %q: %w", b.ID, apperr.ErrAlreadyExists)
		}
		return fmt.Errorf("store: add book: %w", err)
	}
	if err := bookSearchUpsert(ctx, tx, b); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateBookPosition moves a book on the canvas.
func (db *DB) UpdateBookPosition(ctx context.Context, id string, x, y float64) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE Book SET positionX = ?, positionY = ? WHERE id = ?`, x, y, id)
	if err != nil {
		return fmt.Errorf("store: update book position: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update book position: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("store: book %q: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// BookIDByTitle resolves a book id from its exact title.
func (db *DB) BookIDByTitle(ctx context.Context, title string) (string, error) {
	var id string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM Book WHERE title = ? ORDER BY id LIMIT 1`, title).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("store: book titled %q: %w", title, apperr.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("store: book id by title: %w", err)
	}
	return id, nil
}

// SearchBooks matches keyword against title, author and publisher.
// A blank keyword is a validation error; no match is ErrNotFound.
func (db *DB) SearchBooks(ctx context.Context, keyword string) ([]models.Book, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, apperr.Validation("keyword is required")
	}
	books, err := db.searchBooks(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("store: search books: %w", err)
	}
	if len(books) == 0 {
		return nil, fmt.Errorf("store: books matching %q: %w", keyword, apperr.ErrNotFound)
	}
	return books, nil
}
