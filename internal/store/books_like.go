//go:build !sqlite_fts5

package store

import (
	"context"
	"database/sql"

	"github.com/starford/justreadit/internal/models"
)

func initBookSearch(_ *sql.DB) error {
	// FTS5 not available; book search uses LIKE on the Book table.
	return nil
}

func bookSearchUpsert(_ context.Context, _ *sql.Tx, _ models.Book) error { return nil }

func (db *DB) searchBooks(ctx context.Context, keyword string) ([]models.Book, error) {
	like := "%" + keyword + "%"
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+bookColumns+`
		FROM Book
		WHERE title LIKE ? OR author LIKE ? OR publisher LIKE ?
		ORDER BY title, id
	`, like, like, like)
	if err != nil {
		return nil, err
	}
	return scanBooks(rows)
}
