//go:build sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/justreadit/internal/models"
)

func initBookSearch(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS books_fts USING fts5(
			id UNINDEXED,
			title,
			author,
			publisher,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func bookSearchUpsert(ctx context.Context, tx *sql.Tx, b models.Book) error {
	_, _ = tx.ExecContext(ctx, `DELETE FROM books_fts WHERE id = ?`, b.ID)
	_, err := tx.ExecContext(ctx, `INSERT INTO books_fts (id, title, author, publisher) VALUES (?, ?, ?, ?)`,
		b.ID, b.Title, b.Author, b.Publisher)
	if err != nil {
		return fmt.Errorf("store: upsert books_fts: %w", err)
	}
	return nil
}

// searchBooks runs a prefix match per keyword token, ranked by FTS5.
func (db *DB) searchBooks(ctx context.Context, keyword string) ([]models.Book, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT b.id, b.title, b.author, b.publisher, b.cover, b.positionX, b.positionY
		FROM books_fts f JOIN Book b ON b.id = f.id
		WHERE books_fts MATCH ?
		ORDER BY rank
	`, ftsQuery(keyword))
	if err != nil {
		return nil, err
	}
	return scanBooks(rows)
}

// ftsQuery quotes each token so user input is never parsed as FTS syntax.
func ftsQuery(keyword string) string {
	fields := strings.Fields(keyword)
	for i, f := range fields {
		fields[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"*`
	}
	return strings.Join(fields, " ")
}
