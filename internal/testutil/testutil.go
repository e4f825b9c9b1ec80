// Package testutil provides shared test helpers for the record store and
// the embedding and vector layers.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/starford/justreadit/internal/models"
	"github.com/starford/justreadit/internal/store"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "justreadit-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// SeedBook inserts a book and returns it.
func SeedBook(t *testing.T, db *store.DB, id, title string) models.Book {
	t.Helper()
	b := models.Book{ID: id, Title: title, Author: "Anon", Publisher: "Press"}
	if err := db.AddBook(context.Background(), b); err != nil {
		t.Fatal(err)
	}
	return b
}

// SeedNote creates an empty note in bookID and returns it.
func SeedNote(t *testing.T, db *store.DB, bookID string) models.Note {
	t.Helper()
	n, err := db.CreateNote(context.Background(), bookID, models.NoteDuring)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

// FailingEmbedder returns Err for every call.
type FailingEmbedder struct {
	Err error
}

func (f FailingEmbedder) Embed(context.Context, string) ([]float32, error) { return nil, f.Err }
func (f FailingEmbedder) Dimensions() int                                  { return 0 }
func (f FailingEmbedder) Model() string                                    { return "failing" }
