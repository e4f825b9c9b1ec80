package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/justreadit/internal/apperr"
	"github.com/starford/justreadit/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "justreadit-test-*.db")
	require.NoError(t, err)
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedBook(t *testing.T, db *DB, id, title string) {
	t.Helper()
	require.NoError(t, db.AddBook(context.Background(), models.Book{
		ID: id, Title: title, Author: "Author " + id, Publisher: "Pub", PositionX: 1, PositionY: 2,
	}))
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"Book", "Note", "BookConnection", "NoteConnection", "NoteVectorState", "NoteGraphState"} {
		var count int
		err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count)
		assert.NoError(t, err, table)
	}
}

func TestAddBook_Duplicate(t *testing.T) {
	db := testDB(t)
	seedBook(t, db, "b1", "Dune")

	err := db.AddBook(context.Background(), models.Book{ID: "b1", Title: "Other"})
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)
}

func TestBooks(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	seedBook(t, db, "b1", "Dune")
	seedBook(t, db, "b2", "Anathem")

	books, err := db.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "Anathem", books[0].Title)

	require.NoError(t, db.UpdateBookPosition(ctx, "b1", 10.5, -3))
	b, err := db.GetBook(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 10.5, b.PositionX)
	assert.Equal(t, -3.0, b.PositionY)

	assert.ErrorIs(t, db.UpdateBookPosition(ctx, "missing", 0, 0), apperr.ErrNotFound)
	_, err = db.GetBook(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	id, err := db.BookIDByTitle(ctx, "Dune")
	require.NoError(t, err)
	assert.Equal(t, "b1", id)
	_, err = db.BookIDByTitle(ctx, "Nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSearchBooks(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	seedBook(t, db, "b1", "Dune")
	seedBook(t, db, "b2", "Anathem")

	books, err := db.SearchBooks(ctx, "Dune")
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "b1", books[0].ID)

	_, err = db.SearchBooks(ctx, "   ")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = db.SearchBooks(ctx, "zzzz")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestNotes(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	seedBook(t, db, "b1", "Dune")

	n, err := db.CreateNote(ctx, "b1", models.NoteAfter)
	require.NoError(t, err)
	assert.Equal(t, DefaultNoteTitle, n.Title)
	assert.Empty(t, n.Text)

	_, err = db.CreateNote(ctx, "missing", models.NoteDuring)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, db.SaveNoteText(ctx, n.ID, "b1", "<p>Hi.</p>"))
	got, err := db.GetNote(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "<p>Hi.</p>", got.Text)
	assert.Equal(t, models.NoteAfter, got.Type)

	assert.ErrorIs(t, db.SaveNoteText(ctx, n.ID, "other-book", "x"), apperr.ErrNotFound)
	assert.ErrorIs(t, db.SaveNoteText(ctx, 999, "b1", "x"), apperr.ErrNotFound)

	notes, err := db.NotesByBook(ctx, "b1")
	require.NoError(t, err)
	assert.Len(t, notes, 1)

	info, err := db.NoteInfo(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", info.Book.Title)
	assert.Equal(t, "<p>Hi.</p>", info.Text)

	_, err = db.NoteInfo(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	all, err := db.AllNoteInfo(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestReplaceConnections(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	seedBook(t, db, "b1", "Dune")
	seedBook(t, db, "b2", "Anathem")
	base, _ := db.CreateNote(ctx, "b1", models.NoteDuring)
	n7, _ := db.CreateNote(ctx, "b2", models.NoteDuring)
	n9, _ := db.CreateNote(ctx, "b2", models.NoteAfter)

	_, ok, err := db.GraphChecksum(ctx, base.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	res, err := db.ReplaceConnections(ctx, ConnectionSet{
		BaseNoteID: base.ID, BaseBookID: "b1",
		BookIDs:  []string{"b2", "b2"},
		NoteIDs:  []int64{n7.ID, n9.ID, 4242},
		Checksum: "sum1",
	})
	require.NoError(t, err)
	assert.Equal(t, ReplaceResult{BookEdges: 2, NoteEdges: 2, Unresolved: 1}, res)

	sum, ok, err := db.GraphChecksum(ctx, base.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sum1", sum)

	books, notes, err := db.ConnectionsFrom(ctx, base.ID)
	require.NoError(t, err)
	assert.Len(t, books, 2)
	require.Len(t, notes, 2)
	assert.Equal(t, "b2", notes[0].TargetBookID)

	// Replace-all: {7, 9} becomes {9}.
	_, err = db.ReplaceConnections(ctx, ConnectionSet{BaseNoteID: base.ID, BaseBookID: "b1", NoteIDs: []int64{n9.ID}})
	require.NoError(t, err)
	books, notes, err = db.ConnectionsFrom(ctx, base.ID)
	require.NoError(t, err)
	assert.Empty(t, books)
	require.Len(t, notes, 1)
	assert.Equal(t, n9.ID, notes[0].TargetNoteID)

	// Zero links still clears.
	_, err = db.ReplaceConnections(ctx, ConnectionSet{BaseNoteID: base.ID, BaseBookID: "b1"})
	require.NoError(t, err)
	books, notes, err = db.Graph(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
	assert.Empty(t, notes)
}

func TestReplaceConnections_FailureKeepsPreviousEdges(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	seedBook(t, db, "b1", "Dune")
	seedBook(t, db, "b7", "Anathem")
	seedBook(t, db, "b9", "Hyperion")
	base, err := db.CreateNote(ctx, "b1", models.NoteDuring)
	require.NoError(t, err)

	_, err = db.ReplaceConnections(ctx, ConnectionSet{
		BaseNoteID: base.ID, BaseBookID: "b1", BookIDs: []string{"b7", "b9"}, Checksum: "old",
	})
	require.NoError(t, err)

	_, err = db.conn.Exec(`
		CREATE TRIGGER fail_bad_target BEFORE INSERT ON BookConnection
		WHEN NEW.targetBookId = 'bad'
		BEGIN SELECT RAISE(ABORT, 'bad target'); END`)
	require.NoError(t, err)

	// The delete and the first insert have already run when "bad" aborts.
	_, err = db.ReplaceConnections(ctx, ConnectionSet{
		BaseNoteID: base.ID, BaseBookID: "b1", BookIDs: []string{"b9", "bad"}, Checksum: "new",
	})
	require.Error(t, err)

	books, _, err := db.ConnectionsFrom(ctx, base.ID)
	require.NoError(t, err)
	var targets []string
	for _, b := range books {
		targets = append(targets, b.TargetBookID)
	}
	assert.ElementsMatch(t, []string{"b7", "b9"}, targets)

	sum, ok, err := db.GraphChecksum(ctx, base.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "old", sum)
}

func TestVectorState(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)

	_, ok, err := db.GetVectorState(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.PutVectorState(ctx, models.VectorState{NoteID: 1, VectorCount: 4, Checksum: "abc"}))
	require.NoError(t, db.PutVectorState(ctx, models.VectorState{NoteID: 1, VectorCount: 2, Checksum: "def"}))

	st, ok, err := db.GetVectorState(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, st.VectorCount)
	assert.Equal(t, "def", st.Checksum)
	assert.False(t, st.SyncedAt.IsZero())
}
