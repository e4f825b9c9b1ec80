package vectorindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteIndex(t *testing.T) Index {
	t.Helper()
	f, err := os.CreateTemp("", "justreadit-vec-*.db")
	require.NoError(t, err)
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	conn, err := sql.Open("sqlite3", f.Name()+"?_journal_mode=WAL&_busy_timeout=5000")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	idx, err := NewSQLite(conn, "test")
	require.NoError(t, err)
	return idx
}

func badgerIndex(t *testing.T) Index {
	t.Helper()
	idx, err := NewBadger(BadgerOptions{InMemory: true, Namespace: "test"})
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func rec(noteID int64, ordinal int, sentence string, vec ...float32) Record {
	return Record{
		ID:       RecordID(noteID, ordinal),
		Values:   vec,
		Metadata: Metadata{BookID: "b1", BookTitle: "Dune", NoteID: noteID, Sentence: sentence},
	}
}

func TestBackends(t *testing.T) {
	for name, open := range map[string]func(*testing.T) Index{
		"sqlite": sqliteIndex,
		"badger": badgerIndex,
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			idx := open(t)

			require.NoError(t, idx.Upsert(ctx, []Record{
				rec(1, 0, "north", 1, 0),
				rec(1, 1, "east", 0, 1),
				rec(2, 0, "north-ish", 0.9, 0.1),
				rec(3, 0, "zero", 0, 0),
			}))

			matches, err := idx.Query(ctx, []float32{1, 0}, QueryOptions{TopK: 2})
			require.NoError(t, err)
			require.Len(t, matches, 2)
			assert.Equal(t, "1-0", matches[0].ID)
			assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
			assert.Equal(t, "north", matches[0].Metadata.Sentence)
			assert.Equal(t, "2-0", matches[1].ID)

			exclude := int64(1)
			matches, err = idx.Query(ctx, []float32{1, 0}, QueryOptions{TopK: 2, ExcludeNoteID: &exclude})
			require.NoError(t, err)
			require.Len(t, matches, 1)
			assert.Equal(t, int64(2), matches[0].Metadata.NoteID)

			// Overwrite, then delete including an id that never existed.
			require.NoError(t, idx.Upsert(ctx, []Record{rec(1, 0, "south", -1, 0)}))
			require.NoError(t, idx.DeleteMany(ctx, []string{"1-1", "1-99"}))

			matches, err = idx.Query(ctx, []float32{1, 0}, QueryOptions{TopK: 10})
			require.NoError(t, err)
			ids := make([]string, 0, len(matches))
			for _, m := range matches {
				ids = append(ids, m.ID)
			}
			assert.Equal(t, []string{"2-0", "1-0"}, ids)
			assert.Equal(t, "south", matches[1].Metadata.Sentence)
		})
	}
}

func TestSQLite_NamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	f, err := os.CreateTemp("", "justreadit-vec-*.db")
	require.NoError(t, err)
	f.Close()
	defer os.Remove(f.Name())
	conn, err := sql.Open("sqlite3", f.Name())
	require.NoError(t, err)
	defer conn.Close()

	a, err := NewSQLite(conn, "a")
	require.NoError(t, err)
	b, err := NewSQLite(conn, "b")
	require.NoError(t, err)

	require.NoError(t, a.Upsert(ctx, []Record{rec(1, 0, "x", 1)}))
	matches, err := b.Query(ctx, []float32{1}, QueryOptions{TopK: 3})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRecordIDs(t *testing.T) {
	assert.Equal(t, "12-3", RecordID(12, 3))
	assert.Equal(t, []string{"5-2", "5-3"}, RecordIDs(5, 2, 4))
	assert.Nil(t, RecordIDs(5, 4, 4))
}

func TestEncoding(t *testing.T) {
	in := []float32{1.5, -2, 0}
	out, err := decodeVector(encodeVector(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestPinecone(t *testing.T) {
	var deleteCalls, upsertCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("Api-Key"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "justReadIt", body["namespace"])

		switch r.URL.Path {
		case "/vectors/upsert":
			upsertCalls++
			w.Write([]byte(`{"upsertedCount":1}`))
		case "/vectors/delete":
			deleteCalls++
			assert.LessOrEqual(t, len(body["ids"].([]any)), pineconeDeleteBatch)
			w.Write([]byte(`{}`))
		case "/query":
			assert.Equal(t, float64(3), body["topK"])
			assert.Equal(t, map[string]any{"noteId": map[string]any{"$ne": float64(7)}}, body["filter"])
			w.Write([]byte(`{"matches":[{"id":"2-0","score":0.9,"metadata":{"bookId":"b","bookTitle":"T","noteId":2,"sentence":"s"}}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p, err := NewPinecone(PineconeOptions{Host: srv.URL, APIKey: "secret", Namespace: DefaultNamespace})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, p.Upsert(ctx, []Record{rec(2, 0, "s", 1, 0)}))
	require.NoError(t, p.DeleteMany(ctx, RecordIDs(2, 0, 1500)))
	assert.Equal(t, 1, upsertCalls)
	assert.Equal(t, 2, deleteCalls)

	exclude := int64(7)
	matches, err := p.Query(ctx, []float32{1, 0}, QueryOptions{TopK: 3, ExcludeNoteID: &exclude})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, Metadata{BookID: "b", BookTitle: "T", NoteID: 2, Sentence: "s"}, matches[0].Metadata)
}

func TestPinecone_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad", http.StatusBadRequest)
	}))
	defer srv.Close()

	p, err := NewPinecone(PineconeOptions{Host: srv.URL, APIKey: "k"})
	require.NoError(t, err)
	_, err = p.Query(context.Background(), []float32{1}, QueryOptions{TopK: 1})
	assert.ErrorContains(t, err, "status 400")
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(Config{Backend: "faiss"}, nil, nil)
	assert.Error(t, err)
}
