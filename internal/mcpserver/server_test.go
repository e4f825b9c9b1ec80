package mcpserver

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/justreadit/internal/embedding"
	"github.com/starford/justreadit/internal/notesync"
	"github.com/starford/justreadit/internal/parser"
	"github.com/starford/justreadit/internal/search"
	"github.com/starford/justreadit/internal/store"
	"github.com/starford/justreadit/internal/testutil"
	"github.com/starford/justreadit/internal/vectorindex"
)

func testServer(t *testing.T) (*Server, *store.DB) {
	t.Helper()

	db := testutil.TestDB(t)
	idx, err := vectorindex.NewSQLite(db.Conn(), "test")
	require.NoError(t, err)
	e := embedding.NewHash(64)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pipeline := notesync.NewPipeline(db,
		notesync.NewGraphSync(db, logger),
		notesync.NewVectorSync(idx, e, db, 0, logger),
		parser.DefaultLinkPatterns(), logger)

	srv := New(db, pipeline, search.NewService(e, idx, 0), parser.DefaultLinkPatterns(), "test")
	return srv, db
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process "call tool" helper, so handlers are called directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "save_note":
		result, err = srv.saveNote(ctx, req)
	case "list_books":
		result, err = srv.listBooks(ctx, req)
	case "get_connections":
		result, err = srv.getConnections(ctx, req)
	case "get_note_format":
		result, err = srv.getNoteFormat(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	require.NoError(t, err, "tool %s", name)
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSaveAndReadNote(t *testing.T) {
	srv, db := testServer(t)
	testutil.SeedBook(t, db, "b1", "Dune")
	note := testutil.SeedNote(t, db, "b1")

	r := callTool(t, srv, "save_note", map[string]interface{}{
		"note_id":    float64(note.ID),
		"book_title": "Dune",
		"text":       "<p>The spice must flow.</p>",
	})
	require.False(t, r.IsError, resultText(r))
	assert.Contains(t, resultText(r), "1 sentences")

	r = callTool(t, srv, "read_note", map[string]interface{}{"note_id": float64(note.ID)})
	require.False(t, r.IsError, resultText(r))
	assert.Contains(t, resultText(r), "The spice must flow.")
	assert.Contains(t, resultText(r), `"title": "Dune"`)
}

func TestSaveNote_UnknownBookTitle(t *testing.T) {
	srv, db := testServer(t)
	testutil.SeedBook(t, db, "b1", "Dune")
	note := testutil.SeedNote(t, db, "b1")

	r := callTool(t, srv, "save_note", map[string]interface{}{
		"note_id":    float64(note.ID),
		"book_title": "Missing",
		"text":       "<p>x</p>",
	})
	assert.True(t, r.IsError)
	assert.Contains(t, resultText(r), "book not found")
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"note_id": float64(99)})
	assert.True(t, r.IsError)

	r = callTool(t, srv, "read_note", map[string]interface{}{})
	assert.True(t, r.IsError)
}

func TestSearchNotes(t *testing.T) {
	srv, db := testServer(t)
	testutil.SeedBook(t, db, "b1", "Dune")
	note := testutil.SeedNote(t, db, "b1")

	r := callTool(t, srv, "search_notes", map[string]interface{}{"query": "anything"})
	assert.Equal(t, "no matching sentences", resultText(r))

	_ = callTool(t, srv, "save_note", map[string]interface{}{
		"note_id": float64(note.ID), "book_id": "b1", "book_title": "Dune",
		"text": "<p>Fear is the mind-killer.</p><p>The spice must flow.</p>",
	})

	r = callTool(t, srv, "search_notes", map[string]interface{}{"query": "Fear is the mind-killer.", "top_k": float64(1)})
	require.False(t, r.IsError, resultText(r))
	assert.Contains(t, resultText(r), "Fear is the mind-killer.")
	assert.NotContains(t, resultText(r), "spice")

	r = callTool(t, srv, "search_notes", map[string]interface{}{
		"query": "Fear is the mind-killer.", "exclude_note_id": float64(note.ID),
	})
	assert.Equal(t, "no matching sentences", resultText(r))

	r = callTool(t, srv, "search_notes", map[string]interface{}{})
	assert.True(t, r.IsError)
}

func TestListBooksAndConnections(t *testing.T) {
	srv, db := testServer(t)
	testutil.SeedBook(t, db, "b1", "Dune")
	testutil.SeedBook(t, db, "b2", "Anathem")
	note := testutil.SeedNote(t, db, "b1")

	r := callTool(t, srv, "list_books", map[string]interface{}{})
	assert.Contains(t, resultText(r), "Anathem")
	assert.Contains(t, resultText(r), "Dune")

	r = callTool(t, srv, "get_connections", map[string]interface{}{"note_id": float64(note.ID)})
	assert.Equal(t, "no connections found", resultText(r))

	_ = callTool(t, srv, "save_note", map[string]interface{}{
		"note_id": float64(note.ID), "book_id": "b1", "book_title": "Dune",
		"text": `<p>See <a href="/justreadit/book/b2">Anathem</a></p>`,
	})
	r = callTool(t, srv, "get_connections", map[string]interface{}{"note_id": float64(note.ID)})
	require.False(t, r.IsError, resultText(r))
	assert.Contains(t, resultText(r), `"targetBookId": "b2"`)
}

func TestNoteFormat(t *testing.T) {
	srv, _ := testServer(t)
	text := resultText(callTool(t, srv, "get_note_format", map[string]interface{}{}))
	assert.Contains(t, text, parser.DefaultBookPrefix)
	assert.Contains(t, text, parser.DefaultNotePrefix)

	custom := NoteFormat(parser.LinkPatterns{BookPrefix: "/b/", NotePrefix: "/n/"})
	assert.True(t, strings.Contains(custom, `href="/n/42"`))
}
