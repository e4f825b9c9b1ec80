// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes justreadit tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/justreadit/internal/apperr"
	"github.com/starford/justreadit/internal/models"
	"github.com/starford/justreadit/internal/notesync"
	"github.com/starford/justreadit/internal/parser"
	"github.com/starford/justreadit/internal/search"
)

// Records is the record access the tools need.
type Records interface {
	ListBooks(ctx context.Context) ([]models.Book, error)
	BookIDByTitle(ctx context.Context, title string) (string, error)
	NoteInfo(ctx context.Context, id int64) (models.NoteInfo, error)
	ConnectionsFrom(ctx context.Context, noteID int64) ([]models.BookConnection, []models.NoteConnection, error)
}

// NoteSaver runs the save pipeline.
type NoteSaver interface {
	Save(ctx context.Context, req notesync.SaveRequest) (notesync.SaveResult, error)
}

// Searcher answers semantic queries.
type Searcher interface {
	Search(ctx context.Context, q search.Query) ([]search.Result, error)
}

// Server wraps the MCP server with justreadit tools.
type Server struct {
	mcp      *server.MCPServer
	records  Records
	saver    NoteSaver
	searcher Searcher
	format   string
}

// New creates a new MCP server with all tools registered.
func New(records Records, saver NoteSaver, searcher Searcher, links parser.LinkPatterns, version string) *Server {
	s := &Server{records: records, saver: saver, searcher: searcher, format: NoteFormat(links)}

	s.mcp = server.NewMCPServer(
		"justreadit",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Semantic search over every sentence of every note. "+
			"Returns the closest sentences with their note, book and similarity."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Text to find similar sentences for")),
		mcp.WithNumber("top_k", mcp.Description("Number of results (default 3, max 100)")),
		mcp.WithNumber("exclude_note_id", mcp.Description("Optional note id whose sentences are left out")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note's title and HTML text together with its book."),
		mcp.WithNumber("note_id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("save_note",
		mcp.WithDescription("Replace a note's HTML text. Links and search vectors are rebuilt from it. "+
			"Read the format first via get_note_format or the "+NoteFormatURI+" resource."),
		mcp.WithNumber("note_id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("book_title", mcp.Required(), mcp.Description("Title of the book that owns the note")),
		mcp.WithString("book_id", mcp.Description("Id of the owning book; looked up by title when empty")),
		mcp.WithString("text", mcp.Required(), mcp.Description("HTML body following the note format")),
	), s.saveNote)

	s.mcp.AddTool(mcp.NewTool("list_books",
		mcp.WithDescription("List every book on the canvas."),
	), s.listBooks)

	s.mcp.AddTool(mcp.NewTool("get_connections",
		mcp.WithDescription("List the books and notes a note links to."),
		mcp.WithNumber("note_id", mcp.Required(), mcp.Description("Note id")),
	), s.getConnections)

	s.mcp.AddTool(mcp.NewTool("get_note_format",
		mcp.WithDescription("Returns the HTML note format, including how to write book and note links."),
	), s.getNoteFormat)

	s.mcp.AddResource(
		mcp.NewResource(NoteFormatURI, "Note Format",
			mcp.WithResourceDescription("HTML note body format and link syntax."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func noteIDArg(req mcp.CallToolRequest) (int64, error) {
	id, err := req.RequireInt("note_id")
	if err != nil {
		return 0, err
	}
	if id < 1 {
		return 0, errors.New("note_id must be a positive integer")
	}
	return int64(id), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	q := search.Query{Text: query, K: req.GetInt("top_k", 0)}
	if ex := int64(req.GetInt("exclude_note_id", 0)); ex > 0 {
		q.ExcludeNoteID = &ex
	}
	results, err := s.searcher.Search(ctx, q)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no matching sentences"), nil
	}
	return jsonResult(results)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := noteIDArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	info, err := s.records.NoteInfo(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("note not found: %d", id)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(info)
}

func (s *Server) saveNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := noteIDArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("book_title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	bookID := req.GetString("book_id", "")
	if bookID == "" {
		if bookID, err = s.records.BookIDByTitle(ctx, title); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return mcp.NewToolResultError(fmt.Sprintf("book not found: %s", title)), nil
			}
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	res, err := s.saver.Save(ctx, notesync.SaveRequest{NoteID: id, BookID: bookID, BookTitle: title, Text: text})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	msg := fmt.Sprintf("saved note %d: %d book links, %d note links, %d sentences",
		res.NoteID, res.Graph.BookEdges, res.Graph.NoteEdges, res.Sentences)
	if res.Partial() {
		msg += "; search index update failed, results may be stale"
	}
	return mcp.NewToolResultText(msg), nil
}

func (s *Server) listBooks(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	books, err := s.records.ListBooks(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(books)
}

func (s *Server) getConnections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := noteIDArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	books, notes, err := s.records.ConnectionsFrom(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(books) == 0 && len(notes) == 0 {
		return mcp.NewToolResultText("no connections found"), nil
	}
	return jsonResult(map[string]any{"bookConnections": books, "noteConnections": notes})
}

func (s *Server) getNoteFormat(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.format), nil
}

func (s *Server) readNoteFormatResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      NoteFormatURI,
			MIMEType: "text/markdown",
			Text:     s.format,
		},
	}, nil
}
