package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/justreadit/internal/apperr"
	"github.com/starford/justreadit/internal/models"
	"github.com/starford/justreadit/internal/notesync"
	"github.com/starford/justreadit/internal/search"
	"github.com/starford/justreadit/internal/sse"
)

// Records is the record access the API serves directly.
type Records interface {
	ListBooks(ctx context.Context) ([]models.Book, error)
	GetBook(ctx context.Context, id string) (models.Book, error)
	AddBook(ctx context.Context, b models.Book) error
	UpdateBookPosition(ctx context.Context, id string, x, y float64) error
	SearchBooks(ctx context.Context, keyword string) ([]models.Book, error)
	NotesByBook(ctx context.Context, bookID string) ([]models.Note, error)
	CreateNote(ctx context.Context, bookID string, typ models.NoteType) (models.Note, error)
	NoteInfo(ctx context.Context, id int64) (models.NoteInfo, error)
	Graph(ctx context.Context) ([]models.BookConnection, []models.NoteConnection, error)
}

// NoteSaver runs the save pipeline.
type NoteSaver interface {
	Save(ctx context.Context, req notesync.SaveRequest) (notesync.SaveResult, error)
}

// Searcher answers semantic queries.
type Searcher interface {
	Search(ctx context.Context, q search.Query) ([]search.Result, error)
}

// Publisher receives change notifications for connected clients.
type Publisher interface {
	Publish(ev sse.Event)
	PublishNote(ev sse.NoteEvent)
}

// Handler holds API route handlers.
type Handler struct {
	records  Records
	saver    NoteSaver
	searcher Searcher
	events   Publisher
}

// NewHandler creates a new Handler. events may be nil.
func NewHandler(records Records, saver NoteSaver, searcher Searcher, events Publisher) *Handler {
	return &Handler{records: records, saver: saver, searcher: searcher, events: events}
}

func (h *Handler) publish(ev sse.Event) {
	if h.events != nil {
		h.events.Publish(ev)
	}
}

func (h *Handler) publishNote(ev sse.NoteEvent) {
	if h.events != nil {
		h.events.PublishNote(ev)
	}
}

// noteID parses the {noteID} URL parameter.
func noteID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "noteID"), 10, 64)
	if err != nil || id < 1 {
		return 0, apperr.Validation("noteID must be a positive integer")
	}
	return id, nil
}
