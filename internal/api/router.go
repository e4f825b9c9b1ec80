package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
)

// RouterOptions configures the API router.
type RouterOptions struct {
	// AllowedOrigins enables CORS for the canvas front-end. Empty disables CORS.
	AllowedOrigins []string
	// Events, if non-nil, is mounted at GET /events.
	Events http.Handler
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(h *Handler, opts RouterOptions) chi.Router {
	r := chi.NewRouter()
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "If-Match"},
			ExposedHeaders: []string{"ETag"},
			MaxAge:         300,
		}).Handler)
	}

	// Books.
	r.Get("/books", h.ListBooks)
	r.Post("/books", h.AddBook)
	r.Get("/books/search", h.SearchBooks)
	r.Get("/books/{bookID}", h.GetBook)
	r.Put("/books/{bookID}/position", h.UpdateBookPosition)
	r.Get("/books/{bookID}/notes", h.BookNotes)

	// Notes.
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/{noteID}", h.NoteInfo)
	r.Put("/notes/{noteID}/text", h.SaveNote)

	// Semantic search.
	r.Post("/search", h.Search)

	// Graph.
	r.Get("/graph", h.Graph)

	if opts.Events != nil {
		r.Get("/events", opts.Events.ServeHTTP)
	}

	return r
}
