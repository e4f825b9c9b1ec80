package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/justreadit/internal/apperr"
	"github.com/starford/justreadit/internal/models"
	"github.com/starford/justreadit/internal/sse"
)

// ListBooks handles GET /api/books.
//
//	@Summary	List every book with its canvas position
//	@Tags		books
//	@Produce	json
//	@Success	200	{array}	models.Book
//	@Router		/books [get]
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.records.ListBooks(r.Context())
	if err != nil {
		writeError(w, "list books", err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

// AddBook handles POST /api/books.
//
//	@Summary	Place a new book on the canvas
//	@Tags		books
//	@Accept		json
//	@Produce	json
//	@Param		body	body		AddBookRequest	true	"Book to add"
//	@Success	201		{object}	models.Book
//	@Failure	400		{object}	errResponse
//	@Failure	409		{object}	errResponse
//	@Router		/books [post]
func (h *Handler) AddBook(w http.ResponseWriter, r *http.Request) {
	var req AddBookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "add book", err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, "add book", apperr.Wrap(apperr.ErrValidation, "add book", err))
		return
	}
	book := models.Book{
		ID:        req.ID,
		Title:     req.Title,
		Author:    req.Author,
		Publisher: req.Publisher,
		Cover:     req.Cover,
		PositionX: *req.PositionX,
		PositionY: *req.PositionY,
	}
	if err := h.records.AddBook(r.Context(), book); err != nil {
		writeError(w, "add book", err)
		return
	}
	h.publish(sse.Event{Type: sse.EventBookCreated, Data: book})
	writeJSON(w, http.StatusCreated, book)
}

// GetBook handles GET /api/books/{bookID}.
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.records.GetBook(r.Context(), chi.URLParam(r, "bookID"))
	if err != nil {
		writeError(w, "get book", err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// UpdateBookPosition handles PUT /api/books/{bookID}/position.
func (h *Handler) UpdateBookPosition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "bookID")
	var req UpdatePositionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "update book position", err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, "update book position", apperr.Wrap(apperr.ErrValidation, "update book position", err))
		return
	}
	if err := h.records.UpdateBookPosition(r.Context(), id, *req.PositionX, *req.PositionY); err != nil {
		writeError(w, "update book position", err)
		return
	}
	h.publish(sse.Event{Type: sse.EventBookMoved, Data: map[string]any{
		"bookId": id, "positionX": *req.PositionX, "positionY": *req.PositionY,
	}})
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// SearchBooks handles GET /api/books/search?keyword=.
//
//	@Summary	Find books by title, author or publisher
//	@Tags		books
//	@Produce	json
//	@Param		keyword	query	string	true	"Search keyword"
//	@Success	200		{array}		models.Book
//	@Failure	400		{object}	errResponse
//	@Failure	404		{object}	errResponse
//	@Router		/books/search [get]
func (h *Handler) SearchBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.records.SearchBooks(r.Context(), r.URL.Query().Get("keyword"))
	if err != nil {
		writeError(w, "search books", err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

// BookNotes handles GET /api/books/{bookID}/notes.
func (h *Handler) BookNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.records.NotesByBook(r.Context(), chi.URLParam(r, "bookID"))
	if err != nil {
		writeError(w, "book notes", err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}
