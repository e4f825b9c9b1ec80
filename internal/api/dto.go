package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/justreadit/internal/models"
	"github.com/starford/justreadit/internal/search"
)

// AddBookRequest is the request body for placing a book on the canvas.
type AddBookRequest struct {
	ID        string   `json:"id" example:"9788937460449"`
	Title     string   `json:"title" example:"Dune"`
	Author    string   `json:"author" example:"Frank Herbert"`
	Publisher string   `json:"publisher" example:"Chilton"`
	Cover     string   `json:"cover" example:"https://example.com/cover.jpg"`
	PositionX *float64 `json:"positionX" example:"120.5"`
	PositionY *float64 `json:"positionY" example:"80"`
}

// Validate checks required fields.
func (r AddBookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Publisher, validation.Required),
		validation.Field(&r.PositionX, validation.NotNil),
		validation.Field(&r.PositionY, validation.NotNil),
	)
}

// UpdatePositionRequest moves a book on the canvas.
type UpdatePositionRequest struct {
	PositionX *float64 `json:"positionX"`
	PositionY *float64 `json:"positionY"`
}

// Validate checks required fields.
func (r UpdatePositionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PositionX, validation.NotNil),
		validation.Field(&r.PositionY, validation.NotNil),
	)
}

// CreateNoteRequest creates an empty note in a book.
type CreateNoteRequest struct {
	BookID string           `json:"bookId"`
	Type   *models.NoteType `json:"type" example:"during"`
}

// Validate checks required fields.
func (r CreateNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BookID, validation.Required),
		validation.Field(&r.Type, validation.NotNil),
	)
}

// SaveNoteRequest is the request body for saving a note's text.
type SaveNoteRequest struct {
	BookID    string `json:"bookId"`
	BookTitle string `json:"bookTitle"`
	Text      string `json:"text" example:"<p>Fear is the mind-killer.</p>"`
}

// SaveNoteResponse reports the outcome of a save. Status is "partial" when
// the text was saved but the search index could not be updated.
type SaveNoteResponse struct {
	Status    string `json:"status" example:"success"`
	NoteID    int64  `json:"noteId"`
	Checksum  string `json:"checksum"`
	BookLinks int    `json:"bookLinks"`
	NoteLinks int    `json:"noteLinks"`
	Sentences int    `json:"sentences"`
	Warning   string `json:"warning,omitempty"`
}

// SearchRequest is the request body for semantic search.
type SearchRequest struct {
	SearchText    string `json:"searchText" example:"what is fear"`
	ExcludeNoteID *int64 `json:"excludeNoteId,omitempty"`
	TopK          int    `json:"topK,omitempty" example:"3"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Status  string          `json:"status" example:"success"`
	Results []search.Result `json:"results"`
}

// GraphResponse is every edge of the cross-reference graph.
type GraphResponse struct {
	BookConnections []models.BookConnection `json:"bookConnections"`
	NoteConnections []models.NoteConnection `json:"noteConnections"`
}
