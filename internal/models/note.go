// Package models defines the domain types for justreadit.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// NoteType tells whether a note was written while reading a book or after finishing it.
// It is stored as an integer and rendered as "during" / "after".
type NoteType int

const (
	NoteDuring NoteType = 0
	NoteAfter  NoteType = 1
)

// ParseNoteType maps "during" / "after" to a NoteType.
func ParseNoteType(s string) (NoteType, error) {
	switch s {
	case "during":
		return NoteDuring, nil
	case "after":
		return NoteAfter, nil
	}
	return 0, fmt.Errorf("note type must be 'during' or 'after', got %q", s)
}

func (t NoteType) String() string {
	if t == NoteAfter {
		return "after"
	}
	return "during"
}

// MarshalJSON renders the type as its string form.
func (t NoteType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts the string form, or the stored integer form (0 or 1).
func (t *NoteType) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if n != int(NoteDuring) && n != int(NoteAfter) {
			return fmt.Errorf("note type must be 0 or 1, got %d", n)
		}
		*t = NoteType(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseNoteType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Note is a rich-text annotation attached to a book. Text is HTML and is the
// single source of truth for the note's graph edges and sentence vectors.
type Note struct {
	ID     int64    `json:"id"`
	BookID string   `json:"bookId"`
	Type   NoteType `json:"type"`
	Title  string   `json:"title"`
	Text   string   `json:"text"`
}

// Book is a book placed on the reading canvas.
type Book struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Author    string  `json:"author"`
	Publisher string  `json:"publisher"`
	Cover     string  `json:"cover"`
	PositionX float64 `json:"positionX"`
	PositionY float64 `json:"positionY"`
}

// NoteInfo is a note joined with the book that owns it.
type NoteInfo struct {
	NoteID    int64  `json:"noteId"`
	NoteTitle string `json:"noteTitle"`
	Text      string `json:"text"`
	Book      Book   `json:"book"`
}

// BookConnection is an edge from a note to a book it links to.
type BookConnection struct {
	BaseNoteID   int64  `json:"baseNoteId"`
	BaseBookID   string `json:"baseBookId"`
	TargetBookID string `json:"targetBookId"`
}

// NoteConnection is an edge from a note to another note. TargetBookID is the
// book that owned the target note when the edge was written.
type NoteConnection struct {
	BaseNoteID   int64  `json:"baseNoteId"`
	BaseBookID   string `json:"baseBookId"`
	TargetBookID string `json:"targetBookId"`
	TargetNoteID int64  `json:"targetNoteId"`
}

// VectorState records how many sentence ordinals of a note may be live in the
// vector index, and the checksum of the text they were derived from.
type VectorState struct {
	NoteID      int64
	VectorCount int
	Checksum    string
	SyncedAt    time.Time
}
