// Package vectorindex stores sentence vectors keyed by "{noteId}-{ordinal}"
// and answers nearest-neighbour queries, scoped to one namespace.
package vectorindex

import (
	"context"
	"strconv"
)

// Metadata travels with every record and is returned on query.
type Metadata struct {
	BookID    string `json:"bookId"`
	BookTitle string `json:"bookTitle"`
	NoteID    int64  `json:"noteId"`
	Sentence  string `json:"sentence"`
}

// Record is one sentence vector.
type Record struct {
	ID       string
	Values   []float32
	Metadata Metadata
}

// Match is a query hit. Score is cosine similarity, higher is closer.
type Match struct {
	ID       string
	Score    float64
	Metadata Metadata
}

// QueryOptions controls a nearest-neighbour query.
type QueryOptions struct {
	TopK int
	// ExcludeNoteID, when non-nil, drops every record of that note before
	// ranking, so TopK results are still returned when enough remain.
	ExcludeNoteID *int64
}

// Index is the contract every backend implements.
// Deleting an id that does not exist is a no-op.
type Index interface {
	Upsert(ctx context.Context, records []Record) error
	DeleteMany(ctx context.Context, ids []string) error
	Query(ctx context.Context, vector []float32, opts QueryOptions) ([]Match, error)
	Close() error
}

// RecordID returns the id of a note's ordinal-th sentence vector.
func RecordID(noteID int64, ordinal int) string {
	return strconv.FormatInt(noteID, 10) + "-" + strconv.Itoa(ordinal)
}

// RecordIDs returns the ids for ordinals in [from, to).
func RecordIDs(noteID int64, from, to int) []string {
	if to <= from {
		return nil
	}
	ids := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		ids = append(ids, RecordID(noteID, i))
	}
	return ids
}

func excluded(opts QueryOptions, noteID int64) bool {
	return opts.ExcludeNoteID != nil && *opts.ExcludeNoteID == noteID
}
