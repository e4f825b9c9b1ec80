// Package search answers semantic queries over the sentence vector index.
package search

import (
	"context"
	"errors"
	"strings"

	"github.com/starford/justreadit/internal/apperr"
	"github.com/starford/justreadit/internal/embedding"
	"github.com/starford/justreadit/internal/vectorindex"
)

// DefaultTopK is the number of results returned when a query sets none.
const DefaultTopK = 3

// MaxTopK bounds caller-supplied K.
const MaxTopK = 100

// Query is one semantic search.
type Query struct {
	Text string
	// ExcludeNoteID drops every sentence of that note, typically the one
	// being edited.
	ExcludeNoteID *int64
	K             int
}

// Result is one matching sentence.
type Result struct {
	BookID     string  `json:"bookId"`
	BookTitle  string  `json:"bookTitle"`
	NoteID     int64   `json:"noteId"`
	Sentence   string  `json:"sentence"`
	Similarity float64 `json:"similarity"`
}

// Service embeds queries and ranks stored sentences against them.
type Service struct {
	embedder embedding.Embedder
	index    vectorindex.Index
	topK     int
}

// NewService creates a Service. defaultK <= 0 selects DefaultTopK.
func NewService(e embedding.Embedder, idx vectorindex.Index, defaultK int) *Service {
	if defaultK <= 0 {
		defaultK = DefaultTopK
	}
	return &Service{embedder: e, index: idx, topK: defaultK}
}

// Search returns up to K sentences, most similar first. Empty text is a
// validation error; embedding failures carry apperr.ErrProvider and index
// failures apperr.ErrSearch. Results are all-or-nothing.
func (s *Service) Search(ctx context.Context, q Query) ([]Result, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, apperr.Validation("searchText is required")
	}
	k := q.K
	if k <= 0 {
		k = s.topK
	}
	if k > MaxTopK {
		return nil, apperr.Validation("topK must be at most 100")
	}

	vec, err := s.embedder.Embed(ctx, q.Text)
	if err != nil {
		if errors.Is(err, apperr.ErrProvider) {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.ErrProvider, "embed query", err)
	}

	matches, err := s.index.Query(ctx, vec, vectorindex.QueryOptions{TopK: k, ExcludeNoteID: q.ExcludeNoteID})
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrSearch, "query index", err)
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{
			BookID:     m.Metadata.BookID,
			BookTitle:  m.Metadata.BookTitle,
			NoteID:     m.Metadata.NoteID,
			Sentence:   m.Metadata.Sentence,
			Similarity: m.Score,
		})
	}
	return results, nil
}
