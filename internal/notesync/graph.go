package notesync

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/starford/justreadit/internal/apperr"
	"github.com/starford/justreadit/internal/parser"
	"github.com/starford/justreadit/internal/store"
)

// GraphStore replaces the outgoing edges of a note atomically and reports
// which text the current edges were derived from.
type GraphStore interface {
	ReplaceConnections(ctx context.Context, cs store.ConnectionSet) (store.ReplaceResult, error)
	GraphChecksum(ctx context.Context, noteID int64) (string, bool, error)
}

// GraphResult reports the edges written for one note.
type GraphResult struct {
	store.ReplaceResult
	// Invalid counts note links whose id is not a note id at all.
	Invalid int
}

// GraphSync keeps a note's BookConnection and NoteConnection rows equal to
// the links found in its current text.
type GraphSync struct {
	store  GraphStore
	logger *slog.Logger
}

// NewGraphSync creates a GraphSync.
func NewGraphSync(s GraphStore, logger *slog.Logger) *GraphSync {
	return &GraphSync{store: s, logger: logger}
}

// Sync replaces every edge based at noteID with links extracted from the
// text whose checksum is sum. Book links are written as given. Note links
// with a non-numeric id are skipped here; links to unknown notes are
// skipped by the store. Failures carry apperr.ErrGraphSync.
func (g *GraphSync) Sync(ctx context.Context, noteID int64, bookID, sum string, links parser.Links) (GraphResult, error) {
	var res GraphResult
	noteIDs := make([]int64, 0, len(links.NoteIDs))
	for _, raw := range links.NoteIDs {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			res.Invalid++
			continue
		}
		noteIDs = append(noteIDs, id)
	}

	rr, err := g.store.ReplaceConnections(ctx, store.ConnectionSet{
		BaseNoteID: noteID,
		BaseBookID: bookID,
		BookIDs:    links.BookIDs,
		NoteIDs:    noteIDs,
		Checksum:   sum,
	})
	if err != nil {
		return res, apperr.Wrap(apperr.ErrGraphSync, "replace connections", err)
	}
	res.ReplaceResult = rr
	if skipped := res.Invalid + rr.Unresolved; skipped > 0 {
		g.logger.Debug("graph sync: skipped note links",
			slog.Int64("note_id", noteID),
			slog.Int("skipped", skipped),
		)
	}
	return res, nil
}

// UpToDate reports whether the stored edges were derived from sum.
func (g *GraphSync) UpToDate(ctx context.Context, noteID int64, sum string) (bool, error) {
	got, ok, err := g.store.GraphChecksum(ctx, noteID)
	if err != nil || !ok {
		return false, err
	}
	return got != "" && got == sum, nil
}
