package notesync

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/starford/justreadit/internal/apperr"
	"github.com/starford/justreadit/internal/embedding"
	"github.com/starford/justreadit/internal/models"
	"github.com/starford/justreadit/internal/vectorindex"
)

// VectorStateStore persists how many ordinals of each note may be live.
type VectorStateStore interface {
	GetVectorState(ctx context.Context, noteID int64) (models.VectorState, bool, error)
	PutVectorState(ctx context.Context, st models.VectorState) error
}

// Target identifies the note whose sentences are synced.
type Target struct {
	NoteID    int64
	BookID    string
	BookTitle string
	// Checksum of the text the sentences came from.
	Checksum string
}

// VectorResult reports what a vector sync did.
type VectorResult struct {
	Upserted int
	Deleted  int
	// DeleteErr is set when stale ordinals could not be removed. The sync
	// still succeeds; the next save retries the deletion.
	DeleteErr error
}

// VectorSync keeps the live records "{noteId}-{ordinal}" equal to the
// embeddings of the note's current sentences.
type VectorSync struct {
	index    vectorindex.Index
	embedder embedding.Embedder
	states   VectorStateStore
	logger   *slog.Logger
	// legacyCeiling is the number of ordinals deleted for notes that have
	// no recorded state. Zero disables the sweep.
	legacyCeiling int
}

// NewVectorSync creates a VectorSync.
func NewVectorSync(idx vectorindex.Index, e embedding.Embedder, states VectorStateStore, legacyCeiling int, logger *slog.Logger) *VectorSync {
	return &VectorSync{index: idx, embedder: e, states: states, legacyCeiling: legacyCeiling, logger: logger}
}

// Sync embeds sentences concurrently, upserts them by ordinal, then deletes
// ordinals past the new count. Embedding, upsert and state failures carry
// apperr.ErrIndexSync; a failed deletion only sets VectorResult.DeleteErr.
func (v *VectorSync) Sync(ctx context.Context, t Target, sentences []string) (VectorResult, error) {
	var res VectorResult
	prev, known, err := v.states.GetVectorState(ctx, t.NoteID)
	if err != nil {
		return res, apperr.Wrap(apperr.ErrIndexSync, "read vector state", err)
	}

	records, err := v.embedAll(ctx, t, sentences)
	if err != nil {
		return res, apperr.Wrap(apperr.ErrIndexSync, "embed sentences", err)
	}

	n := len(records)
	if n > 0 {
		if err := v.index.Upsert(ctx, records); err != nil {
			// Some records may have landed; widen the recorded count so the
			// next sync deletes them if the note shrinks.
			v.putState(ctx, t.NoteID, max(prev.VectorCount, n), "")
			return res, apperr.Wrap(apperr.ErrIndexSync, "upsert vectors", err)
		}
	}
	res.Upserted = n

	high := prev.VectorCount
	if !known {
		high = v.legacyCeiling
	}
	count, sum := n, t.Checksum
	if stale := vectorindex.RecordIDs(t.NoteID, n, high); len(stale) > 0 {
		if err := v.index.DeleteMany(ctx, stale); err != nil {
			v.logger.Warn("vector sync: delete stale ordinals failed",
				slog.Int64("note_id", t.NoteID),
				slog.Int("stale", len(stale)),
				slog.String("error", err.Error()),
			)
			res.DeleteErr = err
			count, sum = high, ""
		} else {
			res.Deleted = len(stale)
		}
	}

	if err := v.states.PutVectorState(ctx, models.VectorState{NoteID: t.NoteID, VectorCount: count, Checksum: sum}); err != nil {
		return res, apperr.Wrap(apperr.ErrIndexSync, "record vector state", err)
	}
	return res, nil
}

// UpToDate reports whether the recorded state was derived from checksum.
func (v *VectorSync) UpToDate(ctx context.Context, noteID int64, checksum string) (bool, error) {
	st, ok, err := v.states.GetVectorState(ctx, noteID)
	if err != nil || !ok {
		return false, err
	}
	return st.Checksum != "" && st.Checksum == checksum, nil
}

func (v *VectorSync) embedAll(ctx context.Context, t Target, sentences []string) ([]vectorindex.Record, error) {
	records := make([]vectorindex.Record, len(sentences))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range sentences {
		g.Go(func() error {
			vec, err := v.embedder.Embed(gctx, s)
			if err != nil {
				return fmt.Errorf("sentence %d: %w", i, err)
			}
			records[i] = vectorindex.Record{
				ID:     vectorindex.RecordID(t.NoteID, i),
				Values: vec,
				Metadata: vectorindex.Metadata{
					BookID:    t.BookID,
					BookTitle: t.BookTitle,
					NoteID:    t.NoteID,
					Sentence:  s,
				},
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

func (v *VectorSync) putState(ctx context.Context, noteID int64, count int, sum string) {
	if err := v.states.PutVectorState(ctx, models.VectorState{NoteID: noteID, VectorCount: count, Checksum: sum}); err != nil {
		v.logger.Warn("vector sync: record state failed",
			slog.Int64("note_id", noteID),
			slog.String("error", err.Error()),
		)
	}
}
