// Package notesync runs the save pipeline that keeps a note's derived views
// (its cross-reference graph edges and its sentence vectors) consistent with
// the note's text.
package notesync

import (
	"context"
	"errors"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/justreadit/internal/apperr"
	"github.com/starford/justreadit/internal/checksum"
	"github.com/starford/justreadit/internal/models"
	"github.com/starford/justreadit/internal/parser"
)

// NoteStore is the record access the pipeline needs.
type NoteStore interface {
	GetNote(ctx context.Context, id int64) (models.Note, error)
	SaveNoteText(ctx context.Context, id int64, bookID, text string) error
	AllNoteInfo(ctx context.Context) ([]models.NoteInfo, error)
}

// SaveRequest is one save of a note's text.
type SaveRequest struct {
	NoteID    int64  `json:"noteId"`
	BookID    string `json:"bookId"`
	BookTitle string `json:"bookTitle"`
	Text      string `json:"text"`
	// IfMatch, when set, must equal the checksum of the stored text.
	IfMatch string `json:"-"`
}

// Validate checks the request shape. Text may be empty.
func (r SaveRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NoteID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.BookID, validation.Required),
		validation.Field(&r.BookTitle, validation.Required),
	)
}

// SaveResult is the typed outcome of each pipeline step.
type SaveResult struct {
	NoteID    int64
	Checksum  string
	Graph     GraphResult
	Sentences int
	Vectors   VectorResult
	// GraphErr is logged and never fails the save.
	GraphErr error
	// IndexErr means the text is saved but search may be stale.
	IndexErr error
}

// Partial reports whether the text was saved but the vector index was not.
func (r SaveResult) Partial() bool { return r.IndexErr != nil }

// Pipeline runs save and reindex for notes, one note at a time per id.
type Pipeline struct {
	notes    NoteStore
	graph    *GraphSync
	vectors  *VectorSync
	patterns parser.LinkPatterns
	locks    *KeyedMutex
	logger   *slog.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(notes NoteStore, graph *GraphSync, vectors *VectorSync, patterns parser.LinkPatterns, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		notes:    notes,
		graph:    graph,
		vectors:  vectors,
		patterns: patterns,
		locks:    NewKeyedMutex(),
		logger:   logger,
	}
}

// Save persists the text, then rebuilds the note's graph edges and vectors.
//
// A returned error means nothing past validation succeeded for the text
// (ErrValidation, ErrNotFound, ErrConflict, ErrPersistence). Once the text
// is written, sync failures are reported through SaveResult instead.
func (p *Pipeline) Save(ctx context.Context, req SaveRequest) (SaveResult, error) {
	res := SaveResult{NoteID: req.NoteID}
	if err := req.Validate(); err != nil {
		return res, apperr.Wrap(apperr.ErrValidation, "save note", err)
	}

	unlock := p.locks.Lock(req.NoteID)
	defer unlock()

	if req.IfMatch != "" {
		current, err := p.notes.GetNote(ctx, req.NoteID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return res, err
			}
			return res, apperr.Wrap(apperr.ErrPersistence, "load note", err)
		}
		if !checksum.Matches(req.IfMatch, current.Text) {
			return res, apperr.Wrap(apperr.ErrConflict, "save note", errors.New("text changed since it was read"))
		}
	}

	if err := p.notes.SaveNoteText(ctx, req.NoteID, req.BookID, req.Text); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return res, err
		}
		return res, apperr.Wrap(apperr.ErrPersistence, "save note text", err)
	}
	res.Checksum = checksum.Text(req.Text)

	p.sync(ctx, &res, Target{
		NoteID:    req.NoteID,
		BookID:    req.BookID,
		BookTitle: req.BookTitle,
		Checksum:  res.Checksum,
	}, req.Text)
	return res, nil
}

// sync runs the derived-view steps for text already persisted.
func (p *Pipeline) sync(ctx context.Context, res *SaveResult, t Target, text string) {
	links := parser.ExtractLinks(text, p.patterns)
	gr, err := p.graph.Sync(ctx, t.NoteID, t.BookID, t.Checksum, links)
	res.Graph = gr
	if err != nil {
		res.GraphErr = err
		p.logger.Error("save: graph sync failed",
			slog.Int64("note_id", t.NoteID),
			slog.String("error", err.Error()),
		)
	}

	sentences := parser.Sentences(text)
	res.Sentences = len(sentences)
	vr, err := p.vectors.Sync(ctx, t, sentences)
	res.Vectors = vr
	if err != nil {
		res.IndexErr = err
		p.logger.Warn("save: index sync failed, search may be stale",
			slog.Int64("note_id", t.NoteID),
			slog.String("error", err.Error()),
		)
	}
}

// ReindexResult summarises a reindex run.
type ReindexResult struct {
	Notes   int
	Synced  int
	Skipped int
	Failed  int
}

// Reindex re-runs the graph and vector steps for every stored note. Notes
// whose recorded graph and vector state both match their text are skipped
// unless force is set. Per-note failures are logged and counted.
func (p *Pipeline) Reindex(ctx context.Context, force bool) (ReindexResult, error) {
	var out ReindexResult
	notes, err := p.notes.AllNoteInfo(ctx)
	if err != nil {
		return out, apperr.Wrap(apperr.ErrPersistence, "list notes", err)
	}
	out.Notes = len(notes)

	for _, n := range notes {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if p.reindexOne(ctx, n, force, &out) {
			out.Synced++
		}
	}
	p.logger.Info("reindex complete",
		slog.Int("notes", out.Notes),
		slog.Int("synced", out.Synced),
		slog.Int("skipped", out.Skipped),
		slog.Int("failed", out.Failed),
	)
	return out, nil
}

func (p *Pipeline) reindexOne(ctx context.Context, n models.NoteInfo, force bool, out *ReindexResult) bool {
	unlock := p.locks.Lock(n.NoteID)
	defer unlock()

	// The listing may predate a concurrent save; sync what is stored now.
	current, err := p.notes.GetNote(ctx, n.NoteID)
	if err != nil {
		p.logger.Warn("reindex: load note failed",
			slog.Int64("note_id", n.NoteID),
			slog.String("error", err.Error()),
		)
		out.Failed++
		return false
	}
	n.Text = current.Text

	sum := checksum.Text(n.Text)
	if !force && p.upToDate(ctx, n.NoteID, sum) {
		out.Skipped++
		return false
	}

	res := SaveResult{NoteID: n.NoteID, Checksum: sum}
	p.sync(ctx, &res, Target{NoteID: n.NoteID, BookID: n.Book.ID, BookTitle: n.Book.Title, Checksum: sum}, n.Text)
	if res.GraphErr != nil || res.IndexErr != nil {
		out.Failed++
		return false
	}
	return true
}

// upToDate reports whether both derived views were last synced from sum.
// A state read error counts as stale.
func (p *Pipeline) upToDate(ctx context.Context, noteID int64, sum string) bool {
	graphOK, err := p.graph.UpToDate(ctx, noteID, sum)
	if err != nil {
		p.logger.Warn("reindex: read graph state failed",
			slog.Int64("note_id", noteID),
			slog.String("error", err.Error()),
		)
		return false
	}
	vectorsOK, err := p.vectors.UpToDate(ctx, noteID, sum)
	if err != nil {
		p.logger.Warn("reindex: read vector state failed",
			slog.Int64("note_id", noteID),
			slog.String("error", err.Error()),
		)
		return false
	}
	return graphOK && vectorsOK
}
