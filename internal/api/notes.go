package api

import (
	"net/http"

	"github.com/starford/justreadit/internal/apperr"
	"github.com/starford/justreadit/internal/notesync"
	"github.com/starford/justreadit/internal/sse"
)

const (
	statusSuccess = "success"
	statusPartial = "partial"

	indexStaleWarning = "note saved; search index update failed"
)

// CreateNote handles POST /api/notes.
//
//	@Summary	Create an empty note in a book
//	@Tags		notes
//	@Accept		json
//	@Produce	json
//	@Param		body	body		CreateNoteRequest	true	"Owning book and note type"
//	@Success	201		{object}	models.Note
//	@Failure	400		{object}	errResponse
//	@Failure	404		{object}	errResponse
//	@Router		/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "create note", err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, "create note", apperr.Wrap(apperr.ErrValidation, "create note", err))
		return
	}
	note, err := h.records.CreateNote(r.Context(), req.BookID, *req.Type)
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	h.publishNote(sse.NoteEvent{Type: sse.EventNoteCreated, NoteID: note.ID, BookID: note.BookID})
	writeJSON(w, http.StatusCreated, note)
}

// NoteInfo handles GET /api/notes/{noteID}.
//
//	@Summary	Read a note with its owning book
//	@Tags		notes
//	@Produce	json
//	@Param		noteID	path		int	true	"Note id"
//	@Success	200		{object}	models.NoteInfo
//	@Failure	404		{object}	errResponse
//	@Router		/notes/{noteID} [get]
func (h *Handler) NoteInfo(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		writeError(w, "note info", err)
		return
	}
	info, err := h.records.NoteInfo(r.Context(), id)
	if err != nil {
		writeError(w, "note info", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// SaveNote handles PUT /api/notes/{noteID}/text.
//
// The text is durable once the response is 200. A "partial" status means the
// search index could not be brought up to date and a reindex will repair it.
//
//	@Summary	Save a note's text and resync its links and sentence vectors
//	@Tags		notes
//	@Accept		json
//	@Produce	json
//	@Param		noteID		path		int				true	"Note id"
//	@Param		If-Match	header		string			false	"Checksum of the text being replaced"
//	@Param		body		body		SaveNoteRequest	true	"Note text"
//	@Success	200			{object}	SaveNoteResponse
//	@Failure	400			{object}	errResponse
//	@Failure	404			{object}	errResponse
//	@Failure	409			{object}	errResponse
//	@Router		/notes/{noteID}/text [put]
func (h *Handler) SaveNote(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		writeError(w, "save note", err)
		return
	}
	var req SaveNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "save note", err)
		return
	}

	res, err := h.saver.Save(r.Context(), notesync.SaveRequest{
		NoteID:    id,
		BookID:    req.BookID,
		BookTitle: req.BookTitle,
		Text:      req.Text,
		IfMatch:   r.Header.Get("If-Match"),
	})
	if err != nil {
		writeError(w, "save note", err)
		return
	}

	resp := SaveNoteResponse{
		Status:    statusSuccess,
		NoteID:    res.NoteID,
		Checksum:  res.Checksum,
		BookLinks: res.Graph.BookEdges,
		NoteLinks: res.Graph.NoteEdges,
		Sentences: res.Sentences,
	}
	ev := sse.NoteEvent{
		Type:         sse.EventNoteSaved,
		NoteID:       res.NoteID,
		BookID:       req.BookID,
		Checksum:     res.Checksum,
		GraphChanged: res.GraphErr == nil,
	}
	if res.Partial() {
		resp.Status, resp.Warning = statusPartial, indexStaleWarning
		ev.Type, ev.Warning = sse.EventNoteIndexStale, indexStaleWarning
	}
	h.publishNote(ev)

	w.Header().Set("ETag", `"`+res.Checksum+`"`)
	writeJSON(w, http.StatusOK, resp)
}
