package api

import (
	"net/http"

	"github.com/starford/justreadit/internal/search"
)

// Search handles POST /api/search.
//
//	@Summary	Find the sentences closest in meaning to a query
//	@Tags		search
//	@Accept		json
//	@Produce	json
//	@Param		body	body		SearchRequest	true	"Query text, optional note to exclude and result count"
//	@Success	200		{object}	SearchResponse
//	@Failure	400		{object}	errResponse
//	@Failure	502		{object}	errResponse
//	@Router		/search [post]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "search", err)
		return
	}
	results, err := h.searcher.Search(r.Context(), search.Query{
		Text:          req.SearchText,
		ExcludeNoteID: req.ExcludeNoteID,
		K:             req.TopK,
	})
	if err != nil {
		writeError(w, "search", err)
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Status: statusSuccess, Results: results})
}

// Graph handles GET /api/graph.
//
//	@Summary	Every edge of the cross-reference graph
//	@Tags		graph
//	@Produce	json
//	@Success	200	{object}	GraphResponse
//	@Router		/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	books, notes, err := h.records.Graph(r.Context())
	if err != nil {
		writeError(w, "graph", err)
		return
	}
	writeJSON(w, http.StatusOK, GraphResponse{BookConnections: books, NoteConnections: notes})
}
