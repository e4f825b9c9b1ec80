package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/justreadit/internal/apperr"
)

const maxBodyBytes = 10 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps an error kind to its status. Server-side failures are
// logged with op; client errors are not.
func writeError(w http.ResponseWriter, op string, err error) {
	status, msg := http.StatusInternalServerError, "internal error"
	switch apperr.Kind(err) {
	case apperr.ErrValidation:
		status, msg = http.StatusBadRequest, err.Error()
	case apperr.ErrNotFound:
		status, msg = http.StatusNotFound, "not found"
	case apperr.ErrConflict:
		status, msg = http.StatusConflict, "checksum mismatch"
	case apperr.ErrAlreadyExists:
		status, msg = http.StatusConflict, "already exists"
	case apperr.ErrProvider:
		status, msg = http.StatusBadGateway, "embedding provider unavailable"
	case apperr.ErrSearch:
		msg = "search failed"
	}
	if status >= 500 {
		slog.Error(op+" failed", slog.String("error", err.Error()))
	}
	writeJSON(w, status, errorBody(msg))
}

// decodeJSON reads a size-limited JSON body into dst. Decode failures are
// reported as validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Validation("request body too large")
		}
		return apperr.Validation("invalid JSON body")
	}
	return nil
}
