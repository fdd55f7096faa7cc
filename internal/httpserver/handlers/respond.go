package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/linklab/linkdex/internal/domain"
	"github.com/linklab/linkdex/internal/logger"
)

// errorResponse is the structured error body for every non-2xx answer.
// Raw errors never reach the client; Detail carries a diagnostic string on
// internal errors only.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg, detail string) {
	writeJSON(w, status, errorResponse{Error: msg, Detail: detail})
}

// writeDomainError maps the error taxonomy to HTTP statuses:
// validation -> 400, duplicate URL -> 400, not found -> 404, storage/other -> 500.
func writeDomainError(w http.ResponseWriter, log logger.Logger, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Reason, "")
	case errors.Is(err, domain.ErrDuplicateURL):
		writeError(w, http.StatusBadRequest, domain.ErrDuplicateURL.Error(), "")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, domain.ErrNotFound.Error(), "")
	default:
		log.Error("request failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error", err.Error())
	}
}
