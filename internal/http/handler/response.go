package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jaekwang-park/serverless-todo/internal/repository"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
		},
	})
}

// writeServiceError maps repository sentinels onto the error envelope and
// logs anything that surfaces as a 5xx.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "todo not found")
	case errors.Is(err, repository.ErrStoreUnavailable):
		logger.ErrorContext(r.Context(), "store unavailable", "error", err)
		WriteError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "storage is temporarily unavailable")
	default:
		logger.ErrorContext(r.Context(), "unhandled service error", "error", err)
		WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
