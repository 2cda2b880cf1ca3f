package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"notebase-ai/internal/contextutil"
	"notebase-ai/internal/service"
	"notebase-ai/internal/storage"
	"notebase-ai/internal/tablestore"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message})
}

// handleStorageError maps storage and service errors to HTTP status codes.
func handleStorageError(w http.ResponseWriter, ctx context.Context, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)
	logger.ErrorContext(ctx, "request failed", "error", err)

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, validationErr.Error())
		return
	}

	var corruptErr *tablestore.CorruptError
	if errors.As(err, &corruptErr) {
		writeError(w, http.StatusInternalServerError, "Table data is corrupt; repair required")
		return
	}

	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, storage.ErrNameRequired), errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrExternalService):
		writeError(w, http.StatusBadGateway, "External service error")
	default:
		writeError(w, http.StatusInternalServerError, defaultMsg)
	}
}
