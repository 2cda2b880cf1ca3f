package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"notebase-ai/internal/contextutil"
	"notebase-ai/internal/storage"
)

// TabsHandler handles HTTP requests for tab session persistence.
type TabsHandler struct {
	tabs storage.TabStore
}

// NewTabsHandler creates a new TabsHandler.
func NewTabsHandler(tabs storage.TabStore) *TabsHandler {
	return &TabsHandler{tabs: tabs}
}

// SaveSessionRequest represents the HTTP request payload for saving a
// tab session.
type SaveSessionRequest struct {
	Tabs []storage.Tab `json:"tabs"`
}

// SaveSessionResponse reports how many tabs were saved.
type SaveSessionResponse struct {
	Saved int `json:"saved"`
}

// Save handles PUT /api/sessions/{id}/tabs, replacing the session's tabs
// wholesale. An empty list clears the session.
func (h *TabsHandler) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	sessionID := chi.URLParam(r, "id")
	var req SaveSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	saved, err := h.tabs.SaveSession(ctx, sessionID, req.Tabs)
	if err != nil {
		handleStorageError(w, ctx, err, "Failed to save session")
		return
	}

	writeJSON(w, http.StatusOK, SaveSessionResponse{Saved: saved})
}

// Load handles GET /api/sessions/{id}/tabs.
func (h *TabsHandler) Load(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID := chi.URLParam(r, "id")
	rows, err := h.tabs.LoadSession(ctx, sessionID)
	if err != nil {
		handleStorageError(w, ctx, err, "Failed to load session")
		return
	}
	if rows == nil {
		rows = []storage.TabRow{}
	}

	writeJSON(w, http.StatusOK, rows)
}
