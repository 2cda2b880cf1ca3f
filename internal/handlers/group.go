package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"notebase-ai/internal/contextutil"
	"notebase-ai/internal/storage"
)

// GroupHandler handles HTTP requests for note groups and their members.
type GroupHandler struct {
	groups     storage.GroupStore
	membership storage.MembershipStore
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groups storage.GroupStore, membership storage.MembershipStore) *GroupHandler {
	return &GroupHandler{groups: groups, membership: membership}
}

// GroupRequest represents the HTTP request payload for creating or
// renaming a group.
type GroupRequest struct {
	Name string `json:"name"`
}

// ReorderRequest represents an ordered list of ids for reorder endpoints.
type ReorderRequest struct {
	OrderedIDs []string `json:"ordered_ids"`
}

// MemberRequest represents the HTTP request payload for adding a note to
// a group.
type MemberRequest struct {
	NoteID string `json:"note_id"`
}

// Create handles POST /api/groups. Creation is idempotent by
// case-insensitive name; an existing group is returned unchanged.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req GroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	group, err := h.groups.Create(ctx, req.Name)
	if err != nil {
		handleStorageError(w, ctx, err, "Failed to create group")
		return
	}

	writeJSON(w, http.StatusOK, group)
}

// Rename handles PUT /api/groups/{id}.
func (h *GroupHandler) Rename(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id := chi.URLParam(r, "id")
	var req GroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	group, err := h.groups.Rename(ctx, id, req.Name)
	if err != nil {
		handleStorageError(w, ctx, err, "Failed to rename group")
		return
	}

	writeJSON(w, http.StatusOK, group)
}

// Delete handles DELETE /api/groups/{id}.
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if err := h.groups.Delete(ctx, id); err != nil {
		handleStorageError(w, ctx, err, "Failed to delete group")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/groups.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	groups, err := h.groups.List(ctx)
	if err != nil {
		handleStorageError(w, ctx, err, "Failed to list groups")
		return
	}
	if groups == nil {
		groups = []storage.GroupRow{}
	}

	writeJSON(w, http.StatusOK, groups)
}

// Reorder handles PUT /api/groups/order.
func (h *GroupHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.groups.Reorder(ctx, req.OrderedIDs); err != nil {
		handleStorageError(w, ctx, err, "Failed to reorder groups")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddMember handles POST /api/groups/{id}/notes.
func (h *GroupHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id := chi.URLParam(r, "id")
	var req MemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.NoteID == "" {
		writeError(w, http.StatusBadRequest, "note_id is required")
		return
	}

	if err := h.membership.Add(ctx, id, req.NoteID); err != nil {
		handleStorageError(w, ctx, err, "Failed to add note to group")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveMember handles DELETE /api/groups/{id}/notes/{noteID}.
func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	noteID := chi.URLParam(r, "noteID")
	if err := h.membership.Remove(ctx, id, noteID); err != nil {
		handleStorageError(w, ctx, err, "Failed to remove note from group")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMembers handles GET /api/groups/{id}/notes.
func (h *GroupHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	members, err := h.membership.ListMembers(ctx, id)
	if err != nil {
		handleStorageError(w, ctx, err, "Failed to list group members")
		return
	}
	if members == nil {
		members = []string{}
	}

	writeJSON(w, http.StatusOK, members)
}

// ReorderMembers handles PUT /api/groups/{id}/notes/order.
func (h *GroupHandler) ReorderMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id := chi.URLParam(r, "id")
	var req ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.membership.Reorder(ctx, id, req.OrderedIDs); err != nil {
		handleStorageError(w, ctx, err, "Failed to reorder group members")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
