package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"notebase-ai/internal/storage"
)

func groupRouter(h *GroupHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/groups", h.List)
	r.Post("/api/groups", h.Create)
	r.Put("/api/groups/order", h.Reorder)
	r.Put("/api/groups/{id}", h.Rename)
	r.Delete("/api/groups/{id}", h.Delete)
	r.Get("/api/groups/{id}/notes", h.ListMembers)
	r.Post("/api/groups/{id}/notes", h.AddMember)
	r.Put("/api/groups/{id}/notes/order", h.ReorderMembers)
	r.Delete("/api/groups/{id}/notes/{noteID}", h.RemoveMember)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGroupHandler_CreateIsIdempotent(t *testing.T) {
	_, groups, membership, _, _ := newStores(t)
	router := groupRouter(NewGroupHandler(groups, membership))

	w := doJSON(t, router, http.MethodPost, "/api/groups", `{"name":"Work"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Create() status = %v, want %v", w.Code, http.StatusOK)
	}
	var first storage.GroupRow
	if err := json.NewDecoder(w.Body).Decode(&first); err != nil {
		t.Fatalf("Create() invalid JSON: %v", err)
	}

	// Same name, different case, resolves to the existing group.
	w = doJSON(t, router, http.MethodPost, "/api/groups", `{"name":"work"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Create() status = %v, want %v", w.Code, http.StatusOK)
	}
	var second storage.GroupRow
	if err := json.NewDecoder(w.Body).Decode(&second); err != nil {
		t.Fatalf("Create() invalid JSON: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("Create() returned new group %q, want existing %q", second.ID, first.ID)
	}
	if second.Name != "Work" {
		t.Errorf("Create() name = %q, want original casing Work", second.Name)
	}
}

func TestGroupHandler_CreateBlankName(t *testing.T) {
	_, groups, membership, _, _ := newStores(t)
	router := groupRouter(NewGroupHandler(groups, membership))

	w := doJSON(t, router, http.MethodPost, "/api/groups", `{"name":"   "}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Create() status = %v, want %v", w.Code, http.StatusBadRequest)
	}
}

func TestGroupHandler_RenameUnknown(t *testing.T) {
	_, groups, membership, _, _ := newStores(t)
	router := groupRouter(NewGroupHandler(groups, membership))

	w := doJSON(t, router, http.MethodPut, "/api/groups/nope", `{"name":"Renamed"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("Rename() status = %v, want %v", w.Code, http.StatusNotFound)
	}
}

func TestGroupHandler_MembershipFlow(t *testing.T) {
	notes, groups, membership, _, _ := newStores(t)
	router := groupRouter(NewGroupHandler(groups, membership))
	ctx := context.Background()

	note, err := notes.Create(ctx, "A Note", "body")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	group, err := groups.Create(ctx, "Work")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	w := doJSON(t, router, http.MethodPost, "/api/groups/"+group.ID+"/notes", `{"note_id":"`+note.ID+`"}`)
	if w.Code != http.StatusNoContent {
		t.Fatalf("AddMember() status = %v, want %v", w.Code, http.StatusNoContent)
	}

	w = doJSON(t, router, http.MethodGet, "/api/groups/"+group.ID+"/notes", "")
	if w.Code != http.StatusOK {
		t.Fatalf("ListMembers() status = %v", w.Code)
	}
	var members []string
	if err := json.NewDecoder(w.Body).Decode(&members); err != nil {
		t.Fatalf("ListMembers() invalid JSON: %v", err)
	}
	if len(members) != 1 || members[0] != note.ID {
		t.Fatalf("ListMembers() = %v, want [%s]", members, note.ID)
	}

	w = doJSON(t, router, http.MethodDelete, "/api/groups/"+group.ID+"/notes/"+note.ID, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("RemoveMember() status = %v, want %v", w.Code, http.StatusNoContent)
	}

	w = doJSON(t, router, http.MethodGet, "/api/groups/"+group.ID+"/notes", "")
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("ListMembers() after removal = %q, want []", body)
	}
}

func TestGroupHandler_AddMemberRequiresNoteID(t *testing.T) {
	_, groups, membership, _, _ := newStores(t)
	router := groupRouter(NewGroupHandler(groups, membership))

	w := doJSON(t, router, http.MethodPost, "/api/groups/g1/notes", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("AddMember() status = %v, want %v", w.Code, http.StatusBadRequest)
	}
}

func TestGroupHandler_Reorder(t *testing.T) {
	_, groups, membership, _, _ := newStores(t)
	router := groupRouter(NewGroupHandler(groups, membership))
	ctx := context.Background()

	first, err := groups.Create(ctx, "First")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	second, err := groups.Create(ctx, "Second")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	w := doJSON(t, router, http.MethodPut, "/api/groups/order",
		`{"ordered_ids":["`+second.ID+`","`+first.ID+`"]}`)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Reorder() status = %v, want %v", w.Code, http.StatusNoContent)
	}

	w = doJSON(t, router, http.MethodGet, "/api/groups", "")
	var rows []storage.GroupRow
	if err := json.NewDecoder(w.Body).Decode(&rows); err != nil {
		t.Fatalf("List() invalid JSON: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != second.ID {
		t.Errorf("List() after reorder = %+v, want %s first", rows, second.ID)
	}
}

func TestGroupHandler_DeleteIsIdempotent(t *testing.T) {
	_, groups, membership, _, _ := newStores(t)
	router := groupRouter(NewGroupHandler(groups, membership))
	ctx := context.Background()

	group, err := groups.Create(ctx, "Doomed")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		w := doJSON(t, router, http.MethodDelete, "/api/groups/"+group.ID, "")
		if w.Code != http.StatusNoContent {
			t.Errorf("Delete() attempt %d status = %v, want %v", i+1, w.Code, http.StatusNoContent)
		}
	}
}
