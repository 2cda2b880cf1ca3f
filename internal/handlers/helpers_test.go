package handlers

import (
	"context"
	"path/filepath"
	"testing"

	"notebase-ai/internal/rag"
	"notebase-ai/internal/storage"
	"notebase-ai/internal/tablestore"
)

// fakeEngine implements rag.Engine with canned results and records what it
// was asked.
type fakeEngine struct {
	results []rag.Result
	resp    rag.AskResponse
	err     error

	calls     int
	lastQuery string
	lastScope rag.Scope
	lastK     int
	lastReq   rag.AskRequest
}

func (f *fakeEngine) Retrieve(ctx context.Context, query string, scope rag.Scope, k int) ([]rag.Result, error) {
	f.calls++
	f.lastQuery = query
	f.lastScope = scope
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeEngine) Ask(ctx context.Context, req rag.AskRequest) (rag.AskResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return rag.AskResponse{}, f.err
	}
	return f.resp, nil
}

// fakeEmbedder returns the same vector for every input text.
type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}

// newStores builds the real storage stack on a temp directory for
// integration-style handler tests.
func newStores(t *testing.T) (*storage.NoteRepo, *storage.GroupRepo, *storage.MembershipRepo, *storage.TabRepo, *storage.EmbeddingRepo) {
	t.Helper()
	dir := t.TempDir()

	store, err := tablestore.New(filepath.Join(dir, "meta"))
	if err != nil {
		t.Fatalf("tablestore.New() error = %v", err)
	}
	storage.Migrate(store)

	bodies, err := storage.NewBodyStore(filepath.Join(dir, "notes"))
	if err != nil {
		t.Fatalf("NewBodyStore() error = %v", err)
	}

	membership := storage.NewMembershipRepo(store)
	chunks := storage.NewEmbeddingRepo(store)
	notes := storage.NewNoteRepo(store, bodies, membership, chunks)
	groups := storage.NewGroupRepo(store, membership)
	tabs := storage.NewTabRepo(store)
	return notes, groups, membership, tabs, chunks
}
