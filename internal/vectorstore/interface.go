package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks notebase-ai/internal/vectorstore VectorStore

import "context"

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a search result from vector search.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// Filter narrows a search to points belonging to the given note ids. An
// empty filter matches everything.
type Filter struct {
	NoteIDs []string
}

// VectorStore is the optional vector-index accelerator alongside the
// embeddings table. The table plus linear scan remains the source of truth;
// this index may be rebuilt from it at any time.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search performs a similarity search with an optional note-id filter.
	Search(ctx context.Context, collection string, query []float32, k int, filter Filter) ([]SearchResult, error)

	// DeleteByNote removes every point of one note.
	DeleteByNote(ctx context.Context, collection, noteID string) error
}
