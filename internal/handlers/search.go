package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"notebase-ai/internal/contextutil"
	"notebase-ai/internal/rag"
	"notebase-ai/internal/storage"
	"notebase-ai/internal/vectorstore"
)

const defaultSearchK = 10

// SearchHandler handles HTTP requests for keyword and semantic search.
type SearchHandler struct {
	notes      storage.NoteStore
	engine     rag.Engine
	embedder   rag.Embedder
	index      vectorstore.VectorStore // nil when the accelerator is disabled
	collection string
}

// NewSearchHandler creates a new SearchHandler. index may be nil; semantic
// search then falls back to the engine's table scan.
func NewSearchHandler(
	notes storage.NoteStore,
	engine rag.Engine,
	embedder rag.Embedder,
	index vectorstore.VectorStore,
	collection string,
) *SearchHandler {
	return &SearchHandler{
		notes:      notes,
		engine:     engine,
		embedder:   embedder,
		index:      index,
		collection: collection,
	}
}

// KeywordHit is one ranked keyword search match.
type KeywordHit struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float32 `json:"score"`
}

// SemanticHit is one semantic search match.
type SemanticHit struct {
	NoteID     string  `json:"note_id"`
	Title      string  `json:"title"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text,omitempty"`
	Score      float32 `json:"score"`
}

// ServeHTTP handles GET /api/search. The q parameter is required; mode is
// keyword (default) or semantic, note_ids narrows the scope, k bounds the
// result count.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		logger.WarnContext(ctx, "empty search query")
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	noteIDs := r.URL.Query()["note_ids"]
	k := defaultSearchK
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "k must be a positive integer")
			return
		}
		k = parsed
	}

	switch r.URL.Query().Get("mode") {
	case "", "keyword":
		h.keywordSearch(w, r, query, noteIDs, k)
	case "semantic":
		h.semanticSearch(w, r, query, noteIDs, k)
	default:
		writeError(w, http.StatusBadRequest, "mode must be keyword or semantic")
	}
}

// keywordSearch scans titles and bodies, then ranks hits lexically.
func (h *SearchHandler) keywordSearch(w http.ResponseWriter, r *http.Request, query string, noteIDs []string, k int) {
	ctx := r.Context()

	hits, err := h.notes.Search(ctx, query, noteIDs)
	if err != nil {
		handleStorageError(w, ctx, err, "Failed to search notes")
		return
	}

	ranked := make([]KeywordHit, 0, len(hits))
	for _, hit := range hits {
		ranked = append(ranked, KeywordHit{
			ID:      hit.ID,
			Title:   hit.Title,
			Snippet: hit.Snippet,
			Score:   rag.LexicalScore(query, hit.Snippet, hit.Title),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	writeJSON(w, http.StatusOK, ranked)
}

// semanticSearch uses the vector index when available and falls back to
// the retrieval engine's table scan otherwise.
func (h *SearchHandler) semanticSearch(w http.ResponseWriter, r *http.Request, query string, noteIDs []string, k int) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if h.index != nil {
		hits, err := h.indexSearch(r, query, noteIDs, k)
		if err == nil {
			writeJSON(w, http.StatusOK, hits)
			return
		}
		logger.WarnContext(ctx, "vector index search failed, falling back to table scan", "error", err)
	}

	results, err := h.engine.Retrieve(ctx, query, rag.Scope{NoteIDs: noteIDs}, k)
	if err != nil {
		handleStorageError(w, ctx, err, "Failed to search notes")
		return
	}

	hits := make([]SemanticHit, 0, len(results))
	for _, res := range results {
		hits = append(hits, SemanticHit{
			NoteID:     res.NoteID,
			Title:      res.Title,
			ChunkIndex: res.ChunkIndex,
			Text:       res.Text,
			Score:      res.Score,
		})
	}

	writeJSON(w, http.StatusOK, hits)
}

func (h *SearchHandler) indexSearch(r *http.Request, query string, noteIDs []string, k int) ([]SemanticHit, error) {
	ctx := r.Context()

	embeddings, err := h.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned for query")
	}

	results, err := h.index.Search(ctx, h.collection, embeddings[0], k, vectorstore.Filter{NoteIDs: noteIDs})
	if err != nil {
		return nil, err
	}

	hits := make([]SemanticHit, 0, len(results))
	for _, res := range results {
		hit := SemanticHit{Score: res.Score}
		if v, ok := res.Meta["note_id"].(string); ok {
			hit.NoteID = v
		}
		if v, ok := res.Meta["title"].(string); ok {
			hit.Title = v
		}
		switch v := res.Meta["chunk_index"].(type) {
		case int64:
			hit.ChunkIndex = int(v)
		case float64:
			hit.ChunkIndex = int(v)
		case int:
			hit.ChunkIndex = v
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
