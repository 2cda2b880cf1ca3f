package rag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"notebase-ai/internal/contextutil"
	"notebase-ai/internal/llm"
	"notebase-ai/internal/storage"
)

const (
	// DefaultLambda is the MMR trade-off between relevance and diversity.
	DefaultLambda float32 = 0.7

	defaultK = 5

	// NotFoundAnswer is returned when retrieval yields nothing in scope.
	NotFoundAnswer = "Not found in allowed scope."
)

// ErrDimensionMismatch is returned when the query embedding and a stored
// chunk embedding have different lengths. This is fatal for the query;
// vectors are never truncated or padded to fit.
var ErrDimensionMismatch = errors.New("embedding dimensionality mismatch")

// Embedder generates embedding vectors for texts, one per input in order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatClient sends a chat conversation to the LLM and returns its reply.
type ChatClient interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message) (string, error)
}

// Engine retrieves scope-filtered, diversity-ranked chunks and answers
// questions grounded in them.
type Engine interface {
	// Retrieve returns up to k chunks for the query, ordered by MMR
	// selection, with note titles attached.
	Retrieve(ctx context.Context, query string, scope Scope, k int) ([]Result, error)
	// Ask answers a question grounded in retrieved chunks, with citations.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
}

// engine implements the Engine interface over the embeddings table. The
// table scan is the source of truth; no vector index is consulted here.
type engine struct {
	embedder    Embedder
	chat        ChatClient
	chunks      storage.EmbeddingStore
	notes       storage.NoteStore
	membership  storage.MembershipStore
	lambda      float32
	maxPerQuery int
}

// NewEngine creates a retrieval engine. lambda <= 0 falls back to
// DefaultLambda; maxPerQuery caps k when positive.
func NewEngine(
	embedder Embedder,
	chat ChatClient,
	chunks storage.EmbeddingStore,
	notes storage.NoteStore,
	membership storage.MembershipStore,
	lambda float32,
	maxPerQuery int,
) Engine {
	if lambda <= 0 {
		lambda = DefaultLambda
	}
	return &engine{
		embedder:    embedder,
		chat:        chat,
		chunks:      chunks,
		notes:       notes,
		membership:  membership,
		lambda:      lambda,
		maxPerQuery: maxPerQuery,
	}
}

type candidate struct {
	row   storage.ChunkRow
	vec   []float32
	score float32
}

// Retrieve implements the Engine interface.
func (e *engine) Retrieve(ctx context.Context, query string, scope Scope, k int) ([]Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		return nil, nil
	}
	if e.maxPerQuery > 0 && k > e.maxPerQuery {
		k = e.maxPerQuery
	}

	allowed, active, err := e.resolveScope(ctx, scope)
	if err != nil {
		return nil, err
	}
	if active && len(allowed) == 0 {
		logger.InfoContext(ctx, "scope filter matched no notes")
		return nil, nil
	}

	rows, err := e.chunks.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if active {
		kept := rows[:0]
		for _, row := range rows {
			if _, ok := allowed[row.NoteID]; ok {
				kept = append(kept, row)
			}
		}
		rows = kept
	}
	if len(rows) == 0 {
		logger.InfoContext(ctx, "no candidate chunks in scope")
		return nil, nil
	}

	embeddings, err := e.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned for query")
	}
	queryVec := normalize(embeddings[0])

	candidates := make([]candidate, 0, len(rows))
	for _, row := range rows {
		if len(row.Embedding) != len(queryVec) {
			return nil, fmt.Errorf("chunk %s/%d has dimension %d, query has %d: %w",
				row.NoteID, row.ChunkIndex, len(row.Embedding), len(queryVec), ErrDimensionMismatch)
		}
		vec := normalize(row.Embedding)
		candidates = append(candidates, candidate{
			row:   row,
			vec:   vec,
			score: dot(queryVec, vec),
		})
	}

	// Ties keep original scan order; selection must be deterministic for a
	// fixed input order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	selected := selectMMR(candidates, k, e.lambda)

	titles, err := e.noteTitles(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(selected))
	for _, c := range selected {
		results = append(results, Result{
			NoteID:     c.row.NoteID,
			Title:      titles[c.row.NoteID],
			ChunkIndex: c.row.ChunkIndex,
			Text:       c.row.Text,
			Score:      c.score,
		})
	}

	logger.InfoContext(ctx, "retrieval completed", "candidates", len(candidates), "selected", len(results), "k", k)
	return results, nil
}

// Ask implements the Engine interface.
func (e *engine) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	k := req.K
	if k == 0 {
		k = defaultK
	}

	results, err := e.Retrieve(ctx, req.Question, req.Scope, k)
	if err != nil {
		return AskResponse{}, err
	}
	if len(results) == 0 {
		logger.InfoContext(ctx, "no grounded context, returning fixed answer")
		return AskResponse{Answer: NotFoundAnswer, Citations: []Citation{}}, nil
	}

	var contextBuilder strings.Builder
	contextBuilder.WriteString("--- Context from notes ---\n\n")
	for _, r := range results {
		contextBuilder.WriteString(fmt.Sprintf("[Note: %s] (chunk %d)\n", r.Title, r.ChunkIndex))
		contextBuilder.WriteString(fmt.Sprintf("Content: %s\n\n", r.Text))
	}
	contextBuilder.WriteString("--- End Context ---")

	systemPrompt := "You are a helpful assistant that answers questions using only the provided context " +
		"from the user's notes. If the context does not contain enough information to answer, reply " +
		"exactly: \"" + NotFoundAnswer + "\" Cite note titles when possible."

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: req.Question + "\n\n" + contextBuilder.String()},
	}

	answer, err := e.chat.ChatWithMessages(ctx, messages)
	if err != nil {
		return AskResponse{}, fmt.Errorf("failed to get LLM response: %w", err)
	}

	citations := make([]Citation, 0, len(results))
	for _, r := range results {
		citations = append(citations, Citation{
			NoteID:     r.NoteID,
			Title:      r.Title,
			ChunkIndex: r.ChunkIndex,
			Score:      r.Score,
		})
	}

	logger.InfoContext(ctx, "grounded chat completed", "chunks_used", len(results), "answer_length", len(answer))
	return AskResponse{Answer: answer, Citations: citations}, nil
}

// resolveScope computes the allowed note-id set as the intersection of all
// present constraints. active reports whether any constraint was present;
// when active is true and the set is empty, retrieval short-circuits.
func (e *engine) resolveScope(ctx context.Context, scope Scope) (map[string]struct{}, bool, error) {
	active := false
	var allowed map[string]struct{}

	intersect := func(ids map[string]struct{}) {
		if !active {
			allowed = ids
			active = true
			return
		}
		for id := range allowed {
			if _, ok := ids[id]; !ok {
				delete(allowed, id)
			}
		}
	}

	if len(scope.NoteIDs) > 0 {
		ids := make(map[string]struct{}, len(scope.NoteIDs))
		for _, id := range scope.NoteIDs {
			ids[id] = struct{}{}
		}
		intersect(ids)
	}

	if len(scope.GroupIDs) > 0 {
		ids := make(map[string]struct{})
		for _, groupID := range scope.GroupIDs {
			members, err := e.membership.ListMembers(ctx, groupID)
			if err != nil {
				return nil, false, err
			}
			for _, noteID := range members {
				ids[noteID] = struct{}{}
			}
		}
		intersect(ids)
	}

	if scope.DateStart != nil || scope.DateEnd != nil {
		rows, err := e.notes.List(ctx)
		if err != nil {
			return nil, false, err
		}
		ids := make(map[string]struct{})
		for _, row := range rows {
			if scope.DateStart != nil && row.UpdatedAt < *scope.DateStart {
				continue
			}
			if scope.DateEnd != nil && row.UpdatedAt > *scope.DateEnd {
				continue
			}
			ids[row.ID] = struct{}{}
		}
		intersect(ids)
	}

	return allowed, active, nil
}

func (e *engine) noteTitles(ctx context.Context) (map[string]string, error) {
	rows, err := e.notes.List(ctx)
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(rows))
	for _, row := range rows {
		titles[row.ID] = row.Title
	}
	return titles, nil
}

// selectMMR picks up to k candidates in score order by maximal marginal
// relevance: mmr = lambda*relevance - (1-lambda)*maxRedundancy against the
// already-selected set. A candidate is accepted when mmr >= 0 or fewer than
// k have been accepted; the second clause deliberately pads the result to k
// even with redundant candidates.
func selectMMR(candidates []candidate, k int, lambda float32) []candidate {
	selected := make([]candidate, 0, k)
	for _, c := range candidates {
		if len(selected) >= k {
			break
		}
		redundancy := float32(0)
		for i, s := range selected {
			sim := dot(c.vec, s.vec)
			if i == 0 || sim > redundancy {
				redundancy = sim
			}
		}
		mmr := lambda*c.score - (1-lambda)*redundancy
		if mmr >= 0 || len(selected) < k {
			selected = append(selected, c)
		}
	}
	return selected
}

// normalize returns a unit-length copy of v. A zero-norm vector is divided
// by 1 instead, never by 0.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		norm = 1
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
