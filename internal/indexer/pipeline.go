package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"notebase-ai/internal/contextutil"
	"notebase-ai/internal/storage"
	"notebase-ai/internal/vectorstore"
)

// Embedder generates embedding vectors for texts, one per input in order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Pipeline turns note bodies into embedded chunks. The embeddings table is
// the source of truth; the vector index is a best-effort accelerator whose
// failures are logged, never fatal, since it can be rebuilt from the table
// at any time.
type Pipeline struct {
	notes      storage.NoteStore
	chunks     storage.EmbeddingStore
	embedder   Embedder
	index      vectorstore.VectorStore // nil when the accelerator is disabled
	collection string
	chunkSize  int
	overlap    int
}

// NewPipeline creates an indexing pipeline. index may be nil to run without
// the vector-index accelerator.
func NewPipeline(
	notes storage.NoteStore,
	chunks storage.EmbeddingStore,
	embedder Embedder,
	index vectorstore.VectorStore,
	collection string,
	chunkSize, overlap int,
) *Pipeline {
	return &Pipeline{
		notes:      notes,
		chunks:     chunks,
		embedder:   embedder,
		index:      index,
		collection: collection,
		chunkSize:  chunkSize,
		overlap:    overlap,
	}
}

// Reindex regenerates the note's whole chunk set and returns the chunk
// count. Prior chunks are always dropped first, in both stores; empty text
// just clears the note and returns 0. The vector index is deleted before
// and inserted after the table write, keeping the window where the two
// disagree as small as possible.
func (p *Pipeline) Reindex(ctx context.Context, noteID, title, text string) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if p.index != nil {
		if err := p.index.DeleteByNote(ctx, p.collection, noteID); err != nil {
			logger.WarnContext(ctx, "vector index delete failed", "note_id", noteID, "error", err)
		}
	}

	if text == "" {
		if err := p.chunks.ReplaceForNote(ctx, noteID, nil); err != nil {
			return 0, err
		}
		return 0, nil
	}

	segments := ChunkText(text, p.chunkSize, p.overlap)
	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}

	embeddings, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed chunks for note %s: %w", noteID, err)
	}
	if len(embeddings) != len(segments) {
		return 0, fmt.Errorf("expected %d embeddings, got %d", len(segments), len(embeddings))
	}

	now := nowMillis()
	rows := make([]storage.ChunkRow, len(segments))
	for i, seg := range segments {
		rows[i] = storage.ChunkRow{
			NoteID:     noteID,
			ChunkIndex: seg.Index,
			Text:       seg.Text,
			Embedding:  embeddings[i],
			UpdatedAt:  now,
		}
	}
	if err := p.chunks.ReplaceForNote(ctx, noteID, rows); err != nil {
		return 0, err
	}

	if p.index != nil {
		points := make([]vectorstore.Point, len(rows))
		for i, row := range rows {
			points[i] = vectorstore.Point{
				ID:  pointID(noteID, row.ChunkIndex),
				Vec: row.Embedding,
				Meta: map[string]any{
					"note_id":     noteID,
					"title":       title,
					"chunk_index": row.ChunkIndex,
				},
			}
		}
		if err := p.index.Upsert(ctx, p.collection, points); err != nil {
			logger.WarnContext(ctx, "vector index upsert failed", "note_id", noteID, "count", len(points), "error", err)
		}
	}

	logger.InfoContext(ctx, "note reindexed", "note_id", noteID, "chunks", len(rows))
	return len(rows), nil
}

// PurgeNote removes the note's points from the vector index, best-effort.
// Table-store cleanup happens through the note repository's delete cascade.
func (p *Pipeline) PurgeNote(ctx context.Context, noteID string) {
	if p.index == nil {
		return
	}
	if err := p.index.DeleteByNote(ctx, p.collection, noteID); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "vector index delete failed", "note_id", noteID, "error", err)
	}
}

// ReindexAll rebuilds every note's chunks, continuing past per-note
// failures. Returns the number of notes reindexed and total chunks written.
func (p *Pipeline) ReindexAll(ctx context.Context) (int, int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	rows, err := p.notes.List(ctx)
	if err != nil {
		return 0, 0, err
	}
	notesDone, chunksDone := 0, 0
	var firstErr error
	for _, row := range rows {
		note, err := p.notes.Get(ctx, row.ID)
		if err != nil {
			logger.ErrorContext(ctx, "failed to load note for reindex", "note_id", row.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		n, err := p.Reindex(ctx, note.ID, note.Title, note.Content)
		if err != nil {
			logger.ErrorContext(ctx, "failed to reindex note", "note_id", row.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		notesDone++
		chunksDone += n
	}
	return notesDone, chunksDone, firstErr
}

// pointID derives a stable vector point id from a note id and chunk index,
// so re-upserting a reindexed chunk replaces its prior point.
func pointID(noteID string, chunkIndex int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "%s/%d", noteID, chunkIndex)).String()
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
