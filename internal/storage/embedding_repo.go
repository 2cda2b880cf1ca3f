package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedding_store.go -package=mocks notebase-ai/internal/storage EmbeddingStore

import (
	"context"
	"sort"

	"notebase-ai/internal/tablestore"
)

// EmbeddingRepo persists embedded chunks in the embeddings table. It
// implements the EmbeddingStore interface. A note's chunk set is only ever
// replaced as a whole, within a single atomic table write, so readers never
// observe a partially reindexed note.
type EmbeddingRepo struct {
	table *tablestore.Table[ChunkRow]
}

// NewEmbeddingRepo creates a new EmbeddingRepo.
func NewEmbeddingRepo(store *tablestore.Store) *EmbeddingRepo {
	return &EmbeddingRepo{
		table: tablestore.NewTable[ChunkRow](store, EmbeddingsTable, ChunkColumns),
	}
}

// ReplaceForNote replaces the whole chunk set of a note in one table write.
// An empty chunk set clears the note's chunks.
func (r *EmbeddingRepo) ReplaceForNote(ctx context.Context, noteID string, chunks []ChunkRow) error {
	rows, err := r.table.Read()
	if err != nil {
		return err
	}
	kept := rows[:0]
	for _, row := range rows {
		if row.NoteID != noteID {
			kept = append(kept, row)
		}
	}
	removed := len(rows) - len(kept)
	if removed == 0 && len(chunks) == 0 {
		return nil
	}
	return r.table.Replace(append(kept, chunks...))
}

// ListAll returns every chunk row in stored order.
func (r *EmbeddingRepo) ListAll(ctx context.Context) ([]ChunkRow, error) {
	return r.table.Read()
}

// ListByNote returns the note's chunks ordered by chunk index.
func (r *EmbeddingRepo) ListByNote(ctx context.Context, noteID string) ([]ChunkRow, error) {
	rows, err := r.table.Read()
	if err != nil {
		return nil, err
	}
	var chunks []ChunkRow
	for _, row := range rows {
		if row.NoteID == noteID {
			chunks = append(chunks, row)
		}
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].ChunkIndex < chunks[j].ChunkIndex
	})
	return chunks, nil
}

// DeleteByNote removes all chunk rows for a note.
func (r *EmbeddingRepo) DeleteByNote(ctx context.Context, noteID string) error {
	return r.ReplaceForNote(ctx, noteID, nil)
}

// Stats returns the number of indexed notes and total chunks.
func (r *EmbeddingRepo) Stats(ctx context.Context) (int, int, error) {
	rows, err := r.table.Read()
	if err != nil {
		return 0, 0, err
	}
	notes := make(map[string]struct{})
	for _, row := range rows {
		notes[row.NoteID] = struct{}{}
	}
	return len(notes), len(rows), nil
}
