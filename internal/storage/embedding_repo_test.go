package storage

import (
	"context"
	"testing"
)

func chunk(noteID string, index int) ChunkRow {
	return ChunkRow{
		NoteID:     noteID,
		ChunkIndex: index,
		Text:       "text",
		Embedding:  []float32{1, 0, 0},
		UpdatedAt:  1,
	}
}

func TestEmbeddingRepo_ReplaceForNote(t *testing.T) {
	_, _, _, _, chunks := newTestRepos(t)
	ctx := context.Background()

	if err := chunks.ReplaceForNote(ctx, "n1", []ChunkRow{chunk("n1", 0), chunk("n1", 1)}); err != nil {
		t.Fatalf("ReplaceForNote() error = %v", err)
	}
	if err := chunks.ReplaceForNote(ctx, "n2", []ChunkRow{chunk("n2", 0)}); err != nil {
		t.Fatalf("ReplaceForNote() error = %v", err)
	}

	// Replacing n1 drops its old chunks but leaves n2 alone.
	if err := chunks.ReplaceForNote(ctx, "n1", []ChunkRow{chunk("n1", 0)}); err != nil {
		t.Fatalf("ReplaceForNote() error = %v", err)
	}

	all, err := chunks.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListAll() returned %d chunks, want 2", len(all))
	}

	n2Chunks, err := chunks.ListByNote(ctx, "n2")
	if err != nil {
		t.Fatalf("ListByNote() error = %v", err)
	}
	if len(n2Chunks) != 1 {
		t.Errorf("ListByNote(n2) returned %d chunks, want 1", len(n2Chunks))
	}
}

func TestEmbeddingRepo_ListByNoteOrdering(t *testing.T) {
	_, _, _, _, chunks := newTestRepos(t)
	ctx := context.Background()

	// Insert out of order; reads come back ordered by chunk index.
	if err := chunks.ReplaceForNote(ctx, "n1", []ChunkRow{chunk("n1", 2), chunk("n1", 0), chunk("n1", 1)}); err != nil {
		t.Fatalf("ReplaceForNote() error = %v", err)
	}

	rows, err := chunks.ListByNote(ctx, "n1")
	if err != nil {
		t.Fatalf("ListByNote() error = %v", err)
	}
	for i, row := range rows {
		if row.ChunkIndex != i {
			t.Errorf("ListByNote()[%d].ChunkIndex = %d, want %d", i, row.ChunkIndex, i)
		}
	}
}

func TestEmbeddingRepo_DeleteByNote(t *testing.T) {
	_, _, _, _, chunks := newTestRepos(t)
	ctx := context.Background()

	if err := chunks.ReplaceForNote(ctx, "n1", []ChunkRow{chunk("n1", 0)}); err != nil {
		t.Fatalf("ReplaceForNote() error = %v", err)
	}
	if err := chunks.DeleteByNote(ctx, "n1"); err != nil {
		t.Fatalf("DeleteByNote() error = %v", err)
	}
	// Deleting an absent note is a no-op.
	if err := chunks.DeleteByNote(ctx, "n1"); err != nil {
		t.Errorf("DeleteByNote() second call error = %v", err)
	}

	rows, err := chunks.ListByNote(ctx, "n1")
	if err != nil {
		t.Fatalf("ListByNote() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("ListByNote() returned %d chunks after delete", len(rows))
	}
}

func TestEmbeddingRepo_Stats(t *testing.T) {
	_, _, _, _, chunks := newTestRepos(t)
	ctx := context.Background()

	notes, total, err := chunks.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if notes != 0 || total != 0 {
		t.Errorf("Stats() = %d,%d, want 0,0 on empty store", notes, total)
	}

	_ = chunks.ReplaceForNote(ctx, "n1", []ChunkRow{chunk("n1", 0), chunk("n1", 1)})
	_ = chunks.ReplaceForNote(ctx, "n2", []ChunkRow{chunk("n2", 0)})

	notes, total, err = chunks.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if notes != 2 || total != 3 {
		t.Errorf("Stats() = %d,%d, want 2,3", notes, total)
	}
}
