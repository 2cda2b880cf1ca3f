package storage

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"notebase-ai/internal/tablestore"
)

// newTestRepos builds the whole repository stack on a temp directory.
func newTestRepos(t *testing.T) (*NoteRepo, *GroupRepo, *MembershipRepo, *TabRepo, *EmbeddingRepo) {
	t.Helper()
	dir := t.TempDir()

	store, err := tablestore.New(dir + "/meta")
	if err != nil {
		t.Fatalf("tablestore.New() error = %v", err)
	}
	Migrate(store)
	bodies, err := NewBodyStore(dir + "/notes")
	if err != nil {
		t.Fatalf("NewBodyStore() error = %v", err)
	}

	membership := NewMembershipRepo(store)
	chunks := NewEmbeddingRepo(store)
	notes := NewNoteRepo(store, bodies, membership, chunks)
	groups := NewGroupRepo(store, membership)
	tabs := NewTabRepo(store)
	return notes, groups, membership, tabs, chunks
}

func TestNoteRepo_CreateTitleDerivation(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		content   string
		wantTitle string
	}{
		{
			name:      "explicit title kept",
			title:     "My Note",
			content:   "body",
			wantTitle: "My Note",
		},
		{
			name:      "title trimmed",
			title:     "  padded  ",
			content:   "body",
			wantTitle: "padded",
		},
		{
			name:      "derived from first non-blank line",
			title:     "",
			content:   "\n\n  First line here  \nsecond line",
			wantTitle: "First line here",
		},
		{
			name:      "derived title capped at 120 characters",
			title:     "",
			content:   strings.Repeat("a", 200),
			wantTitle: strings.Repeat("a", 120),
		},
		{
			// The cap counts runes, not bytes; truncation must never
			// split a multi-byte rune.
			name:      "derived title cap counts runes",
			title:     "",
			content:   strings.Repeat("é", 200),
			wantTitle: strings.Repeat("é", 120),
		},
		{
			name:      "empty content falls back to Untitled",
			title:     "",
			content:   "",
			wantTitle: "Untitled",
		},
		{
			name:      "whitespace-only content falls back to Untitled",
			title:     "   ",
			content:   "  \n\t\n  ",
			wantTitle: "Untitled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes, _, _, _, _ := newTestRepos(t)

			note, err := notes.Create(context.Background(), tt.title, tt.content)
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if note.Title != tt.wantTitle {
				t.Errorf("Create() title = %q, want %q", note.Title, tt.wantTitle)
			}
			if note.ID == "" {
				t.Error("Create() returned empty id")
			}
			if note.Size != int64(len(tt.content)) {
				t.Errorf("Create() size = %d, want %d", note.Size, len(tt.content))
			}
		})
	}
}

func TestNoteRepo_GetRoundTrip(t *testing.T) {
	notes, _, _, _, _ := newTestRepos(t)
	ctx := context.Background()

	created, err := notes.Create(ctx, "Title", "hello world\nwith lines")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := notes.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Content != "hello world\nwith lines" {
		t.Errorf("Get() content = %q", got.Content)
	}
	if got.ContentHash != created.ContentHash {
		t.Errorf("Get() hash = %q, want %q", got.ContentHash, created.ContentHash)
	}
}

func TestNoteRepo_GetNotFound(t *testing.T) {
	notes, _, _, _, _ := newTestRepos(t)

	_, err := notes.Get(context.Background(), "no-such-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestNoteRepo_Update(t *testing.T) {
	notes, _, _, _, _ := newTestRepos(t)
	ctx := context.Background()

	created, err := notes.Create(ctx, "Original", "original content")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("nil fields retain previous values", func(t *testing.T) {
		updated, err := notes.Update(ctx, created.ID, nil, nil)
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if updated.Title != "Original" || updated.Content != "original content" {
			t.Errorf("Update() = %q/%q, want original values", updated.Title, updated.Content)
		}
	})

	t.Run("content update refreshes hash and size", func(t *testing.T) {
		newContent := "brand new content"
		updated, err := notes.Update(ctx, created.ID, nil, &newContent)
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if updated.Content != newContent {
			t.Errorf("Update() content = %q", updated.Content)
		}
		if updated.Size != int64(len(newContent)) {
			t.Errorf("Update() size = %d, want %d", updated.Size, len(newContent))
		}
		if updated.ContentHash == created.ContentHash {
			t.Error("Update() did not refresh content hash")
		}
	})

	t.Run("blank title re-derives from content", func(t *testing.T) {
		blank := ""
		content := "Derived Heading\nrest"
		updated, err := notes.Update(ctx, created.ID, &blank, &content)
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if updated.Title != "Derived Heading" {
			t.Errorf("Update() title = %q, want %q", updated.Title, "Derived Heading")
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := notes.Update(ctx, "no-such-id", nil, nil)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Update() error = %v, want ErrNotFound", err)
		}
	})
}

func TestNoteRepo_DeleteCascades(t *testing.T) {
	notes, groups, membership, _, chunks := newTestRepos(t)
	ctx := context.Background()

	note, err := notes.Create(ctx, "Doomed", "content")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	group, err := groups.Create(ctx, "Stack")
	if err != nil {
		t.Fatalf("Create() group error = %v", err)
	}
	if err := membership.Add(ctx, group.ID, note.ID); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := chunks.ReplaceForNote(ctx, note.ID, []ChunkRow{
		{NoteID: note.ID, ChunkIndex: 0, Text: "content", Embedding: []float32{1, 0}},
	}); err != nil {
		t.Fatalf("ReplaceForNote() error = %v", err)
	}

	if err := notes.Delete(ctx, note.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := notes.Get(ctx, note.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	members, err := membership.ListMembers(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListMembers() error = %v", err)
	}
	if len(members) != 0 {
		t.Errorf("membership rows survived delete: %v", members)
	}
	remaining, err := chunks.ListByNote(ctx, note.ID)
	if err != nil {
		t.Fatalf("ListByNote() error = %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("chunk rows survived delete: %d", len(remaining))
	}

	// Idempotent: deleting again succeeds.
	if err := notes.Delete(ctx, note.ID); err != nil {
		t.Errorf("Delete() second call error = %v", err)
	}
}

func TestNoteRepo_ListOrdering(t *testing.T) {
	notes, _, _, _, _ := newTestRepos(t)
	ctx := context.Background()

	a, err := notes.Create(ctx, "A", "a")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	b, err := notes.Create(ctx, "B", "b")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Touch A so it becomes the most recently updated.
	content := "a updated"
	if _, err := notes.Update(ctx, a.ID, nil, &content); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	rows, err := notes.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("List() returned %d rows, want 2", len(rows))
	}
	if rows[0].ID != a.ID {
		t.Errorf("List() first id = %s, want updated note %s first", rows[0].ID, a.ID)
	}
	if rows[1].ID != b.ID {
		t.Errorf("List() second id = %s, want %s", rows[1].ID, b.ID)
	}
}

func TestNoteRepo_Search(t *testing.T) {
	notes, _, _, _, _ := newTestRepos(t)
	ctx := context.Background()

	apple, err := notes.Create(ctx, "Apple pie", "Recipe with cinnamon and apples.")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := notes.Create(ctx, "Banana", "Just bananas here."); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("matches body case-insensitively", func(t *testing.T) {
		hits, err := notes.Search(ctx, "CINNAMON", nil)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(hits) != 1 || hits[0].ID != apple.ID {
			t.Fatalf("Search() = %+v, want single hit for apple note", hits)
		}
		if !strings.Contains(strings.ToLower(hits[0].Snippet), "cinnamon") {
			t.Errorf("Search() snippet = %q, want it to contain the match", hits[0].Snippet)
		}
	})

	t.Run("matches title only", func(t *testing.T) {
		hits, err := notes.Search(ctx, "apple pie", nil)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(hits) != 1 {
			t.Fatalf("Search() returned %d hits, want 1", len(hits))
		}
	})

	t.Run("note id filter narrows the scan", func(t *testing.T) {
		hits, err := notes.Search(ctx, "a", []string{apple.ID})
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		for _, hit := range hits {
			if hit.ID != apple.ID {
				t.Errorf("Search() leaked hit outside filter: %s", hit.ID)
			}
		}
	})

	t.Run("blank query returns nothing", func(t *testing.T) {
		hits, err := notes.Search(ctx, "   ", nil)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(hits) != 0 {
			t.Errorf("Search() returned %d hits for blank query", len(hits))
		}
	})
}

func TestBodyStore_HeaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	bodies, err := NewBodyStore(dir)
	if err != nil {
		t.Fatalf("NewBodyStore() error = %v", err)
	}

	if err := bodies.Write("abc", "A Title", "line one\n\nline two"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	raw, err := os.ReadFile(bodies.Path("abc"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(raw), "id: abc\ntitle: A Title\n\n") {
		t.Errorf("body file header = %q", string(raw[:40]))
	}

	content, err := bodies.Read("abc")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if content != "line one\n\nline two" {
		t.Errorf("Read() = %q, want body without header", content)
	}
}

func TestBodyStore_MissingAndRemove(t *testing.T) {
	bodies, err := NewBodyStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewBodyStore() error = %v", err)
	}

	content, err := bodies.Read("ghost")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if content != "" {
		t.Errorf("Read() = %q, want empty for missing body", content)
	}

	if err := bodies.Remove("ghost"); err != nil {
		t.Errorf("Remove() of absent file error = %v", err)
	}
}
