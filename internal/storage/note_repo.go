package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_note_store.go -package=mocks notebase-ai/internal/storage NoteStore

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"notebase-ai/internal/tablestore"
)

const maxDerivedTitleLen = 120

// NoteRepo provides note operations over the notes table and body files.
// It implements the NoteStore interface. Deletions cascade to group
// membership and embedding rows; the tables are replaced independently, so
// a crash between cascade steps leaves orphan rows that the next delete or
// reindex cleans up.
type NoteRepo struct {
	table      *tablestore.Table[NoteRow]
	bodies     *BodyStore
	membership MembershipStore
	chunks     EmbeddingStore
}

// NewNoteRepo creates a new NoteRepo.
func NewNoteRepo(store *tablestore.Store, bodies *BodyStore, membership MembershipStore, chunks EmbeddingStore) *NoteRepo {
	return &NoteRepo{
		table:      tablestore.NewTable[NoteRow](store, NotesTable, NoteColumns),
		bodies:     bodies,
		membership: membership,
		chunks:     chunks,
	}
}

// Create creates a note. An empty title is derived from the first non-blank
// line of the content, truncated to 120 characters, falling back to
// "Untitled".
func (r *NoteRepo) Create(ctx context.Context, title, content string) (*Note, error) {
	rows, err := r.table.Read()
	if err != nil {
		return nil, err
	}

	now := nowMillis()
	row := NoteRow{
		ID:          uuid.New().String(),
		Title:       normalizeTitle(title, content),
		CreatedAt:   now,
		UpdatedAt:   now,
		Size:        int64(len(content)),
		ContentHash: hashContent(content),
	}
	row.Path = r.bodies.RelPath(row.ID)

	if err := r.bodies.Write(row.ID, row.Title, content); err != nil {
		return nil, err
	}
	if err := r.table.Replace(append(rows, row)); err != nil {
		return nil, err
	}
	return &Note{NoteRow: row, Content: content}, nil
}

// Update updates a note. Nil title or content retain the previous value;
// any update refreshes size, content hash and the updated timestamp.
func (r *NoteRepo) Update(ctx context.Context, id string, title, content *string) (*Note, error) {
	rows, err := r.table.Read()
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range rows {
		if rows[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("note %s: %w", id, ErrNotFound)
	}

	body := ""
	if content != nil {
		body = *content
	} else {
		body, err = r.bodies.Read(id)
		if err != nil {
			return nil, err
		}
	}

	if title != nil {
		rows[idx].Title = normalizeTitle(*title, body)
	} else {
		rows[idx].Title = normalizeTitle(rows[idx].Title, body)
	}
	rows[idx].UpdatedAt = nowMillis()
	rows[idx].Size = int64(len(body))
	rows[idx].ContentHash = hashContent(body)

	if err := r.bodies.Write(id, rows[idx].Title, body); err != nil {
		return nil, err
	}
	if err := r.table.Replace(rows); err != nil {
		return nil, err
	}
	return &Note{NoteRow: rows[idx], Content: body}, nil
}

// Delete removes a note's body file and index row, and cascades to group
// membership and embedding rows. It is idempotent: deleting an unknown id
// succeeds without error.
func (r *NoteRepo) Delete(ctx context.Context, id string) error {
	if err := r.bodies.Remove(id); err != nil {
		return err
	}

	rows, err := r.table.Read()
	if err != nil {
		return err
	}
	kept := rows[:0]
	for _, row := range rows {
		if row.ID != id {
			kept = append(kept, row)
		}
	}
	if len(kept) != len(rows) {
		if err := r.table.Replace(kept); err != nil {
			return err
		}
	}

	if err := r.membership.DeleteByNote(ctx, id); err != nil {
		return err
	}
	return r.chunks.DeleteByNote(ctx, id)
}

// Get returns a note with its body content. Returns ErrNotFound if absent.
func (r *NoteRepo) Get(ctx context.Context, id string) (*Note, error) {
	rows, err := r.table.Read()
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.ID == id {
			content, err := r.bodies.Read(id)
			if err != nil {
				return nil, err
			}
			return &Note{NoteRow: row, Content: content}, nil
		}
	}
	return nil, fmt.Errorf("note %s: %w", id, ErrNotFound)
}

// List returns all notes ordered by updated_at descending.
func (r *NoteRepo) List(ctx context.Context) ([]NoteRow, error) {
	rows, err := r.table.Read()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].UpdatedAt > rows[j].UpdatedAt
	})
	return rows, nil
}

// Search scans titles and bodies for a case-insensitive substring match and
// returns a snippet around the first body occurrence. When noteIDs is
// non-empty, only those notes are scanned.
func (r *NoteRepo) Search(ctx context.Context, query string, noteIDs []string) ([]SearchHit, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	rows, err := r.table.Read()
	if err != nil {
		return nil, err
	}

	var allowed map[string]struct{}
	if len(noteIDs) > 0 {
		allowed = make(map[string]struct{}, len(noteIDs))
		for _, id := range noteIDs {
			allowed[id] = struct{}{}
		}
	}

	var hits []SearchHit
	for _, row := range rows {
		if allowed != nil {
			if _, ok := allowed[row.ID]; !ok {
				continue
			}
		}
		content, err := r.bodies.Read(row.ID)
		if err != nil {
			return nil, err
		}
		idx := strings.Index(strings.ToLower(content), q)
		if idx < 0 && !strings.Contains(strings.ToLower(row.Title), q) {
			continue
		}
		hits = append(hits, SearchHit{
			ID:      row.ID,
			Title:   row.Title,
			Snippet: snippetAround(content, idx),
		})
	}
	return hits, nil
}

// snippetAround extracts a short window of content around a match offset.
func snippetAround(content string, idx int) string {
	if idx < 0 {
		idx = 0
	}
	start := idx - 40
	if start < 0 {
		start = 0
	}
	end := idx + 160
	if end > len(content) {
		end = len(content)
	}
	return strings.ReplaceAll(content[start:end], "\n", " ")
}

// normalizeTitle returns the trimmed title, or derives one from the first
// non-blank content line capped at 120 characters, else "Untitled".
func normalizeTitle(title, content string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	for _, line := range strings.Split(content, "\n") {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		if r := []rune(t); len(r) > maxDerivedTitleLen {
			t = string(r[:maxDerivedTitleLen])
		}
		return t
	}
	return "Untitled"
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", sum)
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
