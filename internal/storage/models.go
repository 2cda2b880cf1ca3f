package storage

import (
	"context"
	"errors"
)

// Table names, one file per logical table.
const (
	NotesTable      = "notes"
	GroupsTable     = "groups"
	GroupNotesTable = "group_notes"
	TabsTable       = "tabs"
	EmbeddingsTable = "embeddings"
)

// Column manifests written into each table file and checked by the startup
// repair pass.
var (
	NoteColumns      = []string{"id", "title", "path", "created_at", "updated_at", "size", "content_hash"}
	GroupColumns     = []string{"group_id", "name", "position", "created_at", "updated_at"}
	GroupNoteColumns = []string{"group_id", "note_id", "position", "added_at"}
	TabColumns       = []string{"session_id", "tab_id", "note_id", "stack_id", "position", "created_at"}
	ChunkColumns     = []string{"note_id", "chunk_index", "text", "embedding", "updated_at"}
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrNameRequired is returned when a group name is empty or blank.
	ErrNameRequired = errors.New("group name required")
)

// NoteRow is the index metadata for one note. The note body lives out of
// band in a per-note file referenced by Path.
type NoteRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Path        string `json:"path"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
	Size        int64  `json:"size"`
	ContentHash string `json:"content_hash"`
}

// Note is a note row together with its body content.
type Note struct {
	NoteRow
	Content string `json:"content"`
}

// SearchHit is one keyword search match.
type SearchHit struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// GroupRow is one note group.
type GroupRow struct {
	ID        string `json:"group_id"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// GroupNoteRow is one group membership pair, unique per (group, note).
type GroupNoteRow struct {
	GroupID  string `json:"group_id"`
	NoteID   string `json:"note_id"`
	Position int    `json:"position"`
	AddedAt  int64  `json:"added_at"`
}

// TabRow is one open tab within a saved session.
type TabRow struct {
	SessionID string `json:"session_id"`
	TabID     string `json:"tab_id"`
	NoteID    string `json:"note_id"`
	StackID   string `json:"stack_id,omitempty"`
	Position  int    `json:"position"`
	CreatedAt int64  `json:"created_at"`
}

// Tab is the caller-supplied shape of a tab when saving a session. TabID is
// generated when empty; a nil Position falls back to list order.
type Tab struct {
	TabID    string `json:"tab_id,omitempty"`
	NoteID   string `json:"note_id"`
	StackID  string `json:"stack_id,omitempty"`
	Position *int   `json:"position,omitempty"`
}

// ChunkRow is one embedded chunk of a note. For a given note, chunk indices
// are contiguous from 0 and the whole set is replaced on every reindex.
type ChunkRow struct {
	NoteID     string    `json:"note_id"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"embedding"`
	UpdatedAt  int64     `json:"updated_at"`
}

// NoteStore defines the interface for note operations.
type NoteStore interface {
	Create(ctx context.Context, title, content string) (*Note, error)
	Update(ctx context.Context, id string, title, content *string) (*Note, error)
	// Delete removes the note body, index row and all dependent membership
	// and embedding rows. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Note, error)
	// List returns notes ordered by updated_at descending.
	List(ctx context.Context) ([]NoteRow, error)
	// Search is a naive linear scan over titles and bodies.
	Search(ctx context.Context, query string, noteIDs []string) ([]SearchHit, error)
}

// GroupStore defines the interface for group operations.
type GroupStore interface {
	// Create is idempotent by case-insensitive name.
	Create(ctx context.Context, name string) (*GroupRow, error)
	Rename(ctx context.Context, id, name string) (*GroupRow, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]GroupRow, error)
	// Reorder assigns dense positions matching the given order, ignoring
	// unknown ids.
	Reorder(ctx context.Context, orderedIDs []string) error
}

// MembershipStore defines the interface for group membership operations.
type MembershipStore interface {
	Add(ctx context.Context, groupID, noteID string) error
	Remove(ctx context.Context, groupID, noteID string) error
	// ListMembers returns note ids of a group ordered by position.
	ListMembers(ctx context.Context, groupID string) ([]string, error)
	GroupsForNote(ctx context.Context, noteID string) ([]string, error)
	Reorder(ctx context.Context, groupID string, orderedNoteIDs []string) error
	DeleteByNote(ctx context.Context, noteID string) error
	DeleteByGroup(ctx context.Context, groupID string) error
}

// TabStore defines the interface for tab session persistence.
type TabStore interface {
	// SaveSession replaces the session's tabs wholesale and returns the
	// number of tabs saved.
	SaveSession(ctx context.Context, sessionID string, tabs []Tab) (int, error)
	// LoadSession returns the session's tabs ordered by position.
	LoadSession(ctx context.Context, sessionID string) ([]TabRow, error)
}

// EmbeddingStore defines the interface for embedded chunk persistence.
type EmbeddingStore interface {
	// ReplaceForNote replaces the note's whole chunk set in one atomic
	// table write. An empty set clears the note's chunks.
	ReplaceForNote(ctx context.Context, noteID string, chunks []ChunkRow) error
	ListAll(ctx context.Context) ([]ChunkRow, error)
	// ListByNote returns the note's chunks ordered by chunk index.
	ListByNote(ctx context.Context, noteID string) ([]ChunkRow, error)
	DeleteByNote(ctx context.Context, noteID string) error
	// Stats returns the number of indexed notes and total chunks.
	Stats(ctx context.Context) (notes, chunks int, err error)
}
