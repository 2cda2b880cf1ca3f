package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BodyStore manages the per-note body files. Each file carries a small
// key-value header (id, title) followed by a blank line and the body, so a
// body file is self-describing even if the index row is lost.
type BodyStore struct {
	dir string
}

// NewBodyStore creates a BodyStore rooted at dir, creating it if needed.
func NewBodyStore(dir string) (*BodyStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create notes directory: %w", err)
	}
	return &BodyStore{dir: dir}, nil
}

// Path returns the body file path for a note id.
func (b *BodyStore) Path(id string) string {
	return filepath.Join(b.dir, id+".txt")
}

// RelPath returns the path stored in the note index row.
func (b *BodyStore) RelPath(id string) string {
	return filepath.Join(filepath.Base(b.dir), id+".txt")
}

// Write writes a note body with its header.
func (b *BodyStore) Write(id, title, content string) error {
	var sb strings.Builder
	sb.WriteString("id: ")
	sb.WriteString(id)
	sb.WriteString("\ntitle: ")
	// Headers are line oriented; titles never contain newlines but guard
	// anyway so the body offset stays parseable.
	sb.WriteString(strings.ReplaceAll(title, "\n", " "))
	sb.WriteString("\n\n")
	sb.WriteString(content)
	if err := os.WriteFile(b.Path(id), []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write note body %s: %w", id, err)
	}
	return nil
}

// Read returns the body content of a note. A missing file reads as empty
// content, mirroring a note mid-migration whose row exists before its body.
func (b *BodyStore) Read(id string) (string, error) {
	data, err := os.ReadFile(b.Path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read note body %s: %w", id, err)
	}
	_, content := splitHeader(string(data))
	return content, nil
}

// Remove deletes the body file. Removing an absent file is not an error.
func (b *BodyStore) Remove(id string) error {
	if err := os.Remove(b.Path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove note body %s: %w", id, err)
	}
	return nil
}

// splitHeader splits a body file into its header fields and content. Files
// without a recognizable header are treated as all content.
func splitHeader(raw string) (map[string]string, string) {
	head, rest, ok := strings.Cut(raw, "\n\n")
	if !ok || !strings.HasPrefix(head, "id: ") {
		return nil, raw
	}
	fields := make(map[string]string)
	for _, line := range strings.Split(head, "\n") {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			return nil, raw
		}
		fields[key] = value
	}
	return fields, rest
}
