// Package tablestore persists each logical table as a single JSON file with
// crash-safe replacement and best-effort self-healing. Every table file has
// an adjacent ".bak" backup holding the previous generation; at any point in
// time at least one of the two is a fully written, parseable file.
package tablestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// CorruptError is returned when both the primary table file and its backup
// are unreadable. Operations on that table fail until it is repaired by hand.
type CorruptError struct {
	Table string
	Err   error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("table %s: primary and backup unreadable: %v", e.Table, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// document is the on-disk shape of a table file. The column list is written
// explicitly so that Repair can validate schema even for an empty table.
type document struct {
	Columns []string          `json:"columns"`
	Rows    []json.RawMessage `json:"rows"`
}

// Store manages table files inside a single directory.
type Store struct {
	dir    string
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create table directory: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: slog.Default(),
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

// Path returns the primary file path for a table.
func (s *Store) Path(table string) string {
	return filepath.Join(s.dir, table+".json")
}

// tableLock returns the per-table mutex, creating it on first use.
// Concurrent Replace calls on the same table must be serialized: interleaved
// temp writes would break the backup rotation invariant.
func (s *Store) tableLock(table string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[table]
	if !ok {
		l = &sync.Mutex{}
		s.locks[table] = l
	}
	return l
}

// Read returns all rows of a table. A missing table reads as an empty row
// set. If the primary file is unreadable, Read falls back to the most recent
// backup; it fails with a CorruptError only when both are unreadable.
func (s *Store) Read(table string) ([]json.RawMessage, error) {
	path := s.Path(table)

	doc, err := readDocument(path)
	if err == nil {
		return doc.Rows, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	bak, berr := readDocument(path + ".bak")
	if berr == nil {
		s.logger.Warn("table primary unreadable, using backup", "table", table, "error", err)
		return bak.Rows, nil
	}
	if errors.Is(berr, os.ErrNotExist) {
		return nil, &CorruptError{Table: table, Err: err}
	}
	return nil, &CorruptError{Table: table, Err: errors.Join(err, berr)}
}

// Replace atomically replaces the full row set of a table.
//
// Sequence: write a temp file and flush it durably, rotate the current
// primary into the backup slot (discarding any prior backup), rename the
// temp file into the primary slot, then flush the directory entry. A crash
// at any single point leaves the table readable at either the previous or
// the new state, never a half-written one.
func (s *Store) Replace(table string, columns []string, rows []json.RawMessage) error {
	lock := s.tableLock(table)
	lock.Lock()
	defer lock.Unlock()

	path := s.Path(table)
	tmp := path + ".tmp"
	bak := path + ".bak"

	if rows == nil {
		rows = []json.RawMessage{}
	}
	data, err := json.Marshal(document{Columns: columns, Rows: rows})
	if err != nil {
		return fmt.Errorf("failed to encode table %s: %w", table, err)
	}

	if err := writeDurable(tmp, data); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to stage table %s: %w", table, err)
	}

	// Rotate backup. Rotation failures are logged rather than fatal: the
	// final rename below still atomically installs a complete new primary.
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(bak); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to discard old backup", "table", table, "error", err)
		}
		if err := os.Rename(path, bak); err != nil {
			s.logger.Warn("failed to rotate backup", "table", table, "error", err)
		}
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to install table %s: %w", table, err)
	}
	syncPath(path)
	syncPath(s.dir)
	return nil
}

// Repair performs advisory self-healing for a table at startup. It promotes
// the backup when the primary is missing, and restores from the backup when
// the primary fails to parse or lacks required columns while the backup is
// valid and complete. It never fabricates data and never fails.
func (s *Store) Repair(table string, requiredColumns []string) {
	lock := s.tableLock(table)
	lock.Lock()
	defer lock.Unlock()

	path := s.Path(table)
	bak := path + ".bak"

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if _, err := os.Stat(bak); err == nil {
			if err := os.Rename(bak, path); err != nil {
				s.logger.Warn("failed to promote backup", "table", table, "error", err)
			} else {
				s.logger.Info("promoted backup to primary", "table", table)
			}
		}
		return
	}

	if doc, err := readDocument(path); err == nil && hasColumns(doc, requiredColumns) {
		return
	}

	bdoc, err := readDocument(bak)
	if err != nil || !hasColumns(bdoc, requiredColumns) {
		return
	}
	if err := os.Rename(bak, path); err != nil {
		s.logger.Warn("failed to restore table from backup", "table", table, "error", err)
		return
	}
	s.logger.Info("restored table from backup", "table", table)
}

func hasColumns(doc *document, required []string) bool {
	present := make(map[string]struct{}, len(doc.Columns))
	for _, c := range doc.Columns {
		present[c] = struct{}{}
	}
	for _, c := range required {
		if _, ok := present[c]; !ok {
			return false
		}
	}
	return true
}

func readDocument(path string) (*document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &doc, nil
}

// writeDurable writes data to path and flushes it to stable storage before
// returning. Any failure aborts the replace before primary or backup are
// touched.
func writeDurable(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// syncPath fsyncs a file or directory entry, best-effort.
func syncPath(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	_ = f.Sync()
	_ = f.Close()
}
