package tablestore

import (
	"encoding/json"
	"fmt"
)

// Table is a typed view over one table of a Store. The row type's JSON field
// names form the table schema; the column manifest passed at construction is
// written into every file generation and checked by Repair.
type Table[T any] struct {
	store   *Store
	name    string
	columns []string
}

// NewTable creates a typed table view.
func NewTable[T any](store *Store, name string, columns []string) *Table[T] {
	return &Table[T]{store: store, name: name, columns: columns}
}

// Name returns the table name.
func (t *Table[T]) Name() string { return t.name }

// Read returns all rows, decoded. A missing table reads as no rows.
func (t *Table[T]) Read() ([]T, error) {
	raw, err := t.store.Read(t.name)
	if err != nil {
		return nil, err
	}
	rows := make([]T, 0, len(raw))
	for i, r := range raw {
		var row T
		if err := json.Unmarshal(r, &row); err != nil {
			return nil, fmt.Errorf("table %s: failed to decode row %d: %w", t.name, i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Replace atomically replaces the full row set.
func (t *Table[T]) Replace(rows []T) error {
	raw := make([]json.RawMessage, 0, len(rows))
	for i, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("table %s: failed to encode row %d: %w", t.name, i, err)
		}
		raw = append(raw, data)
	}
	return t.store.Replace(t.name, t.columns, raw)
}

// Repair runs advisory self-healing against this table's column manifest.
func (t *Table[T]) Repair() {
	t.store.Repair(t.name, t.columns)
}
