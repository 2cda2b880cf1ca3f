package tablestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
)

var testColumns = []string{"id", "name"}

func row(id, name string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"id":%q,"name":%q}`, id, name))
}

func TestStore_ReadMissingTable(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rows, err := store.Read("missing")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if rows != nil {
		t.Errorf("Read() = %v, want nil for missing table", rows)
	}
}

func TestStore_ReplaceAndRead(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := store.Replace("items", testColumns, []json.RawMessage{row("1", "one"), row("2", "two")}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	rows, err := store.Read("items")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Read() returned %d rows, want 2", len(rows))
	}

	// Second replace rotates the previous generation into the backup slot.
	if err := store.Replace("items", testColumns, []json.RawMessage{row("3", "three")}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if _, err := os.Stat(store.Path("items") + ".bak"); err != nil {
		t.Errorf("backup file missing after second replace: %v", err)
	}

	rows, err = store.Read("items")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("Read() returned %d rows, want 1", len(rows))
	}
}

func TestStore_ReplaceEmptyRowSet(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := store.Replace("items", testColumns, nil); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	rows, err := store.Read("items")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Read() returned %d rows, want 0", len(rows))
	}
}

func TestStore_ReadFallsBackToBackup(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := store.Replace("items", testColumns, []json.RawMessage{row("1", "one")}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if err := store.Replace("items", testColumns, []json.RawMessage{row("2", "two")}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	// Simulate a torn primary write.
	if err := os.WriteFile(store.Path("items"), []byte(`{"columns":["id"`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	rows, err := store.Read("items")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Read() returned %d rows, want 1 from backup", len(rows))
	}
	var decoded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rows[0], &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.ID != "1" {
		t.Errorf("backup row id = %q, want %q", decoded.ID, "1")
	}
}

func TestStore_ReadBothCorrupt(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := os.WriteFile(store.Path("items"), []byte("garbage"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.WriteFile(store.Path("items")+".bak", []byte("also garbage"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err = store.Read("items")
	var corruptErr *CorruptError
	if !errors.As(err, &corruptErr) {
		t.Fatalf("Read() error = %v, want CorruptError", err)
	}
	if corruptErr.Table != "items" {
		t.Errorf("CorruptError.Table = %q, want %q", corruptErr.Table, "items")
	}
}

func TestStore_ReadCorruptPrimaryNoBackup(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := os.WriteFile(store.Path("items"), []byte("garbage"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err = store.Read("items")
	var corruptErr *CorruptError
	if !errors.As(err, &corruptErr) {
		t.Fatalf("Read() error = %v, want CorruptError", err)
	}
}

func TestStore_Repair(t *testing.T) {
	valid := `{"columns":["id","name"],"rows":[{"id":"1","name":"one"}]}`
	missingColumn := `{"columns":["id"],"rows":[{"id":"1"}]}`

	tests := []struct {
		name     string
		primary  string // empty means absent
		backup   string
		wantRows int
		wantErr  bool
	}{
		{
			name:     "healthy primary untouched",
			primary:  valid,
			wantRows: 1,
		},
		{
			name:     "missing primary promotes backup",
			backup:   valid,
			wantRows: 1,
		},
		{
			name:     "unparseable primary restored from backup",
			primary:  "garbage",
			backup:   valid,
			wantRows: 1,
		},
		{
			name:     "primary missing required column restored from backup",
			primary:  missingColumn,
			backup:   valid,
			wantRows: 1,
		},
		{
			name:    "unparseable primary with no backup left alone",
			primary: "garbage",
			wantErr: true,
		},
		{
			name:    "both unreadable left alone",
			primary: "garbage",
			backup:  "also garbage",
			wantErr: true,
		},
		{
			// The backup lacks a required column, so Repair will not
			// restore it over the primary. Read is schema-agnostic and
			// still falls back to the parseable backup.
			name:     "schema-incomplete backup not restored but readable",
			primary:  "garbage",
			backup:   missingColumn,
			wantRows: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := New(t.TempDir())
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if tt.primary != "" {
				if err := os.WriteFile(store.Path("items"), []byte(tt.primary), 0o644); err != nil {
					t.Fatalf("WriteFile() error = %v", err)
				}
			}
			if tt.backup != "" {
				if err := os.WriteFile(store.Path("items")+".bak", []byte(tt.backup), 0o644); err != nil {
					t.Fatalf("WriteFile() error = %v", err)
				}
			}

			store.Repair("items", testColumns)

			rows, err := store.Read("items")
			if tt.wantErr {
				if err == nil {
					t.Errorf("Read() after Repair() expected error, got %d rows", len(rows))
				}
				return
			}
			if err != nil {
				t.Fatalf("Read() after Repair() error = %v", err)
			}
			if len(rows) != tt.wantRows {
				t.Errorf("Read() returned %d rows, want %d", len(rows), tt.wantRows)
			}
		})
	}
}

func TestStore_RepairMissingTableIsNoop(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	store.Repair("items", testColumns)

	if _, err := os.Stat(store.Path("items")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Repair() fabricated a table file: %v", err)
	}
}

func TestStore_ConcurrentReplace(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rows := []json.RawMessage{row(fmt.Sprintf("%d", i), "x")}
			if err := store.Replace("items", testColumns, rows); err != nil {
				t.Errorf("Replace() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	rows, err := store.Read("items")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("Read() returned %d rows, want 1 after concurrent replaces", len(rows))
	}
}

func TestTable_ReadReplaceRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	type item struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	table := NewTable[item](store, "items", testColumns)

	rows, err := table.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("Read() returned %d rows for missing table, want 0", len(rows))
	}

	if err := table.Replace([]item{{ID: "1", Name: "one"}, {ID: "2", Name: "two"}}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	rows, err = table.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(rows) != 2 || rows[0].Name != "one" || rows[1].ID != "2" {
		t.Errorf("Read() = %+v, want two decoded rows", rows)
	}
}
