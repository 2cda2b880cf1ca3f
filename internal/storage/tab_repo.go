package storage

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"notebase-ai/internal/tablestore"
)

// TabRepo persists tab sessions in the tabs table. It implements the
// TabStore interface. A session's tab list is replaced wholesale on save,
// last writer wins per session.
type TabRepo struct {
	table *tablestore.Table[TabRow]
}

// NewTabRepo creates a new TabRepo.
func NewTabRepo(store *tablestore.Store) *TabRepo {
	return &TabRepo{
		table: tablestore.NewTable[TabRow](store, TabsTable, TabColumns),
	}
}

// SaveSession replaces all tabs of the session. Tab ids are generated when
// absent and positions default to list order.
func (r *TabRepo) SaveSession(ctx context.Context, sessionID string, tabs []Tab) (int, error) {
	rows, err := r.table.Read()
	if err != nil {
		return 0, err
	}
	kept := rows[:0]
	for _, row := range rows {
		if row.SessionID != sessionID {
			kept = append(kept, row)
		}
	}

	now := nowMillis()
	for i, tab := range tabs {
		row := TabRow{
			SessionID: sessionID,
			TabID:     tab.TabID,
			NoteID:    tab.NoteID,
			StackID:   tab.StackID,
			Position:  i,
			CreatedAt: now,
		}
		if row.TabID == "" {
			row.TabID = uuid.New().String()
		}
		if tab.Position != nil {
			row.Position = *tab.Position
		}
		kept = append(kept, row)
	}

	if err := r.table.Replace(kept); err != nil {
		return 0, err
	}
	return len(tabs), nil
}

// LoadSession returns the session's tabs ordered by position. An unknown
// session loads as an empty tab list.
func (r *TabRepo) LoadSession(ctx context.Context, sessionID string) ([]TabRow, error) {
	rows, err := r.table.Read()
	if err != nil {
		return nil, err
	}
	var tabs []TabRow
	for _, row := range rows {
		if row.SessionID == sessionID {
			tabs = append(tabs, row)
		}
	}
	sort.SliceStable(tabs, func(i, j int) bool {
		return tabs[i].Position < tabs[j].Position
	})
	return tabs, nil
}
