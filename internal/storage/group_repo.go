package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"notebase-ai/internal/tablestore"
)

// GroupRepo provides group operations over the groups table.
// It implements the GroupStore interface.
type GroupRepo struct {
	table      *tablestore.Table[GroupRow]
	membership MembershipStore
}

// NewGroupRepo creates a new GroupRepo.
func NewGroupRepo(store *tablestore.Store, membership MembershipStore) *GroupRepo {
	return &GroupRepo{
		table:      tablestore.NewTable[GroupRow](store, GroupsTable, GroupColumns),
		membership: membership,
	}
}

// Create creates a group, or returns the existing group when the name
// matches an existing one case-insensitively.
func (r *GroupRepo) Create(ctx context.Context, name string) (*GroupRow, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	rows, err := r.table.Read()
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if strings.EqualFold(rows[i].Name, name) {
			return &rows[i], nil
		}
	}

	pos := 0
	for _, row := range rows {
		if row.Position >= pos {
			pos = row.Position + 1
		}
	}
	now := nowMillis()
	row := GroupRow{
		ID:        uuid.New().String(),
		Name:      name,
		Position:  pos,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.table.Replace(append(rows, row)); err != nil {
		return nil, err
	}
	return &row, nil
}

// Rename renames a group. Returns ErrNotFound if the group is absent.
func (r *GroupRepo) Rename(ctx context.Context, id, name string) (*GroupRow, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	rows, err := r.table.Read()
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].ID == id {
			rows[i].Name = name
			rows[i].UpdatedAt = nowMillis()
			if err := r.table.Replace(rows); err != nil {
				return nil, err
			}
			return &rows[i], nil
		}
	}
	return nil, fmt.Errorf("group %s: %w", id, ErrNotFound)
}

// Delete removes a group and cascades to its membership rows. Idempotent.
func (r *GroupRepo) Delete(ctx context.Context, id string) error {
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
	return r.membership.DeleteByGroup(ctx, id)
}

// List returns groups ordered by position, then name.
func (r *GroupRepo) List(ctx context.Context) ([]GroupRow, error) {
	rows, err := r.table.Read()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Position != rows[j].Position {
			return rows[i].Position < rows[j].Position
		}
		return rows[i].Name < rows[j].Name
	})
	return rows, nil
}

// Reorder assigns dense positions matching the given id order. Ids not in
// the table are ignored; groups not listed keep their positions.
func (r *GroupRepo) Reorder(ctx context.Context, orderedIDs []string) error {
	rows, err := r.table.Read()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	posByID := make(map[string]int, len(orderedIDs))
	for i, id := range orderedIDs {
		posByID[id] = i
	}
	changed := false
	for i := range rows {
		if pos, ok := posByID[rows[i].ID]; ok {
			rows[i].Position = pos
			rows[i].UpdatedAt = nowMillis()
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return r.table.Replace(rows)
}
