package storage

import (
	"context"
	"sort"

	"notebase-ai/internal/tablestore"
)

// MembershipRepo provides group membership operations over the group_notes
// table. It implements the MembershipStore interface. Referential integrity
// is not enforced here; note and group deletions cascade explicitly.
type MembershipRepo struct {
	table *tablestore.Table[GroupNoteRow]
}

// NewMembershipRepo creates a new MembershipRepo.
func NewMembershipRepo(store *tablestore.Store) *MembershipRepo {
	return &MembershipRepo{
		table: tablestore.NewTable[GroupNoteRow](store, GroupNotesTable, GroupNoteColumns),
	}
}

// Add adds a note to a group at the end of the group's order. Adding an
// existing pair is a no-op.
func (r *MembershipRepo) Add(ctx context.Context, groupID, noteID string) error {
	rows, err := r.table.Read()
	if err != nil {
		return err
	}
	pos := 0
	for _, row := range rows {
		if row.GroupID == groupID && row.NoteID == noteID {
			return nil
		}
		if row.GroupID == groupID && row.Position >= pos {
			pos = row.Position + 1
		}
	}
	rows = append(rows, GroupNoteRow{
		GroupID:  groupID,
		NoteID:   noteID,
		Position: pos,
		AddedAt:  nowMillis(),
	})
	return r.table.Replace(rows)
}

// Remove removes a pair. Removing an absent pair is a no-op.
func (r *MembershipRepo) Remove(ctx context.Context, groupID, noteID string) error {
	return r.filter(func(row GroupNoteRow) bool {
		return !(row.GroupID == groupID && row.NoteID == noteID)
	})
}

// ListMembers returns the note ids of a group ordered by position.
func (r *MembershipRepo) ListMembers(ctx context.Context, groupID string) ([]string, error) {
	rows, err := r.table.Read()
	if err != nil {
		return nil, err
	}
	var members []GroupNoteRow
	for _, row := range rows {
		if row.GroupID == groupID {
			members = append(members, row)
		}
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Position < members[j].Position
	})
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.NoteID)
	}
	return ids, nil
}

// GroupsForNote returns the ids of groups containing the note.
func (r *MembershipRepo) GroupsForNote(ctx context.Context, noteID string) ([]string, error) {
	rows, err := r.table.Read()
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, row := range rows {
		if row.NoteID == noteID {
			ids = append(ids, row.GroupID)
		}
	}
	return ids, nil
}

// Reorder assigns dense positions within a group matching the given note id
// order, ignoring unknown note ids.
func (r *MembershipRepo) Reorder(ctx context.Context, groupID string, orderedNoteIDs []string) error {
	rows, err := r.table.Read()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	posByID := make(map[string]int, len(orderedNoteIDs))
	for i, id := range orderedNoteIDs {
		posByID[id] = i
	}
	changed := false
	for i := range rows {
		if rows[i].GroupID != groupID {
			continue
		}
		if pos, ok := posByID[rows[i].NoteID]; ok {
			rows[i].Position = pos
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return r.table.Replace(rows)
}

// DeleteByNote removes all membership rows for a note.
func (r *MembershipRepo) DeleteByNote(ctx context.Context, noteID string) error {
	return r.filter(func(row GroupNoteRow) bool { return row.NoteID != noteID })
}

// DeleteByGroup removes all membership rows for a group.
func (r *MembershipRepo) DeleteByGroup(ctx context.Context, groupID string) error {
	return r.filter(func(row GroupNoteRow) bool { return row.GroupID != groupID })
}

// filter rewrites the table keeping rows for which keep returns true,
// skipping the write when nothing changed.
func (r *MembershipRepo) filter(keep func(GroupNoteRow) bool) error {
	rows, err := r.table.Read()
	if err != nil {
		return err
	}
	kept := rows[:0]
	for _, row := range rows {
		if keep(row) {
			kept = append(kept, row)
		}
	}
	if len(kept) == len(rows) {
		return nil
	}
	return r.table.Replace(kept)
}
