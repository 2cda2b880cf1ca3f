package storage

import "notebase-ai/internal/tablestore"

// Migrate runs the advisory repair pass for every table. It is run once at
// startup, before any repository is used: missing primaries are promoted
// from backups and corrupt or schema-incomplete primaries are restored from
// valid backups. It never fabricates data and can be run repeatedly.
func Migrate(store *tablestore.Store) {
	store.Repair(NotesTable, NoteColumns)
	store.Repair(GroupsTable, GroupColumns)
	store.Repair(GroupNotesTable, GroupNoteColumns)
	store.Repair(TabsTable, TabColumns)
	store.Repair(EmbeddingsTable, ChunkColumns)
}
