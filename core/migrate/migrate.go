// Package migrate upgrades a loaded session's logical schema version in
// memory. Steps run sequentially in increasing order, each bumping the
// header version; the file on disk is never rewritten implicitly.
package migrate

import (
	"github.com/davidahmann/loom/core/schema"
	"github.com/davidahmann/loom/core/tree"
)

// Run applies every pending migration step. It returns true when anything
// changed; running against an already-current log is a no-op.
func Run(header *schema.Header, entries []schema.Entry) (changed bool) {
	for header.Version < schema.CurrentVersion {
		switch header.Version {
		case 1:
			migrateV1TreeShape(entries)
		case 2:
			migrateV2RoleRename(entries)
		}
		header.Version++
		changed = true
	}
	return changed
}

// migrateV1TreeShape introduces the tree: version 1 entries carried no id
// or parent link, so ids are generated in original order and each entry is
// parented to its immediate predecessor, forming a linear chain. A legacy
// index-based compaction reference resolves to the id of the entry at that
// position.
func migrateV1TreeShape(entries []schema.Entry) {
	existing := make(map[string]struct{}, len(entries))
	for i := range entries {
		if entries[i].ID != "" {
			existing[entries[i].ID] = struct{}{}
		}
	}
	previous := ""
	for i := range entries {
		if entries[i].ID == "" {
			id := tree.GenerateID(existing)
			existing[id] = struct{}{}
			entries[i].ID = id
		}
		entries[i].ParentID = previous
		previous = entries[i].ID
	}
	for i := range entries {
		if entries[i].Type != schema.KindCompaction || entries[i].FirstKeptEntryIndex == nil {
			continue
		}
		position := *entries[i].FirstKeptEntryIndex
		if position >= 0 && position < len(entries) {
			entries[i].FirstKeptEntryID = entries[position].ID
		}
		entries[i].FirstKeptEntryIndex = nil
	}
}

// migrateV2RoleRename rewrites the deprecated bash message role to its
// current spelling.
func migrateV2RoleRename(entries []schema.Entry) {
	for i := range entries {
		if entries[i].Type == schema.KindMessage && entries[i].Message != nil &&
			entries[i].Message.Role == schema.RoleBashLegacy {
			entries[i].Message.Role = schema.RoleBashExecution
		}
	}
}
