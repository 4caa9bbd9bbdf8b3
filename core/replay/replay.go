package replay

import (
	"github.com/davidahmann/loom/core/schema"
	"github.com/davidahmann/loom/core/tree"
)

// DefaultThinkingLevel applies when no thinkingLevelChange is on the path.
const DefaultThinkingLevel = "off"

// Context is what the agent runtime receives: the ordered message sequence
// for the model plus the settings active at the leaf.
type Context struct {
	Messages      []schema.Message
	ThinkingLevel string
	Provider      string
	ModelID       string
}

// BuildContext reconstructs what the model sees at leafID. The walk is a
// pure projection of (index, leaf): no mutation, and rebuilding from the
// same leaf always yields the same sequence.
//
// When a compaction entry sits on the path, everything before it folds into
// its summary: the summary becomes the first synthetic message, entries from
// the compaction's first kept id through the compaction point are emitted
// verbatim, and only then the entries after it. The first kept id is matched
// by identity, never by position, since cut points are chosen by entry.
func BuildContext(index *tree.Index, leafID string) Context {
	out := Context{ThinkingLevel: DefaultThinkingLevel}
	if leafID == "" {
		return out
	}
	path := index.Branch(leafID)
	if len(path) == 0 {
		return out
	}

	compactionIdx := -1
	for i, entry := range path {
		switch entry.Type {
		case schema.KindThinkingLevelChange:
			out.ThinkingLevel = entry.ThinkingLevel
		case schema.KindModelChange:
			out.Provider = entry.Provider
			out.ModelID = entry.ModelID
		case schema.KindMessage:
			// An assistant turn pins the model that produced it.
			if entry.Message.Role == schema.RoleAssistant && entry.Message.Model != "" {
				out.Provider = entry.Message.Provider
				out.ModelID = entry.Message.Model
			}
		case schema.KindCompaction:
			compactionIdx = i
		}
	}

	if compactionIdx < 0 {
		for _, entry := range path {
			appendEntryMessage(&out, entry)
		}
		return out
	}

	compaction := path[compactionIdx]
	out.Messages = append(out.Messages, *schema.TextMessage(schema.RoleUser, compaction.Summary))

	firstKeptIdx := compactionIdx
	for i := 0; i < compactionIdx; i++ {
		if path[i].ID == compaction.FirstKeptEntryID {
			firstKeptIdx = i
			break
		}
	}
	for _, entry := range path[firstKeptIdx:compactionIdx] {
		appendEntryMessage(&out, entry)
	}
	for _, entry := range path[compactionIdx+1:] {
		appendEntryMessage(&out, entry)
	}
	return out
}

// appendEntryMessage renders one entry into the message sequence. Entries
// that carry no model-visible content contribute nothing. An older
// compaction inside the kept range is skipped: its history is already
// folded into the newer summary.
func appendEntryMessage(out *Context, entry *schema.Entry) {
	switch entry.Type {
	case schema.KindMessage:
		out.Messages = append(out.Messages, *entry.Message)
	case schema.KindCustomMessage:
		// Included verbatim with extension-only details stripped.
		out.Messages = append(out.Messages, *schema.TextMessage(schema.RoleCustom, entry.Content))
	case schema.KindBranchSummary:
		out.Messages = append(out.Messages, *schema.TextMessage(schema.RoleUser, entry.Summary))
	}
}
