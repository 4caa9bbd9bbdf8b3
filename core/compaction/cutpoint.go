package compaction

import (
	"github.com/davidahmann/loom/core/schema"
)

// CutPoint is the boundary between summarized and verbatim-retained history.
type CutPoint struct {
	// Index into the compaction window of the first kept entry.
	Index int
	// EntryID of the first kept entry.
	EntryID string
	// SplitTurn marks a cut landing inside a multi-step assistant turn.
	SplitTurn bool
	// TurnStartIndex is the window index of the user message that opened
	// the in-progress turn; meaningful only when SplitTurn is set.
	TurnStartIndex int
}

// IsValidCutPoint reports whether an entry may serve as the first kept
// entry. A toolResult must never be cut away from its originating tool
// call, so it is never valid in isolation.
func IsValidCutPoint(entry *schema.Entry) bool {
	switch entry.Type {
	case schema.KindMessage:
		return entry.Message != nil && entry.Message.Role != schema.RoleToolResult
	case schema.KindBranchSummary, schema.KindCustomMessage:
		return true
	default:
		return false
	}
}

// Window returns the unsummarized tail of a root-to-leaf path: everything
// from the previous compaction's first kept entry onward, or the whole path
// when no compaction exists. The previous compaction marker itself is
// excluded; its history is already folded into its summary.
func Window(path []*schema.Entry) []*schema.Entry {
	start := 0
	firstKept := ""
	for i, entry := range path {
		if entry.Type == schema.KindCompaction {
			start = i + 1
			firstKept = entry.FirstKeptEntryID
		}
	}
	if firstKept != "" {
		for i := 0; i < start-1; i++ {
			if path[i].ID == firstKept {
				window := make([]*schema.Entry, 0, len(path)-i-1)
				window = append(window, path[i:start-1]...)
				window = append(window, path[start:]...)
				return window
			}
		}
	}
	return path[start:]
}

// SelectCutPoint walks the window backward accumulating per-entry token
// estimates until keepRecentTokens is reached, then picks the nearest valid
// cut point at or after the crossing. When the cut lands inside an
// in-progress assistant turn, the cut is flagged as split and the turn's
// opening user message is identified so its prefix can be summarized
// separately.
func SelectCutPoint(window []*schema.Entry, keepRecentTokens int) (CutPoint, bool) {
	if len(window) == 0 {
		return CutPoint{}, false
	}
	if keepRecentTokens <= 0 {
		keepRecentTokens = DefaultKeepRecentTokens
	}

	crossing := 0
	accumulated := 0
	for i := len(window) - 1; i >= 0; i-- {
		accumulated += EstimateEntry(window[i])
		if accumulated >= keepRecentTokens {
			crossing = i
			break
		}
	}
	if accumulated < keepRecentTokens {
		// The whole window fits in the keep budget; nothing to summarize.
		return CutPoint{}, false
	}

	cutIdx := -1
	for i := crossing; i < len(window); i++ {
		if IsValidCutPoint(window[i]) {
			cutIdx = i
			break
		}
	}
	if cutIdx < 0 || cutIdx == 0 {
		// No valid boundary after the crossing, or the boundary keeps the
		// whole window: compaction would drop nothing.
		return CutPoint{}, false
	}

	cut := CutPoint{Index: cutIdx, EntryID: window[cutIdx].ID}
	if !window[cutIdx].IsMessageRole(schema.RoleUser) {
		for i := cutIdx; i >= 0; i-- {
			if window[i].IsMessageRole(schema.RoleUser) {
				cut.SplitTurn = true
				cut.TurnStartIndex = i
				break
			}
		}
	}
	return cut, true
}
