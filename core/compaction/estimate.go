package compaction

import (
	"github.com/davidahmann/loom/core/schema"
)

const (
	// DefaultReserveTokens is headroom kept free under the context window
	// before compaction triggers.
	DefaultReserveTokens = 16384
	// DefaultKeepRecentTokens is how much recent history stays verbatim.
	DefaultKeepRecentTokens = 20000
	// imageTokenEquivalent is the fixed charge per image block regardless
	// of its actual size.
	imageTokenEquivalent = 1200
)

// EstimateMessage returns the heuristic token cost of one message: UTF-8
// character count over four, rounded up, plus a fixed constant per image
// block. Intentionally conservative and model-agnostic; never a real
// tokenizer.
func EstimateMessage(message *schema.Message) int {
	if message == nil {
		return 0
	}
	chars := 0
	images := 0
	for _, block := range message.Content {
		switch block.Type {
		case schema.BlockText, schema.BlockToolResult:
			chars += len(block.Text)
		case schema.BlockToolCall:
			chars += len(block.ToolName) + len(block.Arguments)
		case schema.BlockImage:
			images++
		}
	}
	return ceilDiv(chars, 4) + images*imageTokenEquivalent
}

// EstimateEntry returns the token cost an entry contributes to context.
// Entries excluded from context cost nothing.
func EstimateEntry(entry *schema.Entry) int {
	switch entry.Type {
	case schema.KindMessage:
		return EstimateMessage(entry.Message)
	case schema.KindCustomMessage:
		return ceilDiv(len(entry.Content), 4)
	case schema.KindBranchSummary, schema.KindCompaction:
		return ceilDiv(len(entry.Summary), 4)
	default:
		return 0
	}
}

// EstimatePath sums EstimateEntry over a path.
func EstimatePath(entries []*schema.Entry) int {
	total := 0
	for _, entry := range entries {
		total += EstimateEntry(entry)
	}
	return total
}

// EstimateContext estimates what the model actually sees at the end of a
// root-to-leaf path: the active compaction summary, when one exists, plus
// the unsummarized window. History an earlier compaction folded away costs
// nothing, so the figure shrinks after a compaction instead of latching.
func EstimateContext(path []*schema.Entry) int {
	summaryTokens := 0
	for _, entry := range path {
		if entry.Type == schema.KindCompaction {
			summaryTokens = ceilDiv(len(entry.Summary), 4)
		}
	}
	return summaryTokens + EstimatePath(Window(path))
}

// ShouldCompact reports whether the estimated context size has crossed the
// window minus reserve. A zero contextWindow disables the trigger.
func ShouldCompact(estimatedTokens, contextWindow, reserveTokens int) bool {
	if contextWindow <= 0 {
		return false
	}
	if reserveTokens <= 0 {
		reserveTokens = DefaultReserveTokens
	}
	return estimatedTokens > contextWindow-reserveTokens
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}
