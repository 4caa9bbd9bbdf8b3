package compaction

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/davidahmann/loom/core/schema"
)

// maxTranscriptBlockChars bounds one content block in a serialized
// transcript so a single huge tool result cannot dominate the prompt.
const maxTranscriptBlockChars = 2000

// SerializeTranscript renders entries as an inert, line-oriented transcript.
// Every piece is tagged and indented so a completion model reads it as
// quoted material, not as a live conversation to continue.
func SerializeTranscript(entries []*schema.Entry) string {
	var builder strings.Builder
	for _, entry := range entries {
		switch entry.Type {
		case schema.KindMessage:
			serializeMessage(&builder, entry.Message)
		case schema.KindCustomMessage:
			builder.WriteString("[extension]\n")
			writeIndented(&builder, truncateBlock(entry.Content))
		case schema.KindBranchSummary:
			builder.WriteString("[abandoned-branch summary]\n")
			writeIndented(&builder, truncateBlock(entry.Summary))
		}
	}
	return builder.String()
}

func serializeMessage(builder *strings.Builder, message *schema.Message) {
	if message == nil {
		return
	}
	fmt.Fprintf(builder, "[%s]\n", message.Role)
	for _, block := range message.Content {
		switch block.Type {
		case schema.BlockText:
			writeIndented(builder, truncateBlock(block.Text))
		case schema.BlockToolCall:
			fmt.Fprintf(builder, "  (tool call %s %s)\n", block.ToolName, truncateBlock(string(block.Arguments)))
		case schema.BlockToolResult:
			writeIndented(builder, truncateBlock(block.Text))
		case schema.BlockImage:
			builder.WriteString("  (image omitted)\n")
		}
	}
}

func writeIndented(builder *strings.Builder, text string) {
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		builder.WriteString("  ")
		builder.WriteString(line)
		builder.WriteByte('\n')
	}
}

func truncateBlock(text string) string {
	if len(text) <= maxTranscriptBlockChars {
		return text
	}
	// Back up to a rune boundary so the cut never emits invalid UTF-8.
	cut := maxTranscriptBlockChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "…[truncated]"
}

// FileTrailer derives the deterministic trailer listing files touched in the
// dropped span. Paths come from tool-call arguments, never re-parsed from
// free text, so the trailer is stable across runs.
func FileTrailer(entries []*schema.Entry) string {
	read := map[string]struct{}{}
	modified := map[string]struct{}{}
	for _, entry := range entries {
		if entry.Type != schema.KindMessage || entry.Message == nil {
			continue
		}
		for _, block := range entry.Message.Content {
			if block.Type != schema.BlockToolCall {
				continue
			}
			path := toolCallPath(block.Arguments)
			if path == "" {
				continue
			}
			switch classifyTool(block.ToolName) {
			case "read":
				read[path] = struct{}{}
			case "modify":
				modified[path] = struct{}{}
			}
		}
	}
	if len(read) == 0 && len(modified) == 0 {
		return ""
	}

	var builder strings.Builder
	if len(read) > 0 {
		builder.WriteString("\n\nFiles read:\n")
		for _, path := range sortedKeys(read) {
			builder.WriteString("- ")
			builder.WriteString(path)
			builder.WriteByte('\n')
		}
	}
	if len(modified) > 0 {
		builder.WriteString("\n\nFiles modified:\n")
		for _, path := range sortedKeys(modified) {
			builder.WriteString("- ")
			builder.WriteString(path)
			builder.WriteByte('\n')
		}
	}
	return strings.TrimRight(builder.String(), "\n")
}

func toolCallPath(arguments []byte) string {
	if len(arguments) == 0 {
		return ""
	}
	results := gjson.GetManyBytes(arguments, "file_path", "path")
	for _, result := range results {
		if result.Exists() && result.String() != "" {
			return result.String()
		}
	}
	return ""
}

func classifyTool(name string) string {
	lowered := strings.ToLower(name)
	switch {
	case strings.Contains(lowered, "write"), strings.Contains(lowered, "edit"), strings.Contains(lowered, "create"):
		return "modify"
	case strings.Contains(lowered, "read"), strings.Contains(lowered, "view"), strings.Contains(lowered, "cat"):
		return "read"
	default:
		return ""
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
