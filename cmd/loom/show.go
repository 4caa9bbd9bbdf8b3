package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/davidahmann/loom/core/schema"
	"github.com/davidahmann/loom/core/store"
)

type showOutput struct {
	OK      bool              `json:"ok"`
	Path    string            `json:"path"`
	ID      string            `json:"id"`
	Name    string            `json:"name,omitempty"`
	Entries []schema.Entry    `json:"entries"`
	Labels  map[string]string `json:"labels,omitempty"`
	Stats   *store.Stats      `json:"stats,omitempty"`
}

func runShow(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Render a session file's entry tree, one line per entry, with branches indented under their fork point.")
	}

	flagSet := flag.NewFlagSet("show", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var stats bool
	var jsonOutput bool
	var helpFlag bool

	flagSet.BoolVar(&stats, "stats", false, "include entry and token statistics")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeError(jsonOutput, err, exitInvalidInput)
	}
	if helpFlag || flagSet.NArg() != 1 {
		fmt.Println("usage: loom show <session-file> [--stats] [--json]")
		if helpFlag {
			return exitOK
		}
		return exitInvalidInput
	}
	path := flagSet.Arg(0)

	session, err := store.Open(path, store.Options{})
	if err != nil {
		return writeError(jsonOutput, err, exitInvalidSession)
	}

	if jsonOutput {
		out := showOutput{
			OK:      true,
			Path:    path,
			ID:      session.SessionID(),
			Name:    session.Name(),
			Entries: session.Entries(),
			Labels:  session.Labels(),
		}
		if stats {
			s := session.Stats()
			out.Stats = &s
		}
		return writeJSONOutput(true, out, "", exitOK)
	}

	header := session.Header()
	fmt.Printf("session %s (v%d) %s\n", header.ID, header.Version, header.Cwd)
	if name := session.Name(); name != "" {
		fmt.Println("name:", name)
	}
	leaf, _ := session.Leaf()
	labels := session.Labels()
	printTree(session, "", "", leaf, labels)
	if stats {
		s := session.Stats()
		fmt.Printf("\n%d entries, ~%d tokens in context, %d compactions", s.Entries, s.EstimatedTokens, s.Compactions)
		if s.SkippedRecords > 0 {
			fmt.Printf(", %d malformed records skipped", s.SkippedRecords)
		}
		fmt.Println()
	}
	return exitOK
}

// printTree walks children depth-first in append order so sibling branches
// appear in the order they were created.
func printTree(session *store.Store, parentID, indent, leaf string, labels map[string]string) {
	children := session.Children(parentID)
	for _, id := range children {
		entry, ok := session.Entry(id)
		if !ok {
			continue
		}
		marker := " "
		if id == leaf {
			marker = "*"
		}
		line := fmt.Sprintf("%s%s %s  %s", indent, marker, shortID(id), describeEntry(entry))
		if label, labelled := labels[id]; labelled {
			line += "  [" + label + "]"
		}
		fmt.Println(line)
		printTree(session, id, indent+"  ", leaf, labels)
	}
}

func describeEntry(entry *schema.Entry) string {
	switch entry.Type {
	case schema.KindMessage:
		return fmt.Sprintf("%-13s %s", entry.Message.Role, snippet(entry.Message.TextContent()))
	case schema.KindCompaction:
		return fmt.Sprintf("compaction    ~%d tokens folded", entry.TokensBefore)
	case schema.KindBranchSummary:
		return "branchSummary " + snippet(entry.Summary)
	case schema.KindThinkingLevelChange:
		return "thinking      " + entry.ThinkingLevel
	case schema.KindModelChange:
		return fmt.Sprintf("model         %s/%s", entry.Provider, entry.ModelID)
	case schema.KindCustomMessage:
		return "extension     " + snippet(entry.Content)
	case schema.KindCustom:
		return "extension     " + entry.CustomKind
	case schema.KindLabel:
		return "label         " + entry.TargetID
	case schema.KindSessionInfo:
		return "rename        " + entry.Name
	default:
		return string(entry.Type)
	}
}

func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= 60 {
		return text
	}
	// Back up to a rune boundary so the cut never emits invalid UTF-8.
	cut := 60
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "…"
}
