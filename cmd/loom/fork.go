package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/davidahmann/loom/core/store"
)

type forkOutput struct {
	OK     bool   `json:"ok"`
	Source string `json:"source"`
	Entry  string `json:"entry"`
	Fork   string `json:"fork,omitempty"`
	Error  string `json:"error,omitempty"`
}

func runFork(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Copy the path from the root to one entry into a new session file, keeping bookmarks on copied entries and recording the source as the fork's parent.")
	}

	flagSet := flag.NewFlagSet("fork", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var entryID string
	var destDir string
	var jsonOutput bool
	var helpFlag bool

	flagSet.StringVar(&entryID, "entry", "", "entry id to fork at")
	flagSet.StringVar(&destDir, "dest", "", "destination directory (default: next to the source file)")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeError(jsonOutput, err, exitInvalidInput)
	}
	if helpFlag || flagSet.NArg() != 1 {
		fmt.Println("usage: loom fork <session-file> --entry <id> [--dest <dir>] [--json]")
		if helpFlag {
			return exitOK
		}
		return exitInvalidInput
	}
	if strings.TrimSpace(entryID) == "" {
		return writeError(jsonOutput, fmt.Errorf("missing required --entry <id>"), exitInvalidInput)
	}
	sourcePath := flagSet.Arg(0)

	forkPath, err := store.ForkFile(sourcePath, entryID, destDir, store.Options{})
	if err != nil {
		return writeError(jsonOutput, err, exitInternalFailure)
	}

	out := forkOutput{OK: true, Source: sourcePath, Entry: entryID, Fork: forkPath}
	return writeJSONOutput(jsonOutput, out, "forked to "+forkPath, exitOK)
}
