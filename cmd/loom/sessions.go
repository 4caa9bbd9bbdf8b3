package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/davidahmann/loom/core/registry"
	"github.com/davidahmann/loom/core/sessionlog"
)

type sessionsOutput struct {
	OK       bool               `json:"ok"`
	Sessions []registry.Session `json:"sessions"`
}

func runSessions(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("List session files with their id, name, age, and entry count. --all scans every project directory under the base directory.")
	}

	flagSet := flag.NewFlagSet("sessions", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var dir string
	var baseDir string
	var all bool
	var jsonOutput bool
	var helpFlag bool

	flagSet.StringVar(&dir, "dir", "", "session directory to scan")
	flagSet.StringVar(&baseDir, "base", "", "base directory holding per-project session directories")
	flagSet.BoolVar(&all, "all", false, "scan every project directory under the base directory")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeError(jsonOutput, err, exitInvalidInput)
	}
	if helpFlag {
		fmt.Println("usage: loom sessions [--dir <path> | --all [--base <path>]] [--json]")
		return exitOK
	}

	if dir == "" && baseDir == "" {
		resolved, err := sessionlog.DefaultBaseDir()
		if err != nil {
			return writeError(jsonOutput, err, exitInternalFailure)
		}
		baseDir = resolved
		all = true
	}

	options := registry.ListOptions{Dir: dir, BaseDir: baseDir, All: all}
	if !jsonOutput {
		// Listings over many projects can take a while; stream rows as
		// metadata becomes available rather than after the full scan.
		options.Progress = printSessionRow
	}
	sessions, err := registry.List(options)
	if err != nil {
		return writeError(jsonOutput, err, exitInternalFailure)
	}

	if jsonOutput {
		return writeJSONOutput(true, sessionsOutput{OK: true, Sessions: sessions}, "", exitOK)
	}
	if len(sessions) == 0 {
		fmt.Println("no sessions found")
	}
	return exitOK
}

func printSessionRow(session registry.Session) {
	name := session.Name
	if name == "" {
		name = session.Preview
	}
	fmt.Printf("%s  %-12s  %4d entries  %s\n",
		session.Modified.Format("2006-01-02 15:04"), shortID(session.ID), session.Entries, name)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
