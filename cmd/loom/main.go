package main

import (
	"fmt"
	"os"
)

// version is stamped at release time via ldflags; default stays dev for local builds.
var version = "0.0.0-dev"

func main() {
	os.Exit(run(os.Args))
}

func run(arguments []string) int {
	if len(arguments) < 2 {
		fmt.Println("loom", version)
		return exitOK
	}
	if arguments[1] == "--explain" {
		return writeExplain("Loom is a local-first store for branching agent conversations: append-only session logs, tree navigation, and context compaction.")
	}

	switch arguments[1] {
	case "sessions":
		return runSessions(arguments[2:])
	case "show":
		return runShow(arguments[2:])
	case "validate":
		return runValidate(arguments[2:])
	case "fork":
		return runFork(arguments[2:])
	case "version", "--version", "-v":
		if hasExplainFlag(arguments[2:]) {
			return writeExplain("Print the CLI version.")
		}
		fmt.Println("loom", version)
		return exitOK
	default:
		printUsage()
		return exitInvalidInput
	}
}

func printUsage() {
	fmt.Println("usage: loom <command> [flags]")
	fmt.Println()
	fmt.Println("commands:")
	fmt.Println("  sessions   list session files for a project or all projects")
	fmt.Println("  show       render a session's entry tree")
	fmt.Println("  validate   check a session file against the record schema")
	fmt.Println("  fork       copy a root-to-entry path into a new session file")
	fmt.Println("  version    print the CLI version")
}
