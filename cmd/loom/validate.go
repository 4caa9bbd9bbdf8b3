package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/davidahmann/loom/core/schema/validate"
)

type validateOutput struct {
	OK     bool                `json:"ok"`
	Report validate.FileReport `json:"report"`
	Error  string              `json:"error,omitempty"`
}

func runValidate(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Run every record of a session file through the record schema and report invalid line numbers.")
	}

	flagSet := flag.NewFlagSet("validate", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var jsonOutput bool
	var helpFlag bool

	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeError(jsonOutput, err, exitInvalidInput)
	}
	if helpFlag || flagSet.NArg() != 1 {
		fmt.Println("usage: loom validate <session-file> [--json]")
		if helpFlag {
			return exitOK
		}
		return exitInvalidInput
	}

	report, err := validate.ValidateSessionFile(flagSet.Arg(0))
	if err != nil {
		if jsonOutput {
			return writeJSONOutput(true, validateOutput{Report: report, Error: err.Error()}, "", exitInvalidSession)
		}
		return writeError(false, err, exitInvalidSession)
	}

	if jsonOutput {
		return writeJSONOutput(true, validateOutput{OK: report.Valid(), Report: report}, "",
			validateExit(report))
	}
	if report.Valid() {
		fmt.Printf("%s: %d records, all valid\n", report.Path, report.Records)
	} else {
		fmt.Printf("%s: %d records, invalid lines: %v\n", report.Path, report.Records, report.InvalidLines)
	}
	return validateExit(report)
}

func validateExit(report validate.FileReport) int {
	if report.Valid() {
		return exitOK
	}
	return exitInvalidSession
}
