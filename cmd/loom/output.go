package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/davidahmann/loom/core/errors"
)

const (
	exitOK              = 0
	exitInternalFailure = 1
	exitInvalidInput    = 2
	exitInvalidSession  = 3
	exitCancelled       = 4
	exitEmptySource     = 5
)

// exitCodeForError maps classified error categories to process exit codes,
// falling back to the caller's default for unclassified failures.
func exitCodeForError(err error, fallback int) int {
	switch errors.CategoryOf(err) {
	case errors.CategoryInvalidInput:
		return exitInvalidInput
	case errors.CategoryInvalidHeader, errors.CategoryMalformedRecord, errors.CategoryDisjointTree:
		return exitInvalidSession
	case errors.CategoryCancelled:
		return exitCancelled
	case errors.CategoryEmptySource:
		return exitEmptySource
	case errors.CategoryIOFailure, errors.CategoryInternalFailure:
		return exitInternalFailure
	default:
		return fallback
	}
}

func hasExplainFlag(arguments []string) bool {
	for _, argument := range arguments {
		if argument == "--explain" {
			return true
		}
	}
	return false
}

func writeExplain(text string) int {
	fmt.Println(text)
	return exitOK
}

// writeJSONOutput marshals out to stdout when jsonOutput is set, otherwise
// prints the human fallback line. Returns code unchanged for tail calls.
func writeJSONOutput(jsonOutput bool, out any, human string, code int) int {
	if jsonOutput {
		encoded, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, "encode output:", err)
			return exitInternalFailure
		}
		fmt.Println(string(encoded))
		return code
	}
	if strings.TrimSpace(human) != "" {
		fmt.Println(human)
	}
	return code
}

func writeError(jsonOutput bool, err error, fallback int) int {
	code := exitCodeForError(err, fallback)
	if jsonOutput {
		return writeJSONOutput(true, map[string]any{
			"ok":       false,
			"error":    err.Error(),
			"category": string(errors.CategoryOf(err)),
			"hint":     errors.HintOf(err),
		}, "", code)
	}
	fmt.Fprintln(os.Stderr, "loom:", err)
	if hint := errors.HintOf(err); hint != "" {
		fmt.Fprintln(os.Stderr, "hint:", hint)
	}
	return code
}
