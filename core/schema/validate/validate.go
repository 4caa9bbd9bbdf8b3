package validate

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/kaptinlin/jsonschema"
)

//go:embed record.schema.json
var recordSchemaJSON []byte

var (
	compileOnce  sync.Once
	recordSchema *jsonschema.Schema
	compileErr   error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		recordSchema, compileErr = compiler.Compile(recordSchemaJSON)
		if compileErr != nil {
			compileErr = fmt.Errorf("compile record schema: %w", compileErr)
		}
	})
	return recordSchema, compileErr
}

// ValidateRecord checks one record line against the embedded record schema.
func ValidateRecord(line []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	result := schema.ValidateJSON(line)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("schema validation failed: %v", result.Errors)
}

// FileReport summarizes a deep validation pass over one session file.
type FileReport struct {
	Path         string `json:"path"`
	Records      int    `json:"records"`
	InvalidLines []int  `json:"invalid_lines,omitempty"`
}

// Valid reports whether every non-empty line passed.
func (r FileReport) Valid() bool {
	return len(r.InvalidLines) == 0
}

// ValidateSessionFile runs every non-empty line of a session file through
// the record schema. Unlike loading, which tolerates malformed lines, this
// is the operational check that reports them: line numbers are 1-based.
// A file whose first record is not a valid header fails outright.
func ValidateSessionFile(path string) (FileReport, error) {
	// #nosec G304 -- validation target is an explicit caller-provided path.
	data, err := os.ReadFile(path)
	if err != nil {
		return FileReport{}, fmt.Errorf("read session file: %w", err)
	}
	report := FileReport{Path: path}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	lineNo := 0
	sawHeader := false
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		report.Records++
		if err := ValidateRecord(line); err != nil {
			report.InvalidLines = append(report.InvalidLines, lineNo)
			continue
		}
		if !sawHeader {
			// The first parseable record must be the header.
			var probe struct {
				Type string `json:"type"`
			}
			if unmarshalErr := json.Unmarshal(line, &probe); unmarshalErr != nil || probe.Type != "session" {
				return report, fmt.Errorf("record 0 is not a session header")
			}
			sawHeader = true
		}
	}
	if err := scanner.Err(); err != nil {
		return report, fmt.Errorf("scan session file: %w", err)
	}
	if !sawHeader {
		return report, fmt.Errorf("session file has no header record")
	}
	return report, nil
}
