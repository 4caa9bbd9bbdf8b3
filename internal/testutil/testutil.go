package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func WriteFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("create parent directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func MustReadFile(t *testing.T, path string) []byte {
	t.Helper()
	content, err := os.ReadFile(path) // #nosec G304 -- test helper for controlled paths.
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return content
}

// WriteSessionFile writes a session fixture from pre-encoded record values.
// Each record is marshalled onto its own line, header first.
func WriteSessionFile(t *testing.T, path string, records ...any) {
	t.Helper()
	var builder strings.Builder
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			t.Fatalf("marshal session fixture record: %v", err)
		}
		builder.Write(line)
		builder.WriteByte('\n')
	}
	WriteFile(t, path, []byte(builder.String()))
}

// WriteSessionLines writes a session fixture from raw JSONL lines, allowing
// deliberately malformed records.
func WriteSessionLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	WriteFile(t, path, []byte(strings.Join(lines, "\n")+"\n"))
}

// MustCountLines returns the number of newline-terminated lines in a file.
func MustCountLines(t *testing.T, path string) int {
	t.Helper()
	return strings.Count(string(MustReadFile(t, path)), "\n")
}
