package testutil

import (
	"path/filepath"
	"testing"
)

func TestWriteSessionFileEncodesOneRecordPerLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	WriteSessionFile(t, path,
		map[string]any{"type": "session", "version": 3, "id": "s1"},
		map[string]any{"type": "message", "id": "a"},
	)
	if got := MustCountLines(t, path); got != 2 {
		t.Fatalf("lines = %d, want 2", got)
	}
}

func TestWriteSessionLinesKeepsRawContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jsonl")
	WriteSessionLines(t, path, `{"type":"session"}`, "not json")
	content := string(MustReadFile(t, path))
	if content != "{\"type\":\"session\"}\nnot json\n" {
		t.Fatalf("content = %q", content)
	}
}
