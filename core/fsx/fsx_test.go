package fsx

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomicReplacesContent(t *testing.T) {
	workDir := t.TempDir()
	targetPath := filepath.Join(workDir, "fork.jsonl")
	if err := WriteFileAtomic(targetPath, []byte("first\n"), 0o600); err != nil {
		t.Fatalf("initial atomic write: %v", err)
	}
	if err := WriteFileAtomic(targetPath, []byte("second\n"), 0o600); err != nil {
		t.Fatalf("replacing atomic write: %v", err)
	}
	raw, err := os.ReadFile(targetPath)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if string(raw) != "second\n" {
		t.Fatalf("unexpected content: %q", string(raw))
	}
}

func TestWriteFileAtomicLeavesNoTempFiles(t *testing.T) {
	workDir := t.TempDir()
	targetPath := filepath.Join(workDir, "fork.jsonl")
	if err := WriteFileAtomic(targetPath, []byte("content\n"), 0o600); err != nil {
		t.Fatalf("atomic write: %v", err)
	}
	entries, err := os.ReadDir(workDir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("unexpected leftover files: %d", len(entries))
	}
}
