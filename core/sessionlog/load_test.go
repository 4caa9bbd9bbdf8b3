package sessionlog

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/davidahmann/loom/core/errors"
	"github.com/davidahmann/loom/internal/testutil"
)

func TestValidateHeaderAcceptsWellFormedLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.jsonl")
	testutil.WriteSessionLines(t, path,
		`{"type":"session","version":3,"id":"abc","timestamp":"t","cwd":"/p"}`,
		`{"type":"message","id":"a","timestamp":"t","message":{"role":"user"}}`)

	if err := ValidateHeader(path); err != nil {
		t.Fatalf("expected valid header: %v", err)
	}
}

func TestValidateHeaderRejectsNonSessionFiles(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		content string
	}{
		{name: "empty file", content: ""},
		{name: "plain text", content: "not a session\n"},
		{name: "json but wrong type", content: `{"type":"notes","version":1,"id":"x"}` + "\n"},
		{name: "missing id", content: `{"type":"session","version":3}` + "\n"},
		{name: "future version", content: `{"type":"session","version":42,"id":"x"}` + "\n"},
		{name: "oversized first record", content: `{"type":"session","version":3,"id":"x","cwd":"` + strings.Repeat("a", 4096) + `"}` + "\n"},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			path := filepath.Join(dir, "candidate.jsonl")
			testutil.WriteFile(t, path, []byte(testCase.content))
			err := ValidateHeader(path)
			if err == nil {
				t.Fatal("expected header validation to fail")
			}
			if errors.CategoryOf(err) != errors.CategoryInvalidHeader {
				t.Fatalf("unexpected error category: %s", errors.CategoryOf(err))
			}
		})
	}
}

func TestValidateHeaderHandlesHeaderOnlyFileWithoutNewline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fresh.jsonl")
	testutil.WriteFile(t, path, []byte(`{"type":"session","version":3,"id":"abc","timestamp":"t","cwd":"/p"}`))

	if err := ValidateHeader(path); err != nil {
		t.Fatalf("header without trailing newline must validate: %v", err)
	}
}

func TestFileNameSortsByTimestamp(t *testing.T) {
	early := FileName(time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC), "aaa")
	late := FileName(time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC), "aaa")
	if !(early < late) {
		t.Fatalf("file names must sort chronologically: %s vs %s", early, late)
	}
	if !strings.HasSuffix(early, "-aaa.jsonl") {
		t.Fatalf("unexpected file name shape: %s", early)
	}
}

func TestProjectDirNameSanitizesAndWraps(t *testing.T) {
	got := ProjectDirName("/home/user/my project")
	want := "---home-user-my-project--"
	if got != want {
		t.Fatalf("unexpected project dir name: got=%s want=%s", got, want)
	}
	if !IsProjectDirName(got) {
		t.Fatal("derived name must be recognized as a project dir")
	}
	if IsProjectDirName("plain-directory") {
		t.Fatal("unwrapped name must not be recognized")
	}
}
