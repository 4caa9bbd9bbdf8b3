package registry

import (
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/davidahmann/loom/core/sessionlog"
	"github.com/davidahmann/loom/internal/testutil"
)

func writeSession(t *testing.T, dir, name, sessionID string, extraLines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	lines := append([]string{
		`{"type":"session","version":3,"id":"` + sessionID + `","timestamp":"2026-08-29T10:00:00Z","cwd":"/home/user/project"}`,
	}, extraLines...)
	testutil.WriteSessionLines(t, path, lines...)
	return path
}

func TestListSkipsNonSessionFiles(t *testing.T) {
	dir := t.TempDir()
	writeSession(t, dir, "20260829T100000-one.jsonl", "one")
	testutil.WriteFile(t, filepath.Join(dir, "notes.jsonl"), []byte("plain text\n"))
	testutil.WriteFile(t, filepath.Join(dir, "readme.md"), []byte("# readme\n"))

	sessions, err := List(ListOptions{Dir: dir})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("unexpected session count: %d", len(sessions))
	}
	if sessions[0].ID != "one" {
		t.Fatalf("unexpected session id: %s", sessions[0].ID)
	}
	if sessions[0].HeaderDigest == "" {
		t.Fatal("expected a header digest")
	}
}

func TestListReportsProgressIncrementally(t *testing.T) {
	dir := t.TempDir()
	writeSession(t, dir, "20260829T100000-one.jsonl", "one")
	writeSession(t, dir, "20260829T110000-two.jsonl", "two")

	var seen []string
	sessions, err := List(ListOptions{Dir: dir, Progress: func(session Session) {
		seen = append(seen, session.ID)
	}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("unexpected session count: %d", len(sessions))
	}
	if len(seen) != 2 {
		t.Fatalf("progress must fire per session, got %d calls", len(seen))
	}
}

func TestListAllWalksProjectDirectories(t *testing.T) {
	baseDir := t.TempDir()
	projectDir := filepath.Join(baseDir, sessionlog.ProjectDirName("/home/user/project"))
	otherDir := filepath.Join(baseDir, "unrelated")
	writeSession(t, projectDir, "20260829T100000-one.jsonl", "one")
	writeSession(t, otherDir, "20260829T100000-two.jsonl", "two")

	sessions, err := List(ListOptions{All: true, BaseDir: baseDir})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("only project directories must be scanned, got %d sessions", len(sessions))
	}
	if sessions[0].ID != "one" {
		t.Fatalf("unexpected session id: %s", sessions[0].ID)
	}
}

func TestInspectBuildsNamePreviewAndCounts(t *testing.T) {
	dir := t.TempDir()
	path := writeSession(t, dir, "20260829T100000-one.jsonl", "one",
		`{"type":"message","id":"a","timestamp":"t","message":{"role":"user","content":[{"type":"text","text":"please fix the flaky test in the scheduler"}]}}`,
		`{"type":"message","id":"b","parentId":"a","timestamp":"t","message":{"role":"assistant","content":[{"type":"text","text":"on it"}]}}`,
		`{"type":"sessionInfo","id":"c","parentId":"b","timestamp":"t","name":"first name"}`,
		`{"type":"sessionInfo","id":"d","parentId":"c","timestamp":"t","name":"final name"}`,
		`{"type":"message","id":"bad`)

	session, err := Inspect(path)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if session.Name != "final name" {
		t.Fatalf("most recent sessionInfo must win: %q", session.Name)
	}
	if session.Preview != "please fix the flaky test in the scheduler" {
		t.Fatalf("unexpected preview: %q", session.Preview)
	}
	if session.Entries != 4 {
		t.Fatalf("unexpected entry count: %d", session.Entries)
	}
	if session.Skipped != 1 {
		t.Fatalf("unexpected skipped count: %d", session.Skipped)
	}
}

func TestPreviewTruncatesOnRuneBoundary(t *testing.T) {
	t.Parallel()
	// A leading ASCII byte puts the truncation offset mid-rune.
	got := preview("a" + strings.Repeat("é", previewMaxChars))
	if !utf8.ValidString(got) {
		t.Fatalf("preview is not valid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("missing ellipsis: %q", got)
	}
}

func TestListRequiresDirOrAll(t *testing.T) {
	if _, err := List(ListOptions{}); err == nil {
		t.Fatal("expected invalid options to fail")
	}
}
