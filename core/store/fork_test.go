package store

import (
	"path/filepath"
	"testing"

	"github.com/davidahmann/loom/core/errors"
	"github.com/davidahmann/loom/core/fingerprint"
	"github.com/davidahmann/loom/core/schema"
	"github.com/davidahmann/loom/core/sessionlog"
	"github.com/davidahmann/loom/internal/testutil"
)

func TestForkCopiesPathRecreatesLabelsAndRecordsProvenance(t *testing.T) {
	t.Parallel()
	store := newTestStore(t, Options{})
	u1, a1 := appendTurn(t, store, "first", "one")
	_, a2 := appendTurn(t, store, "second", "two")
	keep := "keep"
	if _, err := store.SetLabel(a1, &keep); err != nil {
		t.Fatalf("SetLabel: %v", err)
	}
	offPath := "off-path"
	if _, err := store.SetLabel(a2, &offPath); err != nil {
		t.Fatalf("SetLabel: %v", err)
	}

	destDir := t.TempDir()
	forkPath, err := store.Fork(a1, destDir)
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}

	header, entries, skipped, err := sessionlog.LoadFile(forkPath)
	if err != nil || skipped != 0 {
		t.Fatalf("LoadFile: %v, skipped %d", err, skipped)
	}
	if header.ID == store.SessionID() {
		t.Fatal("fork kept the source session id")
	}
	if header.ParentSession != store.Path() {
		t.Fatalf("parentSession = %q, want %q", header.ParentSession, store.Path())
	}
	sourceHeader, err := sessionlog.RawHeaderLine(store.Path())
	if err != nil {
		t.Fatalf("RawHeaderLine: %v", err)
	}
	wantDigest, err := fingerprint.HeaderDigest(sourceHeader)
	if err != nil {
		t.Fatalf("HeaderDigest: %v", err)
	}
	if header.ParentDigest != wantDigest {
		t.Fatalf("parentDigest = %q, want the source header digest %q", header.ParentDigest, wantDigest)
	}

	if len(entries) != 3 {
		t.Fatalf("fork entries = %d, want first turn plus one label", len(entries))
	}
	if entries[0].ID != u1 || entries[1].ID != a1 {
		t.Fatalf("fork path = %s, %s, want %s, %s", entries[0].ID, entries[1].ID, u1, a1)
	}
	label := entries[2]
	if label.Type != schema.KindLabel || label.TargetID != a1 || label.Label == nil || *label.Label != "keep" {
		t.Fatalf("recreated label = %+v", label)
	}
	if label.ID == "" || label.ParentID != a1 {
		t.Fatalf("recreated label links = id %q parent %q, want fresh id chained at %s", label.ID, label.ParentID, a1)
	}

	forked, err := Open(forkPath, Options{})
	if err != nil {
		t.Fatalf("Open fork: %v", err)
	}
	if got := forked.Labels(); len(got) != 1 || got[a1] != "keep" {
		t.Fatalf("fork labels = %v, want only the on-path bookmark", got)
	}
}

func TestForkUnknownTarget(t *testing.T) {
	t.Parallel()
	store := newTestStore(t, Options{})
	appendTurn(t, store, "q", "a")

	if _, err := store.Fork("missing", t.TempDir()); errors.CategoryOf(err) != errors.CategoryInvalidInput {
		t.Fatalf("category = %s, want invalid_input", errors.CategoryOf(err))
	}
}

func TestForkFileWithUnreadableHeaderIsAnEmptySource(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "broken.jsonl")
	testutil.WriteSessionLines(t, path, "not json at all")

	_, err := ForkFile(path, "anything", "", Options{})
	if errors.CategoryOf(err) != errors.CategoryEmptySource {
		t.Fatalf("category = %s, want empty_source", errors.CategoryOf(err))
	}
}
