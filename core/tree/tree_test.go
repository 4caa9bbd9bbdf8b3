package tree

import (
	"testing"

	"github.com/davidahmann/loom/core/schema"
)

func entry(id, parentID string) schema.Entry {
	return schema.Entry{
		Type:      schema.KindMessage,
		ID:        id,
		ParentID:  parentID,
		Timestamp: "t",
		Message:   schema.TextMessage(schema.RoleUser, "content of "+id),
	}
}

func TestBuildIndexesParentsAndChildren(t *testing.T) {
	index := Build([]schema.Entry{
		entry("a", ""),
		entry("b", "a"),
		entry("c1", "b"),
		entry("c2", "b"),
	})
	if index.Len() != 4 {
		t.Fatalf("unexpected entry count: %d", index.Len())
	}
	if _, ok := index.Get("c1"); !ok {
		t.Fatal("expected c1 to be indexed")
	}
	children := index.Children("b")
	if len(children) != 2 || children[0] != "c1" || children[1] != "c2" {
		t.Fatalf("unexpected children of b: %v", children)
	}
	roots := index.Children("")
	if len(roots) != 1 || roots[0] != "a" {
		t.Fatalf("unexpected roots: %v", roots)
	}
}

func TestBranchReturnsRootToIDPath(t *testing.T) {
	index := Build([]schema.Entry{
		entry("a", ""),
		entry("b", "a"),
		entry("c1", "b"),
		entry("c2", "b"),
	})
	path := index.Branch("c2")
	if len(path) != 3 {
		t.Fatalf("unexpected path length: %d", len(path))
	}
	for i, want := range []string{"a", "b", "c2"} {
		if path[i].ID != want {
			t.Fatalf("path[%d]=%s want %s", i, path[i].ID, want)
		}
	}
	if index.Branch("missing") != nil {
		t.Fatal("expected nil path for unknown id")
	}
}

func TestLeafDefaultsToMostRecentlyAppended(t *testing.T) {
	index := Build([]schema.Entry{entry("a", ""), entry("b", "a")})
	leaf, ok := index.Leaf()
	if !ok || leaf != "b" {
		t.Fatalf("unexpected default leaf: %s ok=%v", leaf, ok)
	}
	index.Add(entry("c", "b"))
	leaf, _ = index.Leaf()
	if leaf != "c" {
		t.Fatalf("leaf must follow appends: %s", leaf)
	}
}

func TestSetLeafFallsBackToNewestWhenMissing(t *testing.T) {
	index := Build([]schema.Entry{entry("a", ""), entry("b", "a")})
	if recovered := index.SetLeaf("a"); recovered {
		t.Fatal("known id must not report recovery")
	}
	if leaf, _ := index.Leaf(); leaf != "a" {
		t.Fatalf("unexpected leaf: %s", leaf)
	}

	if recovered := index.SetLeaf("lost"); !recovered {
		t.Fatal("missing id must fall back and report recovery")
	}
	if leaf, _ := index.Leaf(); leaf != "b" {
		t.Fatalf("fallback leaf must be newest entry, got %s", leaf)
	}
	if !index.LeafRecovered() {
		t.Fatal("recovery flag must stick until the next leaf move")
	}

	index.ResetLeaf()
	if _, ok := index.Leaf(); ok {
		t.Fatal("reset leaf must clear the active position")
	}
	if index.LeafRecovered() {
		t.Fatal("reset must clear the recovery flag")
	}
}

func TestGenerateIDAvoidsCollisions(t *testing.T) {
	existing := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		id := GenerateID(existing)
		if id == "" {
			t.Fatal("empty id generated")
		}
		if _, taken := existing[id]; taken {
			t.Fatalf("generated colliding id %s", id)
		}
		if len(id) != idLength && len(id) != idWideLength {
			t.Fatalf("unexpected id width: %q", id)
		}
		existing[id] = struct{}{}
	}
}

func TestGenerateIDForSkipsIndexedIDs(t *testing.T) {
	index := Build([]schema.Entry{entry("a", "")})
	id := index.GenerateIDFor()
	if id == "a" || id == "" {
		t.Fatalf("unexpected generated id: %q", id)
	}
}
