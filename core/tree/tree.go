package tree

import (
	"github.com/davidahmann/loom/core/schema"
)

// Index is the in-memory graph over a session's entries: id lookup, parent
// links, and children lists, plus the leaf pointer marking where the next
// entry attaches. Entries arrive in arbitrary tree order; the index never
// nests them, it only keeps id-keyed maps.
type Index struct {
	byID     map[string]*schema.Entry
	children map[string][]string
	order    []string

	leaf          string
	leafRecovered bool
}

// Build constructs the index in one pass and points the leaf at the most
// recently appended entry.
func Build(entries []schema.Entry) *Index {
	index := &Index{
		byID:     make(map[string]*schema.Entry, len(entries)),
		children: make(map[string][]string),
		order:    make([]string, 0, len(entries)),
	}
	for i := range entries {
		entry := entries[i]
		index.add(&entry)
	}
	return index
}

func (x *Index) add(entry *schema.Entry) {
	if entry.ID == "" {
		return
	}
	x.byID[entry.ID] = entry
	x.order = append(x.order, entry.ID)
	x.children[entry.ParentID] = append(x.children[entry.ParentID], entry.ID)
	x.leaf = entry.ID
}

// Add appends one freshly created entry to the index and moves the leaf to
// it.
func (x *Index) Add(entry schema.Entry) {
	x.add(&entry)
	x.leafRecovered = false
}

// Get returns the entry for id.
func (x *Index) Get(id string) (*schema.Entry, bool) {
	entry, ok := x.byID[id]
	return entry, ok
}

// Children returns the ids of the entries parented at id, in append order.
// The root's children are under the empty id.
func (x *Index) Children(id string) []string {
	return x.children[id]
}

// Entries returns every indexed entry in append order.
func (x *Index) Entries() []*schema.Entry {
	out := make([]*schema.Entry, 0, len(x.order))
	for _, id := range x.order {
		out = append(out, x.byID[id])
	}
	return out
}

// Len reports the number of indexed entries.
func (x *Index) Len() int {
	return len(x.order)
}

// Branch returns the root-to-id path by following parent links and
// reversing. An unknown id yields nil.
func (x *Index) Branch(id string) []*schema.Entry {
	var reversed []*schema.Entry
	for id != "" {
		entry, ok := x.byID[id]
		if !ok {
			return nil
		}
		reversed = append(reversed, entry)
		id = entry.ParentID
	}
	path := make([]*schema.Entry, len(reversed))
	for i, entry := range reversed {
		path[len(reversed)-1-i] = entry
	}
	return path
}

// Leaf returns the current leaf id; ok is false when the tree is empty or
// the leaf was reset to the root.
func (x *Index) Leaf() (string, bool) {
	return x.leaf, x.leaf != ""
}

// LeafRecovered reports whether the last SetLeaf fell back to the newest
// entry because the requested id was missing. Recoverable degradation, not
// silent loss: callers should surface it.
func (x *Index) LeafRecovered() bool {
	return x.leafRecovered
}

// SetLeaf points the leaf at id. When id is absent from the index the leaf
// falls back to the most recently appended entry, tolerating a log whose
// designated leaf was lost to corruption; the fallback is reported through
// the return value and LeafRecovered.
func (x *Index) SetLeaf(id string) (recovered bool) {
	if _, ok := x.byID[id]; ok {
		x.leaf = id
		x.leafRecovered = false
		return false
	}
	x.leaf = x.lastID()
	x.leafRecovered = true
	return true
}

// ResetLeaf moves the position to the root: no active leaf, the next entry
// starts a fresh branch from the top.
func (x *Index) ResetLeaf() {
	x.leaf = ""
	x.leafRecovered = false
}

func (x *Index) lastID() string {
	if len(x.order) == 0 {
		return ""
	}
	return x.order[len(x.order)-1]
}
