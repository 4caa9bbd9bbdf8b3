// Package navigate computes branch jumps: the common ancestor between the
// current leaf and a target, the entries a jump abandons, and the resulting
// leaf. Pure planning; the store owns summaries, hooks, and the append.
package navigate

import (
	"fmt"

	"github.com/davidahmann/loom/core/errors"
	"github.com/davidahmann/loom/core/schema"
	"github.com/davidahmann/loom/core/tree"
)

// Plan is a computed navigation.
type Plan struct {
	TargetID         string
	CommonAncestorID string
	// NewLeafID is where the leaf lands. Empty means the root: the target
	// was a root user message and its parent is the top of the tree.
	NewLeafID string
	// Abandoned holds, in chronological order, every entry on the old
	// branch that becomes unreachable from the new leaf: the span strictly
	// between the common ancestor and the old leaf, old leaf included.
	Abandoned []*schema.Entry
	// EditText carries the target's text when the target is a user
	// message: re-selecting a prompt is a rewind-and-retype, so the leaf
	// moves to the message's parent and the text goes back to the caller.
	EditText string
	// Retype reports whether EditText applies.
	Retype bool
}

// Compute plans a jump from the current leaf to targetID. A target that
// shares no ancestor with the current path fails with a disjoint_tree
// error and plans nothing.
func Compute(index *tree.Index, currentLeaf, targetID string) (Plan, error) {
	target, ok := index.Get(targetID)
	if !ok {
		return Plan{}, errors.New(
			fmt.Sprintf("navigation target %s not found", targetID),
			errors.CategoryInvalidInput, "unknown_target", "pick an entry id from this session")
	}

	plan := Plan{TargetID: targetID}

	if currentLeaf != "" {
		currentPath := index.Branch(currentLeaf)
		if len(currentPath) == 0 {
			return Plan{}, errors.New(
				fmt.Sprintf("current leaf %s not found", currentLeaf),
				errors.CategoryInternalFailure, "missing_leaf", "")
		}
		onCurrentPath := make(map[string]int, len(currentPath))
		for i, entry := range currentPath {
			onCurrentPath[entry.ID] = i
		}

		// Deepest shared ancestor: scan the target's root path from the
		// target backward and take the first id on the current path.
		ancestorIdx := -1
		for id := targetID; id != ""; {
			if idx, shared := onCurrentPath[id]; shared {
				plan.CommonAncestorID = id
				ancestorIdx = idx
				break
			}
			entry, found := index.Get(id)
			if !found {
				break
			}
			id = entry.ParentID
		}
		if ancestorIdx < 0 {
			return Plan{}, errors.New(
				fmt.Sprintf("target %s shares no ancestor with leaf %s", targetID, currentLeaf),
				errors.CategoryDisjointTree, "disjoint_tree", "the target belongs to a different tree")
		}
		plan.Abandoned = currentPath[ancestorIdx+1:]
	}

	if target.IsMessageRole(schema.RoleUser) {
		plan.NewLeafID = target.ParentID
		plan.EditText = target.Message.TextContent()
		plan.Retype = true
	} else {
		plan.NewLeafID = targetID
	}
	return plan, nil
}
