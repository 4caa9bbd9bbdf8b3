// Package hooks defines the extension points the session store calls around
// navigation, compaction, and branch summarization. Hooks are ordinary
// function calls returning an optional override; the store checks the
// returned decision before appending anything. No dynamic dispatch or plugin
// loading happens here.
package hooks

import (
	"context"

	"github.com/davidahmann/loom/core/schema"
)

// SwitchEvent describes a leaf move the user requested.
type SwitchEvent struct {
	SessionID string
	FromLeaf  string
	ToLeaf    string
	TargetID  string
}

// SwitchDecision can veto a pending switch.
type SwitchDecision struct {
	Cancel bool
	Reason string
}

// CompactEvent describes a compaction about to run or just finished.
type CompactEvent struct {
	SessionID        string
	FirstKeptEntryID string
	TokensBefore     int
	Summary          string
	Entries          []*schema.Entry
}

// CompactDecision can substitute the generated summary wholesale.
type CompactDecision struct {
	// OverrideSummary replaces the engine's summary when non-nil.
	OverrideSummary *string
}

// TreeEvent describes a branch summarization around a navigation.
type TreeEvent struct {
	SessionID string
	FromID    string
	Abandoned []*schema.Entry
	Summary   string
}

// TreeDecision can substitute the generated branch summary.
type TreeDecision struct {
	OverrideSummary *string
}

// Dispatcher receives the store's extension callbacks. Every method may
// return an error, which aborts the surrounding operation before any append.
type Dispatcher interface {
	BeforeSwitch(ctx context.Context, event SwitchEvent) (SwitchDecision, error)
	Switch(ctx context.Context, event SwitchEvent) error
	BeforeCompact(ctx context.Context, event CompactEvent) (CompactDecision, error)
	AfterCompact(ctx context.Context, event CompactEvent) error
	BeforeTree(ctx context.Context, event TreeEvent) (TreeDecision, error)
	AfterTree(ctx context.Context, event TreeEvent) error
}

// Nop is the default dispatcher: every hook approves and overrides nothing.
type Nop struct{}

func (Nop) BeforeSwitch(context.Context, SwitchEvent) (SwitchDecision, error) {
	return SwitchDecision{}, nil
}

func (Nop) Switch(context.Context, SwitchEvent) error {
	return nil
}

func (Nop) BeforeCompact(context.Context, CompactEvent) (CompactDecision, error) {
	return CompactDecision{}, nil
}

func (Nop) AfterCompact(context.Context, CompactEvent) error {
	return nil
}

func (Nop) BeforeTree(context.Context, TreeEvent) (TreeDecision, error) {
	return TreeDecision{}, nil
}

func (Nop) AfterTree(context.Context, TreeEvent) error {
	return nil
}
