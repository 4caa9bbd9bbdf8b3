package store

import (
	"context"

	"github.com/davidahmann/loom/core/compaction"
	"github.com/davidahmann/loom/core/errors"
	"github.com/davidahmann/loom/core/hooks"
	"github.com/davidahmann/loom/core/schema"
)

// ShouldCompact reports whether the current leaf's context has crossed the
// compaction trigger.
func (s *Store) ShouldCompact() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	leaf, ok := s.index.Leaf()
	if !ok {
		return false
	}
	return s.engine.ShouldCompact(s.index.Branch(leaf))
}

// MaybeCompact compacts only when the trigger has fired. compacted is false
// when nothing needed doing.
func (s *Store) MaybeCompact(ctx context.Context) (compacted bool, err error) {
	if !s.ShouldCompact() {
		return false, nil
	}
	return s.Compact(ctx)
}

// Compact summarizes history below the selected cut and appends one
// compaction entry at the leaf, which becomes the new leaf. Hooks run
// around the operation and may substitute the summary; a cancellation at
// any point before the append leaves the session untouched.
func (s *Store) Compact(ctx context.Context) (compacted bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	leaf, ok := s.index.Leaf()
	if !ok {
		return false, nil
	}
	path := s.index.Branch(leaf)
	plan, ok := s.engine.PlanFor(path)
	if !ok {
		return false, nil
	}

	event := hooks.CompactEvent{
		SessionID:        s.log.Header().ID,
		FirstKeptEntryID: plan.Cut.EntryID,
		TokensBefore:     plan.TokensBefore,
		Entries:          plan.Dropped,
	}
	decision, err := s.hooks.BeforeCompact(ctx, event)
	if err != nil {
		return false, err
	}

	var summary string
	if decision.OverrideSummary != nil {
		summary = *decision.OverrideSummary
	} else {
		summary, err = s.engine.Summarize(ctx, plan)
		if err != nil {
			return false, err
		}
	}
	if err := ctx.Err(); err != nil {
		return false, errors.Wrap(err, errors.CategoryCancelled, "compaction_cancelled", "", false)
	}

	entry := schema.Entry{
		Type:             schema.KindCompaction,
		Summary:          summary,
		FirstKeptEntryID: plan.Cut.EntryID,
		TokensBefore:     plan.TokensBefore,
	}
	id, err := s.append(entry)
	if err != nil {
		return false, err
	}
	s.logger.Info("compacted session",
		"session", event.SessionID,
		"entry", id,
		"firstKept", plan.Cut.EntryID,
		"tokensBefore", plan.TokensBefore,
		"dropped", len(plan.Dropped))

	event.Summary = summary
	if err := s.hooks.AfterCompact(ctx, event); err != nil {
		return true, err
	}
	return true, nil
}

// Engine exposes the compaction engine for callers that plan without
// appending, such as dry-run tooling.
func (s *Store) Engine() *compaction.Engine {
	return s.engine
}
