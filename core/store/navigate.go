package store

import (
	"context"

	"github.com/davidahmann/loom/core/errors"
	"github.com/davidahmann/loom/core/hooks"
	"github.com/davidahmann/loom/core/navigate"
	"github.com/davidahmann/loom/core/replay"
	"github.com/davidahmann/loom/core/schema"
)

// NavigateResult reports where a jump landed and what the caller should do
// with it.
type NavigateResult struct {
	// NewLeaf is the active position after the jump; empty means the root.
	NewLeaf string
	// Context is rebuilt for the new leaf.
	Context replay.Context
	// EditText and Retype carry the rewind-and-retype behavior: jumping to
	// a user message rewinds to its parent and hands the text back for
	// editing instead of replaying the message.
	EditText string
	Retype   bool
	// BranchSummaryID is the appended branch summary's id, empty when no
	// summary was requested or nothing was abandoned.
	BranchSummaryID string
}

// Navigate moves the leaf to targetID. With summarize set, the entries the
// jump abandons are summarized and the summary is appended at the new
// position as a branch summary entry, which then becomes the leaf. The
// BeforeSwitch hook can veto the jump; nothing is appended or moved on a
// veto, an error, or a cancellation.
func (s *Store) Navigate(ctx context.Context, targetID string, summarize bool) (NavigateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	leaf, _ := s.index.Leaf()
	plan, err := navigate.Compute(s.index, leaf, targetID)
	if err != nil {
		return NavigateResult{}, err
	}

	event := hooks.SwitchEvent{
		SessionID: s.log.Header().ID,
		FromLeaf:  leaf,
		ToLeaf:    plan.NewLeafID,
		TargetID:  targetID,
	}
	decision, err := s.hooks.BeforeSwitch(ctx, event)
	if err != nil {
		return NavigateResult{}, err
	}
	if decision.Cancel {
		return NavigateResult{}, errors.New(
			"switch cancelled: "+decision.Reason,
			errors.CategoryCancelled, "switch_cancelled", "")
	}

	result := NavigateResult{
		NewLeaf:  plan.NewLeafID,
		EditText: plan.EditText,
		Retype:   plan.Retype,
	}

	if summarize && len(plan.Abandoned) > 0 {
		treeEvent := hooks.TreeEvent{
			SessionID: event.SessionID,
			FromID:    leaf,
			Abandoned: plan.Abandoned,
		}
		treeDecision, err := s.hooks.BeforeTree(ctx, treeEvent)
		if err != nil {
			return NavigateResult{}, err
		}
		var summary string
		if treeDecision.OverrideSummary != nil {
			summary = *treeDecision.OverrideSummary
		} else {
			summary, err = s.engine.SummarizeBranch(ctx, plan.Abandoned)
			if err != nil {
				return NavigateResult{}, err
			}
		}
		if err := ctx.Err(); err != nil {
			return NavigateResult{}, errors.Wrap(err, errors.CategoryCancelled, "switch_cancelled", "", false)
		}

		// The summary is appended at the destination, so it rides the new
		// branch and becomes the leaf there.
		entry := schema.Entry{
			Type:     schema.KindBranchSummary,
			Summary:  summary,
			FromID:   leaf,
			ParentID: plan.NewLeafID,
		}
		entry.ID = s.index.GenerateIDFor()
		entry.Timestamp = schema.Now()
		if err := s.log.Append(entry); err != nil {
			return NavigateResult{}, err
		}
		s.index.Add(entry)
		result.BranchSummaryID = entry.ID
		result.NewLeaf = entry.ID
		// The summary is now the real leaf; later hooks see where the jump
		// actually landed, not the pre-summary position.
		event.ToLeaf = entry.ID

		treeEvent.Summary = summary
		if err := s.hooks.AfterTree(ctx, treeEvent); err != nil {
			return result, err
		}
	} else if plan.NewLeafID == "" {
		s.index.ResetLeaf()
	} else {
		s.index.SetLeaf(plan.NewLeafID)
	}

	s.logger.Info("switched branch",
		"session", event.SessionID,
		"from", leaf,
		"to", result.NewLeaf,
		"abandoned", len(plan.Abandoned))

	if err := s.hooks.Switch(ctx, event); err != nil {
		return result, err
	}

	result.Context = replay.BuildContext(s.index, result.NewLeaf)
	return result, nil
}
