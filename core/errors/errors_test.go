package errors

import (
	"context"
	stderrors "errors"
	"testing"
)

func TestWrapRoundTrip(t *testing.T) {
	base := stderrors.New("boom")
	err := Wrap(base, CategoryIOFailure, "append_failed", "check directory permissions", true)
	if err == nil {
		t.Fatal("expected wrapped error")
	}
	if CategoryOf(err) != CategoryIOFailure {
		t.Fatalf("unexpected category: %s", CategoryOf(err))
	}
	if CodeOf(err) != "append_failed" {
		t.Fatalf("unexpected code: %s", CodeOf(err))
	}
	if HintOf(err) != "check directory permissions" {
		t.Fatalf("unexpected hint: %s", HintOf(err))
	}
	if !RetryableOf(err) {
		t.Fatal("expected retryable true")
	}
	if !stderrors.Is(err, base) {
		t.Fatal("expected wrapped error to preserve cause")
	}
}

func TestUnknownErrorDefaults(t *testing.T) {
	err := stderrors.New("plain")
	if CategoryOf(err) != "" {
		t.Fatalf("unexpected category: %s", CategoryOf(err))
	}
	if CodeOf(err) != "" {
		t.Fatalf("unexpected code: %s", CodeOf(err))
	}
	if HintOf(err) != "" {
		t.Fatalf("unexpected hint: %s", HintOf(err))
	}
	if RetryableOf(err) {
		t.Fatal("unexpected retryable true")
	}
}

func TestWrapNilCauseReturnsNil(t *testing.T) {
	if got := Wrap(nil, CategoryInternalFailure, "internal_failure", "retry later", false); got != nil {
		t.Fatalf("expected nil wrapped error, got=%v", got)
	}
}

func TestNewBuildsClassifiedError(t *testing.T) {
	err := New("target shares no ancestor with current leaf", CategoryDisjointTree, "disjoint_tree", "pick a target from this session")
	if CategoryOf(err) != CategoryDisjointTree {
		t.Fatalf("unexpected category: %s", CategoryOf(err))
	}
	if err.Error() != "target shares no ancestor with current leaf" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestIsCancelledMatchesClassifiedAndContextErrors(t *testing.T) {
	if IsCancelled(nil) {
		t.Fatal("nil error must not be cancelled")
	}
	if IsCancelled(stderrors.New("plain")) {
		t.Fatal("plain error must not be cancelled")
	}
	classified := Wrap(stderrors.New("summary aborted"), CategoryCancelled, "compaction_cancelled", "", false)
	if !IsCancelled(classified) {
		t.Fatal("classified cancellation not detected")
	}
	wrapped := Wrap(context.Canceled, CategoryInternalFailure, "internal_failure", "", false)
	if !IsCancelled(wrapped) {
		t.Fatal("context.Canceled cause not detected")
	}
}
