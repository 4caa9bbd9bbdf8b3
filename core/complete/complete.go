// Package complete defines the completion collaborator the compaction
// engine and branch navigator use to generate summaries. The core never
// depends on a concrete provider; it calls this interface with a
// cancellable context and treats the result as opaque text.
package complete

import "context"

// Request is one bounded summary generation request.
type Request struct {
	// System frames the task; may be empty.
	System string
	// Prompt is the serialized transcript plus instructions.
	Prompt string
	// MaxOutputTokens bounds the generated summary length.
	MaxOutputTokens int
}

// Client produces a completion for a prompt, honoring ctx cancellation at
// any point before returning.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Func adapts a function to Client; handy in tests and hook overrides.
type Func func(ctx context.Context, req Request) (string, error)

func (f Func) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
