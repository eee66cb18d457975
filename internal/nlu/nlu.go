// Package nlu is the boundary to the natural-language-understanding model.
// The model is an untrusted, fallible collaborator: its output is structured
// data that downstream validation re-verifies in full, and any failure here
// degrades to the unknown action rather than propagating.
package nlu

import "context"

// RawIntent is the resolver's loose output shape before decoding.
type RawIntent struct {
	Action  string         `json:"action"`
	Filters map[string]any `json:"filters"`
}

// Context is the session-derived disambiguation context handed to the
// resolver: prior raw queries and resolved default parameters.
type Context struct {
	History  []string
	Defaults map[string]string
}

// Resolver turns free text into a structured intent.
type Resolver interface {
	Resolve(ctx context.Context, text string, sctx Context) (RawIntent, error)
}

// ResolutionError wraps any transport or parse failure at the model
// boundary. Callers absorb it into the unknown action.
type ResolutionError struct {
	Err error
}

func (e *ResolutionError) Error() string { return "intent resolution failed: " + e.Err.Error() }
func (e *ResolutionError) Unwrap() error { return e.Err }
