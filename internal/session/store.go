// Package session provides per-session conversational memory: prior query
// text and resolved default parameters, with passive expiry. Expiry is a
// side effect of access, not a scheduled task: every read purges entries
// idle past the window.
package session

import (
	"context"
	"time"
)

// DefaultExpiry is the inactivity window after which a session is purged.
const DefaultExpiry = 24 * time.Hour

// Store is the session-memory contract. Implementations must isolate
// sessions from each other; concurrent updates to the same session follow
// last-writer-wins per field.
type Store interface {
	// Append records one raw query string for a session, creating the
	// session if needed and refreshing its last-touched time.
	Append(ctx context.Context, sessionID, query string) error

	// History returns prior queries oldest to newest. A positive max
	// tail-limits the result. Expired sessions read as empty.
	History(ctx context.Context, sessionID string, max int) ([]string, error)

	// Defaults returns the session's resolved default parameters.
	Defaults(ctx context.Context, sessionID string) (map[string]string, error)

	// MergeDefaults merges partial into the session's defaults. Existing
	// fields survive unless explicitly overwritten.
	MergeDefaults(ctx context.Context, sessionID string, partial map[string]string) error

	// Clear removes a session entirely.
	Clear(ctx context.Context, sessionID string) error

	Close() error
}
