package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	queries     []string
	defaults    map[string]string
	lastTouched time.Time
}

// MemoryStore is the in-process Store backend: mutex-guarded maps keyed by
// session id.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	expiry  time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a MemoryStore. A non-positive expiry falls back to
// DefaultExpiry.
func NewMemoryStore(expiry time.Duration) *MemoryStore {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		expiry:  expiry,
		now:     time.Now,
	}
}

func (s *MemoryStore) Append(ctx context.Context, sessionID, query string) error {
	if sessionID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entries[sessionID]
	if entry == nil {
		entry = &memoryEntry{defaults: make(map[string]string)}
		s.entries[sessionID] = entry
	}
	entry.queries = append(entry.queries, query)
	entry.lastTouched = s.now()
	return nil
}

func (s *MemoryStore) History(ctx context.Context, sessionID string, max int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired()

	entry := s.entries[sessionID]
	if entry == nil {
		return nil, nil
	}

	queries := entry.queries
	if max > 0 && len(queries) > max {
		queries = queries[len(queries)-max:]
	}
	out := make([]string, len(queries))
	copy(out, queries)
	return out, nil
}

func (s *MemoryStore) Defaults(ctx context.Context, sessionID string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired()

	entry := s.entries[sessionID]
	if entry == nil {
		return nil, nil
	}
	out := make(map[string]string, len(entry.defaults))
	for k, v := range entry.defaults {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) MergeDefaults(ctx context.Context, sessionID string, partial map[string]string) error {
	if sessionID == "" || len(partial) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entries[sessionID]
	if entry == nil {
		entry = &memoryEntry{defaults: make(map[string]string)}
		s.entries[sessionID] = entry
	}
	for k, v := range partial {
		entry.defaults[k] = v
	}
	entry.lastTouched = s.now()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// purgeExpired removes sessions idle past the expiry window. Callers must
// hold the mutex.
func (s *MemoryStore) purgeExpired() {
	cutoff := s.now().Add(-s.expiry)
	for id, entry := range s.entries {
		if entry.lastTouched.Before(cutoff) {
			delete(s.entries, id)
		}
	}
}
