package otc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"graminsetu/pkg/platform/sentinel"
	"graminsetu/pkg/requestcontext"
)

type entry struct {
	code      string
	expiresAt time.Time
}

// InMemoryStore keeps code entries in a process-local map. This is the
// default for single-instance deployments; distributed setups use the
// Redis store behind the same interface.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
}

// NewInMemoryStore constructs an empty in-memory code store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]entry)}
}

func (s *InMemoryStore) Put(_ context.Context, key, code string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{code: code, expiresAt: expiresAt}
	return nil
}

// CompareAndDelete implements the single-use verify under one lock so a
// code is consumed at most once. Expiry is checked lazily here; there is
// no background sweeper.
func (s *InMemoryStore) CompareAndDelete(ctx context.Context, key, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return fmt.Errorf("code entry not found: %w", sentinel.ErrNotFound)
	}
	if requestcontext.Now(ctx).After(e.expiresAt) {
		delete(s.entries, key)
		return fmt.Errorf("code entry expired: %w", sentinel.ErrExpired)
	}
	if e.code != code {
		// Entry is kept so the caller can retry with the right code.
		return fmt.Errorf("code does not match: %w", sentinel.ErrMismatch)
	}
	delete(s.entries, key)
	return nil
}
