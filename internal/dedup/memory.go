// Package dedup implements the shared set of accepted identity keys with
// atomic test-and-insert admission.
package dedup

import (
	"context"
	"sync"

	"github.com/jobsift/jobsift/internal/model"
)

// Ensure MemoryStore implements model.DedupStore.
var _ model.DedupStore = (*MemoryStore)(nil)

// MemoryStore is a process-local dedup set. Used for one-shot runs and
// tests; it provides the same exactly-once admission guarantee as the
// shared backends, but only within a single process.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[model.IdentityKey]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[model.IdentityKey]bool)}
}

func (s *MemoryStore) Admit(_ context.Context, key model.IdentityKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *MemoryStore) IsDuplicate(_ context.Context, key model.IdentityKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[key], nil
}
