// Package metadata is the boundary to the external descriptor store: an
// opaque id -> string map written exactly once at mint time. Only the
// interface is owned here; the in-memory implementation serves development
// and tests.
package metadata

import (
	"context"
	"sync"

	"curio/pkg/domain"
	"curio/pkg/platform/sentinel"
)

// Store maps item ids to their immutable descriptors.
type Store interface {
	// Set records the descriptor for a freshly minted id. Returns
	// sentinel.ErrConflict when the id already has one; descriptors are
	// immutable.
	Set(ctx context.Context, id domain.ItemID, descriptor string) error
	// Get returns sentinel.ErrNotFound for ids without a descriptor.
	Get(ctx context.Context, id domain.ItemID) (string, error)
}

// InMemoryStore is the default Store.
type InMemoryStore struct {
	mu          sync.RWMutex
	descriptors map[domain.ItemID]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{descriptors: make(map[domain.ItemID]string)}
}

func (s *InMemoryStore) Set(_ context.Context, id domain.ItemID, descriptor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.descriptors[id]; ok {
		return sentinel.ErrConflict
	}
	s.descriptors[id] = descriptor
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.ItemID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.descriptors[id]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return d, nil
}
