// Package memory is the in-memory event journal used in development and
// tests.
package memory

import (
	"context"
	"sync"

	"curio/internal/events"
)

type Store struct {
	mu     sync.RWMutex
	events []events.Event
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, e events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *Store) ListByItem(_ context.Context, itemID uint64) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []events.Event
	for _, e := range s.events {
		if e.ItemID == itemID {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns every journaled event in append order.
func (s *Store) All() []events.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]events.Event{}, s.events...)
}
