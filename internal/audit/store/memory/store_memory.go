package memory

import (
	"context"
	"sync"

	"conveyo/internal/audit"
	id "conveyo/pkg/domain"
)

// InMemoryStore keeps audit trails keyed by reservation. Used in tests and
// when the engine runs without Postgres.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.ReservationID][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.ReservationID][]audit.Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ReservationID] = append(s.events[event.ReservationID], event)
	return nil
}

func (s *InMemoryStore) ListByReservation(_ context.Context, reservationID id.ReservationID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[reservationID]...), nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.ReservationID][]audit.Event)
}
