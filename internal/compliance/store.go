package compliance

import (
	"context"
	"sync"
	"time"

	id "conveyo/pkg/domain"
)

// Store holds the per-reservation compliance record. Get returns a zero
// record (nothing verified, nothing consented) for unknown reservations so
// the gate fails closed.
type Store interface {
	Get(ctx context.Context, reservationID id.ReservationID) (Record, error)
	Put(ctx context.Context, record Record) error
}

// InMemoryStore keeps compliance records in a map.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.ReservationID]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.ReservationID]Record)}
}

func (s *InMemoryStore) Get(_ context.Context, reservationID id.ReservationID) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[reservationID]
	if !ok {
		return Record{ReservationID: reservationID}, nil
	}
	return record, nil
}

func (s *InMemoryStore) Put(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.UpdatedAt = time.Now()
	s.records[record.ReservationID] = record
	return nil
}
