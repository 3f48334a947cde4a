package legal

import (
	"context"
	"sync"
	"time"

	id "conveyo/pkg/domain"
	"conveyo/pkg/platform/sentinel"
)

// InMemoryStore keeps reservations in a map. Used in tests and local
// development; the optimistic version check mirrors the postgres store.
type InMemoryStore struct {
	mu           sync.RWMutex
	reservations map[id.ReservationID]*LegalReservation
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{reservations: make(map[id.ReservationID]*LegalReservation)}
}

func (s *InMemoryStore) Create(_ context.Context, reservation *LegalReservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reservations[reservation.ID]; exists {
		return sentinel.ErrConflict
	}
	reservation.RecordVersion = 1
	s.reservations[reservation.ID] = cloneReservation(reservation)
	return nil
}

func (s *InMemoryStore) Load(_ context.Context, reservationID id.ReservationID) (*LegalReservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reservation, ok := s.reservations[reservationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneReservation(reservation), nil
}

func (s *InMemoryStore) Save(_ context.Context, reservation *LegalReservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.reservations[reservation.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.RecordVersion != reservation.RecordVersion {
		return sentinel.ErrVersionMismatch
	}
	reservation.RecordVersion++
	s.reservations[reservation.ID] = cloneReservation(reservation)
	return nil
}

func (s *InMemoryStore) ListExpired(_ context.Context, now time.Time) ([]*LegalReservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var expired []*LegalReservation
	for _, reservation := range s.reservations {
		if reservation.Expired(now) {
			expired = append(expired, cloneReservation(reservation))
		}
	}
	return expired, nil
}

func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func cloneReservation(r *LegalReservation) *LegalReservation {
	clone := *r
	clone.ExpiresAt = cloneTime(r.ExpiresAt)
	clone.CompletionDate = cloneTime(r.CompletionDate)
	clone.ExecutedAt = cloneTime(r.ExecutedAt)
	clone.Deposit.PaidAt = cloneTime(r.Deposit.PaidAt)
	clone.TermsAccepted.AcceptedAt = cloneTime(r.TermsAccepted.AcceptedAt)

	if r.Solicitor != nil {
		solicitor := *r.Solicitor
		solicitor.ValidatedAt = cloneTime(r.Solicitor.ValidatedAt)
		clone.Solicitor = &solicitor
	}
	if r.Contract != nil {
		contract := *r.Contract
		contract.Signatures = make([]ContractSignature, len(r.Contract.Signatures))
		for i, sig := range r.Contract.Signatures {
			sig.SignedAt = cloneTime(sig.SignedAt)
			contract.Signatures[i] = sig
		}
		clone.Contract = &contract
	}
	return &clone
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
