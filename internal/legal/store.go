package legal

import (
	"context"
	"time"

	id "conveyo/pkg/domain"
)

// Store is the persistence contract for LegalReservation aggregates.
//
// Save performs an optimistic version check: it fails with
// sentinel.ErrVersionMismatch when the stored RecordVersion differs from the
// one the aggregate was loaded with, and bumps RecordVersion on success.
// Load returns sentinel.ErrNotFound for unknown ids.
type Store interface {
	Create(ctx context.Context, reservation *LegalReservation) error
	Load(ctx context.Context, reservationID id.ReservationID) (*LegalReservation, error)
	Save(ctx context.Context, reservation *LegalReservation) error

	// ListExpired returns reservations whose expiry has passed without the
	// reservation becoming legally bound. Used by the expiry sweeper.
	ListExpired(ctx context.Context, now time.Time) ([]*LegalReservation, error)

	// RunInTx executes fn within the store's transaction boundary so an
	// aggregate save and its audit append commit or roll back together.
	// In-memory implementations run fn directly.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
