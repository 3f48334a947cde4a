package audit

import (
	"context"

	id "conveyo/pkg/domain"
)

// Store is the append-only sink behind the publisher. Events are never
// updated or deleted.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByReservation(ctx context.Context, reservationID id.ReservationID) ([]Event, error)
}
