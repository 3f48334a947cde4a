package audit

import (
	"context"
	"time"

	id "conveyo/pkg/domain"
)

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
//
// Emission is fail-closed: the legal engine appends the event inside the same
// transaction as the aggregate save, so a command either fully persists with
// its audit entry or not at all.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Source == "" {
		event.Source = SourceSystem
	}
	return p.store.Append(ctx, event)
}

func (p *Publisher) List(ctx context.Context, reservationID id.ReservationID) ([]Event, error) {
	return p.store.ListByReservation(ctx, reservationID)
}
