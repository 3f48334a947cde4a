package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"conveyo/internal/audit"
	id "conveyo/pkg/domain"
	txcontext "conveyo/pkg/platform/tx"
)

// Store implements audit.Store on Postgres using a transactional outbox.
// The event row is written in the same transaction as the aggregate save;
// a relay publishes outbox rows to Kafka after commit.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append inserts the audit event and a matching outbox row. Events carry a
// monotonically increasing per-reservation sequence; the child table is never
// updated or deleted.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	var data []byte
	if event.Data != nil {
		if data, err = json.Marshal(event.Data); err != nil {
			return fmt.Errorf("marshal audit data: %w", err)
		}
	}

	eventID := uuid.New()
	exec := s.execer(ctx)

	const insertEvent = `
		INSERT INTO legal_audit_events (
			id, reservation_id, seq, event, description, data, source, timestamp
		)
		VALUES (
			$1, $2,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM legal_audit_events WHERE reservation_id = $2),
			$3, $4, $5, $6, $7
		)
	`
	if _, err := exec.ExecContext(ctx, insertEvent,
		eventID,
		uuid.UUID(event.ReservationID),
		string(event.Event),
		event.Description,
		data,
		string(event.Source),
		event.Timestamp,
	); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	const insertOutbox = `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := exec.ExecContext(ctx, insertOutbox,
		uuid.New(),
		"legal_reservation",
		uuid.UUID(event.ReservationID),
		string(event.Event),
		payload,
		time.Now(),
	); err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// PendingOutbox returns unpublished outbox entries oldest first.
func (s *Store) PendingOutbox(ctx context.Context, limit int) ([]audit.OutboxEntry, error) {
	const query = `
		SELECT id, aggregate_id, event_type, payload
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []audit.OutboxEntry
	for rows.Next() {
		var entry audit.OutboxEntry
		if err := rows.Scan(&entry.ID, &entry.AggregateID, &entry.EventType, &entry.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}

// MarkPublished stamps the given outbox entries as delivered.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `UPDATE outbox SET published_at = $1 WHERE id = ANY($2)`
	if _, err := s.db.ExecContext(ctx, query, time.Now(), pq.Array(ids)); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

// ListByReservation returns the reservation's trail in append order.
func (s *Store) ListByReservation(ctx context.Context, reservationID id.ReservationID) ([]audit.Event, error) {
	const query = `
		SELECT event, description, data, source, timestamp
		FROM legal_audit_events
		WHERE reservation_id = $1
		ORDER BY seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(reservationID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		event := audit.Event{ReservationID: reservationID}
		var (
			name   string
			source string
			data   []byte
		)
		if err := rows.Scan(&name, &event.Description, &data, &source, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Event = audit.EventName(name)
		event.Source = audit.Source(source)
		if len(data) > 0 {
			if err := json.Unmarshal(data, &event.Data); err != nil {
				return nil, fmt.Errorf("unmarshal audit data: %w", err)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
