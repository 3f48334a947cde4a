package compliance

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	id "conveyo/pkg/domain"
	"conveyo/pkg/platform/tx"
)

// PostgresStore persists compliance records in PostgreSQL. The record is a
// single JSONB document keyed by reservation; the gate only ever reads the
// whole record.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// runner returns the ambient transaction when one is open, else the pool.
// Gate checks run inside legal command transactions and must see their reads
// at the same isolation as the reservation itself.
func (s *PostgresStore) runner(ctx context.Context) execer {
	if txn, ok := tx.From(ctx); ok {
		return txn
	}
	return s.db
}

func (s *PostgresStore) Get(ctx context.Context, reservationID id.ReservationID) (Record, error) {
	var (
		doc       []byte
		updatedAt time.Time
	)
	err := s.runner(ctx).QueryRowContext(ctx, `
		SELECT record, updated_at
		FROM compliance_records
		WHERE reservation_id = $1`, reservationID.String()).Scan(&doc, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{ReservationID: reservationID}, nil
		}
		return Record{}, fmt.Errorf("load compliance record: %w", err)
	}

	var record Record
	if err := json.Unmarshal(doc, &record); err != nil {
		return Record{}, fmt.Errorf("decode compliance record: %w", err)
	}
	record.ReservationID = reservationID
	record.UpdatedAt = updatedAt
	return record, nil
}

func (s *PostgresStore) Put(ctx context.Context, record Record) error {
	record.UpdatedAt = time.Now()
	doc, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode compliance record: %w", err)
	}
	_, err = s.runner(ctx).ExecContext(ctx, `
		INSERT INTO compliance_records (reservation_id, record, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (reservation_id)
		DO UPDATE SET record = EXCLUDED.record, updated_at = EXCLUDED.updated_at`,
		record.ReservationID.String(), doc, record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save compliance record: %w", err)
	}
	return nil
}
