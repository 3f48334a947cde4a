package legal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	id "conveyo/pkg/domain"
	"conveyo/pkg/platform/sentinel"
	"conveyo/pkg/platform/tx"
)

// PostgresStore persists reservations in PostgreSQL. Sub-documents
// (terms, solicitor, contract, deposit projection) are stored as JSONB;
// the columns that drive queries and the optimistic check are relational.
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
func (s *PostgresStore) runner(ctx context.Context) execer {
	if txn, ok := tx.From(ctx); ok {
		return txn
	}
	return s.db
}

const reservationColumns = `id, unit_id, buyer_id, transaction_id, status, legal_stage,
	deposit, terms_accepted, solicitor, contract,
	created_at, updated_at, expires_at, completion_date, executed_at, record_version`

func (s *PostgresStore) Create(ctx context.Context, reservation *LegalReservation) error {
	docs, err := encodeDocs(reservation)
	if err != nil {
		return err
	}
	reservation.RecordVersion = 1
	_, err = s.runner(ctx).ExecContext(ctx, `
		INSERT INTO legal_reservations (`+reservationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		reservation.ID.String(),
		reservation.UnitID.String(),
		reservation.BuyerID.String(),
		nullString(reservation.TransactionID),
		string(reservation.Status),
		nullString(string(reservation.LegalStage)),
		docs.deposit, docs.terms, docs.solicitor, docs.contract,
		reservation.CreatedAt,
		reservation.UpdatedAt,
		nullTime(reservation.ExpiresAt),
		nullTime(reservation.CompletionDate),
		nullTime(reservation.ExecutedAt),
		reservation.RecordVersion,
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, reservationID id.ReservationID) (*LegalReservation, error) {
	row := s.runner(ctx).QueryRowContext(ctx, `
		SELECT `+reservationColumns+`
		FROM legal_reservations
		WHERE id = $1`, reservationID.String())
	return scanReservation(row)
}

func (s *PostgresStore) Save(ctx context.Context, reservation *LegalReservation) error {
	docs, err := encodeDocs(reservation)
	if err != nil {
		return err
	}
	result, err := s.runner(ctx).ExecContext(ctx, `
		UPDATE legal_reservations
		SET status = $2, legal_stage = $3, transaction_id = $4,
		    deposit = $5, terms_accepted = $6, solicitor = $7, contract = $8,
		    updated_at = $9, expires_at = $10, completion_date = $11, executed_at = $12,
		    record_version = record_version + 1
		WHERE id = $1 AND record_version = $13`,
		reservation.ID.String(),
		string(reservation.Status),
		nullString(string(reservation.LegalStage)),
		nullString(reservation.TransactionID),
		docs.deposit, docs.terms, docs.solicitor, docs.contract,
		reservation.UpdatedAt,
		nullTime(reservation.ExpiresAt),
		nullTime(reservation.CompletionDate),
		nullTime(reservation.ExecutedAt),
		reservation.RecordVersion,
	)
	if err != nil {
		return fmt.Errorf("save reservation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save reservation: %w", err)
	}
	if affected == 0 {
		// Either the row is gone or someone saved a newer version first.
		var exists bool
		if err := s.runner(ctx).QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM legal_reservations WHERE id = $1)`,
			reservation.ID.String()).Scan(&exists); err != nil {
			return fmt.Errorf("save reservation: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrVersionMismatch
	}
	reservation.RecordVersion++
	return nil
}

func (s *PostgresStore) ListExpired(ctx context.Context, now time.Time) ([]*LegalReservation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reservationColumns+`
		FROM legal_reservations
		WHERE expires_at IS NOT NULL
		  AND expires_at < $1
		  AND status NOT IN ('LEGALLY_BOUND', 'COMPLETED', 'CANCELLED')
		ORDER BY expires_at`, now)
	if err != nil {
		return nil, fmt.Errorf("list expired reservations: %w", err)
	}
	defer rows.Close()

	var expired []*LegalReservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		expired = append(expired, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expired reservations: %w", err)
	}
	return expired, nil
}

func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return tx.Run(ctx, s.db, fn)
}

type reservationDocs struct {
	deposit   []byte
	terms     []byte
	solicitor []byte
	contract  []byte
}

func encodeDocs(reservation *LegalReservation) (*reservationDocs, error) {
	docs := &reservationDocs{}
	var err error
	if docs.deposit, err = json.Marshal(reservation.Deposit); err != nil {
		return nil, fmt.Errorf("encode deposit projection: %w", err)
	}
	if docs.terms, err = json.Marshal(reservation.TermsAccepted); err != nil {
		return nil, fmt.Errorf("encode terms acceptance: %w", err)
	}
	if reservation.Solicitor != nil {
		if docs.solicitor, err = json.Marshal(reservation.Solicitor); err != nil {
			return nil, fmt.Errorf("encode solicitor: %w", err)
		}
	}
	if reservation.Contract != nil {
		if docs.contract, err = json.Marshal(reservation.Contract); err != nil {
			return nil, fmt.Errorf("encode contract: %w", err)
		}
	}
	return docs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*LegalReservation, error) {
	reservation := &LegalReservation{}
	var (
		rawID, rawUnit, rawBuyer          string
		transactionID, legalStage         sql.NullString
		status                            string
		deposit, terms                    []byte
		solicitor, contract               []byte
		expiresAt, completion, executedAt sql.NullTime
	)
	err := row.Scan(
		&rawID, &rawUnit, &rawBuyer, &transactionID, &status, &legalStage,
		&deposit, &terms, &solicitor, &contract,
		&reservation.CreatedAt, &reservation.UpdatedAt,
		&expiresAt, &completion, &executedAt,
		&reservation.RecordVersion,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan reservation: %w", err)
	}

	if reservation.ID, err = id.ParseReservationID(rawID); err != nil {
		return nil, fmt.Errorf("decode reservation id: %w", err)
	}
	if reservation.UnitID, err = id.ParseUnitID(rawUnit); err != nil {
		return nil, fmt.Errorf("decode unit id: %w", err)
	}
	if reservation.BuyerID, err = id.ParseBuyerID(rawBuyer); err != nil {
		return nil, fmt.Errorf("decode buyer id: %w", err)
	}
	reservation.Status = LegalTransactionStatus(status)
	if transactionID.Valid {
		reservation.TransactionID = transactionID.String
	}
	if legalStage.Valid {
		reservation.LegalStage = ContractStage(legalStage.String)
	}
	if len(deposit) > 0 {
		if err := json.Unmarshal(deposit, &reservation.Deposit); err != nil {
			return nil, fmt.Errorf("decode deposit projection: %w", err)
		}
	}
	if len(terms) > 0 {
		if err := json.Unmarshal(terms, &reservation.TermsAccepted); err != nil {
			return nil, fmt.Errorf("decode terms acceptance: %w", err)
		}
	}
	if len(solicitor) > 0 {
		reservation.Solicitor = &Solicitor{}
		if err := json.Unmarshal(solicitor, reservation.Solicitor); err != nil {
			return nil, fmt.Errorf("decode solicitor: %w", err)
		}
	}
	if len(contract) > 0 {
		reservation.Contract = &Contract{}
		if err := json.Unmarshal(contract, reservation.Contract); err != nil {
			return nil, fmt.Errorf("decode contract: %w", err)
		}
	}
	if expiresAt.Valid {
		reservation.ExpiresAt = &expiresAt.Time
	}
	if completion.Valid {
		reservation.CompletionDate = &completion.Time
	}
	if executedAt.Valid {
		reservation.ExecutedAt = &executedAt.Time
	}
	return reservation, nil
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}
