package escrow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	id "conveyo/pkg/domain"
	"conveyo/pkg/platform/sentinel"
)

// PostgresStore persists deposits and escrow accounts in PostgreSQL.
// Deposit transitions and account balance recomputation share one
// transaction so the ledger never observes a stale balance.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgreSQL-backed escrow store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const depositColumns = `id, reservation_id, amount, currency, status, method, reference, account_id, audit_log, paid_at, updated_at`

func (s *PostgresStore) CreateDeposit(ctx context.Context, deposit *Deposit) error {
	if deposit == nil {
		return fmt.Errorf("deposit is required")
	}
	auditLog, err := json.Marshal(deposit.AuditLog)
	if err != nil {
		return fmt.Errorf("encode deposit audit log: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create deposit: %w", err)
	}
	defer tx.Rollback(ctx)

	var live bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM escrow_deposits
			WHERE reservation_id = $1
			  AND status NOT IN ('RELEASED', 'REFUNDED', 'FORFEITED')
		)`, deposit.ReservationID.String()).Scan(&live)
	if err != nil {
		return fmt.Errorf("check live deposit: %w", err)
	}
	if live {
		return sentinel.ErrConflict
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO escrow_deposits (`+depositColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		deposit.ID.String(),
		deposit.ReservationID.String(),
		deposit.Amount,
		deposit.Currency,
		string(deposit.Status),
		string(deposit.Method),
		deposit.Reference,
		accountIDOrNil(deposit.AccountID),
		auditLog,
		deposit.PaidAt,
		deposit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert deposit: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) GetDeposit(ctx context.Context, depositID id.DepositID) (*Deposit, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+depositColumns+`
		FROM escrow_deposits
		WHERE id = $1`, depositID.String())
	return scanDeposit(row)
}

func (s *PostgresStore) GetDepositByReservation(ctx context.Context, reservationID id.ReservationID) (*Deposit, error) {
	// Prefer the live deposit; fall back to the most recent terminal one.
	row := s.pool.QueryRow(ctx, `
		SELECT `+depositColumns+`
		FROM escrow_deposits
		WHERE reservation_id = $1
		ORDER BY (status NOT IN ('RELEASED', 'REFUNDED', 'FORFEITED')) DESC, updated_at DESC
		LIMIT 1`, reservationID.String())
	return scanDeposit(row)
}

func (s *PostgresStore) UpdateDeposit(ctx context.Context, deposit *Deposit) error {
	if deposit == nil {
		return fmt.Errorf("deposit is required")
	}
	auditLog, err := json.Marshal(deposit.AuditLog)
	if err != nil {
		return fmt.Errorf("encode deposit audit log: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update deposit: %w", err)
	}
	defer tx.Rollback(ctx)

	var previousAccount *string
	err = tx.QueryRow(ctx, `
		SELECT account_id FROM escrow_deposits WHERE id = $1 FOR UPDATE`,
		deposit.ID.String()).Scan(&previousAccount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("lock deposit: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE escrow_deposits
		SET status = $2, account_id = $3, audit_log = $4, updated_at = $5
		WHERE id = $1`,
		deposit.ID.String(),
		string(deposit.Status),
		accountIDOrNil(deposit.AccountID),
		auditLog,
		deposit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update deposit: %w", err)
	}

	for _, account := range affectedAccounts(previousAccount, deposit.AccountID) {
		if err := recomputeBalance(ctx, tx, account, deposit.UpdatedAt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) CreateAccount(ctx context.Context, account *Account) error {
	if account == nil {
		return fmt.Errorf("account is required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO escrow_accounts (id, firm_name, iban, total_balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		account.ID.String(),
		account.FirmName,
		account.IBAN,
		account.TotalBalance,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert escrow account: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAccount(ctx context.Context, accountID id.EscrowAccountID) (*Account, error) {
	account := &Account{}
	var rawID string
	err := s.pool.QueryRow(ctx, `
		SELECT id, firm_name, iban, total_balance, created_at, updated_at
		FROM escrow_accounts
		WHERE id = $1`, accountID.String()).Scan(
		&rawID,
		&account.FirmName,
		&account.IBAN,
		&account.TotalBalance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get escrow account: %w", err)
	}
	account.ID, err = id.ParseEscrowAccountID(rawID)
	if err != nil {
		return nil, fmt.Errorf("decode escrow account id: %w", err)
	}
	return account, nil
}

func recomputeBalance(ctx context.Context, tx pgx.Tx, accountID string, updatedAt any) error {
	_, err := tx.Exec(ctx, `
		UPDATE escrow_accounts
		SET total_balance = COALESCE((
			SELECT SUM(amount) FROM escrow_deposits
			WHERE account_id = $1
			  AND status IN ('HELD_IN_ESCROW', 'NON_REFUNDABLE')
		), 0),
		    updated_at = $2
		WHERE id = $1`, accountID, updatedAt)
	if err != nil {
		return fmt.Errorf("recompute account balance: %w", err)
	}
	return nil
}

func affectedAccounts(previous *string, current *id.EscrowAccountID) []string {
	accounts := make([]string, 0, 2)
	if previous != nil {
		accounts = append(accounts, *previous)
	}
	if current != nil && (previous == nil || *previous != current.String()) {
		accounts = append(accounts, current.String())
	}
	return accounts
}

func accountIDOrNil(accountID *id.EscrowAccountID) any {
	if accountID == nil {
		return nil
	}
	return accountID.String()
}

func scanDeposit(row pgx.Row) (*Deposit, error) {
	deposit := &Deposit{}
	var (
		rawID          string
		rawReservation string
		rawAccount     *string
		status, method string
		auditLog       []byte
	)
	err := row.Scan(
		&rawID,
		&rawReservation,
		&deposit.Amount,
		&deposit.Currency,
		&status,
		&method,
		&deposit.Reference,
		&rawAccount,
		&auditLog,
		&deposit.PaidAt,
		&deposit.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan deposit: %w", err)
	}
	deposit.Status = DepositStatus(status)
	deposit.Method = PaymentMethod(method)
	if deposit.ID, err = id.ParseDepositID(rawID); err != nil {
		return nil, fmt.Errorf("decode deposit id: %w", err)
	}
	if deposit.ReservationID, err = id.ParseReservationID(rawReservation); err != nil {
		return nil, fmt.Errorf("decode reservation id: %w", err)
	}
	if rawAccount != nil {
		accountID, err := id.ParseEscrowAccountID(*rawAccount)
		if err != nil {
			return nil, fmt.Errorf("decode escrow account id: %w", err)
		}
		deposit.AccountID = &accountID
	}
	if len(auditLog) > 0 {
		if err := json.Unmarshal(auditLog, &deposit.AuditLog); err != nil {
			return nil, fmt.Errorf("decode deposit audit log: %w", err)
		}
	}
	return deposit, nil
}
