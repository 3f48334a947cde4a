// Package service implements the escrow deposit ledger: the only component
// permitted to move a deposit's status. Each operation appends to the
// deposit's own audit trail and mirrors a reservation-level audit event.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"conveyo/internal/audit"
	"conveyo/internal/escrow"
	"conveyo/internal/escrow/metrics"
	id "conveyo/pkg/domain"
	dErrors "conveyo/pkg/domain-errors"
	"conveyo/pkg/platform/lock"
	"conveyo/pkg/platform/sentinel"
)

// ReservationGuard supplies cross-component facts about the reservation that
// owns a deposit. Implemented by the legal store; defined here so the ledger
// never imports the state machine.
type ReservationGuard interface {
	IsLegallyBound(ctx context.Context, reservationID id.ReservationID) (bool, error)
}

// Ledger owns escrow deposit lifecycle transitions. Every mutation is
// serialized on the owning reservation via locks, so a transition's
// load-check-update never interleaves with another writer's.
type Ledger struct {
	store   escrow.Store
	guard   ReservationGuard
	locks   lock.Guard
	auditor *audit.Publisher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewLedger(store escrow.Store, guard ReservationGuard, locks lock.Guard, auditor *audit.Publisher, logger *slog.Logger, m *metrics.Metrics) *Ledger {
	return &Ledger{store: store, guard: guard, locks: locks, auditor: auditor, logger: logger, metrics: m}
}

// lockKey namespaces the ledger's locks away from the legal command lock:
// a ledger call nested inside a legal command must not self-deadlock on the
// reservation key.
func lockKey(reservationID id.ReservationID) string {
	return "escrow:" + reservationID.String()
}

// RecordPayment creates a deposit in status PAID from a payment-capture fact.
// Errors: CodeDuplicatePayment when a non-terminal deposit already exists,
// CodeInvalidInput for a non-positive amount.
func (l *Ledger) RecordPayment(ctx context.Context, reservationID id.ReservationID, amount decimal.Decimal, method escrow.PaymentMethod, reference string) (*escrow.Deposit, error) {
	if !amount.IsPositive() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "deposit amount must be positive")
	}
	if reference == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "payment reference is required")
	}

	now := time.Now()
	deposit := &escrow.Deposit{
		ID:            id.NewDepositID(),
		ReservationID: reservationID,
		Amount:        amount.Round(2),
		Currency:      escrow.Currency,
		Status:        escrow.DepositPaid,
		Method:        method,
		Reference:     reference,
		PaidAt:        now,
		UpdatedAt:     now,
		AuditLog: []escrow.AuditEvent{{
			Action:    escrow.ActionPaid,
			Amount:    amount.Round(2),
			Timestamp: now,
		}},
	}

	err := l.locks.Do(ctx, lockKey(reservationID), func(ctx context.Context) error {
		return l.store.CreateDeposit(ctx, deposit)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeDuplicatePayment, "a live deposit already exists for this reservation")
		}
		var coded *dErrors.Error
		if errors.As(err, &coded) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "record payment")
	}

	if err := l.auditor.Emit(ctx, audit.Event{
		ReservationID: reservationID,
		Event:         audit.EventDepositCaptured,
		Description:   "booking deposit captured",
		Source:        audit.SourcePayment,
		Data: map[string]any{
			"depositId":        deposit.ID.String(),
			"amount":           deposit.Amount.String(),
			"currency":         deposit.Currency,
			"method":           string(method),
			"paymentReference": reference,
		},
	}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "audit deposit capture")
	}

	l.metrics.IncDepositRecorded()
	l.logger.InfoContext(ctx, "deposit recorded",
		"reservation_id", reservationID.String(),
		"deposit_id", deposit.ID.String(),
		"amount", deposit.Amount.String(),
	)
	return deposit, nil
}

// TransferToEscrow moves a PAID deposit into a solicitor escrow account.
func (l *Ledger) TransferToEscrow(ctx context.Context, depositID id.DepositID, accountID id.EscrowAccountID) (*escrow.Deposit, error) {
	if _, err := l.store.GetAccount(ctx, accountID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "escrow account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load escrow account")
	}

	return l.withDeposit(ctx, depositID, func(ctx context.Context, deposit *escrow.Deposit) (*escrow.Deposit, error) {
		if deposit.Status != escrow.DepositPaid {
			return nil, depositConflict(deposit.Status, escrow.DepositHeldInEscrow)
		}
		deposit.AccountID = &accountID
		return l.applyTransition(ctx, deposit, escrow.DepositHeldInEscrow, escrow.AuditEvent{
			Action: escrow.ActionTransferred,
			Amount: deposit.Amount,
		}, audit.EventDepositTransferred, "deposit transferred to solicitor escrow account")
	})
}

// MarkNonRefundable pins a held deposit once contracts are exchanged.
func (l *Ledger) MarkNonRefundable(ctx context.Context, depositID id.DepositID, reason string) (*escrow.Deposit, error) {
	return l.withDeposit(ctx, depositID, func(ctx context.Context, deposit *escrow.Deposit) (*escrow.Deposit, error) {
		if !deposit.Status.CanTransitionTo(escrow.DepositNonRefundable) {
			return nil, depositConflict(deposit.Status, escrow.DepositNonRefundable)
		}
		return l.applyTransition(ctx, deposit, escrow.DepositNonRefundable, escrow.AuditEvent{
			Action: escrow.ActionHeld,
			Amount: deposit.Amount,
			Reason: reason,
		}, audit.EventDepositTransferred, "deposit marked non-refundable")
	})
}

// Release pays the deposit out toward completion. Only permitted once the
// owning reservation is legally bound.
func (l *Ledger) Release(ctx context.Context, depositID id.DepositID, reason string) (*escrow.Deposit, error) {
	return l.withDeposit(ctx, depositID, func(ctx context.Context, deposit *escrow.Deposit) (*escrow.Deposit, error) {
		if !deposit.Status.CanTransitionTo(escrow.DepositReleased) {
			return nil, depositConflict(deposit.Status, escrow.DepositReleased)
		}

		bound, err := l.guard.IsLegallyBound(ctx, deposit.ReservationID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "check reservation status")
		}
		if !bound {
			return nil, dErrors.New(dErrors.CodeDepositStateConflict, "deposit can only be released once the reservation is legally bound")
		}

		return l.applyTransition(ctx, deposit, escrow.DepositReleased, escrow.AuditEvent{
			Action: escrow.ActionReleased,
			Amount: deposit.Amount,
			Reason: reason,
		}, audit.EventDepositReleased, "deposit released from escrow")
	})
}

// Refund returns the full deposit to the buyer. Terminal; requires an
// authorizing identity.
func (l *Ledger) Refund(ctx context.Context, depositID id.DepositID, authorizedBy, reason string) (*escrow.Deposit, error) {
	return l.terminate(ctx, depositID, escrow.DepositRefunded, escrow.ActionRefunded, audit.EventDepositRefunded, "deposit refunded to buyer", authorizedBy, reason)
}

// Forfeit retains the full deposit after buyer default. Terminal; requires an
// authorizing identity.
func (l *Ledger) Forfeit(ctx context.Context, depositID id.DepositID, authorizedBy, reason string) (*escrow.Deposit, error) {
	return l.terminate(ctx, depositID, escrow.DepositForfeited, escrow.ActionForfeited, audit.EventDepositForfeited, "deposit forfeited", authorizedBy, reason)
}

// GetDeposit returns the live deposit for a reservation.
func (l *Ledger) GetDeposit(ctx context.Context, reservationID id.ReservationID) (*escrow.Deposit, error) {
	deposit, err := l.store.GetDepositByReservation(ctx, reservationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no deposit recorded for reservation")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load deposit")
	}
	return deposit, nil
}

// CreateAccount registers a solicitor firm's escrow account.
func (l *Ledger) CreateAccount(ctx context.Context, firmName, iban string) (*escrow.Account, error) {
	if firmName == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "firm name is required")
	}
	now := time.Now()
	account := &escrow.Account{
		ID:           id.NewEscrowAccountID(),
		FirmName:     firmName,
		IBAN:         iban,
		TotalBalance: decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := l.store.CreateAccount(ctx, account); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create escrow account")
	}
	return account, nil
}

// GetAccount returns an account with its recomputed balance.
func (l *Ledger) GetAccount(ctx context.Context, accountID id.EscrowAccountID) (*escrow.Account, error) {
	account, err := l.store.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "escrow account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load escrow account")
	}
	return account, nil
}

func (l *Ledger) terminate(ctx context.Context, depositID id.DepositID, to escrow.DepositStatus, action escrow.AuditAction, event audit.EventName, description, authorizedBy, reason string) (*escrow.Deposit, error) {
	if authorizedBy == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "authorizedBy is required for terminal deposit operations")
	}
	return l.withDeposit(ctx, depositID, func(ctx context.Context, deposit *escrow.Deposit) (*escrow.Deposit, error) {
		if !deposit.Status.CanTransitionTo(to) {
			return nil, depositConflict(deposit.Status, to)
		}
		return l.applyTransition(ctx, deposit, to, escrow.AuditEvent{
			Action:       action,
			Amount:       deposit.Amount,
			AuthorizedBy: authorizedBy,
			Reason:       reason,
		}, event, description)
	})
}

// withDeposit runs a deposit mutation serialized on the owning reservation.
// The first read only resolves the lock key; the deposit is re-read under the
// lock before any status check, so a concurrent writer's transition is always
// visible to the loser.
func (l *Ledger) withDeposit(ctx context.Context, depositID id.DepositID, fn func(ctx context.Context, deposit *escrow.Deposit) (*escrow.Deposit, error)) (*escrow.Deposit, error) {
	ref, err := l.getDeposit(ctx, depositID)
	if err != nil {
		return nil, err
	}

	var result *escrow.Deposit
	err = l.locks.Do(ctx, lockKey(ref.ReservationID), func(ctx context.Context) error {
		deposit, err := l.getDeposit(ctx, depositID)
		if err != nil {
			return err
		}
		result, err = fn(ctx, deposit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (l *Ledger) applyTransition(ctx context.Context, deposit *escrow.Deposit, to escrow.DepositStatus, entry escrow.AuditEvent, event audit.EventName, description string) (*escrow.Deposit, error) {
	from := deposit.Status
	now := time.Now()
	entry.Timestamp = now

	deposit.Status = to
	deposit.UpdatedAt = now
	deposit.AuditLog = append(deposit.AuditLog, entry)

	if err := l.store.UpdateDeposit(ctx, deposit); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist deposit transition")
	}

	data := map[string]any{
		"depositId": deposit.ID.String(),
		"amount":    deposit.Amount.String(),
		"from":      string(from),
		"to":        string(to),
	}
	if entry.AuthorizedBy != "" {
		data["authorizedBy"] = entry.AuthorizedBy
	}
	if entry.Reason != "" {
		data["reason"] = entry.Reason
	}
	if deposit.AccountID != nil {
		data["escrowAccount"] = deposit.AccountID.String()
	}
	if err := l.auditor.Emit(ctx, audit.Event{
		ReservationID: deposit.ReservationID,
		Event:         event,
		Description:   description,
		Source:        audit.SourceSystem,
		Data:          data,
	}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "audit deposit transition")
	}

	l.metrics.ObserveTransition(string(from), string(to))
	l.logger.InfoContext(ctx, "deposit transition",
		"deposit_id", deposit.ID.String(),
		"reservation_id", deposit.ReservationID.String(),
		"from", string(from),
		"to", string(to),
	)
	return deposit, nil
}

func (l *Ledger) getDeposit(ctx context.Context, depositID id.DepositID) (*escrow.Deposit, error) {
	deposit, err := l.store.GetDeposit(ctx, depositID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "deposit not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load deposit")
	}
	return deposit, nil
}

func depositConflict(from, to escrow.DepositStatus) error {
	return dErrors.New(dErrors.CodeDepositStateConflict,
		"deposit cannot move from "+string(from)+" to "+string(to))
}
