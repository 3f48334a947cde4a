package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conveyo/internal/audit"
	auditmemory "conveyo/internal/audit/store/memory"
	"conveyo/internal/escrow"
	id "conveyo/pkg/domain"
	dErrors "conveyo/pkg/domain-errors"
	"conveyo/pkg/platform/lock"
)

type stubGuard struct {
	bound bool
	err   error
}

func (g *stubGuard) IsLegallyBound(context.Context, id.ReservationID) (bool, error) {
	return g.bound, g.err
}

type ledgerFixture struct {
	ledger     *Ledger
	store      *escrow.InMemoryStore
	auditStore *auditmemory.InMemoryStore
	guard      *stubGuard
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	store := escrow.NewInMemoryStore()
	auditStore := auditmemory.NewInMemoryStore()
	guard := &stubGuard{bound: true}
	ledger := NewLedger(store, guard, lock.NewSharded(0), audit.NewPublisher(auditStore), slog.Default(), nil)
	return &ledgerFixture{ledger: ledger, store: store, auditStore: auditStore, guard: guard}
}

func (f *ledgerFixture) recordPaid(t *testing.T) *escrow.Deposit {
	t.Helper()
	deposit, err := f.ledger.RecordPayment(context.Background(), id.NewReservationID(),
		decimal.NewFromInt(5000), escrow.MethodBankTransfer, "pay_abc123")
	require.NoError(t, err)
	return deposit
}

func (f *ledgerFixture) heldDeposit(t *testing.T) *escrow.Deposit {
	t.Helper()
	deposit := f.recordPaid(t)
	account, err := f.ledger.CreateAccount(context.Background(), "Murphy & Co Solicitors", "IE29AIBK93115212345678")
	require.NoError(t, err)
	deposit, err = f.ledger.TransferToEscrow(context.Background(), deposit.ID, account.ID)
	require.NoError(t, err)
	return deposit
}

func TestLedger_RecordPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("creates PAID deposit with audit entry", func(t *testing.T) {
		f := newLedgerFixture(t)
		deposit := f.recordPaid(t)

		assert.Equal(t, escrow.DepositPaid, deposit.Status)
		assert.Equal(t, escrow.Currency, deposit.Currency)
		require.Len(t, deposit.AuditLog, 1)
		assert.Equal(t, escrow.ActionPaid, deposit.AuditLog[0].Action)

		events, err := f.auditStore.ListByReservation(ctx, deposit.ReservationID)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, audit.EventDepositCaptured, events[0].Event)
		assert.Equal(t, audit.SourcePayment, events[0].Source)
	})

	t.Run("second payment for same reservation is a duplicate", func(t *testing.T) {
		f := newLedgerFixture(t)
		deposit := f.recordPaid(t)

		_, err := f.ledger.RecordPayment(ctx, deposit.ReservationID,
			decimal.NewFromInt(5000), escrow.MethodCard, "pay_retry")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDuplicatePayment))
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		f := newLedgerFixture(t)
		_, err := f.ledger.RecordPayment(ctx, id.NewReservationID(),
			decimal.Zero, escrow.MethodCard, "pay_zero")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects missing payment reference", func(t *testing.T) {
		f := newLedgerFixture(t)
		_, err := f.ledger.RecordPayment(ctx, id.NewReservationID(),
			decimal.NewFromInt(100), escrow.MethodCard, "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestLedger_TransferToEscrow(t *testing.T) {
	ctx := context.Background()

	t.Run("moves PAID deposit into account and credits balance", func(t *testing.T) {
		f := newLedgerFixture(t)
		deposit := f.heldDeposit(t)

		assert.Equal(t, escrow.DepositHeldInEscrow, deposit.Status)
		require.NotNil(t, deposit.AccountID)

		account, err := f.ledger.GetAccount(ctx, *deposit.AccountID)
		require.NoError(t, err)
		assert.True(t, account.TotalBalance.Equal(deposit.Amount))
	})

	t.Run("unknown account is rejected", func(t *testing.T) {
		f := newLedgerFixture(t)
		deposit := f.recordPaid(t)

		_, err := f.ledger.TransferToEscrow(ctx, deposit.ID, id.NewEscrowAccountID())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("double transfer conflicts", func(t *testing.T) {
		f := newLedgerFixture(t)
		deposit := f.heldDeposit(t)

		_, err := f.ledger.TransferToEscrow(ctx, deposit.ID, *deposit.AccountID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDepositStateConflict))
	})
}

func TestLedger_Release(t *testing.T) {
	ctx := context.Background()

	t.Run("releases held deposit when reservation is legally bound", func(t *testing.T) {
		f := newLedgerFixture(t)
		deposit := f.heldDeposit(t)

		released, err := f.ledger.Release(ctx, deposit.ID, "completion funds drawdown")
		require.NoError(t, err)
		assert.Equal(t, escrow.DepositReleased, released.Status)

		account, err := f.ledger.GetAccount(ctx, *deposit.AccountID)
		require.NoError(t, err)
		assert.True(t, account.TotalBalance.IsZero(), "released funds leave the account balance")
	})

	t.Run("refuses release before the reservation is legally bound", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.guard.bound = false
		deposit := f.heldDeposit(t)

		_, err := f.ledger.Release(ctx, deposit.ID, "premature")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDepositStateConflict))

		got, err := f.ledger.GetDeposit(ctx, deposit.ReservationID)
		require.NoError(t, err)
		assert.Equal(t, escrow.DepositHeldInEscrow, got.Status, "failed release must not mutate the deposit")
	})

	t.Run("releases non-refundable deposit", func(t *testing.T) {
		f := newLedgerFixture(t)
		deposit := f.heldDeposit(t)
		_, err := f.ledger.MarkNonRefundable(ctx, deposit.ID, "contracts exchanged")
		require.NoError(t, err)

		released, err := f.ledger.Release(ctx, deposit.ID, "completion")
		require.NoError(t, err)
		assert.Equal(t, escrow.DepositReleased, released.Status)
	})
}

func TestLedger_TerminalOperations(t *testing.T) {
	ctx := context.Background()

	t.Run("refund requires authorizing identity", func(t *testing.T) {
		f := newLedgerFixture(t)
		deposit := f.recordPaid(t)

		_, err := f.ledger.Refund(ctx, deposit.ID, "", "buyer withdrew")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("refund from PAID records authorization", func(t *testing.T) {
		f := newLedgerFixture(t)
		deposit := f.recordPaid(t)

		refunded, err := f.ledger.Refund(ctx, deposit.ID, "ops.manager@example.ie", "cooling-off withdrawal")
		require.NoError(t, err)
		assert.Equal(t, escrow.DepositRefunded, refunded.Status)

		last := refunded.AuditLog[len(refunded.AuditLog)-1]
		assert.Equal(t, escrow.ActionRefunded, last.Action)
		assert.Equal(t, "ops.manager@example.ie", last.AuthorizedBy)
		assert.Equal(t, "cooling-off withdrawal", last.Reason)
	})

	t.Run("non-refundable deposit cannot be refunded", func(t *testing.T) {
		f := newLedgerFixture(t)
		deposit := f.heldDeposit(t)
		_, err := f.ledger.MarkNonRefundable(ctx, deposit.ID, "contracts exchanged")
		require.NoError(t, err)

		_, err = f.ledger.Refund(ctx, deposit.ID, "ops.manager@example.ie", "buyer asked nicely")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDepositStateConflict))
	})

	t.Run("any operation after refund conflicts", func(t *testing.T) {
		f := newLedgerFixture(t)
		deposit := f.heldDeposit(t)
		_, err := f.ledger.Refund(ctx, deposit.ID, "ops.manager@example.ie", "sale fell through")
		require.NoError(t, err)

		_, err = f.ledger.Release(ctx, deposit.ID, "late release")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDepositStateConflict))

		_, err = f.ledger.Forfeit(ctx, deposit.ID, "ops.manager@example.ie", "late forfeit")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDepositStateConflict))

		_, err = f.ledger.MarkNonRefundable(ctx, deposit.ID, "late hold")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDepositStateConflict))
	})

	t.Run("forfeit emits reservation-level audit event", func(t *testing.T) {
		f := newLedgerFixture(t)
		deposit := f.heldDeposit(t)

		_, err := f.ledger.Forfeit(ctx, deposit.ID, "legal.team@example.ie", "buyer default after exchange")
		require.NoError(t, err)

		events, err := f.auditStore.ListByReservation(ctx, deposit.ReservationID)
		require.NoError(t, err)
		last := events[len(events)-1]
		assert.Equal(t, audit.EventDepositForfeited, last.Event)
		assert.Equal(t, "legal.team@example.ie", last.Data["authorizedBy"])
	})
}

func TestLedger_ConcurrentTerminalOperations(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	deposit := f.heldDeposit(t)

	var wg sync.WaitGroup
	var refundErr, forfeitErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, refundErr = f.ledger.Refund(ctx, deposit.ID, "ops.manager@example.ie", "sale fell through")
	}()
	go func() {
		defer wg.Done()
		_, forfeitErr = f.ledger.Forfeit(ctx, deposit.ID, "legal.team@example.ie", "buyer default")
	}()
	wg.Wait()

	// Exactly one of the racing operations may win; the loser must observe the
	// winner's terminal status and conflict instead of overwriting it.
	if refundErr == nil {
		require.Error(t, forfeitErr)
		assert.True(t, dErrors.HasCode(forfeitErr, dErrors.CodeDepositStateConflict))
	} else {
		require.NoError(t, forfeitErr)
		assert.True(t, dErrors.HasCode(refundErr, dErrors.CodeDepositStateConflict))
	}

	final, err := f.ledger.GetDeposit(ctx, deposit.ReservationID)
	require.NoError(t, err)

	wantAction := escrow.ActionRefunded
	wantStatus := escrow.DepositRefunded
	if refundErr != nil {
		wantAction = escrow.ActionForfeited
		wantStatus = escrow.DepositForfeited
	}
	assert.Equal(t, wantStatus, final.Status)
	require.Len(t, final.AuditLog, 3, "only the winner's movement is recorded")
	assert.Equal(t, wantAction, final.AuditLog[len(final.AuditLog)-1].Action)
}

func TestLedger_AuditTrailAccumulates(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	deposit := f.heldDeposit(t)
	_, err := f.ledger.MarkNonRefundable(ctx, deposit.ID, "contracts exchanged")
	require.NoError(t, err)
	final, err := f.ledger.Release(ctx, deposit.ID, "completion")
	require.NoError(t, err)

	actions := make([]escrow.AuditAction, 0, len(final.AuditLog))
	for _, entry := range final.AuditLog {
		actions = append(actions, entry.Action)
	}
	assert.Equal(t, []escrow.AuditAction{
		escrow.ActionPaid,
		escrow.ActionTransferred,
		escrow.ActionHeld,
		escrow.ActionReleased,
	}, actions)
}
