package escrow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "conveyo/pkg/domain"
	"conveyo/pkg/platform/sentinel"
)

func newTestDeposit(reservationID id.ReservationID, status DepositStatus) *Deposit {
	now := time.Now()
	return &Deposit{
		ID:            id.NewDepositID(),
		ReservationID: reservationID,
		Amount:        decimal.NewFromInt(5000),
		Currency:      Currency,
		Status:        status,
		Method:        MethodBankTransfer,
		Reference:     "pay_" + id.NewDepositID().String()[:8],
		PaidAt:        now,
		UpdatedAt:     now,
	}
}

func TestInMemoryStore_Deposits(t *testing.T) {
	ctx := context.Background()

	t.Run("create and get round-trips", func(t *testing.T) {
		store := NewInMemoryStore()
		deposit := newTestDeposit(id.NewReservationID(), DepositPaid)
		require.NoError(t, store.CreateDeposit(ctx, deposit))

		got, err := store.GetDeposit(ctx, deposit.ID)
		require.NoError(t, err)
		assert.Equal(t, deposit.ID, got.ID)
		assert.Equal(t, DepositPaid, got.Status)
		assert.True(t, deposit.Amount.Equal(got.Amount))
	})

	t.Run("second live deposit for same reservation conflicts", func(t *testing.T) {
		store := NewInMemoryStore()
		reservationID := id.NewReservationID()
		require.NoError(t, store.CreateDeposit(ctx, newTestDeposit(reservationID, DepositPaid)))

		err := store.CreateDeposit(ctx, newTestDeposit(reservationID, DepositPaid))
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("new deposit allowed after previous one is terminal", func(t *testing.T) {
		store := NewInMemoryStore()
		reservationID := id.NewReservationID()
		first := newTestDeposit(reservationID, DepositPaid)
		require.NoError(t, store.CreateDeposit(ctx, first))

		first.Status = DepositRefunded
		require.NoError(t, store.UpdateDeposit(ctx, first))

		require.NoError(t, store.CreateDeposit(ctx, newTestDeposit(reservationID, DepositPaid)))
	})

	t.Run("get by reservation prefers live deposit", func(t *testing.T) {
		store := NewInMemoryStore()
		reservationID := id.NewReservationID()
		terminal := newTestDeposit(reservationID, DepositPaid)
		require.NoError(t, store.CreateDeposit(ctx, terminal))
		terminal.Status = DepositForfeited
		require.NoError(t, store.UpdateDeposit(ctx, terminal))

		live := newTestDeposit(reservationID, DepositPaid)
		require.NoError(t, store.CreateDeposit(ctx, live))

		got, err := store.GetDepositByReservation(ctx, reservationID)
		require.NoError(t, err)
		assert.Equal(t, live.ID, got.ID)
	})

	t.Run("get missing returns not found", func(t *testing.T) {
		store := NewInMemoryStore()
		_, err := store.GetDeposit(ctx, id.NewDepositID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)

		_, err = store.GetDepositByReservation(ctx, id.NewReservationID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("returned deposits are copies", func(t *testing.T) {
		store := NewInMemoryStore()
		deposit := newTestDeposit(id.NewReservationID(), DepositPaid)
		require.NoError(t, store.CreateDeposit(ctx, deposit))

		got, err := store.GetDeposit(ctx, deposit.ID)
		require.NoError(t, err)
		got.Status = DepositForfeited
		got.AuditLog = append(got.AuditLog, AuditEvent{Action: ActionForfeited})

		fresh, err := store.GetDeposit(ctx, deposit.ID)
		require.NoError(t, err)
		assert.Equal(t, DepositPaid, fresh.Status)
		assert.Empty(t, fresh.AuditLog)
	})
}

func TestInMemoryStore_AccountBalance(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	account := &Account{
		ID:           id.NewEscrowAccountID(),
		FirmName:     "Murphy & Co Solicitors",
		IBAN:         "IE29AIBK93115212345678",
		TotalBalance: decimal.Zero,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	require.NoError(t, store.CreateAccount(ctx, account))

	deposit := newTestDeposit(id.NewReservationID(), DepositPaid)
	require.NoError(t, store.CreateDeposit(ctx, deposit))

	t.Run("PAID deposit does not count toward balance", func(t *testing.T) {
		got, err := store.GetAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, got.TotalBalance.IsZero())
	})

	t.Run("transfer into escrow raises balance", func(t *testing.T) {
		deposit.AccountID = &account.ID
		deposit.Status = DepositHeldInEscrow
		require.NoError(t, store.UpdateDeposit(ctx, deposit))

		got, err := store.GetAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, got.TotalBalance.Equal(deposit.Amount),
			"balance should equal the held deposit amount")
	})

	t.Run("non-refundable deposit still counts", func(t *testing.T) {
		deposit.Status = DepositNonRefundable
		require.NoError(t, store.UpdateDeposit(ctx, deposit))

		got, err := store.GetAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, got.TotalBalance.Equal(deposit.Amount))
	})

	t.Run("release drops balance back to zero", func(t *testing.T) {
		deposit.Status = DepositReleased
		require.NoError(t, store.UpdateDeposit(ctx, deposit))

		got, err := store.GetAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, got.TotalBalance.IsZero())
	})

	t.Run("balance sums multiple held deposits", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			d := newTestDeposit(id.NewReservationID(), DepositPaid)
			require.NoError(t, store.CreateDeposit(ctx, d))
			d.AccountID = &account.ID
			d.Status = DepositHeldInEscrow
			require.NoError(t, store.UpdateDeposit(ctx, d))
		}

		got, err := store.GetAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, got.TotalBalance.Equal(decimal.NewFromInt(15000)))
	})
}

func TestInMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	account := &Account{ID: id.NewEscrowAccountID(), FirmName: "Concurrent & Co"}
	require.NoError(t, store.CreateAccount(ctx, account))

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			d := newTestDeposit(id.NewReservationID(), DepositPaid)
			assert.NoError(t, store.CreateDeposit(ctx, d))
			d.AccountID = &account.ID
			d.Status = DepositHeldInEscrow
			assert.NoError(t, store.UpdateDeposit(ctx, d))
		}()
	}
	wg.Wait()

	got, err := store.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalBalance.Equal(decimal.NewFromInt(5000*workers)),
		"concurrent held deposits should sum exactly")
}
