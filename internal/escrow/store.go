package escrow

import (
	"context"

	id "conveyo/pkg/domain"
)

// Store persists deposits and accounts. Implementations must apply a deposit
// mutation and the owning account's balance recomputation atomically, and
// must return sentinel.ErrConflict from CreateDeposit when a non-terminal
// deposit already exists for the reservation.
type Store interface {
	CreateDeposit(ctx context.Context, d *Deposit) error
	GetDeposit(ctx context.Context, depositID id.DepositID) (*Deposit, error)
	GetDepositByReservation(ctx context.Context, reservationID id.ReservationID) (*Deposit, error)
	UpdateDeposit(ctx context.Context, d *Deposit) error

	CreateAccount(ctx context.Context, a *Account) error
	GetAccount(ctx context.Context, accountID id.EscrowAccountID) (*Account, error)
}
