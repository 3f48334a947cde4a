package escrow

import (
	"time"

	"github.com/shopspring/decimal"

	id "conveyo/pkg/domain"
)

// Currency is fixed for the Irish market; deposits are held in euro only.
const Currency = "EUR"

// DepositStatus is the lifecycle of one escrow deposit. Refund, forfeiture
// and release are terminal statuses, never deletions.
type DepositStatus string

const (
	DepositPending       DepositStatus = "PENDING"
	DepositPaid          DepositStatus = "PAID"
	DepositHeldInEscrow  DepositStatus = "HELD_IN_ESCROW"
	DepositNonRefundable DepositStatus = "NON_REFUNDABLE"
	DepositReleased      DepositStatus = "RELEASED"
	DepositRefunded      DepositStatus = "REFUNDED"
	DepositForfeited     DepositStatus = "FORFEITED"
)

// depositTransitions is the single source of truth for ledger status moves.
var depositTransitions = map[DepositStatus][]DepositStatus{
	DepositPending:       {DepositPaid},
	DepositPaid:          {DepositHeldInEscrow, DepositRefunded, DepositForfeited},
	DepositHeldInEscrow:  {DepositNonRefundable, DepositReleased, DepositRefunded, DepositForfeited},
	DepositNonRefundable: {DepositReleased, DepositForfeited},
	DepositReleased:      {},
	DepositRefunded:      {},
	DepositForfeited:     {},
}

// CanTransitionTo reports whether the ledger may move a deposit from s to
// next.
func (s DepositStatus) CanTransitionTo(next DepositStatus) bool {
	for _, allowed := range depositTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further status change is permitted.
func (s DepositStatus) Terminal() bool {
	return len(depositTransitions[s]) == 0 && s != ""
}

// CountsTowardBalance reports whether the deposit contributes to the escrow
// account's total balance.
func (s DepositStatus) CountsTowardBalance() bool {
	switch s {
	case DepositPaid, DepositHeldInEscrow, DepositNonRefundable:
		return true
	}
	return false
}

// PaymentMethod records how the deposit arrived.
type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCard         PaymentMethod = "card"
	MethodCheque       PaymentMethod = "cheque"
)

// AuditAction labels a deposit audit entry.
type AuditAction string

const (
	ActionPaid        AuditAction = "PAID"
	ActionTransferred AuditAction = "TRANSFERRED"
	ActionHeld        AuditAction = "HELD"
	ActionReleased    AuditAction = "RELEASED"
	ActionRefunded    AuditAction = "REFUNDED"
	ActionForfeited   AuditAction = "FORFEITED"
)

// AuditEvent is one entry in a deposit's own append-only trail. Amount is
// always the full deposit amount: this model never splits a deposit, so the
// trail reconciles to the recorded amount by construction.
type AuditEvent struct {
	Action       AuditAction     `json:"action"`
	Amount       decimal.Decimal `json:"amount"`
	Timestamp    time.Time       `json:"timestamp"`
	AuthorizedBy string          `json:"authorizedBy,omitempty"`
	Reason       string          `json:"reason,omitempty"`
}

// Deposit is one reservation's booking deposit. Created on payment capture,
// mutated only by ledger operations, never deleted.
type Deposit struct {
	ID            id.DepositID        `json:"id"`
	ReservationID id.ReservationID    `json:"reservationId"`
	Amount        decimal.Decimal     `json:"amount"`
	Currency      string              `json:"currency"`
	Status        DepositStatus       `json:"status"`
	Method        PaymentMethod       `json:"method"`
	Reference     string              `json:"paymentReference"`
	AccountID     *id.EscrowAccountID `json:"escrowAccount,omitempty"`
	PaidAt        time.Time           `json:"paidAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
	AuditLog      []AuditEvent        `json:"auditLog"`
}

// Account is one solicitor firm's client escrow account. TotalBalance is
// derived from the deposits currently counting toward balance; stores must
// recompute it atomically with any deposit mutation.
type Account struct {
	ID           id.EscrowAccountID `json:"id"`
	FirmName     string             `json:"firmName"`
	IBAN         string             `json:"iban,omitempty"`
	TotalBalance decimal.Decimal    `json:"totalBalance"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}
