package escrow

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	id "conveyo/pkg/domain"
	"conveyo/pkg/platform/sentinel"
)

// InMemoryStore keeps deposits and accounts under one lock so a deposit
// mutation and the account balance recomputation are a single atomic step,
// mirroring what the Postgres store does with a transaction.
type InMemoryStore struct {
	mu       sync.RWMutex
	deposits map[id.DepositID]*Deposit
	accounts map[id.EscrowAccountID]*Account
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		deposits: make(map[id.DepositID]*Deposit),
		accounts: make(map[id.EscrowAccountID]*Account),
	}
}

func (s *InMemoryStore) CreateDeposit(_ context.Context, d *Deposit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.deposits {
		if existing.ReservationID == d.ReservationID && !existing.Status.Terminal() {
			return sentinel.ErrConflict
		}
	}

	cp := cloneDeposit(d)
	s.deposits[d.ID] = cp
	s.recomputeBalanceLocked(cp.AccountID)
	return nil
}

func (s *InMemoryStore) GetDeposit(_ context.Context, depositID id.DepositID) (*Deposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deposits[depositID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneDeposit(d), nil
}

func (s *InMemoryStore) GetDepositByReservation(_ context.Context, reservationID id.ReservationID) (*Deposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.deposits {
		if d.ReservationID == reservationID && !d.Status.Terminal() {
			return cloneDeposit(d), nil
		}
	}
	// Fall back to the most recently updated terminal deposit so callers can
	// still render refunded/forfeited history.
	var latest *Deposit
	for _, d := range s.deposits {
		if d.ReservationID == reservationID {
			if latest == nil || d.UpdatedAt.After(latest.UpdatedAt) {
				latest = d
			}
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	return cloneDeposit(latest), nil
}

func (s *InMemoryStore) UpdateDeposit(_ context.Context, d *Deposit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.deposits[d.ID]
	if !ok {
		return sentinel.ErrNotFound
	}

	cp := cloneDeposit(d)
	s.deposits[d.ID] = cp

	// Both the old and new account balances may change on a transfer.
	s.recomputeBalanceLocked(old.AccountID)
	if d.AccountID != nil && (old.AccountID == nil || *old.AccountID != *d.AccountID) {
		s.recomputeBalanceLocked(d.AccountID)
	}
	return nil
}

func (s *InMemoryStore) CreateAccount(_ context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[a.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *a
	s.accounts[a.ID] = &cp
	return nil
}

func (s *InMemoryStore) GetAccount(_ context.Context, accountID id.EscrowAccountID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *InMemoryStore) recomputeBalanceLocked(accountID *id.EscrowAccountID) {
	if accountID == nil {
		return
	}
	account, ok := s.accounts[*accountID]
	if !ok {
		return
	}
	total := decimal.Zero
	for _, d := range s.deposits {
		if d.AccountID != nil && *d.AccountID == account.ID && d.Status.CountsTowardBalance() {
			total = total.Add(d.Amount)
		}
	}
	account.TotalBalance = total
	account.UpdatedAt = time.Now()
}

func cloneDeposit(d *Deposit) *Deposit {
	cp := *d
	cp.AuditLog = append([]AuditEvent{}, d.AuditLog...)
	if d.AccountID != nil {
		acc := *d.AccountID
		cp.AccountID = &acc
	}
	return &cp
}
