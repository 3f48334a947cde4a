package domain

import (
	"github.com/google/uuid"

	dErrors "conveyo/pkg/domain-errors"
)

// Typed aggregate identifiers. Distinct types keep a deposit ID from ever
// being passed where a reservation ID is expected; the compiler enforces it.
//
// Usage: construct via the Parse helpers at trust boundaries. Direct casting
// bypasses validation and is reserved for stores and tests.
type (
	// ReservationID identifies one buyer/unit legal transaction aggregate.
	ReservationID uuid.UUID

	// UnitID identifies the development unit under sale.
	UnitID uuid.UUID

	// BuyerID identifies the purchasing party.
	BuyerID uuid.UUID

	// DepositID identifies a single escrow deposit.
	DepositID uuid.UUID

	// EscrowAccountID identifies a solicitor firm's client escrow account.
	EscrowAccountID uuid.UUID

	// SignerID identifies one required signer on a contract envelope.
	SignerID uuid.UUID
)

func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return u, nil
}

// ParseReservationID constructs a ReservationID from external input.
func ParseReservationID(s string) (ReservationID, error) {
	u, err := parseUUID(s, "reservation id")
	return ReservationID(u), err
}

// ParseUnitID constructs a UnitID from external input.
func ParseUnitID(s string) (UnitID, error) {
	u, err := parseUUID(s, "unit id")
	return UnitID(u), err
}

// ParseBuyerID constructs a BuyerID from external input.
func ParseBuyerID(s string) (BuyerID, error) {
	u, err := parseUUID(s, "buyer id")
	return BuyerID(u), err
}

// ParseDepositID constructs a DepositID from external input.
func ParseDepositID(s string) (DepositID, error) {
	u, err := parseUUID(s, "deposit id")
	return DepositID(u), err
}

// ParseEscrowAccountID constructs an EscrowAccountID from external input.
func ParseEscrowAccountID(s string) (EscrowAccountID, error) {
	u, err := parseUUID(s, "escrow account id")
	return EscrowAccountID(u), err
}

// ParseSignerID constructs a SignerID from external input.
func ParseSignerID(s string) (SignerID, error) {
	u, err := parseUUID(s, "signer id")
	return SignerID(u), err
}

func (i ReservationID) String() string   { return uuid.UUID(i).String() }
func (i UnitID) String() string          { return uuid.UUID(i).String() }
func (i BuyerID) String() string         { return uuid.UUID(i).String() }
func (i DepositID) String() string       { return uuid.UUID(i).String() }
func (i EscrowAccountID) String() string { return uuid.UUID(i).String() }
func (i SignerID) String() string        { return uuid.UUID(i).String() }

// MarshalText/UnmarshalText delegate to uuid.UUID so the typed IDs serialize
// as canonical UUID strings at every JSON boundary; a named type does not
// inherit the underlying type's marshalling methods.
func (i ReservationID) MarshalText() ([]byte, error)   { return uuid.UUID(i).MarshalText() }
func (i UnitID) MarshalText() ([]byte, error)          { return uuid.UUID(i).MarshalText() }
func (i BuyerID) MarshalText() ([]byte, error)         { return uuid.UUID(i).MarshalText() }
func (i DepositID) MarshalText() ([]byte, error)       { return uuid.UUID(i).MarshalText() }
func (i EscrowAccountID) MarshalText() ([]byte, error) { return uuid.UUID(i).MarshalText() }
func (i SignerID) MarshalText() ([]byte, error)        { return uuid.UUID(i).MarshalText() }

func (i *ReservationID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(i).UnmarshalText(b) }
func (i *UnitID) UnmarshalText(b []byte) error          { return (*uuid.UUID)(i).UnmarshalText(b) }
func (i *BuyerID) UnmarshalText(b []byte) error         { return (*uuid.UUID)(i).UnmarshalText(b) }
func (i *DepositID) UnmarshalText(b []byte) error       { return (*uuid.UUID)(i).UnmarshalText(b) }
func (i *EscrowAccountID) UnmarshalText(b []byte) error { return (*uuid.UUID)(i).UnmarshalText(b) }
func (i *SignerID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(i).UnmarshalText(b) }

func (i ReservationID) IsNil() bool   { return uuid.UUID(i) == uuid.Nil }
func (i UnitID) IsNil() bool          { return uuid.UUID(i) == uuid.Nil }
func (i BuyerID) IsNil() bool         { return uuid.UUID(i) == uuid.Nil }
func (i DepositID) IsNil() bool       { return uuid.UUID(i) == uuid.Nil }
func (i EscrowAccountID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }
func (i SignerID) IsNil() bool        { return uuid.UUID(i) == uuid.Nil }

// NewReservationID returns a fresh random ReservationID.
func NewReservationID() ReservationID { return ReservationID(uuid.New()) }

// NewUnitID returns a fresh random UnitID.
func NewUnitID() UnitID { return UnitID(uuid.New()) }

// NewBuyerID returns a fresh random BuyerID.
func NewBuyerID() BuyerID { return BuyerID(uuid.New()) }

// NewDepositID returns a fresh random DepositID.
func NewDepositID() DepositID { return DepositID(uuid.New()) }

// NewEscrowAccountID returns a fresh random EscrowAccountID.
func NewEscrowAccountID() EscrowAccountID { return EscrowAccountID(uuid.New()) }

// NewSignerID returns a fresh random SignerID.
func NewSignerID() SignerID { return SignerID(uuid.New()) }
