// Package legal owns the LegalReservation aggregate: the state machine that
// takes a buyer from an initiated booking through deposit, solicitor
// nomination, contract execution and completion.
package legal

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"conveyo/internal/escrow"
	id "conveyo/pkg/domain"
)

// LegalTransactionStatus is the coarse-grained legal stage of a reservation.
type LegalTransactionStatus string

const (
	StatusBookingInitiated   LegalTransactionStatus = "BOOKING_INITIATED"
	StatusTermsAccepted      LegalTransactionStatus = "TERMS_ACCEPTED"
	StatusDepositPaid        LegalTransactionStatus = "DEPOSIT_PAID"
	StatusSolicitorNominated LegalTransactionStatus = "SOLICITOR_NOMINATED"
	StatusContractGenerated  LegalTransactionStatus = "CONTRACT_GENERATED"
	StatusContractReady      LegalTransactionStatus = "CONTRACT_READY"
	StatusPendingSignatures  LegalTransactionStatus = "PENDING_SIGNATURES"
	StatusLegallyBound       LegalTransactionStatus = "LEGALLY_BOUND"
	StatusCompleted          LegalTransactionStatus = "COMPLETED"
	StatusCancelled          LegalTransactionStatus = "CANCELLED"
)

// statusRank orders the happy path. CANCELLED is deliberately absent: a
// cancelled reservation is "at" no stage.
var statusRank = map[LegalTransactionStatus]int{
	StatusBookingInitiated:   0,
	StatusTermsAccepted:      1,
	StatusDepositPaid:        2,
	StatusSolicitorNominated: 3,
	StatusContractGenerated:  4,
	StatusContractReady:      5,
	StatusPendingSignatures:  6,
	StatusLegallyBound:       7,
	StatusCompleted:          8,
}

// legalTransitions is the authoritative transition table. Cancellation is
// handled separately because it is reachable from every non-terminal state.
var legalTransitions = map[LegalTransactionStatus][]LegalTransactionStatus{
	StatusBookingInitiated:   {StatusTermsAccepted},
	StatusTermsAccepted:      {StatusDepositPaid},
	StatusDepositPaid:        {StatusSolicitorNominated},
	StatusSolicitorNominated: {StatusContractGenerated},
	StatusContractGenerated:  {StatusContractReady, StatusContractGenerated},
	StatusContractReady:      {StatusPendingSignatures, StatusContractGenerated},
	StatusPendingSignatures:  {StatusLegallyBound, StatusContractGenerated},
	StatusLegallyBound:       {StatusCompleted},
	StatusCompleted:          {},
	StatusCancelled:          {},
}

func (s LegalTransactionStatus) CanTransitionTo(to LegalTransactionStatus) bool {
	if to == StatusCancelled {
		return !s.Terminal()
	}
	for _, allowed := range legalTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s LegalTransactionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// AtLeast reports whether the status has reached the given happy-path stage.
// Always false for CANCELLED.
func (s LegalTransactionStatus) AtLeast(other LegalTransactionStatus) bool {
	rank, ok := statusRank[s]
	if !ok {
		return false
	}
	otherRank, ok := statusRank[other]
	if !ok {
		return false
	}
	return rank >= otherRank
}

// ContractStage is the fine-grained contract-document stage, tracked
// independently of the aggregate status because a contract can be partially
// signed while the reservation is still PENDING_SIGNATURES.
type ContractStage string

const (
	StageGenerated        ContractStage = "GENERATED"
	StageUnderReview      ContractStage = "UNDER_REVIEW"
	StageApproved         ContractStage = "APPROVED"
	StageSentForSignature ContractStage = "SENT_FOR_SIGNATURE"
	StagePartiallySigned  ContractStage = "PARTIALLY_SIGNED"
	StageFullyExecuted    ContractStage = "FULLY_EXECUTED"
)

// SignatureStatus tracks one signer's progress through an envelope.
type SignatureStatus string

const (
	SignaturePending    SignatureStatus = "PENDING"
	SignatureInProgress SignatureStatus = "IN_PROGRESS"
	SignatureCompleted  SignatureStatus = "COMPLETED"
	SignatureDeclined   SignatureStatus = "DECLINED"
	SignatureExpired    SignatureStatus = "EXPIRED"
)

var signatureTransitions = map[SignatureStatus][]SignatureStatus{
	SignaturePending:    {SignatureInProgress, SignatureCompleted, SignatureDeclined, SignatureExpired},
	SignatureInProgress: {SignatureCompleted, SignatureDeclined, SignatureExpired},
	SignatureCompleted:  {},
	SignatureDeclined:   {},
	SignatureExpired:    {},
}

func (s SignatureStatus) CanTransitionTo(to SignatureStatus) bool {
	for _, allowed := range signatureTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s SignatureStatus) Terminal() bool {
	return s == SignatureCompleted || s == SignatureDeclined || s == SignatureExpired
}

// SolicitorStatus reflects the law-society registry check on a nominated firm.
type SolicitorStatus string

const (
	SolicitorPending   SolicitorStatus = "PENDING"
	SolicitorValidated SolicitorStatus = "VALIDATED"
	SolicitorActive    SolicitorStatus = "ACTIVE"
)

// Law Society of Ireland registration numbers: optional letter prefix
// followed by four to six digits.
var registrationNumberPattern = regexp.MustCompile(`^[A-Z]{0,2}[0-9]{4,6}$`)

// ValidRegistrationNumber reports whether the value is a plausible law-society
// registration number. The registry lookup itself is an external collaborator;
// this only rejects obviously malformed input.
func ValidRegistrationNumber(value string) bool {
	return registrationNumberPattern.MatchString(value)
}

// Solicitor is the buyer's nominated conveyancing solicitor.
type Solicitor struct {
	FirmName           string          `json:"firmName"`
	SolicitorName      string          `json:"solicitorName"`
	Email              string          `json:"email"`
	Phone              string          `json:"phone,omitempty"`
	RegistrationNumber string          `json:"registrationNumber"`
	Status             SolicitorStatus `json:"status"`
	NominatedAt        time.Time       `json:"nominatedAt"`
	ValidatedAt        *time.Time      `json:"validatedAt,omitempty"`
}

// TermsAcceptance records the buyer's acceptance of the booking terms.
// Once Accepted is true the record is immutable.
type TermsAcceptance struct {
	Accepted   bool       `json:"accepted"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`
	IPAddress  string     `json:"ipAddress,omitempty"`
	UserAgent  string     `json:"userAgent,omitempty"`
}

// ContractSignature tracks one required signer on the current envelope.
type ContractSignature struct {
	SignerID id.SignerID     `json:"signerId"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Role     string          `json:"role"`
	Status   SignatureStatus `json:"status"`
	SignedAt *time.Time      `json:"signedAt,omitempty"`
}

// Contract is the generated purchase contract document and its signature
// envelope. Version increments on every regeneration.
type Contract struct {
	DocumentRef string              `json:"documentRef"`
	Stage       ContractStage       `json:"stage"`
	Version     int                 `json:"version"`
	EnvelopeID  string              `json:"envelopeId,omitempty"`
	GeneratedAt time.Time           `json:"generatedAt"`
	Signatures  []ContractSignature `json:"signatures"`
}

// AllSigned reports whether every required signer has completed.
func (c *Contract) AllSigned() bool {
	if c == nil || len(c.Signatures) == 0 {
		return false
	}
	for _, sig := range c.Signatures {
		if sig.Status != SignatureCompleted {
			return false
		}
	}
	return true
}

// DepositProjection is a read-mostly view of the reservation's escrow deposit.
// The ledger owns the underlying deposit; the state machine never writes the
// projection except when applying a ledger result.
type DepositProjection struct {
	Amount           decimal.Decimal      `json:"amount"`
	Status           escrow.DepositStatus `json:"status"`
	PaidAt           *time.Time           `json:"paidAt,omitempty"`
	EscrowAccount    string               `json:"escrowAccount,omitempty"`
	PaymentReference string               `json:"paymentReference,omitempty"`
}

// LegalReservation is the aggregate root for one buyer/unit legal transaction.
// All mutations go through the legal service, which serializes commands
// per reservation and bumps RecordVersion on every save.
type LegalReservation struct {
	ID            id.ReservationID `json:"id"`
	UnitID        id.UnitID        `json:"unitId"`
	BuyerID       id.BuyerID       `json:"buyerId"`
	TransactionID string           `json:"transactionId,omitempty"`

	Status     LegalTransactionStatus `json:"status"`
	LegalStage ContractStage          `json:"legalStage,omitempty"`

	Deposit       DepositProjection `json:"deposit"`
	TermsAccepted TermsAcceptance   `json:"termsAccepted"`
	Solicitor     *Solicitor        `json:"solicitor,omitempty"`
	Contract      *Contract         `json:"contract,omitempty"`

	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	CompletionDate *time.Time `json:"completionDate,omitempty"`
	ExecutedAt     *time.Time `json:"executedAt,omitempty"`

	// RecordVersion is the optimistic-concurrency token checked on save.
	// Distinct from Contract.Version, which counts regenerations.
	RecordVersion int `json:"-"`
}

// IsContractExecuted reports whether the contract is fully executed: the
// precondition for LEGALLY_BOUND and COMPLETED.
func (r *LegalReservation) IsContractExecuted() bool {
	return r.Contract != nil && r.Contract.Stage == StageFullyExecuted && r.ExecutedAt != nil
}

// IsDepositSecured reports whether the buyer's money is accounted for: a live
// deposit in PAID, HELD_IN_ESCROW or NON_REFUNDABLE.
func (r *LegalReservation) IsDepositSecured() bool {
	return r.Status.AtLeast(StatusDepositPaid) && r.Deposit.Status.CountsTowardBalance()
}

// Expired reports whether the reservation has passed its expiry without
// becoming legally bound.
func (r *LegalReservation) Expired(now time.Time) bool {
	if r.ExpiresAt == nil || r.Status.Terminal() {
		return false
	}
	return !r.Status.AtLeast(StatusLegallyBound) && now.After(*r.ExpiresAt)
}
