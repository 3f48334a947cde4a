package notify

import (
	"time"

	id "conveyo/pkg/domain"
)

// Type names the notification being requested. The router maps these to
// templates and channels; this engine only raises them.
type Type string

const (
	TypeTermsAccepted        Type = "terms_accepted"
	TypeDepositReceived      Type = "deposit_received"
	TypeSolicitorNominated   Type = "solicitor_nominated"
	TypeContractGenerated    Type = "contract_generated"
	TypeContractReady        Type = "contract_ready"
	TypeSignatureRequested   Type = "signature_requested"
	TypeSignatureDeclined    Type = "signature_declined"
	TypeContractExecuted     Type = "contract_executed"
	TypeCompletionConfirmed  Type = "completion_confirmed"
	TypeReservationCancelled Type = "reservation_cancelled"
	TypeDepositRefunded      Type = "deposit_refunded"
)

// Urgency hints at delivery priority. Deadlined notifications (e.g. signature
// requests with an envelope expiry) carry Deadline as well.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyNormal   Urgency = "normal"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Recipient identifies who the router should deliver to. Role disambiguates
// when one party holds several addresses (buyer vs their solicitor).
type Recipient struct {
	Role    string `json:"role"` // buyer | solicitor | developer | admin
	Address string `json:"address,omitempty"`
}

// Notification is the request object handed to the Notification Router.
// Attempts/MaxAttempts are delivery-tracking fields owned by the router, not
// by this engine; they are zero-valued on emission.
type Notification struct {
	ReservationID id.ReservationID `json:"reservationId"`
	Type          Type             `json:"type"`
	Recipient     Recipient        `json:"recipient"`
	Urgency       Urgency          `json:"urgency"`
	Deadline      *time.Time       `json:"deadline,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	Attempts      int              `json:"attempts"`
	MaxAttempts   int              `json:"maxAttempts"`
}
