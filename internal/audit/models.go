package audit

import (
	"time"

	id "conveyo/pkg/domain"
)

// Source identifies which side of the system observed the fact behind an
// audit event.
type Source string

const (
	SourceUser     Source = "USER"
	SourceSystem   Source = "SYSTEM"
	SourceDocuSign Source = "DOCUSIGN"
	SourcePayment  Source = "PAYMENT"
	SourceLegal    Source = "LEGAL"
)

// EventName is the closed set of legal audit event names. Typed so handlers
// and sinks can branch without string drift.
type EventName string

const (
	EventBookingInitiated    EventName = "booking_initiated"
	EventTermsAccepted       EventName = "terms_accepted"
	EventDepositCaptured     EventName = "deposit_captured"
	EventDepositConfirmed    EventName = "deposit_confirmed"
	EventSolicitorNominated  EventName = "solicitor_nominated"
	EventSolicitorValidated  EventName = "solicitor_validated"
	EventContractGenerated   EventName = "contract_generated"
	EventContractRegenerated EventName = "contract_regenerated"
	EventContractUnderReview EventName = "contract_under_review"
	EventContractReady       EventName = "contract_ready"
	EventSentForSignature    EventName = "sent_for_signature"
	EventSignatureUpdated    EventName = "signature_updated"
	EventFullyExecuted       EventName = "fully_executed"
	EventCompletionConfirmed EventName = "completion_confirmed"
	EventReservationExpired  EventName = "reservation_expired"
	EventCancelled           EventName = "cancelled"

	EventDepositTransferred EventName = "deposit_transferred_to_escrow"
	EventDepositReleased    EventName = "deposit_released"
	EventDepositRefunded    EventName = "deposit_refunded"
	EventDepositForfeited   EventName = "deposit_forfeited"
)

// Event is one entry in a reservation's append-only legal audit trail.
// Data carries arbitrary structured context (envelope ids, payment
// references, parsed user agents) without weakening the typed fields.
type Event struct {
	ReservationID id.ReservationID `json:"reservationId"`
	Event         EventName        `json:"event"`
	Description   string           `json:"description"`
	Data          map[string]any   `json:"data,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
	Source        Source           `json:"source"`
}
