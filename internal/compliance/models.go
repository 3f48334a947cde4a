package compliance

import (
	"time"

	id "conveyo/pkg/domain"
)

// KYCStatus tracks identity verification of the buyer.
type KYCStatus string

const (
	KYCPending  KYCStatus = "PENDING"
	KYCVerified KYCStatus = "VERIFIED"
	KYCFailed   KYCStatus = "FAILED"
)

// AMLStatus tracks anti-money-laundering screening.
type AMLStatus string

const (
	AMLPending AMLStatus = "PENDING"
	AMLCleared AMLStatus = "CLEARED"
	AMLFlagged AMLStatus = "FLAGGED"
)

// AMLRiskLevel grades the screening outcome. HIGH blocks contract execution
// even when the screening itself cleared.
type AMLRiskLevel string

const (
	RiskLow    AMLRiskLevel = "LOW"
	RiskMedium AMLRiskLevel = "MEDIUM"
	RiskHigh   AMLRiskLevel = "HIGH"
)

// Record is the compliance state evaluated by the gate. It is maintained by
// external KYC/AML collaborators and read here; the gate never mutates it.
type Record struct {
	ReservationID id.ReservationID `json:"reservationId"`

	KYCStatus    KYCStatus    `json:"kycStatus"`
	AMLStatus    AMLStatus    `json:"amlStatus"`
	AMLRiskLevel AMLRiskLevel `json:"amlRiskLevel"`

	SolicitorNominated bool `json:"solicitorNominated"`
	ContractReviewed   bool `json:"contractReviewed"`

	// Irish e-conveyancing statutory requirements.
	StatuteOfFraudsCompliant bool `json:"statuteOfFraudsCompliant"`
	ECommerceActCompliant    bool `json:"eCommerceActCompliant"`
	EIDASCompliant           bool `json:"eidasCompliant"`

	// GDPR consents for processing buyer data through the legal workflow.
	DataProcessingConsent bool       `json:"dataProcessingConsent"`
	ESignatureConsent     bool       `json:"eSignatureConsent"`
	ConsentRecordedAt     *time.Time `json:"consentRecordedAt,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
}
