// Package service implements the legal transaction state machine: the only
// component permitted to mutate a LegalReservation's status and legal stage.
//
// Commands are serialized per reservation through a lock guard, run inside
// the store's transaction boundary so the aggregate save and its audit
// append commit together, and raise notifications only after commit.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mssola/useragent"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"conveyo/internal/audit"
	"conveyo/internal/compliance"
	"conveyo/internal/escrow"
	"conveyo/internal/legal"
	"conveyo/internal/legal/metrics"
	"conveyo/internal/notify"
	id "conveyo/pkg/domain"
	dErrors "conveyo/pkg/domain-errors"
	"conveyo/pkg/platform/lock"
	"conveyo/pkg/platform/sentinel"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks DepositLedger

// DepositLedger is the narrow slice of the escrow ledger the state machine
// needs. Satisfied by the escrow service.
type DepositLedger interface {
	RecordPayment(ctx context.Context, reservationID id.ReservationID, amount decimal.Decimal, method escrow.PaymentMethod, reference string) (*escrow.Deposit, error)
	GetDeposit(ctx context.Context, reservationID id.ReservationID) (*escrow.Deposit, error)
}

// SolicitorInput carries the buyer's nomination details.
type SolicitorInput struct {
	FirmName           string `json:"firmName"`
	SolicitorName      string `json:"solicitorName"`
	Email              string `json:"email"`
	Phone              string `json:"phone,omitempty"`
	RegistrationNumber string `json:"registrationNumber"`
}

// SignerInput names one required signer on the contract envelope.
type SignerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Config carries the tunables the service needs.
type Config struct {
	// ReservationTTL is how long a reservation may live before the expiry
	// sweeper cancels it, measured from booking initiation.
	ReservationTTL time.Duration
}

// Service orchestrates the legal transaction lifecycle for reservations.
type Service struct {
	store      legal.Store
	compliance compliance.Store
	ledger     DepositLedger
	auditor    *audit.Publisher
	router     notify.Router
	guard      lock.Guard
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	cfg        Config
}

func New(store legal.Store, complianceStore compliance.Store, ledger DepositLedger, auditor *audit.Publisher, router notify.Router, guard lock.Guard, logger *slog.Logger, m *metrics.Metrics, cfg Config) *Service {
	return &Service{
		store:      store,
		compliance: complianceStore,
		ledger:     ledger,
		auditor:    auditor,
		router:     router,
		guard:      guard,
		logger:     logger,
		metrics:    m,
		tracer:     otel.Tracer("conveyo/legal"),
		cfg:        cfg,
	}
}

// InitiateBooking creates a reservation in BOOKING_INITIATED for a buyer and
// unit, with an expiry after which the sweeper may cancel it.
func (s *Service) InitiateBooking(ctx context.Context, unitID id.UnitID, buyerID id.BuyerID) (*legal.LegalReservation, error) {
	if unitID.IsNil() || buyerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unit and buyer ids are required")
	}

	now := time.Now()
	expiresAt := now.Add(s.cfg.ReservationTTL)
	reservation := &legal.LegalReservation{
		ID:        id.NewReservationID(),
		UnitID:    unitID,
		BuyerID:   buyerID,
		Status:    legal.StatusBookingInitiated,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: &expiresAt,
	}

	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, reservation); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "create reservation")
		}
		return s.auditor.Emit(ctx, audit.Event{
			ReservationID: reservation.ID,
			Event:         audit.EventBookingInitiated,
			Description:   "booking initiated for unit",
			Source:        audit.SourceUser,
			Data: map[string]any{
				"unitId":    unitID.String(),
				"buyerId":   buyerID.String(),
				"expiresAt": expiresAt,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "booking initiated",
		"reservation_id", reservation.ID.String(),
		"unit_id", unitID.String(),
	)
	return reservation, nil
}

// AcceptTerms records the buyer's acceptance of the booking terms and moves
// the reservation to TERMS_ACCEPTED. Acceptance is immutable: a second call
// is rejected without touching the record.
func (s *Service) AcceptTerms(ctx context.Context, reservationID id.ReservationID, ipAddress, rawUserAgent string) (*legal.LegalReservation, error) {
	return s.command(ctx, "accept_terms", reservationID, func(ctx context.Context, r *legal.LegalReservation) error {
		if r.TermsAccepted.Accepted {
			return dErrors.New(dErrors.CodeInvalidTransition, "terms have already been accepted")
		}
		if err := s.transition(r, legal.StatusTermsAccepted); err != nil {
			return err
		}

		now := time.Now()
		r.TermsAccepted = legal.TermsAcceptance{
			Accepted:   true,
			AcceptedAt: &now,
			IPAddress:  ipAddress,
			UserAgent:  rawUserAgent,
		}

		ua := useragent.New(rawUserAgent)
		browser, version := ua.Browser()
		return s.saveAndAudit(ctx, r, audit.Event{
			ReservationID: r.ID,
			Event:         audit.EventTermsAccepted,
			Description:   "buyer accepted booking terms",
			Source:        audit.SourceUser,
			Data: map[string]any{
				"ipAddress":      ipAddress,
				"browser":        browser,
				"browserVersion": version,
				"os":             ua.OS(),
				"mobile":         ua.Mobile(),
			},
		})
	}, notify.Notification{Type: notify.TypeTermsAccepted, Recipient: notify.Recipient{Role: "buyer"}, Urgency: notify.UrgencyNormal})
}

// DepositCaptured applies a payment-capture fact: the ledger records the
// deposit, the projection is refreshed, and the reservation moves to
// DEPOSIT_PAID.
func (s *Service) DepositCaptured(ctx context.Context, reservationID id.ReservationID, amount decimal.Decimal, method escrow.PaymentMethod, reference string) (*legal.LegalReservation, error) {
	return s.command(ctx, "deposit_captured", reservationID, func(ctx context.Context, r *legal.LegalReservation) error {
		if err := s.transition(r, legal.StatusDepositPaid); err != nil {
			return err
		}

		deposit, err := s.ledger.RecordPayment(ctx, r.ID, amount, method, reference)
		if dErrors.HasCode(err, dErrors.CodeDuplicatePayment) {
			// The ledger commits independently of the legal transaction, so a
			// prior attempt may have recorded the deposit and then failed to
			// save the reservation. Replaying the same capture fact picks the
			// existing deposit up and finishes the transition.
			existing, getErr := s.ledger.GetDeposit(ctx, r.ID)
			if getErr != nil || existing.Reference != reference {
				return err
			}
			deposit = existing
		} else if err != nil {
			return err
		}
		r.Deposit = projectDeposit(deposit)

		return s.saveAndAudit(ctx, r, audit.Event{
			ReservationID: r.ID,
			Event:         audit.EventDepositConfirmed,
			Description:   "deposit confirmed, reservation secured",
			Source:        audit.SourceSystem,
			Data: map[string]any{
				"depositId": deposit.ID.String(),
				"amount":    deposit.Amount.String(),
				"from":      string(legal.StatusTermsAccepted),
				"to":        string(legal.StatusDepositPaid),
			},
		})
	}, notify.Notification{Type: notify.TypeDepositReceived, Recipient: notify.Recipient{Role: "buyer"}, Urgency: notify.UrgencyNormal})
}

// NominateSolicitor records the buyer's conveyancing solicitor, pending
// registry validation.
func (s *Service) NominateSolicitor(ctx context.Context, reservationID id.ReservationID, input SolicitorInput) (*legal.LegalReservation, error) {
	return s.command(ctx, "nominate_solicitor", reservationID, func(ctx context.Context, r *legal.LegalReservation) error {
		if err := s.transition(r, legal.StatusSolicitorNominated); err != nil {
			return err
		}
		if input.FirmName == "" || input.SolicitorName == "" || input.Email == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "firm name, solicitor name and email are required")
		}
		if !legal.ValidRegistrationNumber(input.RegistrationNumber) {
			return dErrors.New(dErrors.CodeInvalidInput, "malformed law-society registration number")
		}
		if err := s.checkGate(ctx, r, compliance.RequirementNominateSolicitor); err != nil {
			return err
		}

		r.Solicitor = &legal.Solicitor{
			FirmName:           input.FirmName,
			SolicitorName:      input.SolicitorName,
			Email:              input.Email,
			Phone:              input.Phone,
			RegistrationNumber: input.RegistrationNumber,
			Status:             legal.SolicitorPending,
			NominatedAt:        time.Now(),
		}

		record, err := s.compliance.Get(ctx, r.ID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "load compliance record")
		}
		record.SolicitorNominated = true
		if err := s.compliance.Put(ctx, record); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "update compliance record")
		}

		return s.saveAndAudit(ctx, r, audit.Event{
			ReservationID: r.ID,
			Event:         audit.EventSolicitorNominated,
			Description:   "buyer nominated conveyancing solicitor",
			Source:        audit.SourceUser,
			Data: map[string]any{
				"firmName":           input.FirmName,
				"registrationNumber": input.RegistrationNumber,
			},
		})
	}, notify.Notification{Type: notify.TypeSolicitorNominated, Recipient: notify.Recipient{Role: "solicitor", Address: input.Email}, Urgency: notify.UrgencyNormal})
}

// SolicitorValidated applies the registry's confirmation of the nominated
// solicitor. Idempotent: a repeat confirmation is a no-op.
func (s *Service) SolicitorValidated(ctx context.Context, reservationID id.ReservationID) (*legal.LegalReservation, error) {
	return s.command(ctx, "solicitor_validated", reservationID, func(ctx context.Context, r *legal.LegalReservation) error {
		if r.Solicitor == nil {
			return dErrors.New(dErrors.CodeInvalidTransition, "no solicitor has been nominated")
		}
		if r.Solicitor.Status != legal.SolicitorPending {
			return nil // already validated
		}

		now := time.Now()
		r.Solicitor.Status = legal.SolicitorValidated
		r.Solicitor.ValidatedAt = &now

		return s.saveAndAudit(ctx, r, audit.Event{
			ReservationID: r.ID,
			Event:         audit.EventSolicitorValidated,
			Description:   "law-society registry confirmed solicitor registration",
			Source:        audit.SourceLegal,
			Data: map[string]any{
				"registrationNumber": r.Solicitor.RegistrationNumber,
			},
		})
	})
}

// GenerateContract produces the purchase contract. The first call moves
// SOLICITOR_NOMINATED to CONTRACT_GENERATED with version 1; later calls
// regenerate: version increments, the stage resets, unsigned signatures are
// discarded and the audit trail is preserved.
func (s *Service) GenerateContract(ctx context.Context, reservationID id.ReservationID, documentRef string) (*legal.LegalReservation, error) {
	ctx, span := s.tracer.Start(ctx, "legal.generate_contract",
		trace.WithAttributes(attribute.String("reservation.id", reservationID.String())))
	defer span.End()

	reservation, err := s.command(ctx, "generate_contract", reservationID, func(ctx context.Context, r *legal.LegalReservation) error {
		if documentRef == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "contract document reference is required")
		}
		if r.IsContractExecuted() {
			return dErrors.New(dErrors.CodeInvalidTransition, "contract is fully executed and cannot be regenerated")
		}
		if err := s.transition(r, legal.StatusContractGenerated); err != nil {
			return err
		}
		if err := s.checkGate(ctx, r, compliance.RequirementGenerateContract); err != nil {
			return err
		}

		now := time.Now()
		event := audit.EventContractGenerated
		description := "purchase contract generated"
		version := 1
		if r.Contract != nil {
			version = r.Contract.Version + 1
			event = audit.EventContractRegenerated
			description = "purchase contract regenerated, prior signatures discarded"
		}
		r.Contract = &legal.Contract{
			DocumentRef: documentRef,
			Stage:       legal.StageGenerated,
			Version:     version,
			GeneratedAt: now,
		}
		r.LegalStage = legal.StageGenerated

		span.SetAttributes(attribute.Int("contract.version", version))
		return s.saveAndAudit(ctx, r, audit.Event{
			ReservationID: r.ID,
			Event:         event,
			Description:   description,
			Source:        audit.SourceLegal,
			Data: map[string]any{
				"documentRef": documentRef,
				"version":     version,
			},
		})
	}, notify.Notification{Type: notify.TypeContractGenerated, Recipient: notify.Recipient{Role: "solicitor"}, Urgency: notify.UrgencyNormal})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "contract generated")
	return reservation, nil
}

// SubmitContractForReview moves the generated document under solicitor
// review. The aggregate status is unchanged; only the contract stage moves.
func (s *Service) SubmitContractForReview(ctx context.Context, reservationID id.ReservationID) (*legal.LegalReservation, error) {
	return s.command(ctx, "submit_for_review", reservationID, func(ctx context.Context, r *legal.LegalReservation) error {
		if r.Status != legal.StatusContractGenerated || r.Contract == nil || r.Contract.Stage != legal.StageGenerated {
			return dErrors.New(dErrors.CodeInvalidTransition, "no freshly generated contract to review")
		}
		r.Contract.Stage = legal.StageUnderReview
		r.LegalStage = legal.StageUnderReview

		return s.saveAndAudit(ctx, r, audit.Event{
			ReservationID: r.ID,
			Event:         audit.EventContractUnderReview,
			Description:   "contract submitted for solicitor review",
			Source:        audit.SourceLegal,
			Data:          map[string]any{"version": r.Contract.Version},
		})
	})
}

// MarkContractReady completes the review step and moves the reservation to
// CONTRACT_READY.
func (s *Service) MarkContractReady(ctx context.Context, reservationID id.ReservationID, reviewedBy string) (*legal.LegalReservation, error) {
	return s.command(ctx, "mark_ready", reservationID, func(ctx context.Context, r *legal.LegalReservation) error {
		if err := s.transition(r, legal.StatusContractReady); err != nil {
			return err
		}
		if r.Contract == nil || r.Contract.Stage != legal.StageUnderReview {
			return dErrors.New(dErrors.CodeInvalidTransition, "contract has not completed its review step")
		}
		r.Contract.Stage = legal.StageApproved
		r.LegalStage = legal.StageApproved

		record, err := s.compliance.Get(ctx, r.ID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "load compliance record")
		}
		record.ContractReviewed = true
		if err := s.compliance.Put(ctx, record); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "update compliance record")
		}

		return s.saveAndAudit(ctx, r, audit.Event{
			ReservationID: r.ID,
			Event:         audit.EventContractReady,
			Description:   "contract approved and ready for signature",
			Source:        audit.SourceLegal,
			Data: map[string]any{
				"version":    r.Contract.Version,
				"reviewedBy": reviewedBy,
			},
		})
	}, notify.Notification{Type: notify.TypeContractReady, Recipient: notify.Recipient{Role: "buyer"}, Urgency: notify.UrgencyNormal})
}

// SendForSignature resolves the required signers and moves the reservation to
// PENDING_SIGNATURES. The actual envelope is created by the e-signature
// collaborator in response to the raised notifications.
func (s *Service) SendForSignature(ctx context.Context, reservationID id.ReservationID, signers []SignerInput) (*legal.LegalReservation, error) {
	notifications := make([]notify.Notification, 0, len(signers))
	reservation, err := s.command(ctx, "send_for_signature", reservationID, func(ctx context.Context, r *legal.LegalReservation) error {
		if err := s.transition(r, legal.StatusPendingSignatures); err != nil {
			return err
		}
		if len(signers) == 0 {
			return dErrors.New(dErrors.CodeInvalidInput, "at least one required signer must be resolved")
		}
		for _, signer := range signers {
			if signer.Name == "" || signer.Email == "" {
				return dErrors.New(dErrors.CodeInvalidInput, "every signer needs a name and email")
			}
		}

		r.Contract.Signatures = make([]legal.ContractSignature, 0, len(signers))
		for _, signer := range signers {
			r.Contract.Signatures = append(r.Contract.Signatures, legal.ContractSignature{
				SignerID: id.NewSignerID(),
				Name:     signer.Name,
				Email:    signer.Email,
				Role:     signer.Role,
				Status:   legal.SignaturePending,
			})
			notifications = append(notifications, notify.Notification{
				Type:      notify.TypeSignatureRequested,
				Recipient: notify.Recipient{Role: signer.Role, Address: signer.Email},
				Urgency:   notify.UrgencyHigh,
				Deadline:  r.ExpiresAt,
			})
		}
		r.Contract.Stage = legal.StageSentForSignature
		r.LegalStage = legal.StageSentForSignature

		return s.saveAndAudit(ctx, r, audit.Event{
			ReservationID: r.ID,
			Event:         audit.EventSentForSignature,
			Description:   "contract sent for signature",
			Source:        audit.SourceLegal,
			Data: map[string]any{
				"version": r.Contract.Version,
				"signers": len(signers),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, reservation.ID, notifications...)
	return reservation, nil
}

// OnSignatureUpdate applies a per-signer status update from the e-signature
// provider. When the final signer completes, the contract becomes fully
// executed and the reservation LEGALLY_BOUND, provided the compliance gate
// passes. Declined or expired signatures never cascade automatically: the
// reservation must be explicitly cancelled or the contract regenerated.
func (s *Service) OnSignatureUpdate(ctx context.Context, reservationID id.ReservationID, envelopeID string, signerID id.SignerID, status legal.SignatureStatus) (*legal.LegalReservation, error) {
	var notifications []notify.Notification
	reservation, err := s.command(ctx, "signature_update", reservationID, func(ctx context.Context, r *legal.LegalReservation) error {
		if r.Status != legal.StatusPendingSignatures {
			return dErrors.New(dErrors.CodeInvalidTransition, "reservation is not awaiting signatures")
		}

		var signature *legal.ContractSignature
		for i := range r.Contract.Signatures {
			if r.Contract.Signatures[i].SignerID == signerID {
				signature = &r.Contract.Signatures[i]
				break
			}
		}
		if signature == nil {
			return dErrors.New(dErrors.CodeNotFound, "signer is not on the current envelope")
		}
		if !signature.Status.CanTransitionTo(status) {
			return dErrors.New(dErrors.CodeInvalidTransition,
				"signature cannot move from "+string(signature.Status)+" to "+string(status))
		}

		events := []audit.Event{{
			ReservationID: r.ID,
			Event:         audit.EventSignatureUpdated,
			Description:   "signer status updated",
			Source:        audit.SourceDocuSign,
			Data: map[string]any{
				"signerId":   signerID.String(),
				"status":     string(status),
				"envelopeId": envelopeID,
			},
		}}

		bound := false
		if status == legal.SignatureCompleted && allOthersSigned(r.Contract, signerID) {
			// The final completion also binds the reservation; the gate must
			// pass before the whole update is accepted.
			if err := s.checkGate(ctx, r, compliance.RequirementExecuteContract); err != nil {
				return err
			}
			bound = true
		}

		now := time.Now()
		signature.Status = status
		if status == legal.SignatureCompleted {
			signature.SignedAt = &now
		}
		if envelopeID != "" && r.Contract.EnvelopeID == "" {
			r.Contract.EnvelopeID = envelopeID
		}

		switch {
		case bound:
			if err := s.transition(r, legal.StatusLegallyBound); err != nil {
				return err
			}
			r.Contract.Stage = legal.StageFullyExecuted
			r.LegalStage = legal.StageFullyExecuted
			r.ExecutedAt = &now
			events = append(events, audit.Event{
				ReservationID: r.ID,
				Event:         audit.EventFullyExecuted,
				Description:   "all parties signed, reservation legally bound",
				Source:        audit.SourceDocuSign,
				Data: map[string]any{
					"envelopeId": r.Contract.EnvelopeID,
					"version":    r.Contract.Version,
				},
			})
			notifications = append(notifications, notify.Notification{
				Type:      notify.TypeContractExecuted,
				Recipient: notify.Recipient{Role: "buyer"},
				Urgency:   notify.UrgencyCritical,
			})
		case status == legal.SignatureCompleted:
			r.Contract.Stage = legal.StagePartiallySigned
			r.LegalStage = legal.StagePartiallySigned
		case status == legal.SignatureDeclined, status == legal.SignatureExpired:
			notifications = append(notifications, notify.Notification{
				Type:      notify.TypeSignatureDeclined,
				Recipient: notify.Recipient{Role: "admin"},
				Urgency:   notify.UrgencyHigh,
			})
		}

		return s.saveAndAudit(ctx, r, events...)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, reservation.ID, notifications...)
	return reservation, nil
}

// ConfirmCompletion closes the transaction: balance funds have moved and
// completion conditions are met, as asserted by the legal team.
func (s *Service) ConfirmCompletion(ctx context.Context, reservationID id.ReservationID, completionDate time.Time) (*legal.LegalReservation, error) {
	return s.command(ctx, "confirm_completion", reservationID, func(ctx context.Context, r *legal.LegalReservation) error {
		if err := s.transition(r, legal.StatusCompleted); err != nil {
			return err
		}
		if !r.IsContractExecuted() {
			return dErrors.New(dErrors.CodeInvalidTransition, "contract is not fully executed")
		}
		r.CompletionDate = &completionDate

		return s.saveAndAudit(ctx, r, audit.Event{
			ReservationID: r.ID,
			Event:         audit.EventCompletionConfirmed,
			Description:   "sale completed",
			Source:        audit.SourceLegal,
			Data:          map[string]any{"completionDate": completionDate},
		})
	}, notify.Notification{Type: notify.TypeCompletionConfirmed, Recipient: notify.Recipient{Role: "buyer"}, Urgency: notify.UrgencyNormal})
}

// Cancel moves any non-terminal reservation to CANCELLED.
func (s *Service) Cancel(ctx context.Context, reservationID id.ReservationID, cancelledBy, reason string) (*legal.LegalReservation, error) {
	return s.command(ctx, "cancel", reservationID, func(ctx context.Context, r *legal.LegalReservation) error {
		if err := s.transition(r, legal.StatusCancelled); err != nil {
			return err
		}
		return s.saveAndAudit(ctx, r, audit.Event{
			ReservationID: r.ID,
			Event:         audit.EventCancelled,
			Description:   "reservation cancelled",
			Source:        audit.SourceUser,
			Data: map[string]any{
				"cancelledBy": cancelledBy,
				"reason":      reason,
			},
		})
	}, notify.Notification{Type: notify.TypeReservationCancelled, Recipient: notify.Recipient{Role: "buyer"}, Urgency: notify.UrgencyHigh})
}

// SweepExpired cancels reservations whose expiry passed before they became
// legally bound. Returns the number of reservations swept. Invoked by a
// caller-owned timer, never scheduled internally.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	expired, err := s.store.ListExpired(ctx, time.Now())
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "list expired reservations")
	}

	swept := 0
	for _, candidate := range expired {
		_, err := s.command(ctx, "sweep_expired", candidate.ID, func(ctx context.Context, r *legal.LegalReservation) error {
			if !r.Expired(time.Now()) {
				return nil // advanced or already cancelled since listing
			}
			if err := s.transition(r, legal.StatusCancelled); err != nil {
				return err
			}
			return s.saveAndAudit(ctx, r, audit.Event{
				ReservationID: r.ID,
				Event:         audit.EventReservationExpired,
				Description:   "reservation expired without execution",
				Source:        audit.SourceSystem,
				Data:          map[string]any{"expiresAt": r.ExpiresAt},
			})
		}, notify.Notification{Type: notify.TypeReservationCancelled, Recipient: notify.Recipient{Role: "buyer"}, Urgency: notify.UrgencyHigh})
		if err != nil {
			s.logger.ErrorContext(ctx, "expiry sweep failed for reservation",
				"reservation_id", candidate.ID.String(), "error", err)
			continue
		}
		swept++
		s.metrics.IncExpired()
	}
	return swept, nil
}

// Get loads a reservation.
func (s *Service) Get(ctx context.Context, reservationID id.ReservationID) (*legal.LegalReservation, error) {
	reservation, err := s.store.Load(ctx, reservationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "reservation not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load reservation")
	}
	return reservation, nil
}

// AuditTrail returns the reservation's append-only legal audit trail.
func (s *Service) AuditTrail(ctx context.Context, reservationID id.ReservationID) ([]audit.Event, error) {
	return s.auditor.List(ctx, reservationID)
}

// SyncDeposit refreshes the reservation's deposit projection from the ledger.
// Called after ledger operations initiated outside the state machine
// (transfer to escrow, release, refund, forfeiture).
func (s *Service) SyncDeposit(ctx context.Context, reservationID id.ReservationID) (*legal.LegalReservation, error) {
	return s.command(ctx, "sync_deposit", reservationID, func(ctx context.Context, r *legal.LegalReservation) error {
		deposit, err := s.ledger.GetDeposit(ctx, r.ID)
		if err != nil {
			return err
		}
		r.Deposit = projectDeposit(deposit)
		return s.save(ctx, r)
	})
}

// IsLegallyBound reports whether the reservation's contract is enforceable.
// Consumed by the escrow ledger as its release guard.
func (s *Service) IsLegallyBound(ctx context.Context, reservationID id.ReservationID) (bool, error) {
	reservation, err := s.store.Load(ctx, reservationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return reservation.Status.AtLeast(legal.StatusLegallyBound), nil
}

// command serializes, loads, runs fn inside the store's transaction boundary,
// and publishes notifications only after the transaction committed. A failed
// fn leaves neither aggregate nor audit changes behind.
func (s *Service) command(ctx context.Context, name string, reservationID id.ReservationID, fn func(ctx context.Context, r *legal.LegalReservation) error, notifications ...notify.Notification) (*legal.LegalReservation, error) {
	start := time.Now()
	var reservation *legal.LegalReservation

	var fromStatus legal.LegalTransactionStatus
	err := s.guard.Do(ctx, reservationID.String(), func(ctx context.Context) error {
		return s.store.RunInTx(ctx, func(ctx context.Context) error {
			r, err := s.store.Load(ctx, reservationID)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					return dErrors.New(dErrors.CodeNotFound, "reservation not found")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "load reservation")
			}
			fromStatus = r.Status
			if err := fn(ctx, r); err != nil {
				return err
			}
			reservation = r
			return nil
		})
	})
	s.metrics.ObserveCommand(name, time.Since(start))
	if err != nil {
		s.metrics.IncRejection(name, string(dErrors.CodeOf(err)))
		return nil, err
	}
	if reservation.Status != fromStatus {
		s.metrics.ObserveTransition(string(fromStatus), string(reservation.Status))
	}

	s.publish(ctx, reservationID, notifications...)
	return reservation, nil
}

// transition validates and applies a status change. It is the single write
// path for LegalReservation.Status.
func (s *Service) transition(r *legal.LegalReservation, to legal.LegalTransactionStatus) error {
	if !r.Status.CanTransitionTo(to) {
		return dErrors.New(dErrors.CodeInvalidTransition,
			"cannot transition from "+string(r.Status)+" to "+string(to))
	}
	r.Status = to
	return nil
}

func (s *Service) save(ctx context.Context, r *legal.LegalReservation) error {
	r.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, r); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrVersionMismatch):
			return dErrors.New(dErrors.CodeConcurrencyConflict, "reservation was modified concurrently")
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "reservation not found")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "save reservation")
		}
	}
	return nil
}

func (s *Service) saveAndAudit(ctx context.Context, r *legal.LegalReservation, events ...audit.Event) error {
	if err := s.save(ctx, r); err != nil {
		return err
	}
	for _, event := range events {
		if err := s.auditor.Emit(ctx, event); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "append audit event")
		}
	}
	return nil
}

// publish raises notifications best effort: delivery failures are the
// router's problem and never fail a committed command.
func (s *Service) publish(ctx context.Context, reservationID id.ReservationID, notifications ...notify.Notification) {
	for _, n := range notifications {
		n.ReservationID = reservationID
		n.CreatedAt = time.Now()
		if err := s.router.Publish(ctx, n); err != nil {
			s.logger.ErrorContext(ctx, "notification publish failed",
				"reservation_id", reservationID.String(),
				"type", string(n.Type),
				"error", err,
			)
		}
	}
}

func (s *Service) checkGate(ctx context.Context, r *legal.LegalReservation, req compliance.Requirement) error {
	record, err := s.compliance.Get(ctx, r.ID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load compliance record")
	}
	facts := compliance.Facts{
		DepositSecured:     r.IsDepositSecured(),
		SolicitorValidated: r.Solicitor != nil && r.Solicitor.Status != legal.SolicitorPending,
	}
	if unmet := compliance.Evaluate(record, facts, req); len(unmet) > 0 {
		return dErrors.NewComplianceUnmet(unmet)
	}
	return nil
}

func allOthersSigned(contract *legal.Contract, except id.SignerID) bool {
	for _, sig := range contract.Signatures {
		if sig.SignerID == except {
			continue
		}
		if sig.Status != legal.SignatureCompleted {
			return false
		}
	}
	return true
}

func projectDeposit(deposit *escrow.Deposit) legal.DepositProjection {
	projection := legal.DepositProjection{
		Amount:           deposit.Amount,
		Status:           deposit.Status,
		PaymentReference: deposit.Reference,
	}
	if !deposit.PaidAt.IsZero() {
		paidAt := deposit.PaidAt
		projection.PaidAt = &paidAt
	}
	if deposit.AccountID != nil {
		projection.EscrowAccount = deposit.AccountID.String()
	}
	return projection
}
