// Package handler exposes the legal transaction commands over HTTP: the
// buyer-facing command routes plus the webhook routes external collaborators
// (payment capture, e-signature, solicitor registry) deliver facts through.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"conveyo/internal/audit"
	"conveyo/internal/escrow"
	"conveyo/internal/legal"
	legalservice "conveyo/internal/legal/service"
	"conveyo/internal/platform/middleware"
	"conveyo/internal/transport/http/shared"
	id "conveyo/pkg/domain"
	dErrors "conveyo/pkg/domain-errors"
)

// Service defines the interface for legal transaction operations.
type Service interface {
	InitiateBooking(ctx context.Context, unitID id.UnitID, buyerID id.BuyerID) (*legal.LegalReservation, error)
	AcceptTerms(ctx context.Context, reservationID id.ReservationID, ipAddress, userAgent string) (*legal.LegalReservation, error)
	DepositCaptured(ctx context.Context, reservationID id.ReservationID, amount decimal.Decimal, method escrow.PaymentMethod, reference string) (*legal.LegalReservation, error)
	NominateSolicitor(ctx context.Context, reservationID id.ReservationID, input legalservice.SolicitorInput) (*legal.LegalReservation, error)
	SolicitorValidated(ctx context.Context, reservationID id.ReservationID) (*legal.LegalReservation, error)
	GenerateContract(ctx context.Context, reservationID id.ReservationID, documentRef string) (*legal.LegalReservation, error)
	SubmitContractForReview(ctx context.Context, reservationID id.ReservationID) (*legal.LegalReservation, error)
	MarkContractReady(ctx context.Context, reservationID id.ReservationID, reviewedBy string) (*legal.LegalReservation, error)
	SendForSignature(ctx context.Context, reservationID id.ReservationID, signers []legalservice.SignerInput) (*legal.LegalReservation, error)
	OnSignatureUpdate(ctx context.Context, reservationID id.ReservationID, envelopeID string, signerID id.SignerID, status legal.SignatureStatus) (*legal.LegalReservation, error)
	ConfirmCompletion(ctx context.Context, reservationID id.ReservationID, completionDate time.Time) (*legal.LegalReservation, error)
	Cancel(ctx context.Context, reservationID id.ReservationID, cancelledBy, reason string) (*legal.LegalReservation, error)
	Get(ctx context.Context, reservationID id.ReservationID) (*legal.LegalReservation, error)
	AuditTrail(ctx context.Context, reservationID id.ReservationID) ([]audit.Event, error)
}

// Handler handles legal reservation endpoints.
type Handler struct {
	legal        Service
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

// New creates a new legal Handler.
func New(legal Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{legal: legal, logger: logger, jwtValidator: jwtValidator}
}

// Register registers the legal routes with the chi router. Command routes
// require a bearer token; webhook routes carry the collaborator facts and
// authenticate at the gateway.
func (h *Handler) Register(r chi.Router) {
	commands := chi.NewRouter()
	commands.Use(middleware.Recovery(h.logger))
	commands.Use(middleware.RequestID)
	commands.Use(middleware.Logger(h.logger))
	commands.Use(middleware.Timeout(30 * time.Second))
	commands.Use(middleware.ContentTypeJSON)
	commands.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	commands.Post("/", h.handleInitiateBooking)
	commands.Get("/{reservationID}", h.handleGet)
	commands.Get("/{reservationID}/audit", h.handleAuditTrail)
	commands.Post("/{reservationID}/accept-terms", h.handleAcceptTerms)
	commands.Post("/{reservationID}/solicitor", h.handleNominateSolicitor)
	commands.Post("/{reservationID}/contract", h.handleGenerateContract)
	commands.Post("/{reservationID}/contract/review", h.handleSubmitForReview)
	commands.Post("/{reservationID}/contract/ready", h.handleMarkReady)
	commands.Post("/{reservationID}/send-for-signature", h.handleSendForSignature)
	commands.Post("/{reservationID}/complete", h.handleConfirmCompletion)
	commands.Post("/{reservationID}/cancel", h.handleCancel)
	r.Mount("/reservations", commands)

	webhooks := chi.NewRouter()
	webhooks.Use(middleware.Recovery(h.logger))
	webhooks.Use(middleware.RequestID)
	webhooks.Use(middleware.Logger(h.logger))
	webhooks.Use(middleware.Timeout(30 * time.Second))
	webhooks.Use(middleware.ContentTypeJSON)
	webhooks.Post("/payments", h.handlePaymentCaptured)
	webhooks.Post("/signatures", h.handleSignatureUpdate)
	webhooks.Post("/solicitor-validation", h.handleSolicitorValidated)
	r.Mount("/webhooks", webhooks)
}

func (h *Handler) handleInitiateBooking(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UnitID  string `json:"unitId"`
		BuyerID string `json:"buyerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	unitID, err := id.ParseUnitID(req.UnitID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	buyerID, err := id.ParseBuyerID(req.BuyerID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	reservation, err := h.legal.InitiateBooking(r.Context(), unitID, buyerID)
	if err != nil {
		h.logError(r, "initiate booking failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, reservation)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reservationID, err := h.reservationID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	reservation, err := h.legal.Get(r.Context(), reservationID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, reservation)
}

func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	reservationID, err := h.reservationID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	trail, err := h.legal.AuditTrail(r.Context(), reservationID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"auditLog": trail})
}

func (h *Handler) handleAcceptTerms(w http.ResponseWriter, r *http.Request) {
	reservationID, err := h.reservationID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	ip := r.RemoteAddr
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		ip = forwarded
	}
	reservation, err := h.legal.AcceptTerms(r.Context(), reservationID, ip, r.UserAgent())
	if err != nil {
		h.logError(r, "accept terms failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, reservation)
}

func (h *Handler) handleNominateSolicitor(w http.ResponseWriter, r *http.Request) {
	reservationID, err := h.reservationID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var input legalservice.SolicitorInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	reservation, err := h.legal.NominateSolicitor(r.Context(), reservationID, input)
	if err != nil {
		h.logError(r, "nominate solicitor failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, reservation)
}

func (h *Handler) handleGenerateContract(w http.ResponseWriter, r *http.Request) {
	reservationID, err := h.reservationID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req struct {
		DocumentRef string `json:"documentRef"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	reservation, err := h.legal.GenerateContract(r.Context(), reservationID, req.DocumentRef)
	if err != nil {
		h.logError(r, "generate contract failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, reservation)
}

func (h *Handler) handleSubmitForReview(w http.ResponseWriter, r *http.Request) {
	reservationID, err := h.reservationID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	reservation, err := h.legal.SubmitContractForReview(r.Context(), reservationID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, reservation)
}

func (h *Handler) handleMarkReady(w http.ResponseWriter, r *http.Request) {
	reservationID, err := h.reservationID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	reservation, err := h.legal.MarkContractReady(r.Context(), reservationID, middleware.GetSubject(r.Context()))
	if err != nil {
		h.logError(r, "mark contract ready failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, reservation)
}

func (h *Handler) handleSendForSignature(w http.ResponseWriter, r *http.Request) {
	reservationID, err := h.reservationID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req struct {
		Signers []legalservice.SignerInput `json:"signers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	reservation, err := h.legal.SendForSignature(r.Context(), reservationID, req.Signers)
	if err != nil {
		h.logError(r, "send for signature failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, reservation)
}

func (h *Handler) handleConfirmCompletion(w http.ResponseWriter, r *http.Request) {
	reservationID, err := h.reservationID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req struct {
		CompletionDate time.Time `json:"completionDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.CompletionDate.IsZero() {
		req.CompletionDate = time.Now()
	}

	reservation, err := h.legal.ConfirmCompletion(r.Context(), reservationID, req.CompletionDate)
	if err != nil {
		h.logError(r, "confirm completion failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, reservation)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	reservationID, err := h.reservationID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	reservation, err := h.legal.Cancel(r.Context(), reservationID, middleware.GetSubject(r.Context()), req.Reason)
	if err != nil {
		h.logError(r, "cancel failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, reservation)
}

func (h *Handler) handlePaymentCaptured(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReservationID string          `json:"reservationId"`
		Amount        decimal.Decimal `json:"amount"`
		Method        string          `json:"method"`
		Reference     string          `json:"reference"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	reservationID, err := id.ParseReservationID(req.ReservationID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	reservation, err := h.legal.DepositCaptured(r.Context(), reservationID, req.Amount, escrow.PaymentMethod(req.Method), req.Reference)
	if err != nil {
		h.logError(r, "payment capture webhook failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, reservation)
}

func (h *Handler) handleSignatureUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReservationID string `json:"reservationId"`
		EnvelopeID    string `json:"envelopeId"`
		SignerID      string `json:"signerId"`
		Status        string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	reservationID, err := id.ParseReservationID(req.ReservationID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	signerID, err := id.ParseSignerID(req.SignerID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	reservation, err := h.legal.OnSignatureUpdate(r.Context(), reservationID, req.EnvelopeID, signerID, legal.SignatureStatus(req.Status))
	if err != nil {
		h.logError(r, "signature webhook failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, reservation)
}

func (h *Handler) handleSolicitorValidated(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReservationID string `json:"reservationId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	reservationID, err := id.ParseReservationID(req.ReservationID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	reservation, err := h.legal.SolicitorValidated(r.Context(), reservationID)
	if err != nil {
		h.logError(r, "solicitor validation webhook failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, reservation)
}

func (h *Handler) reservationID(r *http.Request) (id.ReservationID, error) {
	return id.ParseReservationID(chi.URLParam(r, "reservationID"))
}

func (h *Handler) logError(r *http.Request, message string, err error) {
	h.logger.WarnContext(r.Context(), message,
		"error", err,
		"request_id", middleware.GetRequestID(r.Context()),
	)
}
