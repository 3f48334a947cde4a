// Package handler exposes the escrow deposit ledger over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"conveyo/internal/escrow"
	"conveyo/internal/legal"
	"conveyo/internal/platform/middleware"
	"conveyo/internal/transport/http/shared"
	id "conveyo/pkg/domain"
	dErrors "conveyo/pkg/domain-errors"
)

// Service defines the interface for escrow ledger operations.
type Service interface {
	TransferToEscrow(ctx context.Context, depositID id.DepositID, accountID id.EscrowAccountID) (*escrow.Deposit, error)
	MarkNonRefundable(ctx context.Context, depositID id.DepositID, reason string) (*escrow.Deposit, error)
	Release(ctx context.Context, depositID id.DepositID, reason string) (*escrow.Deposit, error)
	Refund(ctx context.Context, depositID id.DepositID, authorizedBy, reason string) (*escrow.Deposit, error)
	Forfeit(ctx context.Context, depositID id.DepositID, authorizedBy, reason string) (*escrow.Deposit, error)
	GetDeposit(ctx context.Context, reservationID id.ReservationID) (*escrow.Deposit, error)
	CreateAccount(ctx context.Context, firmName, iban string) (*escrow.Account, error)
	GetAccount(ctx context.Context, accountID id.EscrowAccountID) (*escrow.Account, error)
}

// DepositSyncer refreshes a reservation's deposit projection after the
// ledger has moved the underlying deposit.
type DepositSyncer interface {
	SyncDeposit(ctx context.Context, reservationID id.ReservationID) (*legal.LegalReservation, error)
}

// Handler handles escrow deposit and account endpoints.
type Handler struct {
	ledger       Service
	syncer       DepositSyncer
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

// New creates a new escrow Handler.
func New(ledger Service, syncer DepositSyncer, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{ledger: ledger, syncer: syncer, logger: logger, jwtValidator: jwtValidator}
}

// Register registers the escrow routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	routes := chi.NewRouter()
	routes.Use(middleware.Recovery(h.logger))
	routes.Use(middleware.RequestID)
	routes.Use(middleware.Logger(h.logger))
	routes.Use(middleware.Timeout(30 * time.Second))
	routes.Use(middleware.ContentTypeJSON)
	routes.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	routes.Post("/deposits/{depositID}/transfer", h.handleTransfer)
	routes.Post("/deposits/{depositID}/non-refundable", h.handleMarkNonRefundable)
	routes.Post("/deposits/{depositID}/release", h.handleRelease)
	routes.Post("/deposits/{depositID}/refund", h.handleRefund)
	routes.Post("/deposits/{depositID}/forfeit", h.handleForfeit)
	routes.Get("/reservations/{reservationID}/deposit", h.handleGetDeposit)
	routes.Post("/accounts", h.handleCreateAccount)
	routes.Get("/accounts/{accountID}", h.handleGetAccount)
	r.Mount("/escrow", routes)
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	depositID, err := h.depositID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req struct {
		AccountID string `json:"accountId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	accountID, err := id.ParseEscrowAccountID(req.AccountID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	deposit, err := h.ledger.TransferToEscrow(r.Context(), depositID, accountID)
	if err != nil {
		h.logError(r, "escrow transfer failed", err)
		shared.WriteError(w, err)
		return
	}
	h.syncReservation(r.Context(), deposit.ReservationID)
	shared.WriteJSON(w, http.StatusOK, deposit)
}

func (h *Handler) handleMarkNonRefundable(w http.ResponseWriter, r *http.Request) {
	h.handleDepositAction(w, r, "mark non-refundable failed", func(ctx context.Context, depositID id.DepositID, req depositActionRequest) (*escrow.Deposit, error) {
		return h.ledger.MarkNonRefundable(ctx, depositID, req.Reason)
	})
}

func (h *Handler) handleRelease(w http.ResponseWriter, r *http.Request) {
	h.handleDepositAction(w, r, "release failed", func(ctx context.Context, depositID id.DepositID, req depositActionRequest) (*escrow.Deposit, error) {
		return h.ledger.Release(ctx, depositID, req.Reason)
	})
}

func (h *Handler) handleRefund(w http.ResponseWriter, r *http.Request) {
	h.handleDepositAction(w, r, "refund failed", func(ctx context.Context, depositID id.DepositID, req depositActionRequest) (*escrow.Deposit, error) {
		return h.ledger.Refund(ctx, depositID, h.authorizedBy(r, req), req.Reason)
	})
}

func (h *Handler) handleForfeit(w http.ResponseWriter, r *http.Request) {
	h.handleDepositAction(w, r, "forfeit failed", func(ctx context.Context, depositID id.DepositID, req depositActionRequest) (*escrow.Deposit, error) {
		return h.ledger.Forfeit(ctx, depositID, h.authorizedBy(r, req), req.Reason)
	})
}

func (h *Handler) handleGetDeposit(w http.ResponseWriter, r *http.Request) {
	reservationID, err := id.ParseReservationID(chi.URLParam(r, "reservationID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	deposit, err := h.ledger.GetDeposit(r.Context(), reservationID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, deposit)
}

func (h *Handler) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirmName string `json:"firmName"`
		IBAN     string `json:"iban"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	account, err := h.ledger.CreateAccount(r.Context(), req.FirmName, req.IBAN)
	if err != nil {
		h.logError(r, "create account failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, account)
}

func (h *Handler) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := id.ParseEscrowAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	account, err := h.ledger.GetAccount(r.Context(), accountID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, account)
}

type depositActionRequest struct {
	Reason       string `json:"reason"`
	AuthorizedBy string `json:"authorizedBy"`
}

func (h *Handler) handleDepositAction(w http.ResponseWriter, r *http.Request, failureMessage string, action func(context.Context, id.DepositID, depositActionRequest) (*escrow.Deposit, error)) {
	depositID, err := h.depositID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req depositActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	deposit, err := action(r.Context(), depositID, req)
	if err != nil {
		h.logError(r, failureMessage, err)
		shared.WriteError(w, err)
		return
	}
	h.syncReservation(r.Context(), deposit.ReservationID)
	shared.WriteJSON(w, http.StatusOK, deposit)
}

// syncReservation refreshes the reservation's deposit projection. The ledger
// is the source of truth for the deposit, so a failed sync is logged and the
// ledger result still returned.
func (h *Handler) syncReservation(ctx context.Context, reservationID id.ReservationID) {
	if h.syncer == nil {
		return
	}
	if _, err := h.syncer.SyncDeposit(ctx, reservationID); err != nil {
		h.logger.WarnContext(ctx, "deposit sync failed",
			"error", err,
			"reservation_id", reservationID.String(),
		)
	}
}

func (h *Handler) authorizedBy(r *http.Request, req depositActionRequest) string {
	if req.AuthorizedBy != "" {
		return req.AuthorizedBy
	}
	return middleware.GetSubject(r.Context())
}

func (h *Handler) depositID(r *http.Request) (id.DepositID, error) {
	return id.ParseDepositID(chi.URLParam(r, "depositID"))
}

func (h *Handler) logError(r *http.Request, message string, err error) {
	h.logger.WarnContext(r.Context(), message,
		"error", err,
		"request_id", middleware.GetRequestID(r.Context()),
	)
}
