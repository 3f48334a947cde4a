// Package handler exposes the compliance record over HTTP. External KYC/AML
// collaborators report screening results here; the workflow fields the legal
// service maintains itself are never writable through this surface.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"conveyo/internal/compliance"
	"conveyo/internal/platform/middleware"
	"conveyo/internal/transport/http/shared"
	id "conveyo/pkg/domain"
	dErrors "conveyo/pkg/domain-errors"
)

// Handler handles compliance record endpoints.
type Handler struct {
	store        compliance.Store
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

// New creates a new compliance Handler.
func New(store compliance.Store, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{store: store, logger: logger, jwtValidator: jwtValidator}
}

// Register registers the compliance routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	routes := chi.NewRouter()
	routes.Use(middleware.Recovery(h.logger))
	routes.Use(middleware.RequestID)
	routes.Use(middleware.Logger(h.logger))
	routes.Use(middleware.Timeout(10 * time.Second))
	routes.Use(middleware.ContentTypeJSON)
	routes.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	routes.Get("/reservations/{reservationID}", h.handleGet)
	routes.Put("/reservations/{reservationID}", h.handlePut)
	r.Mount("/compliance", routes)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reservationID, err := id.ParseReservationID(chi.URLParam(r, "reservationID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	record, err := h.store.Get(r.Context(), reservationID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	reservationID, err := id.ParseReservationID(chi.URLParam(r, "reservationID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req struct {
		KYCStatus    compliance.KYCStatus    `json:"kycStatus"`
		AMLStatus    compliance.AMLStatus    `json:"amlStatus"`
		AMLRiskLevel compliance.AMLRiskLevel `json:"amlRiskLevel"`

		StatuteOfFraudsCompliant bool `json:"statuteOfFraudsCompliant"`
		ECommerceActCompliant    bool `json:"eCommerceActCompliant"`
		EIDASCompliant           bool `json:"eidasCompliant"`

		DataProcessingConsent bool `json:"dataProcessingConsent"`
		ESignatureConsent     bool `json:"eSignatureConsent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, err := h.store.Get(r.Context(), reservationID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	// SolicitorNominated and ContractReviewed carry over untouched: the
	// legal workflow owns them.
	record.ReservationID = reservationID
	record.KYCStatus = req.KYCStatus
	record.AMLStatus = req.AMLStatus
	record.AMLRiskLevel = req.AMLRiskLevel
	record.StatuteOfFraudsCompliant = req.StatuteOfFraudsCompliant
	record.ECommerceActCompliant = req.ECommerceActCompliant
	record.EIDASCompliant = req.EIDASCompliant
	record.DataProcessingConsent = req.DataProcessingConsent
	record.ESignatureConsent = req.ESignatureConsent
	if req.DataProcessingConsent || req.ESignatureConsent {
		now := time.Now()
		record.ConsentRecordedAt = &now
	}

	if err := h.store.Put(r.Context(), record); err != nil {
		h.logger.WarnContext(r.Context(), "compliance record update failed",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, record)
}
