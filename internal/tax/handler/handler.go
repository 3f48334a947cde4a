// Package handler exposes the tax calculator over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"conveyo/internal/platform/middleware"
	"conveyo/internal/tax"
	"conveyo/internal/transport/http/shared"
	dErrors "conveyo/pkg/domain-errors"
)

// Handler handles tax calculation endpoints.
type Handler struct {
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

// New creates a new tax Handler.
func New(logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{logger: logger, jwtValidator: jwtValidator}
}

// Register registers the tax routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	routes := chi.NewRouter()
	routes.Use(middleware.Recovery(h.logger))
	routes.Use(middleware.RequestID)
	routes.Use(middleware.Logger(h.logger))
	routes.Use(middleware.Timeout(10 * time.Second))
	routes.Use(middleware.ContentTypeJSON)
	routes.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	routes.Post("/calculate", h.handleCalculate)
	r.Mount("/tax", routes)
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var input tax.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := tax.Calculate(input)
	if err != nil {
		h.logger.WarnContext(r.Context(), "tax calculation rejected",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}
