// Package shared centralizes JSON response writing and domain error
// translation so every handler produces the same envelopes.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "conveyo/pkg/domain-errors"
)

// ErrorResponse is the JSON error envelope returned to callers. Conditions is
// populated for compliance rejections so the caller can render each unmet
// condition by name.
type ErrorResponse struct {
	Error      string   `json:"error"`
	Message    string   `json:"message,omitempty"`
	Conditions []string `json:"conditions,omitempty"`
}

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// WriteError translates a domain error into an HTTP response.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := ErrorResponse{
		Error:      string(code),
		Message:    messageOf(err),
		Conditions: dErrors.ConditionsOf(err),
	}
	WriteJSON(w, statusOf(code), resp)
}

func statusOf(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidInput, dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeInvalidTransition, dErrors.CodeDepositStateConflict, dErrors.CodeDuplicatePayment, dErrors.CodeConcurrencyConflict:
		return http.StatusConflict
	case dErrors.CodeComplianceUnmet:
		return http.StatusUnprocessableEntity
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func messageOf(err error) string {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	// Never leak internal error strings to callers.
	return ""
}
