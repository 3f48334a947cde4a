// Package dErrors defines the coded domain errors returned at command-handler
// boundaries. Stores return pkg/platform/sentinel facts; services translate
// them into these coded errors so callers can render a specific reason.
package dErrors

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies a domain error. Codes are part of the API contract: the
// HTTP layer maps them to status codes and clients branch on them.
type Code string

const (
	// CodeInvalidTransition signals a state machine guard failure. The
	// aggregate is unchanged and no audit event was appended.
	CodeInvalidTransition Code = "INVALID_TRANSITION"

	// CodeDuplicatePayment signals a payment capture for a reservation that
	// already has a non-terminal deposit.
	CodeDuplicatePayment Code = "DUPLICATE_PAYMENT"

	// CodeComplianceUnmet signals that the compliance gate blocked a
	// transition. Conditions lists what failed.
	CodeComplianceUnmet Code = "COMPLIANCE_UNMET"

	// CodeDepositStateConflict signals a ledger operation attempted from the
	// wrong deposit status.
	CodeDepositStateConflict Code = "DEPOSIT_STATE_CONFLICT"

	// CodeConcurrencyConflict signals an optimistic version mismatch on save.
	CodeConcurrencyConflict Code = "CONCURRENCY_CONFLICT"

	CodeInvalidInput Code = "INVALID_INPUT"
	CodeBadRequest   Code = "BAD_REQUEST"
	CodeNotFound     Code = "NOT_FOUND"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeTimeout      Code = "TIMEOUT"
	CodeInternal     Code = "INTERNAL"
)

// Error is a coded domain error with an optional wrapped cause and, for
// compliance rejections, the list of unmet conditions.
type Error struct {
	Code       Code
	Message    string
	Conditions []string
	cause      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if len(e.Conditions) > 0 {
		msg += " [" + strings.Join(e.Conditions, ", ") + "]"
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded domain error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// NewComplianceUnmet builds a CodeComplianceUnmet error carrying the failed
// conditions so the caller can render each one.
func NewComplianceUnmet(conditions []string) *Error {
	return &Error{
		Code:       CodeComplianceUnmet,
		Message:    "compliance requirements not met",
		Conditions: conditions,
	}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == code
}

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded
// errors so nothing leaks raw internals to callers.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ConditionsOf returns the unmet conditions attached to err, if any.
func ConditionsOf(err error) []string {
	var de *Error
	if errors.As(err, &de) {
		return de.Conditions
	}
	return nil
}
