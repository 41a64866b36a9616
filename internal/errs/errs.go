// Package errs defines the business errors surfaced by the core services.
// Every error carries a stable machine-readable code plus a human message;
// anything that is not an *Error is treated as an internal failure.
package errs

import (
	"errors"
	"fmt"
)

// Code identifies a business error independently of its message
type Code string

const (
	// validation
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeInsufficientPayment Code = "INSUFFICIENT_PAYMENT"

	// state-conflict
	CodeOrderNotOpen         Code = "ORDER_NOT_OPEN"
	CodeOrderAlreadySettled  Code = "ORDER_ALREADY_SETTLED"
	CodeInvalidTransition    Code = "INVALID_TRANSITION"
	CodeTableOverlap         Code = "TABLE_OVERLAP"
	CodeTableBusy            Code = "TABLE_BUSY"
	CodeInsufficientCapacity Code = "INSUFFICIENT_CAPACITY"
	CodeReservationClosed    Code = "RESERVATION_CLOSED"
	CodeVoucherInactive      Code = "VOUCHER_INACTIVE"
	CodeVoucherNotStarted    Code = "VOUCHER_NOT_STARTED"
	CodeVoucherExpired       Code = "VOUCHER_EXPIRED"
	CodeVoucherNotApplicable Code = "VOUCHER_NOT_APPLICABLE"
	CodeVoucherOwned         Code = "VOUCHER_ALREADY_OWNED"
	CodeInsufficientPoints   Code = "INSUFFICIENT_POINTS"

	// authorization
	CodeForbidden          Code = "FORBIDDEN"
	CodeOwnershipViolation Code = "OWNERSHIP_VIOLATION"

	// integrity
	CodeInvalidSignature Code = "INVALID_SIGNATURE"
	CodeMalformedToken   Code = "MALFORMED_TOKEN"
	CodeTokenExpired     Code = "TOKEN_EXPIRED"

	// not-found
	CodeOrderNotFound       Code = "ORDER_NOT_FOUND"
	CodePaymentNotFound     Code = "PAYMENT_NOT_FOUND"
	CodeTableNotFound       Code = "TABLE_NOT_FOUND"
	CodeItemNotFound        Code = "ITEM_NOT_FOUND"
	CodeReservationNotFound Code = "RESERVATION_NOT_FOUND"
	CodeVoucherNotFound     Code = "VOUCHER_NOT_FOUND"
	CodeCatalogNotFound     Code = "CATALOG_ITEM_NOT_FOUND"
)

// Error is a recoverable-by-caller business error
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is makes errors with the same code comparable via errors.Is
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// New creates a business error with the given code and message
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a business error with a formatted message
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the business code from err, or empty if err is internal
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err is a business error with the given code
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
