// Package server holds the HTTP plumbing shared by all service
// handlers: identity resolution, response encoding, business-error to
// status mapping, and request middleware.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"hoaban-restaurant/internal/errs"
	"hoaban-restaurant/internal/logger"
)

// ErrorResponse is the JSON body of every non-2xx response
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// statusFor maps a business error code to an HTTP status. Unknown codes
// mean an internal failure.
func statusFor(code errs.Code) int {
	switch code {
	case errs.CodeInvalidInput, errs.CodeInsufficientPayment, errs.CodeMalformedToken:
		return http.StatusBadRequest
	case errs.CodeForbidden, errs.CodeOwnershipViolation:
		return http.StatusForbidden
	case errs.CodeInvalidSignature, errs.CodeTokenExpired:
		return http.StatusUnauthorized
	case errs.CodeOrderNotFound, errs.CodePaymentNotFound, errs.CodeTableNotFound,
		errs.CodeItemNotFound, errs.CodeReservationNotFound, errs.CodeVoucherNotFound,
		errs.CodeCatalogNotFound:
		return http.StatusNotFound
	case errs.CodeOrderNotOpen, errs.CodeOrderAlreadySettled, errs.CodeInvalidTransition,
		errs.CodeTableOverlap, errs.CodeTableBusy, errs.CodeInsufficientCapacity,
		errs.CodeReservationClosed, errs.CodeVoucherInactive, errs.CodeVoucherNotStarted,
		errs.CodeVoucherExpired, errs.CodeVoucherNotApplicable, errs.CodeVoucherOwned,
		errs.CodeInsufficientPoints:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes v as a JSON response with the given status
func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into an HTTP response. Business errors keep
// their message and code; anything else is reported as a generic 500 so
// internals do not leak to clients.
func WriteError(w http.ResponseWriter, log *logger.Logger, requestID string, err error) {
	status := http.StatusInternalServerError
	body := ErrorResponse{RequestID: requestID}

	var be *errs.Error
	if errors.As(err, &be) {
		status = statusFor(be.Code)
	}
	if status == http.StatusInternalServerError {
		log.Error("request_failed", "Internal error while handling request", requestID, err, nil)
		body.Error = "Internal server error"
	} else {
		body.Error = be.Message
		body.Code = string(be.Code)
	}
	WriteJSON(w, status, body)
}

// WriteErrorMessage writes a plain error without a business code
func WriteErrorMessage(w http.ResponseWriter, statusCode int, message, requestID string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, RequestID: requestID})
}
