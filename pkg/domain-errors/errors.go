// Package domainerrors defines the error taxonomy shared by services and
// transport. Services construct these; transport maps them to HTTP statuses.
//
// Stores do not use this package. Stores return pkg/platform/sentinel errors
// and the owning service translates them, so the taxonomy stays a service
// concern.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code identifies a class of failure. The string value is the wire format
// used in error envelopes, so renaming a code is a breaking API change.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal_error"

	// Workflow codes distinguish "not allowed" from "wrong time" so the
	// calling UI can explain which (standing vs. state).
	CodeInvalidState        Code = "invalid_state"
	CodeNotParticipant      Code = "not_participant"
	CodeNotOwner            Code = "not_owner"
	CodeDuplicateConnection Code = "duplicate_connection"
	CodeNotApproved         Code = "not_approved"
)

// GatewayError carries a code for transport mapping and a human-readable
// message. It optionally wraps a cause for logging; the cause is never
// serialized to clients.
type GatewayError struct {
	Code    Code
	Message string
	Err     error
}

func (e GatewayError) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e GatewayError) Unwrap() error {
	return e.Err
}

// New constructs a GatewayError without a cause.
func New(code Code, message string) error {
	return GatewayError{Code: code, Message: message}
}

// Wrap constructs a GatewayError around a cause.
func Wrap(err error, code Code, message string) error {
	return GatewayError{Code: code, Message: message, Err: err}
}

// HasCode reports whether err is (or wraps) a GatewayError with the given code.
func HasCode(err error, code Code) bool {
	var gw GatewayError
	if errors.As(err, &gw) {
		return gw.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// unclassified errors.
func CodeOf(err error) Code {
	var gw GatewayError
	if errors.As(err, &gw) {
		return gw.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the HTTP status used by the transport layer.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeNotParticipant, CodeNotOwner, CodeNotApproved:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidState, CodeDuplicateConnection:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
