// Package domainerrors defines the coded error taxonomy for the ledger core.
// Every fatal condition is a distinct, named code so off-chain tooling can
// classify incidents without parsing message strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	// CodeUnauthorized: caller does not hold the required role.
	CodeUnauthorized Code = "unauthorized"

	// CodeEmergencyHalt: the system is halted; evaluated before all other checks.
	CodeEmergencyHalt Code = "emergency_halt_active"

	// CodePolicyViolation: the transfer policy rejected or malfunctioned.
	// The two causes are deliberately not distinguished to the caller.
	CodePolicyViolation Code = "policy_violation"

	// CodeSupplyCapExceeded: mint would push total supply past the cap.
	CodeSupplyCapExceeded Code = "supply_cap_exceeded"

	// CodeInsufficientBalance: burn or transfer exceeds the available balance.
	CodeInsufficientBalance Code = "insufficient_balance"

	// CodeUpgradeNotAuthorized: the upgrade authorizer denied, faulted, or is unset.
	CodeUpgradeNotAuthorized Code = "upgrade_not_authorized"

	// CodeReentrantCall: an entry point was re-invoked before the first call completed.
	CodeReentrantCall Code = "reentrant_call"

	CodeBadRequest Code = "bad_request"
	CodeNotFound   Code = "not_found"
	CodeInternal   Code = "internal"
)

// Error carries a code alongside the message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the code from an error chain, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Is reports whether the error chain carries the given code.
func Is(err error, code Code) bool { return CodeOf(err) == code }

// ToHTTPStatus maps codes onto HTTP statuses for the transport layer.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeEmergencyHalt:
		return http.StatusServiceUnavailable
	case CodePolicyViolation, CodeSupplyCapExceeded, CodeInsufficientBalance,
		CodeUpgradeNotAuthorized:
		return http.StatusUnprocessableEntity
	case CodeReentrantCall:
		return http.StatusConflict
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
