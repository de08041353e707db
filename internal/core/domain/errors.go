// Package domain defines the core domain model of camlink.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
//
// Codes have the form CL-<AREA>-<NNNN> where the number follows HTTP
// semantics (4xxx client side, 5xxx server side).
type DomainError struct {
	Code    string // Error code (e.g., "CL-CERT-5000")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support. Two DomainErrors match when their
// codes are equal.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Startup errors. These are fatal to the endpoint; the host application
// decides whether it keeps running without streaming.
var (
	// ErrCertGenerationFailed indicates the self-signed identity could not be minted.
	ErrCertGenerationFailed = NewDomainError("CL-CERT-5000", "certificate generation failed")

	// ErrTLSConfigFailed indicates the minted PEM pair could not be turned into a TLS config.
	ErrTLSConfigFailed = NewDomainError("CL-TLS-5000", "tls configuration failed")

	// ErrBindFailed indicates the listener could not be bound.
	ErrBindFailed = NewDomainError("CL-NET-5000", "bind failed")

	// ErrServerClosed is returned by Start after Shutdown.
	ErrServerClosed = NewDomainError("CL-NET-5030", "server closed")
)

// Session and host bus errors. None of these escape a session.
var (
	// ErrUpgradeFailed indicates the WebSocket handshake was rejected.
	ErrUpgradeFailed = NewDomainError("CL-WS-4000", "websocket upgrade failed")

	// ErrEmitFailed indicates the host bus refused an event.
	ErrEmitFailed = NewDomainError("CL-BUS-5000", "host bus emit failed")

	// ErrUnknownCommand indicates no host command is registered under a name.
	ErrUnknownCommand = NewDomainError("CL-CMD-4040", "unknown command")
)

// ErrInternal is reported to HTTP clients when a handler panics.
var ErrInternal = NewDomainError("CL-SYS-5000", "internal server error")
