// Package errors defines the domain error taxonomy shared by services and the
// HTTP transport. Services return *Error values with a machine-readable Code;
// the transport translates codes to HTTP statuses without leaking internals.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation   Code = "validation_failed"
	CodeConflict     Code = "conflict"
	CodeRateLimited  Code = "rate_limited"
	CodeNotFound     Code = "not_found"
	CodeExpired      Code = "expired"
	CodeAlreadyUsed  Code = "already_used"
	CodeUnauthorized Code = "unauthorized"
	CodeInvalidInput Code = "invalid_input"
	CodeUnavailable  Code = "unavailable"
	CodeInternal     Code = "internal"
)

// Error carries a code, a safe human-readable message, and optional
// field-level detail. The wrapped cause is for logs only and must never be
// serialized to clients.
type Error struct {
	Code    Code
	Message string

	// Fields maps a field name to the reasons it was rejected. Populated for
	// CodeValidation and CodeConflict.
	Fields map[string][]string

	// RetryAfter is the number of seconds until the caller may retry.
	// Populated for CodeRateLimited.
	RetryAfter int

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// WithFields builds a field-level error, used for validation failures and
// uniqueness conflicts.
func WithFields(code Code, message string, fields map[string][]string) *Error {
	return &Error{Code: code, Message: message, Fields: fields}
}

// RateLimited builds a 429-class error reporting when the client may retry.
func RateLimited(retryAfter int) *Error {
	return &Error{
		Code:       CodeRateLimited,
		Message:    "Rate limit exceeded. Too many registration attempts.",
		RetryAfter: retryAfter,
	}
}

// As unwraps err into *Error if possible.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf reports the code of err, or CodeInternal for unrecognized errors.
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain error code to an HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeInvalidInput, CodeAlreadyUsed:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeNotFound:
		return http.StatusNotFound
	case CodeExpired:
		return http.StatusGone
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
