// Package apperr defines the service error type shared across handlers and
// middleware. Errors carry a stable machine code and the HTTP status they
// should surface with.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error category.
type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeRateLimited  Code = "RATE_LIMITED"
	CodeMaintenance  Code = "MAINTENANCE"
	CodeInternal     Code = "INTERNAL_ERROR"
)

// Error is a service error with an HTTP mapping.
type Error struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

// WithDetails attaches a key/value pair and returns the error for chaining.
func (e *Error) WithDetails(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func newError(code Code, status int, message string, cause error) *Error {
	return &Error{Code: code, Message: message, HTTPStatus: status, cause: cause}
}

// Validation reports invalid request input.
func Validation(message string) *Error {
	return newError(CodeValidation, http.StatusBadRequest, message, nil)
}

// Unauthorized reports a missing or failed authentication.
func Unauthorized(message string) *Error {
	if message == "" {
		message = "unauthorized"
	}
	return newError(CodeUnauthorized, http.StatusUnauthorized, message, nil)
}

// Forbidden reports an authenticated caller lacking permission.
func Forbidden(message string) *Error {
	if message == "" {
		message = "forbidden"
	}
	return newError(CodeForbidden, http.StatusForbidden, message, nil)
}

// NotFound reports a missing resource.
func NotFound(resource string) *Error {
	return newError(CodeNotFound, http.StatusNotFound, resource+" not found", nil)
}

// Conflict reports a uniqueness or state conflict.
func Conflict(message string) *Error {
	return newError(CodeConflict, http.StatusConflict, message, nil)
}

// RateLimited reports that the caller exceeded a rate limit.
func RateLimited(message string) *Error {
	if message == "" {
		message = "too many requests"
	}
	return newError(CodeRateLimited, http.StatusTooManyRequests, message, nil)
}

// Maintenance reports that the site is under maintenance.
func Maintenance(message string) *Error {
	if message == "" {
		message = "service temporarily unavailable for maintenance"
	}
	return newError(CodeMaintenance, http.StatusServiceUnavailable, message, nil)
}

// Internal wraps an unexpected failure.
func Internal(message string, cause error) *Error {
	if message == "" {
		message = "internal server error"
	}
	return newError(CodeInternal, http.StatusInternalServerError, message, cause)
}

// From extracts an *Error from err, wrapping unknown errors as Internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return Internal("internal server error", err)
}
