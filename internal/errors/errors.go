// Package errors provides standardized domain errors with codes for the Bookworm API.
//
// Usage:
//
//	// In services - return typed errors
//	if len(rows) == 0 {
//	    return errors.EmptyInput("export contains no rows")
//	}
//
//	// In handlers - check with errors.Is
//	if errors.Is(err, errors.ErrSchemaMismatch) {
//	    // 422 with the adapter's message
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound       Code = "NOT_FOUND"
	CodeValidation     Code = "VALIDATION"
	CodeEmptyInput     Code = "EMPTY_INPUT"
	CodeSchemaMismatch Code = "SCHEMA_MISMATCH"
	CodeParseFailure   Code = "PARSE_FAILURE"
	CodeUpstream       Code = "UPSTREAM"
	CodeInternal       Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation:
		return http.StatusBadRequest
	case CodeEmptyInput, CodeSchemaMismatch, CodeParseFailure:
		return http.StatusUnprocessableEntity
	case CodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound       = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation     = &Error{Code: CodeValidation, Message: "validation error"}
	ErrEmptyInput     = &Error{Code: CodeEmptyInput, Message: "empty input"}
	ErrSchemaMismatch = &Error{Code: CodeSchemaMismatch, Message: "schema mismatch"}
	ErrParseFailure   = &Error{Code: CodeParseFailure, Message: "parse failure"}
	ErrUpstream       = &Error{Code: CodeUpstream, Message: "upstream request failed"}
	ErrInternal       = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors with custom messages.

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// EmptyInput creates an empty input error.
func EmptyInput(msg string) *Error {
	return &Error{Code: CodeEmptyInput, Message: msg}
}

// SchemaMismatch creates a schema mismatch error.
func SchemaMismatch(msg string) *Error {
	return &Error{Code: CodeSchemaMismatch, Message: msg}
}

// SchemaMismatchWithDetails creates a schema mismatch error naming the missing columns.
func SchemaMismatchWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeSchemaMismatch, Message: msg, Details: details}
}

// ParseFailure creates a parse failure error.
func ParseFailure(msg string) *Error {
	return &Error{Code: CodeParseFailure, Message: msg}
}

// ParseFailuref creates a parse failure error with formatted message.
func ParseFailuref(format string, args ...any) *Error {
	return &Error{Code: CodeParseFailure, Message: fmt.Sprintf(format, args...)}
}

// Upstream creates an upstream request error.
func Upstream(msg string) *Error {
	return &Error{Code: CodeUpstream, Message: msg}
}

// Upstreamf creates an upstream request error with formatted message.
func Upstreamf(format string, args ...any) *Error {
	return &Error{Code: CodeUpstream, Message: fmt.Sprintf(format, args...)}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
