// Package errors provides structured error types for the orrery layout engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, HTTP API and library callers
//   - Machine-readable error codes for programmatic handling
//   - A clear split between fatal errors and degradable data-quality issues
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The layout pipeline distinguishes four families:
//   - [ErrCodeInvalidInput]: structural input errors (empty object list,
//     duplicate IDs). Fatal, raised immediately.
//   - [ErrCodeReference]: dangling parents, missing parent sizes or
//     positions. Never fatal; the affected object is skipped and the
//     message is recorded as a warning.
//   - [ErrCodeInvalidConfig]: invalid numeric bounds in the configuration
//     table. Raised at validation time, before any calculation.
//   - [ErrCodeConstraintExhausted]: the collision resolver ran out of
//     iterations. Not fatal; the best-effort position is kept.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "object list is empty")
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidConfig, origErr, "load %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"

	// Data quality errors (degrade to warnings)
	ErrCodeReference           Code = "REFERENCE_ERROR"
	ErrCodeConstraintExhausted Code = "CONSTRAINT_EXHAUSTED"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeCatalogNotFound Code = "CATALOG_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsFatal reports whether err aborts a calculation. Reference and
// constraint-exhaustion errors degrade to warnings; everything else,
// including plain errors, is fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	switch GetCode(err) {
	case ErrCodeReference, ErrCodeConstraintExhausted:
		return false
	}
	return true
}
