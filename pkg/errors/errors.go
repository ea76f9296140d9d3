// Package errors provides structured error types for the npmreg client.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library and the CLI
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow the failure categories of the registry client:
//   - INVALID_*: Input validation failures, raised before any I/O
//   - NETWORK_ERROR, NOT_FOUND: Transport or HTTP status failures
//   - VALIDATION_ERROR: A response (fresh or cached) does not match its schema
//   - CACHE_ERROR: The key-value store failed to read or write
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidName, "invalid package name: %s", name)
//	if errors.Is(err, errors.ErrCodeInvalidName) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch %s", url)
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
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidName  Code = "INVALID_NAME"
	ErrCodeInvalidURL   Code = "INVALID_URL"

	// Registry errors
	ErrCodeNetwork    Code = "NETWORK_ERROR"
	ErrCodeNotFound   Code = "NOT_FOUND"
	ErrCodeValidation Code = "VALIDATION_ERROR"

	// Storage errors
	ErrCodeCache Code = "CACHE_ERROR"

	// Configuration errors
	ErrCodeConfig Code = "CONFIG_ERROR"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Sentinel errors for errors.Is checks against the standard library.
var (
	// ErrNetwork is wrapped by every transport failure and non-success status.
	ErrNetwork = errors.New("network error")

	// ErrNotFound is wrapped by 404 responses. It also wraps ErrNetwork, since a
	// missing resource is a non-success status like any other.
	ErrNotFound = fmt.Errorf("%w: resource not found", ErrNetwork)
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
// It walks the error chain and matches any *Error carrying code, so a
// NOT_FOUND wrapped inside a CACHE_ERROR is still reported for both codes.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
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

// StatusError describes a non-success HTTP response from the registry.
type StatusError struct {
	URL        string
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

// Unwrap reports ErrNotFound for 404 responses and ErrNetwork otherwise.
func (e *StatusError) Unwrap() error {
	if e.StatusCode == 404 {
		return ErrNotFound
	}
	return ErrNetwork
}
