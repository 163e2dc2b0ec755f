// Package errors provides typed errors with machine-readable codes.
//
// Usage:
//
//	err := errors.New(errors.ErrCodeNoData, "empty price series")
//	err := errors.Wrap(errors.ErrCodeFetchFailed, "yahoo chart", cause)
//	if errors.HasCode(err, errors.ErrCodeInvalidTicker) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error is a structured error with a code, a message and an optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates an Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an existing error.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Reason returns the machine-readable reason of the error's code.
func (e *Error) Reason() string {
	return e.Code.Reason()
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from err. InsufficientDataError maps to
// ErrCodeInsufficientData; anything else unknown maps to ErrCodeUnknown.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var ide *InsufficientDataError
	if errors.As(err, &ide) {
		return ErrCodeInsufficientData
	}
	return ErrCodeUnknown
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// InsufficientDataError is returned when a series is shorter than the
// minimum history a calculation needs.
type InsufficientDataError struct {
	Required int
	Actual   int
	Symbol   string
}

// NewInsufficientDataError creates an InsufficientDataError.
func NewInsufficientDataError(required, actual int, symbol string) *InsufficientDataError {
	return &InsufficientDataError{Required: required, Actual: actual, Symbol: symbol}
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: required %d bars, got %d", e.Symbol, e.Required, e.Actual)
}

// IsInsufficientDataError reports whether err is an InsufficientDataError.
func IsInsufficientDataError(err error) bool {
	var ide *InsufficientDataError
	return errors.As(err, &ide)
}
