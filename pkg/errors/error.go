// Package errors provides structured error handling with typed error codes.
//
// Error codes are grouped by the part of the router that raises them:
//   - General errors (1-99)
//   - Configuration errors (100-199): bad YAML, unknown venue or strategy names, failed validation
//   - Store errors (200-299): market data store connectivity, queries and writes
//   - Indicator errors (300-399)
//   - Strategy errors (400-499): construction, seeding and sizing
//   - Trading errors (500-599): order submission and account queries
//   - Engine errors (600-699): startup, supervision and shutdown
//   - Market data errors (700-799): history downloads and venue streams
//   - Queue errors (800-899)
//
// Usage:
//
//	err := errors.Newf(errors.ErrCodeUnknownVenue, "unknown venue %q", name)
//	err := errors.Wrap(errors.ErrCodeStoreUnavailable, "market data store unreachable", cause)
//
//	if errors.HasCode(err, errors.ErrCodeQueueFull) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error is an error carrying an ErrorCode and an optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps cause with a code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps cause with a code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is is errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode returns the code of the first *Error in err's chain,
// or ErrCodeUnknown when there is none.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode reports whether err carries code.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsFatal reports whether err belongs to a startup class that must stop the process
// before any event is served.
func IsFatal(err error) bool {
	code := GetCode(err)

	switch {
	case code >= 100 && code < 200:
		return true
	case code == ErrCodeStoreUnavailable:
		return true
	case code == ErrCodeStrategyConstruction, code == ErrCodeUnsupportedStrategy:
		return true
	case code == ErrCodeGatewayConstruction, code == ErrCodeEngineInitFailed:
		return true
	default:
		return false
	}
}

// InsufficientDataError reports that a calculation needed more points than it was given.
type InsufficientDataError struct {
	Required int
	Actual   int
	Symbol   string
	Message  string
}

// NewInsufficientDataErrorf creates a new InsufficientDataError with a formatted message.
func NewInsufficientDataErrorf(required, actual int, symbol, format string, args ...any) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  fmt.Sprintf(format, args...),
	}
}

func (e *InsufficientDataError) Error() string {
	return e.Message
}

// IsInsufficientDataError checks err's chain for an InsufficientDataError.
func IsInsufficientDataError(err error) bool {
	var insufficientErr *InsufficientDataError

	return errors.As(err, &insufficientErr)
}
