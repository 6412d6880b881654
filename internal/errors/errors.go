package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeIO        ErrorType = "IO"
	ErrTypeParsing   ErrorType = "PARSING"
	ErrTypeArgument  ErrorType = "INVALID_ARGUMENT"
	ErrTypeInvariant ErrorType = "INVARIANT_VIOLATION"
	ErrTypeConfig    ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Helper functions for common error types

// NewIOError creates an error for file-access failures
func NewIOError(message string, cause error) *AppError {
	return NewAppError(ErrTypeIO, message, cause)
}

// NewParsingError creates an error for malformed input data
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewInvalidArgumentError creates an error for out-of-range or degenerate arguments
func NewInvalidArgumentError(message string, cause error) *AppError {
	return NewAppError(ErrTypeArgument, message, cause)
}

// NewInvariantError creates an error for violated pipeline invariants.
// Invariant violations are never recovered from; the run halts.
func NewInvariantError(message string, cause error) *AppError {
	return NewAppError(ErrTypeInvariant, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// IsType checks whether err is (or wraps) an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// IsInvariantViolation reports whether err is an invariant-violation error
func IsInvariantViolation(err error) bool {
	return IsType(err, ErrTypeInvariant)
}

// IsInvalidArgument reports whether err is an invalid-argument error
func IsInvalidArgument(err error) bool {
	return IsType(err, ErrTypeArgument)
}
