// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	// ErrInvalidAccessCode carries the exact user-facing login failure
	// message: the submitted code is unknown or past its expiry.
	ErrInvalidAccessCode = errors.New("Invalid or Expired Access Code")
	// ErrInvalidMasterKey carries the exact user-facing admin login
	// failure message.
	ErrInvalidMasterKey = errors.New("Invalid Master Code")

	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrAdminRequired      = errors.New("admin access required")
	ErrNoImageStaged      = errors.New("no chart image staged, upload an image first")
	ErrAnalysisInFlight   = errors.New("an analysis is already in progress")
	ErrCredentialsMissing = errors.New("analysis credentials not configured")
	ErrCredentialsInvalid = errors.New("analysis credentials invalid")
	ErrConfigInvalid      = errors.New("invalid configuration")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// StoreError represents a persistence operation failure. The in-memory
// collection is left at its pre-operation value when one is returned.
type StoreError struct {
	Op         string // "load", "insert", "delete", "clear"
	Collection string // "history", "access_codes"
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op, collection string, err error) *StoreError {
	return &StoreError{
		Op:         op,
		Collection: collection,
		Err:        err,
	}
}

// AnalysisError represents a failure of the external analysis call.
// Message holds the human-readable reason surfaced to the user.
type AnalysisError struct {
	Message string
	Err     error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("analysis error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("analysis error: %s", e.Message)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// NewAnalysisError creates a new AnalysisError.
func NewAnalysisError(message string, err error) *AnalysisError {
	return &AnalysisError{
		Message: message,
		Err:     err,
	}
}

// UserMessage returns the message to show the user, falling back to a
// generic string when the collaborator provided none.
func (e *AnalysisError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return "Analysis failed. Please try again."
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New creates a new error with the given message.
func New(message string) error {
	return errors.New(message)
}
