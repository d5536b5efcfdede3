package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the kind of failure a component reported
type ErrorCategory string

const (
	ErrorCategoryConfiguration ErrorCategory = "CONFIG"
	ErrorCategoryValidation    ErrorCategory = "VALIDATION"
	ErrorCategoryPersistence   ErrorCategory = "PERSISTENCE"
	ErrorCategoryStorage       ErrorCategory = "STORAGE"
	ErrorCategoryNotFound      ErrorCategory = "NOT_FOUND"
	ErrorCategoryNetwork       ErrorCategory = "NETWORK"
)

// ErrNotFound is matched by errors.Is for every NOT_FOUND GuardError
var ErrNotFound = stderrors.New("not found")

// GuardError represents a categorized error with context
type GuardError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
}

// Error implements the error interface
func (e *GuardError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *GuardError) Unwrap() error {
	return e.Underlying
}

// Is lets errors.Is match ErrNotFound against NOT_FOUND errors
func (e *GuardError) Is(target error) bool {
	return target == ErrNotFound && e.Category == ErrorCategoryNotFound
}

// IsRetryable returns whether the failed operation may succeed if repeated
func (e *GuardError) IsRetryable() bool {
	return e.Category == ErrorCategoryStorage || e.Category == ErrorCategoryNetwork
}

// NewGuardError creates a new categorized error
func NewGuardError(category ErrorCategory, component, operation, message string) *GuardError {
	return &GuardError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
	}
}

// WrapError wraps an existing error with component context
func WrapError(err error, category ErrorCategory, component, operation string) *GuardError {
	if err == nil {
		return nil
	}
	return &GuardError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
	}
}

func NewValidationError(component, operation, message string) *GuardError {
	return NewGuardError(ErrorCategoryValidation, component, operation, message)
}

func NewConfigurationError(component, operation, message string) *GuardError {
	return NewGuardError(ErrorCategoryConfiguration, component, operation, message)
}

func NewPersistenceError(component, operation string, err error) *GuardError {
	return WrapError(err, ErrorCategoryPersistence, component, operation)
}

func NewStorageError(component, operation string, err error) *GuardError {
	return WrapError(err, ErrorCategoryStorage, component, operation)
}

func NewNotFoundError(component, operation, message string) *GuardError {
	return NewGuardError(ErrorCategoryNotFound, component, operation, message)
}

// IsNotFound reports whether err signals a missing snapshot or key
func IsNotFound(err error) bool {
	return stderrors.Is(err, ErrNotFound)
}

// CategoryOf returns the category of the first GuardError in the chain, or "" if none
func CategoryOf(err error) ErrorCategory {
	var ge *GuardError
	if stderrors.As(err, &ge) {
		return ge.Category
	}
	return ""
}
