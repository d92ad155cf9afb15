// Package shared contains common domain types, errors and events
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrExpired          = errors.New("expired")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Infrastructure errors
	ErrInternal = errors.New("internal error")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "student", "assessment", "guidance"
	Op      string // Operation that failed, e.g., "Create", "Classify"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Student domain errors
var (
	ErrStudentNotFound      = NewDomainError("student", "Find", ErrNotFound, "student not found")
	ErrStudentAlreadyExists = NewDomainError("student", "Create", ErrAlreadyExists, "student already exists")
	ErrEmailAlreadyTaken    = NewDomainError("student", "Register", ErrAlreadyExists, "email already registered")
	ErrInvalidCredentials   = NewDomainError("student", "Login", ErrUnauthorized, "invalid email or password")
	ErrSessionNotFound      = NewDomainError("student", "Authenticate", ErrUnauthorized, "session not found or expired")
)

// Assessment domain errors
var (
	ErrScoreRecordNotFound = NewDomainError("assessment", "Find", ErrNotFound, "score record not found")
	ErrEmptyScoreHistory   = NewDomainError("assessment", "Load", ErrNotFound, "no score records for student")
	ErrInvalidScore        = NewDomainError("assessment", "Validate", ErrValueOutOfRange, "score must be between 0 and 100")
	ErrNoSubjects          = NewDomainError("assessment", "Validate", ErrEmptyValue, "score record has no subjects")
)

// Survey domain errors
var (
	ErrSurveyNotFound         = NewDomainError("survey", "Find", ErrNotFound, "survey response not found")
	ErrSurveyAlreadySubmitted = NewDomainError("survey", "Submit", ErrAlreadyExists, "survey already submitted for this student")
	ErrInvalidRating          = NewDomainError("survey", "Validate", ErrValueOutOfRange, "rating must be between 1 and 5")
	ErrIncompleteSurvey       = NewDomainError("survey", "Validate", ErrInvalidInput, "survey response is missing questions")
)

// Guidance domain errors
var (
	ErrGuidanceNotFound    = NewDomainError("guidance", "Find", ErrNotFound, "guidance record not found")
	ErrGuidanceUnavailable = NewDomainError("guidance", "Generate", ErrServiceUnavailable, "guidance service is unavailable")
	ErrGuidanceTimeout     = NewDomainError("guidance", "Generate", ErrTimeout, "guidance request timed out")
	ErrEmptyGuidance       = NewDomainError("guidance", "Parse", ErrInvalidFormat, "guidance service returned empty text")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsUnauthorized checks if the error is an authorization error.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}
