package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Root error kinds. Every business error wraps exactly one of them so the
// transport layer can map it with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("authentication required")
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
)

// Registration, evaluation and account errors.
var (
	ErrEventFull             = fmt.Errorf("%w: event is full", ErrConflict)
	ErrAlreadyRegistered     = fmt.Errorf("%w: already registered for this event", ErrConflict)
	ErrInvalidState          = fmt.Errorf("%w: event is cancelled or completed", ErrConflict)
	ErrNotEligible           = fmt.Errorf("%w: you must be registered for the event to evaluate it", ErrConflict)
	ErrDuplicateEvaluation   = fmt.Errorf("%w: you have already evaluated this event", ErrConflict)
	ErrHasParticipants       = fmt.Errorf("%w: event has participations and cannot be deleted", ErrConflict)
	ErrDuplicateUsername     = fmt.Errorf("%w: username already in use", ErrConflict)
	ErrDuplicateEmail        = fmt.Errorf("%w: email already in use", ErrConflict)
	ErrInvalidRating         = fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidInput, MinRating, MaxRating)
	ErrParticipationNotFound = fmt.Errorf("%w: no active registration for this event", ErrNotFound)
	ErrInvalidCredentials    = errors.New("invalid credentials")
)

// ValidationError carries one message per offending field.
type ValidationError struct {
	Problems []string
}

// NewValidationError returns nil when problems is empty.
func NewValidationError(problems ...string) error {
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// Is makes errors.Is(err, ErrInvalidInput) hold for validation errors.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
