/*
errors.go - Centralized error types for the scheduling engine

ERROR CATEGORIES:
  1. Validation errors - bad generation input (no eligible employees,
     malformed dates/times)
  2. Conflict errors - attempts to overwrite published state
  3. Not-found errors - missing periods/templates

Persistence failures are wrapped with fmt.Errorf("...: %w", err) at the call
site and roll back the surrounding store transaction.
*/
package schedule

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNoEligibleEmployees is returned when no active employees remain
	// after applying the include/exclude filters.
	ErrNoEligibleEmployees = errors.New("no employees available for scheduling")

	// ErrPublishedPeriodExists is returned when generation would overwrite a
	// published period. Archive it first.
	ErrPublishedPeriodExists = errors.New("published schedule exists for this week")

	// ErrPeriodNotFound is returned when a referenced period doesn't exist.
	ErrPeriodNotFound = errors.New("schedule period not found")

	// ErrTemplateNotFound is returned when a referenced template doesn't exist.
	ErrTemplateNotFound = errors.New("schedule template not found")

	// ErrNotDraft is returned when a lifecycle transition requires a draft.
	ErrNotDraft = errors.New("schedule period is not a draft")

	// ErrMalformedTime and ErrMalformedDate are the bases for parse failures.
	ErrMalformedTime = errors.New("malformed time of day")
	ErrMalformedDate = errors.New("malformed date")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// PublishedPeriodError reports which week blocked generation.
type PublishedPeriodError struct {
	WeekStart Date
}

func (e *PublishedPeriodError) Error() string {
	return fmt.Sprintf("a published schedule already exists for week starting %s; archive it first", e.WeekStart)
}

func (e *PublishedPeriodError) Unwrap() error { return ErrPublishedPeriodExists }

// MalformedTimeError reports an unparseable time-of-day value.
type MalformedTimeError struct {
	Value string
}

func (e *MalformedTimeError) Error() string {
	return fmt.Sprintf("malformed time of day %q (want HH:MM or HH:MM:SS)", e.Value)
}

func (e *MalformedTimeError) Unwrap() error { return ErrMalformedTime }

// MalformedDateError reports an unparseable date value.
type MalformedDateError struct {
	Value string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("malformed date %q (want YYYY-MM-DD)", e.Value)
}

func (e *MalformedDateError) Unwrap() error { return ErrMalformedDate }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConflict returns true if the error should surface as an HTTP 409.
func IsConflict(err error) bool {
	return errors.Is(err, ErrPublishedPeriodExists)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPeriodNotFound) ||
		errors.Is(err, ErrTemplateNotFound)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoEligibleEmployees) ||
		errors.Is(err, ErrNotDraft) ||
		errors.Is(err, ErrMalformedTime) ||
		errors.Is(err, ErrMalformedDate)
}
