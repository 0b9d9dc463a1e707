/*
errors.go - Centralized error types for the payroll and attendance engines

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages return these directly or wrap them with context.

ERROR CATEGORIES:
  1. Invalid input - values outside the engine's documented domain
  2. Configuration errors - malformed rate tables
  3. Workflow errors - clock events arriving in the wrong state
  4. Store errors - missing records

CLOCK ANOMALIES:
  Attendance data is messy. A negative corrected duration or a shift that
  looks longer than a day is NOT an error: the hours engine clamps to zero
  and the record carries an anomaly marker for manual review.

USAGE:
  if errors.Is(err, generic.ErrInvalidInput) {
      // 400
  }
  var invalid *generic.InvalidInputError
  if errors.As(err, &invalid) {
      fmt.Println(invalid.Field)
  }

SEE ALSO:
  - payroll/aggregator.go: Fails fast with InvalidInputError
  - attendance/day.go: Workflow errors
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned when an engine is called outside its domain
	// (negative salary, negative hours, negative children count).
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRateTable is returned when a rate table has gaps, overlaps,
	// or out-of-range rates.
	ErrInvalidRateTable = errors.New("invalid rate table")

	// ErrRateTableNotFound is returned when no rate table is in force for a date.
	ErrRateTableNotFound = errors.New("rate table not found")

	// ErrDuplicateRateTable is returned when a version is registered twice.
	ErrDuplicateRateTable = errors.New("rate table version already registered")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrRunNotFound is returned when a payroll run doesn't exist.
	ErrRunNotFound = errors.New("payroll run not found")

	// ErrAlreadyClockedIn is returned for a second check-in on the same day.
	ErrAlreadyClockedIn = errors.New("already clocked in")

	// ErrNotClockedIn is returned for a check-out without a check-in.
	ErrNotClockedIn = errors.New("not clocked in")

	// ErrAlreadyClockedOut is returned once a day has reached its terminal state.
	ErrAlreadyClockedOut = errors.New("already clocked out")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidInputError names the offending field.
type InvalidInputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s=%s: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

// RateTableError describes why a rate table was rejected.
type RateTableError struct {
	Version string
	Reason  string
}

func (e *RateTableError) Error() string {
	return fmt.Sprintf("invalid rate table %q: %s", e.Version, e.Reason)
}

func (e *RateTableError) Unwrap() error {
	return ErrInvalidRateTable
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidRateTable) ||
		errors.Is(err, ErrInvalidPeriod)
}

// IsConflict returns true if the request clashes with current state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyClockedIn) ||
		errors.Is(err, ErrNotClockedIn) ||
		errors.Is(err, ErrAlreadyClockedOut) ||
		errors.Is(err, ErrDuplicateRateTable)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRateTableNotFound) ||
		errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrRunNotFound)
}
