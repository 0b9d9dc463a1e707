package payroll

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/warp/paie-engine/generic"
)

// =============================================================================
// EMPLOYEE - The payroll snapshot kept between runs
// =============================================================================

// Employee holds what payroll needs to know about a person. Overtime comes
// from attendance and bonuses from the run request, so neither is stored.
type Employee struct {
	ID                string
	Name              string
	BaseSalary        generic.Amount
	MaritalStatus     MaritalStatus
	DependentChildren int
	CreatedAt         time.Time
}

// Validate checks the stored fields with the same rules as PayrollInput.
func (e Employee) Validate() error {
	if e.ID == "" {
		return &generic.InvalidInputError{Field: "id", Reason: "required"}
	}
	if e.Name == "" {
		return &generic.InvalidInputError{Field: "name", Reason: "required"}
	}
	return e.Input(generic.ZeroDirhams(), generic.ZeroHours()).Validate()
}

// Input builds the month's PayrollInput.
func (e Employee) Input(bonuses, overtimeHours generic.Amount) PayrollInput {
	return PayrollInput{
		BaseSalary:        e.BaseSalary,
		Bonuses:           bonuses,
		OvertimeHours:     overtimeHours,
		MaritalStatus:     e.MaritalStatus,
		DependentChildren: e.DependentChildren,
	}
}

// =============================================================================
// RUN - A persisted batch
// =============================================================================

// Run is a batch computed for one pay period. Lines keep input order.
type Run struct {
	ID               string
	Period           generic.Period
	RateTableVersion string
	Lines            []BatchLine
	Summary          RunSummary
	CreatedAt        time.Time
}

// NewRun wraps a batch result with a fresh ID.
func NewRun(period generic.Period, batch *BatchResult, now time.Time) Run {
	return Run{
		ID:               uuid.NewString(),
		Period:           period,
		RateTableVersion: batch.RateTableVersion,
		Lines:            batch.Lines,
		Summary:          batch.Summary,
		CreatedAt:        now,
	}
}

// =============================================================================
// STORES
// =============================================================================

// EmployeeStore persists payroll employees.
type EmployeeStore interface {
	SaveEmployee(ctx context.Context, emp Employee) error
	// GetEmployee returns ErrEmployeeNotFound when the ID is unknown.
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
}

// RunStore persists payroll runs with their lines.
type RunStore interface {
	SaveRun(ctx context.Context, run Run) error
	// GetRun returns ErrRunNotFound when the ID is unknown.
	GetRun(ctx context.Context, id string) (*Run, error)
	// ListRuns returns runs newest first, without lines.
	ListRuns(ctx context.Context) ([]Run, error)
}

// RateTableStore persists rate tables registered at runtime.
type RateTableStore interface {
	SaveRateTable(ctx context.Context, table TaxRateTable) error
	ListRateTables(ctx context.Context) ([]TaxRateTable, error)
}
