package attendance

import (
	"context"

	"github.com/warp/paie-engine/generic"
)

// =============================================================================
// STORE - Persistence for Day records
// =============================================================================

// Store persists attendance days keyed by (EmployeeID, Date).
//
// Implementations:
//   - store/memory: In-memory, for tests and development
//   - store/sqlite: UNIQUE(employee_id, work_date) with upsert
type Store interface {
	// GetDay returns the record, or (nil, nil) when none exists.
	GetDay(ctx context.Context, employeeID string, date generic.TimePoint) (*Day, error)

	// UpsertDay inserts or replaces the record for (EmployeeID, Date).
	UpsertDay(ctx context.Context, day Day) error

	// DaysInRange returns the employee's records in [period.Start, period.End],
	// ordered by date ascending.
	DaysInRange(ctx context.Context, employeeID string, period generic.Period) ([]Day, error)

	// EmployeesWithDays lists employees that have at least one record in period.
	EmployeesWithDays(ctx context.Context, period generic.Period) ([]string, error)
}
