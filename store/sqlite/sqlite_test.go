package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/paie-engine/attendance"
	"github.com/warp/paie-engine/generic"
	"github.com/warp/paie-engine/payroll"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func TestAttendance_UpsertKeepsOneRowPerDay(t *testing.T) {
	// GIVEN: A day saved at clock-in and again at clock-out
	// THEN: One row, original ID, latest values
	store := newTestStore(t)
	ctx := context.Background()
	date := generic.NewTimePoint(2025, 3, 10)
	in := time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC)
	out := time.Date(2025, 3, 11, 6, 0, 0, 0, time.UTC)

	day := attendance.NewDay("emp-1", date)
	day.ID = "day-1"
	require.NoError(t, day.ClockIn(in))
	require.NoError(t, store.UpsertDay(ctx, day))

	require.NoError(t, day.ClockOut(out))
	day.Close(attendance.NewHoursEngine(), nil)
	day.ID = "day-2"
	require.NoError(t, store.UpsertDay(ctx, day))

	got, err := store.GetDay(ctx, "emp-1", date)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "day-1", got.ID)
	assert.Equal(t, attendance.StateClockedOut, got.State())
	assert.True(t, got.CheckIn.Equal(in))
	assert.True(t, got.CheckOut.Equal(out))
	assert.Equal(t, "8", got.TotalHours.Value.String())
	assert.Equal(t, generic.UnitHours, got.TotalHours.Unit)
	assert.Equal(t, attendance.StatusPresent, got.Status)

	days, err := store.DaysInRange(ctx, "emp-1", generic.MonthPeriod(2025, time.March))
	require.NoError(t, err)
	assert.Len(t, days, 1)
}

func TestAttendance_GetMissingDay(t *testing.T) {
	store := newTestStore(t)
	got, err := store.GetDay(context.Background(), "nobody", generic.NewTimePoint(2025, 3, 10))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAttendance_RangeAndEmployees(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, rec := range []struct {
		emp string
		day int
	}{
		{"emp-b", 12}, {"emp-a", 10}, {"emp-a", 28}, {"emp-a", 1},
	} {
		d := attendance.NewDay(rec.emp, generic.NewTimePoint(2025, 3, rec.day))
		d.ID = rec.emp + "-" + d.Date.String()
		require.NoError(t, store.UpsertDay(ctx, d))
	}
	april := attendance.NewDay("emp-c", generic.NewTimePoint(2025, 4, 1))
	april.ID = "april"
	require.NoError(t, store.UpsertDay(ctx, april))

	days, err := store.DaysInRange(ctx, "emp-a", generic.Period{
		Start: generic.NewTimePoint(2025, 3, 1),
		End:   generic.NewTimePoint(2025, 3, 27),
	})
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, 1, days[0].Date.Day())
	assert.Equal(t, 10, days[1].Date.Day())

	ids, err := store.EmployeesWithDays(ctx, generic.MonthPeriod(2025, time.March))
	require.NoError(t, err)
	assert.Equal(t, []string{"emp-a", "emp-b"}, ids)
}

func TestAttendance_WorksWithRecorder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	rec := attendance.NewRecorder(store, attendance.NewHoursEngine())

	_, err := rec.ClockIn(ctx, "emp-1", time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	day, err := rec.ClockOut(ctx, "emp-1", time.Date(2025, 3, 10, 19, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "3", day.OvertimeHours.Value.String())

	summary, err := rec.Month(ctx, "emp-1", generic.MonthPeriod(2025, time.March))
	require.NoError(t, err)
	assert.Equal(t, "11", summary.TotalHours.Value.String())
	assert.Equal(t, "3", summary.OvertimeHours.Value.String())
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployees_SaveGetList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	emp := payroll.Employee{
		ID:                "emp-1",
		Name:              "Salma Bennani",
		BaseSalary:        generic.MustDirhams("12000.50"),
		MaritalStatus:     payroll.StatusMarried,
		DependentChildren: 2,
	}
	require.NoError(t, store.SaveEmployee(ctx, emp))
	require.NoError(t, store.SaveEmployee(ctx, payroll.Employee{
		ID: "emp-2", Name: "Adil Alaoui", BaseSalary: generic.MustDirhams("8000"), MaritalStatus: payroll.StatusSingle,
	}))

	got, err := store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "12000.5", got.BaseSalary.Value.String())
	assert.Equal(t, generic.UnitDirham, got.BaseSalary.Unit)
	assert.Equal(t, payroll.StatusMarried, got.MaritalStatus)
	assert.Equal(t, 2, got.DependentChildren)
	assert.False(t, got.CreatedAt.IsZero())

	// Update keeps a single row
	emp.DependentChildren = 3
	require.NoError(t, store.SaveEmployee(ctx, emp))

	list, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Adil Alaoui", list[0].Name)
	assert.Equal(t, 3, list[1].DependentChildren)

	_, err = store.GetEmployee(ctx, "missing")
	assert.ErrorIs(t, err, generic.ErrEmployeeNotFound)
	assert.True(t, generic.IsNotFound(err))
}

// =============================================================================
// RATE TABLES
// =============================================================================

func TestRateTables_SaveAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t2024 := payroll.MoroccoRateTable2024()
	t2025 := payroll.MoroccoRateTable2024()
	t2025.Version = "MA-2025"
	t2025.EffectiveFrom = generic.NewTimePoint(2025, 1, 1)
	t2025.FamilyDeductionPerDependent = generic.MustDirhams("40")

	require.NoError(t, store.SaveRateTable(ctx, t2025))
	require.NoError(t, store.SaveRateTable(ctx, t2024))

	err := store.SaveRateTable(ctx, t2024)
	assert.ErrorIs(t, err, generic.ErrDuplicateRateTable)

	tables, err := store.ListRateTables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "MA-2024", tables[0].Version)
	assert.Equal(t, "MA-2025", tables[1].Version)
	assert.Equal(t, "40", tables[1].FamilyDeductionPerDependent.Value.String())
	require.Len(t, tables[1].Brackets, 6)
	assert.True(t, tables[1].Brackets[5].Unbounded())
}

// =============================================================================
// PAYROLL RUNS
// =============================================================================

func TestRuns_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	engine := payroll.NewEngine(payroll.MoroccoRateTable2024())
	runner := payroll.BatchRunner{Engine: engine}
	batch, err := runner.Run(ctx, []payroll.EmployeeInput{
		{EmployeeID: "emp-1", Input: payroll.PayrollInput{BaseSalary: generic.MustDirhams("12000"), MaritalStatus: payroll.StatusSingle}},
		{EmployeeID: "emp-2", Input: payroll.PayrollInput{BaseSalary: generic.MustDirhams("-1"), MaritalStatus: payroll.StatusSingle}},
	})
	require.NoError(t, err)

	run := payroll.NewRun(generic.MonthPeriod(2025, time.March), batch, time.Date(2025, 4, 1, 2, 0, 0, 0, time.UTC))
	require.NoError(t, store.SaveRun(ctx, run))

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "MA-2024", got.RateTableVersion)
	assert.True(t, got.Period.Start.Equal(generic.NewTimePoint(2025, 3, 1)))
	assert.Equal(t, 1, got.Summary.EmployeeCount)
	assert.Equal(t, 1, got.Summary.FailedCount)
	assert.Equal(t, "12000", got.Summary.TotalGross.Value.String())

	require.Len(t, got.Lines, 2)
	assert.Equal(t, "emp-1", got.Lines[0].EmployeeID)
	assert.NoError(t, got.Lines[0].Err)
	assert.Equal(t, "2463.07", got.Lines[0].Result.IncomeTax.Value.String())
	assert.Equal(t, "8996.93", got.Lines[0].Result.NetSalary.Value.String())
	assert.Error(t, got.Lines[1].Err)
	assert.Contains(t, got.Lines[1].Err.Error(), "base_salary")

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Empty(t, runs[0].Lines)

	_, err = store.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, generic.ErrRunNotFound)
}

func TestRuns_FlagsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := payroll.Run{
		ID:               "run-1",
		Period:           generic.MonthPeriod(2025, time.February),
		RateTableVersion: "MA-2024",
		Lines: []payroll.BatchLine{{
			EmployeeID: "emp-1",
			Result: payroll.PayrollResult{
				GrossSalary: generic.MustDirhams("100"),
				NetSalary:   generic.ZeroDirhams(),
				Flags:       []payroll.Flag{payroll.FlagNetClamped},
			},
		}},
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.SaveRun(ctx, run))

	got, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.True(t, got.Lines[0].Result.HasFlag(payroll.FlagNetClamped))
}

func TestReset(t *testing.T) {
	// GIVEN: An employee and a stored rate table
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveEmployee(ctx, payroll.Employee{
		ID: "emp-1", Name: "X", BaseSalary: generic.MustDirhams("1"), MaritalStatus: payroll.StatusSingle,
	}))
	require.NoError(t, store.SaveRateTable(ctx, payroll.MoroccoRateTable2024()))

	// WHEN: The store is reset
	require.NoError(t, store.Reset(ctx))

	// THEN: Data is gone but rate tables stay in line with the registry
	list, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	tables, err := store.ListRateTables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "MA-2024", tables[0].Version)
}
