/*
payrun.go - Month payroll orchestration

PURPOSE:
  Glues the pure engines to storage. A pay run for a month:
    1. Picks the rate table in force on the last day of the month
    2. Loads every employee and their month's attendance rollup
    3. Feeds the credited overtime into PayrollInput.OvertimeHours
    4. Computes all employees in parallel (payroll.BatchRunner)
    5. Persists the run with one line per employee

  A rejected employee becomes a failed line; the rest of the run proceeds.

SEE ALSO:
  - scheduler.go: Runs this for the previous month on a cron schedule
  - payroll/batch.go: Parallel computation
  - attendance/summary.go: Monthly rollup
*/
package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/warp/paie-engine/attendance"
	"github.com/warp/paie-engine/generic"
	"github.com/warp/paie-engine/payroll"
)

// PayRunner computes and persists payroll runs.
type PayRunner struct {
	Registry    *payroll.Registry
	Employees   payroll.EmployeeStore
	Runs        payroll.RunStore
	Attendance  *attendance.Recorder
	Concurrency int
	Logger      *slog.Logger
	Now         func() time.Time
}

func (p *PayRunner) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p *PayRunner) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// RunMonth pays every stored employee for period. Overtime hours come from
// attendance; bonuses are keyed by employee ID.
func (p *PayRunner) RunMonth(ctx context.Context, period generic.Period, bonuses map[string]generic.Amount) (*payroll.Run, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	employees, err := p.Employees.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	inputs := make([]payroll.EmployeeInput, 0, len(employees))
	for _, emp := range employees {
		overtime := generic.ZeroHours()
		if p.Attendance != nil {
			summary, err := p.Attendance.Month(ctx, emp.ID, period)
			if err != nil {
				return nil, fmt.Errorf("failed to summarize attendance for %s: %w", emp.ID, err)
			}
			overtime = summary.OvertimeHours
			if len(summary.ReviewDates) > 0 || summary.OpenDays > 0 {
				p.logger().Warn("attendance needs review before payroll",
					slog.String("employee_id", emp.ID),
					slog.Int("review_days", len(summary.ReviewDates)),
					slog.Int("open_days", summary.OpenDays),
				)
			}
		}
		bonus, ok := bonuses[emp.ID]
		if !ok {
			bonus = generic.ZeroDirhams()
		}
		inputs = append(inputs, payroll.EmployeeInput{
			EmployeeID: emp.ID,
			Input:      emp.Input(bonus, overtime),
		})
	}

	return p.RunInputs(ctx, period, inputs)
}

// RunInputs pays the given snapshots for period and persists the run.
func (p *PayRunner) RunInputs(ctx context.Context, period generic.Period, inputs []payroll.EmployeeInput) (*payroll.Run, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	engine, err := p.Registry.EngineFor(period.End)
	if err != nil {
		return nil, err
	}

	runner := payroll.BatchRunner{Engine: engine, Concurrency: p.Concurrency}
	batch, err := runner.Run(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("payroll batch interrupted: %w", err)
	}

	run := payroll.NewRun(period, batch, p.now())
	if err := p.Runs.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to save run: %w", err)
	}

	p.logger().Info("payroll run completed",
		slog.String("run_id", run.ID),
		slog.String("period", period.String()),
		slog.String("rate_table", run.RateTableVersion),
		slog.Int("employees", run.Summary.EmployeeCount),
		slog.Int("failed", run.Summary.FailedCount),
		slog.String("total_net", run.Summary.TotalNet.Value.StringFixed(generic.MoneyPlaces)),
	)
	return &run, nil
}
