package payroll

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/warp/paie-engine/generic"
)

// =============================================================================
// BATCH RUNNER - Many employees, one rate table
// =============================================================================

const defaultBatchConcurrency = 8

// EmployeeInput pairs an employee with their payroll snapshot.
type EmployeeInput struct {
	EmployeeID string
	Input      PayrollInput
}

// BatchLine is the outcome for one employee. Err is set when the employee's
// input was rejected; the rest of the batch still runs.
type BatchLine struct {
	EmployeeID string
	Result     PayrollResult
	Err        error
}

// RunSummary totals the successful lines of a batch.
type RunSummary struct {
	EmployeeCount     int
	FailedCount       int
	TotalGross        generic.Amount
	TotalNet          generic.Amount
	TotalIncomeTax    generic.Amount
	TotalSocial       generic.Amount // employee + employer
	TotalHealth       generic.Amount // employee + employer
	TotalEmployerCost generic.Amount
}

// BatchResult keeps lines in input order.
type BatchResult struct {
	RateTableVersion string
	Lines            []BatchLine
	Summary          RunSummary
}

// BatchRunner computes employees in parallel. Employees share nothing, so
// the only limit is Concurrency.
type BatchRunner struct {
	Engine      *Engine
	Concurrency int
}

// Run computes every employee. It only returns an error when ctx is done.
func (b *BatchRunner) Run(ctx context.Context, employees []EmployeeInput) (*BatchResult, error) {
	limit := b.Concurrency
	if limit <= 0 {
		limit = defaultBatchConcurrency
	}

	lines := make([]BatchLine, len(employees))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, emp := range employees {
		i, emp := i, emp
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := b.Engine.Compute(emp.Input)
			lines[i] = BatchLine{EmployeeID: emp.EmployeeID, Result: result, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &BatchResult{
		RateTableVersion: b.Engine.Table.Version,
		Lines:            lines,
		Summary:          summarize(lines),
	}, nil
}

func summarize(lines []BatchLine) RunSummary {
	s := RunSummary{
		TotalGross:        generic.ZeroDirhams(),
		TotalNet:          generic.ZeroDirhams(),
		TotalIncomeTax:    generic.ZeroDirhams(),
		TotalSocial:       generic.ZeroDirhams(),
		TotalHealth:       generic.ZeroDirhams(),
		TotalEmployerCost: generic.ZeroDirhams(),
	}
	for _, l := range lines {
		if l.Err != nil {
			s.FailedCount++
			continue
		}
		r := l.Result
		s.EmployeeCount++
		s.TotalGross = s.TotalGross.Add(r.GrossSalary)
		s.TotalNet = s.TotalNet.Add(r.NetSalary)
		s.TotalIncomeTax = s.TotalIncomeTax.Add(r.IncomeTax)
		s.TotalSocial = s.TotalSocial.Add(r.SocialContributionEmployee).Add(r.SocialContributionEmployer)
		s.TotalHealth = s.TotalHealth.Add(r.HealthContributionEmployee).Add(r.HealthContributionEmployer)
		s.TotalEmployerCost = s.TotalEmployerCost.Add(r.TotalEmployerCost)
	}
	return s
}
