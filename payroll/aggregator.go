/*
aggregator.go - One payslip from one input

PURPOSE:
  Orchestrates the overtime, contribution and income-tax calculators into a
  single PayrollResult.

SEQUENCE:
  overtimePay   = OvertimePayCalculator(base, hours, premium)
  gross         = base + bonuses + overtimePay
  social        = ContributionCalculator.Social(gross)       (capped)
  health        = ContributionCalculator.Health(gross)       (uncapped)
  taxable       = max(0, gross - social.employee - health.employee)
  incomeTax     = IncomeTaxCalculator(taxable, status, children)
  net           = gross - social.employee - health.employee - incomeTax
  employerCost  = gross + social.employer + health.employer

ROUNDING:
  Each monetary quantity is rounded to two decimals when it is produced, the
  way the payslip prints it. Small differences against an end-to-end
  unrounded computation are expected.

FAILURE:
  Engine.Compute validates first and returns *generic.InvalidInputError for
  out-of-domain input. Past validation the computation is total.

NEGATIVE NET:
  With valid input net pay cannot go below zero, but if it ever does it is
  clamped to zero and the result carries FlagNetClamped.

EXAMPLE:
  engine := payroll.NewEngine(payroll.MoroccoRateTable2024())
  result, err := engine.Compute(payroll.PayrollInput{
      BaseSalary:    generic.Dirhams(12000),
      MaritalStatus: payroll.StatusSingle,
  })
  fmt.Println(result.NetSalary) // 8996.93 MAD

SEE ALSO:
  - batch.go: Many employees at once
  - registry.go: Picking the right rate table for a period
*/
package payroll

import "github.com/warp/paie-engine/generic"

// =============================================================================
// ENGINE
// =============================================================================

// Engine binds the calculators to one rate table. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	Table         TaxRateTable
	Contributions ContributionCalculator
	IncomeTax     IncomeTaxCalculator
	Overtime      OvertimePayCalculator
}

// NewEngine creates an engine for the given table.
func NewEngine(table TaxRateTable) *Engine {
	return &Engine{
		Table:         table,
		Contributions: ContributionCalculator{Table: table},
		IncomeTax:     IncomeTaxCalculator{Table: table},
		Overtime:      OvertimePayCalculator{Table: table},
	}
}

// Compute validates the input and produces the payroll result.
func (e *Engine) Compute(in PayrollInput) (PayrollResult, error) {
	in = normalizeUnits(in)
	if err := in.Validate(); err != nil {
		return PayrollResult{}, err
	}
	return e.aggregate(in), nil
}

func (e *Engine) aggregate(in PayrollInput) PayrollResult {
	overtimePay := e.Overtime.Compute(in.BaseSalary, in.OvertimeHours, in.OvertimePremium)
	gross := in.BaseSalary.Add(in.Bonuses).Add(overtimePay).Round2()

	social := e.Contributions.Social(gross)
	health := e.Contributions.Health(gross)

	taxable := gross.Sub(social.Employee).Sub(health.Employee).ClampZero().Round2()
	incomeTax := e.IncomeTax.Compute(taxable, in.MaritalStatus, in.DependentChildren)

	result := PayrollResult{
		GrossSalary:                gross,
		SocialContributionEmployee: social.Employee,
		SocialContributionEmployer: social.Employer,
		HealthContributionEmployee: health.Employee,
		HealthContributionEmployer: health.Employer,
		TaxableIncome:              taxable,
		IncomeTax:                  incomeTax,
		TotalEmployerCost:          gross.Add(social.Employer).Add(health.Employer).Round2(),
		OvertimePay:                overtimePay,
		RateTableVersion:           e.Table.Version,
	}

	net := gross.Sub(social.Employee).Sub(health.Employee).Sub(incomeTax).Round2()
	if net.IsNegative() {
		net = net.Zero()
		result.Flags = append(result.Flags, FlagNetClamped)
	}
	result.NetSalary = net
	return result
}

// normalizeUnits stamps units on amounts decoded without one.
func normalizeUnits(in PayrollInput) PayrollInput {
	in.BaseSalary = in.BaseSalary.WithUnit(generic.UnitDirham)
	in.Bonuses = in.Bonuses.WithUnit(generic.UnitDirham)
	in.OvertimeHours = in.OvertimeHours.WithUnit(generic.UnitHours)
	return in
}
