package payroll

import "github.com/warp/paie-engine/generic"

// =============================================================================
// CONTRIBUTION CALCULATOR
// =============================================================================

// Contribution is an employee/employer split, each side rounded on its own.
type Contribution struct {
	Employee generic.Amount
	Employer generic.Amount
}

// ContributionCalculator computes the two payroll contributions.
type ContributionCalculator struct {
	Table TaxRateTable
}

// Social computes the capped social-security contribution.
// The base is min(gross, ceiling); anything above the ceiling is not charged.
func (c ContributionCalculator) Social(gross generic.Amount) Contribution {
	base := gross.Min(c.Table.SocialCeiling.WithUnit(gross.Unit))
	return c.split(base, c.Table.SocialEmployeeRate, c.Table.SocialEmployerRate)
}

// Health computes the uncapped health-insurance contribution on the full gross.
func (c ContributionCalculator) Health(gross generic.Amount) Contribution {
	return c.split(gross, c.Table.HealthEmployeeRate, c.Table.HealthEmployerRate)
}

func (c ContributionCalculator) split(base generic.Amount, employeeRate, employerRate generic.Ratio) Contribution {
	return Contribution{
		Employee: base.MulRatio(employeeRate).Round2(),
		Employer: base.MulRatio(employerRate).Round2(),
	}
}
