package payroll

import "github.com/warp/paie-engine/generic"

// =============================================================================
// OVERTIME PAY CALCULATOR
// =============================================================================

// OvertimePayCalculator prices overtime hours off the monthly base salary.
// The divisor is TaxRateTable.StandardMonthlyHours and nothing else.
type OvertimePayCalculator struct {
	Table TaxRateTable
}

// HourlyRate is base / standard monthly hours, unrounded.
func (c OvertimePayCalculator) HourlyRate(baseSalary generic.Amount) generic.Amount {
	return baseSalary.Div(c.Table.StandardMonthlyHours)
}

// Compute returns hours * hourly rate * premium, rounded.
// A zero premium falls back to the table default.
func (c OvertimePayCalculator) Compute(baseSalary, overtimeHours generic.Amount, premium generic.Ratio) generic.Amount {
	if premium.IsZero() {
		premium = c.Table.DefaultOvertimePremium
	}
	hourly := c.HourlyRate(baseSalary)
	return hourly.Mul(overtimeHours.Value).MulRatio(premium).Round2()
}
