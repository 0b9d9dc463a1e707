package payroll

import (
	"github.com/shopspring/decimal"
	"github.com/warp/paie-engine/generic"
)

var monthsPerYear = decimal.NewFromInt(12)

// =============================================================================
// INCOME TAX CALCULATOR
// =============================================================================

// IncomeTaxCalculator computes the monthly progressive income tax.
//
// ALGORITHM:
//  1. annual = monthly taxable * 12
//  2. family deduction = per-dependent monthly amount * 12 for the spouse
//     (married only) and for each child up to the cap
//  3. annual after deductions, floored at zero
//  4. marginal bracket sum
//  5. monthly = annual tax / 12, floored at zero
//  6. round to two decimals
type IncomeTaxCalculator struct {
	Table TaxRateTable
}

// Compute returns the monthly income tax, rounded.
func (c IncomeTaxCalculator) Compute(monthlyTaxable generic.Amount, status MaritalStatus, children int) generic.Amount {
	annual := monthlyTaxable.Mul(monthsPerYear)
	afterDeductions := annual.Sub(c.AnnualFamilyDeduction(status, children)).ClampZero()
	annualTax := c.Table.AnnualTax(afterDeductions)
	return annualTax.Div(monthsPerYear).ClampZero().Round2()
}

// DeductibleDependents counts the spouse (married only) plus children up to the cap.
func (c IncomeTaxCalculator) DeductibleDependents(status MaritalStatus, children int) int {
	n := 0
	if status == StatusMarried {
		n++
	}
	if children > c.Table.MaxDeductibleChildren {
		children = c.Table.MaxDeductibleChildren
	}
	if children > 0 {
		n += children
	}
	return n
}

// AnnualFamilyDeduction is the yearly amount subtracted from taxable income.
func (c IncomeTaxCalculator) AnnualFamilyDeduction(status MaritalStatus, children int) generic.Amount {
	dependents := decimal.NewFromInt(int64(c.DeductibleDependents(status, children)))
	return c.Table.FamilyDeductionPerDependent.Mul(monthsPerYear).Mul(dependents)
}
