/*
ratetable.go - Versioned statutory constants

PURPOSE:
  A TaxRateTable is everything the engine needs to know about the law for
  one period: contribution rates, the social-security ceiling, family
  deductions, the overtime divisor and the progressive bracket table. It is
  pure data passed explicitly to the engine, never read from package state,
  so a historical payroll can be recomputed against the table that was in
  force at the time.

BRACKET TABLE:
  Brackets are annual, sorted ascending, contiguous and cover [0, inf):

    [0, 30000)        0%
    [30000, 50000)   10%
    [50000, 60000)   20%
    [60000, 80000)   30%
    [80000, 180000)  34%
    [180000, inf)    38%

  The marginal list is the only source of truth. The per-bracket
  "deduction" constants printed in the official schedule (3000, 8000, ...)
  are derived by DeductionShortcuts and never edited by hand.

SEE ALSO:
  - registry.go: Selecting the table in force for a date
  - factory/ratetable.go: Loading tables from JSON
*/
package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/paie-engine/generic"
)

// =============================================================================
// TAX BRACKET
// =============================================================================

// TaxBracket taxes annual income in [LowerBound, UpperBound) at Rate.
// A nil UpperBound means the bracket is unbounded.
type TaxBracket struct {
	LowerBound generic.Amount
	UpperBound *generic.Amount
	Rate       generic.Ratio
}

// Unbounded reports whether the bracket extends to infinity.
func (b TaxBracket) Unbounded() bool { return b.UpperBound == nil }

// portion returns the part of income that falls inside the bracket.
func (b TaxBracket) portion(income generic.Amount) generic.Amount {
	if !income.GreaterThan(b.LowerBound) {
		return income.Zero()
	}
	top := income
	if b.UpperBound != nil {
		top = income.Min(*b.UpperBound)
	}
	return top.Sub(b.LowerBound)
}

// =============================================================================
// TAX RATE TABLE
// =============================================================================

type TaxRateTable struct {
	Version       string
	EffectiveFrom generic.TimePoint

	// Capped social-security contribution (CNSS)
	SocialEmployeeRate generic.Ratio
	SocialEmployerRate generic.Ratio
	SocialCeiling      generic.Amount // monthly

	// Uncapped health-insurance contribution (AMO)
	HealthEmployeeRate generic.Ratio
	HealthEmployerRate generic.Ratio

	// Family deductions, expressed per dependent per month
	FamilyDeductionPerDependent generic.Amount
	MaxDeductibleChildren       int

	// Overtime
	StandardMonthlyHours   decimal.Decimal
	DefaultOvertimePremium generic.Ratio

	// Annual progressive income-tax schedule (IGR)
	Brackets []TaxBracket
}

// MoroccoRateTable2024 returns the rate table used since January 2024.
// A fresh copy is returned on every call.
func MoroccoRateTable2024() TaxRateTable {
	return TaxRateTable{
		Version:       "MA-2024",
		EffectiveFrom: generic.NewTimePoint(2024, 1, 1),

		SocialEmployeeRate: generic.MustRatio("0.0448"),
		SocialEmployerRate: generic.MustRatio("0.0898"),
		SocialCeiling:      generic.MustDirhams("6000"),

		HealthEmployeeRate: generic.MustRatio("0.0226"),
		HealthEmployerRate: generic.MustRatio("0.0226"),

		FamilyDeductionPerDependent: generic.MustDirhams("30"),
		MaxDeductibleChildren:       6,

		StandardMonthlyHours:   decimal.NewFromInt(191),
		DefaultOvertimePremium: generic.MustRatio("1.25"),

		Brackets: []TaxBracket{
			bracket("0", "30000", "0"),
			bracket("30000", "50000", "0.10"),
			bracket("50000", "60000", "0.20"),
			bracket("60000", "80000", "0.30"),
			bracket("80000", "180000", "0.34"),
			bracket("180000", "", "0.38"),
		},
	}
}

// bracket builds a bracket from decimal strings; an empty upper bound is unbounded.
func bracket(lower, upper, rate string) TaxBracket {
	b := TaxBracket{LowerBound: generic.MustDirhams(lower), Rate: generic.MustRatio(rate)}
	if upper != "" {
		u := generic.MustDirhams(upper)
		b.UpperBound = &u
	}
	return b
}

// Validate checks the structural invariants of the table.
func (t TaxRateTable) Validate() error {
	fail := func(format string, args ...any) error {
		return &generic.RateTableError{Version: t.Version, Reason: fmt.Sprintf(format, args...)}
	}

	if t.Version == "" {
		return fail("version is required")
	}
	for name, r := range map[string]generic.Ratio{
		"social employee rate": t.SocialEmployeeRate,
		"social employer rate": t.SocialEmployerRate,
		"health employee rate": t.HealthEmployeeRate,
		"health employer rate": t.HealthEmployerRate,
	} {
		if r.IsNegative() || r.Value.GreaterThan(decimal.NewFromInt(1)) {
			return fail("%s %s outside [0, 1]", name, r)
		}
	}
	if !t.SocialCeiling.IsPositive() {
		return fail("social ceiling must be positive")
	}
	if t.FamilyDeductionPerDependent.IsNegative() {
		return fail("family deduction must not be negative")
	}
	if t.MaxDeductibleChildren < 0 {
		return fail("max deductible children must not be negative")
	}
	if !t.StandardMonthlyHours.IsPositive() {
		return fail("standard monthly hours must be positive")
	}
	if !t.DefaultOvertimePremium.Value.IsPositive() {
		return fail("default overtime premium must be positive")
	}
	return validateBrackets(t.Brackets, fail)
}

func validateBrackets(brackets []TaxBracket, fail func(string, ...any) error) error {
	if len(brackets) == 0 {
		return fail("bracket table is empty")
	}
	if !brackets[0].LowerBound.IsZero() {
		return fail("first bracket must start at 0, starts at %s", brackets[0].LowerBound.Value)
	}
	for i, b := range brackets {
		if b.Rate.IsNegative() || b.Rate.Value.GreaterThan(decimal.NewFromInt(1)) {
			return fail("bracket %d rate %s outside [0, 1]", i, b.Rate)
		}
		last := i == len(brackets)-1
		if last && !b.Unbounded() {
			return fail("last bracket must be unbounded")
		}
		if !last && b.Unbounded() {
			return fail("bracket %d is unbounded but is not last", i)
		}
		if !b.Unbounded() && !b.UpperBound.GreaterThan(b.LowerBound) {
			return fail("bracket %d upper bound %s not above lower bound %s", i, b.UpperBound.Value, b.LowerBound.Value)
		}
		if i > 0 {
			prev := brackets[i-1]
			if !prev.UpperBound.Value.Equal(b.LowerBound.Value) {
				if prev.UpperBound.LessThan(b.LowerBound) {
					return fail("gap between %s and %s", prev.UpperBound.Value, b.LowerBound.Value)
				}
				return fail("overlap between bracket %d and %d", i-1, i)
			}
		}
	}
	return nil
}

// =============================================================================
// PROGRESSIVE SCHEDULE
// =============================================================================

// AnnualTax applies the marginal schedule to an annual taxable amount.
// The result is not rounded.
func (t TaxRateTable) AnnualTax(annualIncome generic.Amount) generic.Amount {
	tax := generic.ZeroDirhams()
	if !annualIncome.IsPositive() {
		return tax
	}
	for _, b := range t.Brackets {
		if !annualIncome.GreaterThan(b.LowerBound) {
			break
		}
		tax = tax.Add(b.portion(annualIncome).MulRatio(b.Rate))
	}
	return tax
}

// DeductionShortcut is the "rate times income minus constant" form of a bracket.
type DeductionShortcut struct {
	Bracket   TaxBracket
	Deduction generic.Amount
}

// DeductionShortcuts derives, for each bracket, the constant such that
// income*rate - deduction equals the marginal sum inside that bracket.
func (t TaxRateTable) DeductionShortcuts() []DeductionShortcut {
	out := make([]DeductionShortcut, len(t.Brackets))
	for i, b := range t.Brackets {
		cumulative := t.AnnualTax(b.LowerBound)
		out[i] = DeductionShortcut{
			Bracket:   b,
			Deduction: b.LowerBound.MulRatio(b.Rate).Sub(cumulative),
		}
	}
	return out
}

// ShortcutTax computes the annual tax with the derived deduction constants.
// It must agree with AnnualTax for every income.
func (t TaxRateTable) ShortcutTax(annualIncome generic.Amount) generic.Amount {
	if !annualIncome.IsPositive() {
		return generic.ZeroDirhams()
	}
	shortcuts := t.DeductionShortcuts()
	for i := len(shortcuts) - 1; i >= 0; i-- {
		s := shortcuts[i]
		if annualIncome.GreaterThan(s.Bracket.LowerBound) || i == 0 {
			return annualIncome.MulRatio(s.Bracket.Rate).Sub(s.Deduction).ClampZero()
		}
	}
	return generic.ZeroDirhams()
}
