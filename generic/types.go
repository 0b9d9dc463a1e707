/*
Package generic provides the numeric and calendar primitives shared by the
payroll and attendance engines.

PURPOSE:
  Payroll figures and worked hours are both decimal quantities that must be
  rounded the way a payslip prints them. This package holds the Amount type,
  the rounding policy, calendar helpers (weeks start on Monday) and the error
  taxonomy. It has no knowledge of tax rules or attendance workflows.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity with a unit (e.g., 268.80 MAD, 8.50 hours)
  - Ratio:  A dimensionless rate or multiplier (0.0448, 1.25)
  - Round2: Half-up rounding to two decimals, applied at every step

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Type Safety: Units prevent adding hours to dirhams
  3. Explicit rounding: Nothing rounds implicitly; callers call Round2

USAGE:
  gross := generic.Dirhams(12000)
  share := gross.MulRatio(generic.MustRatio("0.0448")).Round2() // 537.60 MAD

SEE ALSO:
  - time.go: TimePoint and week helpers
  - errors.go: Sentinel and structured errors
*/
package generic

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitDirham Unit = "MAD"
	UnitHours  Unit = "hours"
)

// MoneyPlaces is the number of decimals printed on a payslip.
const MoneyPlaces = 2

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func NewAmountFromDecimal(value decimal.Decimal, unit Unit) Amount {
	return Amount{Value: value, Unit: unit}
}

func Dirhams(value float64) Amount { return NewAmount(value, UnitDirham) }
func Hours(value float64) Amount   { return NewAmount(value, UnitHours) }

// MustDirhams parses a decimal string. Intended for constants and tests.
func MustDirhams(s string) Amount { return Amount{Value: MustParseDecimal(s), Unit: UnitDirham} }

// MustHours parses a decimal string. Intended for constants and tests.
func MustHours(s string) Amount { return Amount{Value: MustParseDecimal(s), Unit: UnitHours} }

func ZeroDirhams() Amount { return Amount{Value: decimal.Zero, Unit: UnitDirham} }
func ZeroHours() Amount   { return Amount{Value: decimal.Zero, Unit: UnitHours} }

func MustParseDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (a Amount) Zero() Amount                    { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount             { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount             { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Mul(s decimal.Decimal) Amount    { return Amount{Value: a.Value.Mul(s), Unit: a.Unit} }
func (a Amount) MulRatio(r Ratio) Amount         { return Amount{Value: a.Value.Mul(r.Value), Unit: a.Unit} }
func (a Amount) Div(s decimal.Decimal) Amount    { return Amount{Value: a.Value.Div(s), Unit: a.Unit} }
func (a Amount) Neg() Amount                     { return Amount{Value: a.Value.Neg(), Unit: a.Unit} }
func (a Amount) IsNegative() bool                { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                    { return a.Value.IsZero() }
func (a Amount) IsPositive() bool                { return a.Value.IsPositive() }
func (a Amount) Equal(b Amount) bool             { return a.Unit == b.Unit && a.Value.Equal(b.Value) }
func (a Amount) GreaterThan(b Amount) bool       { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool          { return a.Value.LessThan(b.Value) }
func (a Amount) Min(b Amount) Amount             { if a.LessThan(b) { return a }; return b }
func (a Amount) Max(b Amount) Amount             { if a.GreaterThan(b) { return a }; return b }

// ClampZero returns the amount, or zero when it is negative.
func (a Amount) ClampZero() Amount {
	if a.IsNegative() {
		return a.Zero()
	}
	return a
}

// Round2 rounds half-up (half away from zero) to two decimals.
// All amounts handled by the engines are non-negative at rounding time,
// so half away from zero and half-up coincide.
func (a Amount) Round2() Amount {
	return Amount{Value: a.Value.Round(MoneyPlaces), Unit: a.Unit}
}

// String prints the amount with two decimals and its unit.
func (a Amount) String() string {
	return fmt.Sprintf("%s %s", a.Value.StringFixed(MoneyPlaces), a.Unit)
}

// Float64 is for presentation layers only.
func (a Amount) Float64() float64 { return a.Value.InexactFloat64() }

// MarshalJSON emits the value as a fixed two-decimal string ("268.80").
// The unit is implied by the field it sits in.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Value.StringFixed(MoneyPlaces))
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings.
// The unit is left empty; callers stamp it with WithUnit.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid amount %s: %w", string(data), err)
	}
	a.Value = d
	return nil
}

// WithUnit returns a copy of the amount carrying the given unit.
func (a Amount) WithUnit(u Unit) Amount { return Amount{Value: a.Value, Unit: u} }

// MaxAmount returns the largest of the given amounts.
func MaxAmount(first Amount, rest ...Amount) Amount {
	m := first
	for _, a := range rest {
		m = m.Max(a)
	}
	return m
}

// =============================================================================
// RATIO - Rates and multipliers
// =============================================================================

// Ratio is a dimensionless factor: a contribution rate, a bracket rate,
// or an overtime premium.
type Ratio struct {
	Value decimal.Decimal
}

func NewRatio(value float64) Ratio { return Ratio{Value: decimal.NewFromFloat(value)} }

// MustRatio parses a decimal string. Intended for constants and tests.
func MustRatio(s string) Ratio { return Ratio{Value: MustParseDecimal(s)} }

func (r Ratio) IsZero() bool     { return r.Value.IsZero() }
func (r Ratio) IsNegative() bool { return r.Value.IsNegative() }
func (r Ratio) String() string   { return r.Value.String() }

func (r Ratio) MarshalJSON() ([]byte, error) { return json.Marshal(r.Value.String()) }

func (r *Ratio) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid ratio %s: %w", string(data), err)
	}
	r.Value = d
	return nil
}
