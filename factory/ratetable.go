/*
Package factory provides JSON to Go rate table conversion.

PURPOSE:
  Converts JSON rate table definitions into payroll.TaxRateTable values.
  A new fiscal year's constants ship as a JSON document (file, HTTP body
  or database row) instead of a code change.

JSON SCHEMA:
  {
    "version": "MA-2025",
    "effective_from": "2025-01-01",
    "social": {"employee_rate": "0.0448", "employer_rate": "0.0898", "ceiling": "6000"},
    "health": {"employee_rate": "0.0226", "employer_rate": "0.0226"},
    "family_deduction_per_dependent": "30",
    "max_deductible_children": 6,
    "standard_monthly_hours": "191",
    "default_overtime_premium": "1.25",
    "brackets": [
      {"lower": "0", "upper": "30000", "rate": "0"},
      ...
      {"lower": "180000", "rate": "0.38"}
    ]
  }

  Decimals are strings so no value passes through float64. A bracket
  without "upper" is the unbounded top bracket.

KEY FEATURES:
  - Rejects unknown fields
  - Validates the parsed table (contiguous brackets, rates in [0,1], ...)
  - ToJSON round-trips any valid table

SEE ALSO:
  - payroll/ratetable.go: TaxRateTable definition and validation
  - payroll/registry.go: Where loaded tables are registered
*/
package factory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/warp/paie-engine/generic"
	"github.com/warp/paie-engine/payroll"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RateTableJSON is the JSON representation of a rate table.
type RateTableJSON struct {
	Version                     string        `json:"version"`
	EffectiveFrom               string        `json:"effective_from"`
	Social                      SocialJSON    `json:"social"`
	Health                      HealthJSON    `json:"health"`
	FamilyDeductionPerDependent string        `json:"family_deduction_per_dependent"`
	MaxDeductibleChildren       int           `json:"max_deductible_children"`
	StandardMonthlyHours        string        `json:"standard_monthly_hours"`
	DefaultOvertimePremium      string        `json:"default_overtime_premium"`
	Brackets                    []BracketJSON `json:"brackets"`
}

// SocialJSON is the capped social-security contribution.
type SocialJSON struct {
	EmployeeRate string `json:"employee_rate"`
	EmployerRate string `json:"employer_rate"`
	Ceiling      string `json:"ceiling"`
}

// HealthJSON is the uncapped health-insurance contribution.
type HealthJSON struct {
	EmployeeRate string `json:"employee_rate"`
	EmployerRate string `json:"employer_rate"`
}

// BracketJSON is one annual income-tax bracket.
type BracketJSON struct {
	Lower string  `json:"lower"`
	Upper *string `json:"upper,omitempty"`
	Rate  string  `json:"rate"`
}

// =============================================================================
// RATE TABLE FACTORY
// =============================================================================

// RateTableFactory converts JSON rate tables to Go structs.
type RateTableFactory struct{}

func NewRateTableFactory() *RateTableFactory {
	return &RateTableFactory{}
}

// ParseRateTable parses and validates a JSON document.
func (f *RateTableFactory) ParseRateTable(data []byte) (payroll.TaxRateTable, error) {
	var rj RateTableJSON
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rj); err != nil {
		return payroll.TaxRateTable{}, &generic.RateTableError{Reason: fmt.Sprintf("failed to parse rate table JSON: %v", err)}
	}
	return f.FromJSON(rj)
}

// ParseRateTables parses a JSON array of rate tables.
func (f *RateTableFactory) ParseRateTables(data []byte) ([]payroll.TaxRateTable, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, &generic.RateTableError{Reason: fmt.Sprintf("failed to parse rate table list: %v", err)}
	}
	tables := make([]payroll.TaxRateTable, 0, len(list))
	for i, raw := range list {
		t, err := f.ParseRateTable(raw)
		if err != nil {
			return nil, fmt.Errorf("rate table #%d: %w", i, err)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// LoadFile reads a file holding either one table or an array of tables.
func (f *RateTableFactory) LoadFile(path string) ([]payroll.TaxRateTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rate table file: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return f.ParseRateTables(trimmed)
	}
	t, err := f.ParseRateTable(trimmed)
	if err != nil {
		return nil, err
	}
	return []payroll.TaxRateTable{t}, nil
}

// FromJSON converts RateTableJSON to a validated payroll.TaxRateTable.
func (f *RateTableFactory) FromJSON(rj RateTableJSON) (payroll.TaxRateTable, error) {
	p := parser{version: rj.Version}

	effective, err := generic.ParseDate(rj.EffectiveFrom)
	if err != nil {
		return payroll.TaxRateTable{}, &generic.RateTableError{Version: rj.Version, Reason: "effective_from must be YYYY-MM-DD"}
	}

	t := payroll.TaxRateTable{
		Version:       rj.Version,
		EffectiveFrom: effective,

		SocialEmployeeRate: p.ratio("social.employee_rate", rj.Social.EmployeeRate),
		SocialEmployerRate: p.ratio("social.employer_rate", rj.Social.EmployerRate),
		SocialCeiling:      p.dirhams("social.ceiling", rj.Social.Ceiling),

		HealthEmployeeRate: p.ratio("health.employee_rate", rj.Health.EmployeeRate),
		HealthEmployerRate: p.ratio("health.employer_rate", rj.Health.EmployerRate),

		FamilyDeductionPerDependent: p.dirhams("family_deduction_per_dependent", rj.FamilyDeductionPerDependent),
		MaxDeductibleChildren:       rj.MaxDeductibleChildren,

		StandardMonthlyHours:   p.decimal("standard_monthly_hours", rj.StandardMonthlyHours),
		DefaultOvertimePremium: p.ratio("default_overtime_premium", rj.DefaultOvertimePremium),
	}

	for i, bj := range rj.Brackets {
		field := fmt.Sprintf("brackets[%d]", i)
		b := payroll.TaxBracket{
			LowerBound: p.dirhams(field+".lower", bj.Lower),
			Rate:       p.ratio(field+".rate", bj.Rate),
		}
		if bj.Upper != nil {
			u := p.dirhams(field+".upper", *bj.Upper)
			b.UpperBound = &u
		}
		t.Brackets = append(t.Brackets, b)
	}

	if p.err != nil {
		return payroll.TaxRateTable{}, p.err
	}
	if err := t.Validate(); err != nil {
		return payroll.TaxRateTable{}, err
	}
	return t, nil
}

// ToJSON converts a TaxRateTable to RateTableJSON.
func (f *RateTableFactory) ToJSON(t payroll.TaxRateTable) RateTableJSON {
	rj := RateTableJSON{
		Version:       t.Version,
		EffectiveFrom: t.EffectiveFrom.String(),
		Social: SocialJSON{
			EmployeeRate: t.SocialEmployeeRate.String(),
			EmployerRate: t.SocialEmployerRate.String(),
			Ceiling:      t.SocialCeiling.Value.String(),
		},
		Health: HealthJSON{
			EmployeeRate: t.HealthEmployeeRate.String(),
			EmployerRate: t.HealthEmployerRate.String(),
		},
		FamilyDeductionPerDependent: t.FamilyDeductionPerDependent.Value.String(),
		MaxDeductibleChildren:       t.MaxDeductibleChildren,
		StandardMonthlyHours:        t.StandardMonthlyHours.String(),
		DefaultOvertimePremium:      t.DefaultOvertimePremium.String(),
	}
	for _, b := range t.Brackets {
		bj := BracketJSON{Lower: b.LowerBound.Value.String(), Rate: b.Rate.String()}
		if b.UpperBound != nil {
			u := b.UpperBound.Value.String()
			bj.Upper = &u
		}
		rj.Brackets = append(rj.Brackets, bj)
	}
	return rj
}

// MarshalRateTable encodes a table as indented JSON.
func (f *RateTableFactory) MarshalRateTable(t payroll.TaxRateTable) ([]byte, error) {
	return json.MarshalIndent(f.ToJSON(t), "", "  ")
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

// parser records the first decimal that fails to parse.
type parser struct {
	version string
	err     error
}

func (p *parser) decimal(field, s string) decimal.Decimal {
	if p.err != nil {
		return decimal.Zero
	}
	if s == "" {
		p.err = &generic.RateTableError{Version: p.version, Reason: field + " is required"}
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		p.err = &generic.RateTableError{Version: p.version, Reason: fmt.Sprintf("%s: invalid decimal %q", field, s)}
		return decimal.Zero
	}
	return d
}

func (p *parser) ratio(field, s string) generic.Ratio {
	return generic.Ratio{Value: p.decimal(field, s)}
}

func (p *parser) dirhams(field, s string) generic.Amount {
	return generic.NewAmountFromDecimal(p.decimal(field, s), generic.UnitDirham)
}
