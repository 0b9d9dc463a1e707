// Package payroll implements the Moroccan statutory payroll computation:
// capped social-security and uncapped health contributions, the progressive
// income tax with family deductions, overtime pay and the net salary.
// Every calculation is a pure function of a PayrollInput and a TaxRateTable.
package payroll

import (
	"fmt"
	"strings"

	"github.com/warp/paie-engine/generic"
)

// =============================================================================
// MARITAL STATUS
// =============================================================================

type MaritalStatus string

const (
	StatusSingle   MaritalStatus = "single"
	StatusMarried  MaritalStatus = "married"
	StatusDivorced MaritalStatus = "divorced"
	StatusWidowed  MaritalStatus = "widowed"
)

func (s MaritalStatus) Valid() bool {
	switch s {
	case StatusSingle, StatusMarried, StatusDivorced, StatusWidowed:
		return true
	}
	return false
}

// ParseMaritalStatus accepts the status names case-insensitively.
func ParseMaritalStatus(s string) (MaritalStatus, error) {
	status := MaritalStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", &generic.InvalidInputError{Field: "marital_status", Value: s, Reason: "unknown marital status"}
	}
	return status, nil
}

// =============================================================================
// INPUT / RESULT
// =============================================================================

// PayrollInput is the snapshot of one employee for one pay period.
type PayrollInput struct {
	BaseSalary    generic.Amount
	Bonuses       generic.Amount
	OvertimeHours generic.Amount

	// OvertimePremium multiplies the hourly rate for overtime hours.
	// Zero means the rate table default (1.25).
	OvertimePremium generic.Ratio

	MaritalStatus     MaritalStatus
	DependentChildren int
}

// Validate rejects inputs outside the engine's domain.
func (in PayrollInput) Validate() error {
	for _, f := range []struct {
		name  string
		value generic.Amount
	}{
		{"base_salary", in.BaseSalary},
		{"bonuses", in.Bonuses},
		{"overtime_hours", in.OvertimeHours},
	} {
		if f.value.IsNegative() {
			return &generic.InvalidInputError{Field: f.name, Value: f.value.Value.String(), Reason: "must not be negative"}
		}
	}
	if in.OvertimePremium.IsNegative() {
		return &generic.InvalidInputError{Field: "overtime_premium", Value: in.OvertimePremium.String(), Reason: "must not be negative"}
	}
	if !in.MaritalStatus.Valid() {
		return &generic.InvalidInputError{Field: "marital_status", Value: string(in.MaritalStatus), Reason: "unknown marital status"}
	}
	if in.DependentChildren < 0 {
		return &generic.InvalidInputError{Field: "dependent_children", Value: fmt.Sprint(in.DependentChildren), Reason: "must not be negative"}
	}
	return nil
}

// Flag marks a result that needs a human look before it is paid.
type Flag string

const (
	// FlagNetClamped means deductions exceeded gross and net was set to zero.
	FlagNetClamped Flag = "net_clamped"
)

// PayrollResult is the payslip-level breakdown. Every amount is rounded to
// two decimals at the point it was produced.
//
// TotalEmployerCost already contains GrossSalary and both employer
// contributions; renderers must not add the employer shares again.
type PayrollResult struct {
	GrossSalary                generic.Amount
	SocialContributionEmployee generic.Amount
	SocialContributionEmployer generic.Amount
	HealthContributionEmployee generic.Amount
	HealthContributionEmployer generic.Amount
	TaxableIncome              generic.Amount
	IncomeTax                  generic.Amount
	NetSalary                  generic.Amount
	TotalEmployerCost          generic.Amount
	OvertimePay                generic.Amount

	RateTableVersion string
	Flags            []Flag
}

// HasFlag reports whether the result carries the given flag.
func (r PayrollResult) HasFlag(f Flag) bool {
	for _, existing := range r.Flags {
		if existing == f {
			return true
		}
	}
	return false
}

// EmployeeDeductions is the total withheld from the employee.
func (r PayrollResult) EmployeeDeductions() generic.Amount {
	return r.SocialContributionEmployee.Add(r.HealthContributionEmployee).Add(r.IncomeTax)
}
