/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts are encoded as strings with two decimals ("8996.93") and accepted
  as either JSON numbers or strings. They never pass through float64 on the
  way out.

TYPES:
  Employee:   EmployeeDTO, CreateEmployeeRequest
  Payroll:    ComputePayrollRequest, PayrollResultDTO, BatchPayrollRequest, RunDTO
  Rate table: RateTableDetailDTO (wraps factory.RateTableJSON)
  Attendance: ClockRequest, ManualDayRequest, StatusRequest, DayDTO,
              WeekDTO, MonthSummaryDTO, HoursRequest, HoursDTO

SEE ALSO:
  - handlers.go: Uses these types
  - factory/ratetable.go: RateTableJSON type
*/
package api

import (
	"time"

	"github.com/warp/paie-engine/attendance"
	"github.com/warp/paie-engine/factory"
	"github.com/warp/paie-engine/generic"
	"github.com/warp/paie-engine/payroll"
)

// =============================================================================
// EMPLOYEE
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	BaseSalary        generic.Amount `json:"base_salary"`
	MaritalStatus     string         `json:"marital_status"`
	DependentChildren int            `json:"dependent_children"`
	CreatedAt         string         `json:"created_at,omitempty"`
}

// CreateEmployeeRequest is the request to create or update an employee.
// An empty ID is assigned a UUID.
type CreateEmployeeRequest struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	BaseSalary        generic.Amount `json:"base_salary"`
	MaritalStatus     string         `json:"marital_status"`
	DependentChildren int            `json:"dependent_children"`
}

func toEmployeeDTO(e payroll.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:                e.ID,
		Name:              e.Name,
		BaseSalary:        e.BaseSalary,
		MaritalStatus:     string(e.MaritalStatus),
		DependentChildren: e.DependentChildren,
	}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// PAYROLL
// =============================================================================

// ComputePayrollRequest is one employee's monthly input. PayDate selects the
// rate table in force; empty means today.
type ComputePayrollRequest struct {
	BaseSalary        generic.Amount `json:"base_salary"`
	Bonuses           generic.Amount `json:"bonuses"`
	OvertimeHours     generic.Amount `json:"overtime_hours"`
	OvertimePremium   generic.Ratio  `json:"overtime_premium"`
	MaritalStatus     string         `json:"marital_status"`
	DependentChildren int            `json:"dependent_children"`
	PayDate           string         `json:"pay_date,omitempty"`
}

func (req ComputePayrollRequest) toInput() (payroll.PayrollInput, error) {
	status, err := payroll.ParseMaritalStatus(req.MaritalStatus)
	if err != nil {
		return payroll.PayrollInput{}, err
	}
	return payroll.PayrollInput{
		BaseSalary:        req.BaseSalary,
		Bonuses:           req.Bonuses,
		OvertimeHours:     req.OvertimeHours,
		OvertimePremium:   req.OvertimePremium,
		MaritalStatus:     status,
		DependentChildren: req.DependentChildren,
	}, nil
}

// PayrollResultDTO is the payslip-level breakdown.
type PayrollResultDTO struct {
	GrossSalary                generic.Amount `json:"gross_salary"`
	OvertimePay                generic.Amount `json:"overtime_pay"`
	SocialContributionEmployee generic.Amount `json:"social_contribution_employee"`
	SocialContributionEmployer generic.Amount `json:"social_contribution_employer"`
	HealthContributionEmployee generic.Amount `json:"health_contribution_employee"`
	HealthContributionEmployer generic.Amount `json:"health_contribution_employer"`
	TaxableIncome              generic.Amount `json:"taxable_income"`
	IncomeTax                  generic.Amount `json:"income_tax"`
	NetSalary                  generic.Amount `json:"net_salary"`
	TotalEmployerCost          generic.Amount `json:"total_employer_cost"`
	RateTableVersion           string         `json:"rate_table_version"`
	Flags                      []string       `json:"flags"`
}

func toPayrollResultDTO(r payroll.PayrollResult) PayrollResultDTO {
	flags := make([]string, len(r.Flags))
	for i, f := range r.Flags {
		flags[i] = string(f)
	}
	return PayrollResultDTO{
		GrossSalary:                r.GrossSalary,
		OvertimePay:                r.OvertimePay,
		SocialContributionEmployee: r.SocialContributionEmployee,
		SocialContributionEmployer: r.SocialContributionEmployer,
		HealthContributionEmployee: r.HealthContributionEmployee,
		HealthContributionEmployer: r.HealthContributionEmployer,
		TaxableIncome:              r.TaxableIncome,
		IncomeTax:                  r.IncomeTax,
		NetSalary:                  r.NetSalary,
		TotalEmployerCost:          r.TotalEmployerCost,
		RateTableVersion:           r.RateTableVersion,
		Flags:                      flags,
	}
}

// BatchEmployeeRequest is one explicit line of a batch.
type BatchEmployeeRequest struct {
	EmployeeID string `json:"employee_id"`
	ComputePayrollRequest
}

// BatchPayrollRequest runs payroll for a calendar month. With Employees
// empty, every stored employee is paid with overtime taken from attendance;
// Bonuses adds per-employee bonuses to that run.
type BatchPayrollRequest struct {
	Year      int                       `json:"year"`
	Month     int                       `json:"month"`
	Bonuses   map[string]generic.Amount `json:"bonuses,omitempty"`
	Employees []BatchEmployeeRequest    `json:"employees,omitempty"`
}

// RunSummaryDTO totals a run.
type RunSummaryDTO struct {
	EmployeeCount     int            `json:"employee_count"`
	FailedCount       int            `json:"failed_count"`
	TotalGross        generic.Amount `json:"total_gross"`
	TotalNet          generic.Amount `json:"total_net"`
	TotalIncomeTax    generic.Amount `json:"total_income_tax"`
	TotalSocial       generic.Amount `json:"total_social"`
	TotalHealth       generic.Amount `json:"total_health"`
	TotalEmployerCost generic.Amount `json:"total_employer_cost"`
}

// RunLineDTO is one employee in a run.
type RunLineDTO struct {
	EmployeeID string            `json:"employee_id"`
	Result     *PayrollResultDTO `json:"result,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// RunDTO is a persisted payroll run.
type RunDTO struct {
	ID               string        `json:"id"`
	PeriodStart      string        `json:"period_start"`
	PeriodEnd        string        `json:"period_end"`
	RateTableVersion string        `json:"rate_table_version"`
	Summary          RunSummaryDTO `json:"summary"`
	Lines            []RunLineDTO  `json:"lines,omitempty"`
	CreatedAt        string        `json:"created_at"`
}

func toRunDTO(run payroll.Run) RunDTO {
	s := run.Summary
	dto := RunDTO{
		ID:               run.ID,
		PeriodStart:      run.Period.Start.String(),
		PeriodEnd:        run.Period.End.String(),
		RateTableVersion: run.RateTableVersion,
		Summary: RunSummaryDTO{
			EmployeeCount:     s.EmployeeCount,
			FailedCount:       s.FailedCount,
			TotalGross:        s.TotalGross,
			TotalNet:          s.TotalNet,
			TotalIncomeTax:    s.TotalIncomeTax,
			TotalSocial:       s.TotalSocial,
			TotalHealth:       s.TotalHealth,
			TotalEmployerCost: s.TotalEmployerCost,
		},
		CreatedAt: run.CreatedAt.Format(time.RFC3339),
	}
	for _, line := range run.Lines {
		l := RunLineDTO{EmployeeID: line.EmployeeID}
		if line.Err != nil {
			l.Error = line.Err.Error()
		} else {
			r := toPayrollResultDTO(line.Result)
			l.Result = &r
		}
		dto.Lines = append(dto.Lines, l)
	}
	return dto
}

// =============================================================================
// RATE TABLES
// =============================================================================

// DeductionShortcutDTO is the derived "rate times income minus constant"
// form of one bracket.
type DeductionShortcutDTO struct {
	Lower     generic.Amount  `json:"lower"`
	Upper     *generic.Amount `json:"upper,omitempty"`
	Rate      generic.Ratio   `json:"rate"`
	Deduction generic.Amount  `json:"deduction"`
}

// RateTableDetailDTO is a table with its derived deduction constants.
type RateTableDetailDTO struct {
	Table      factory.RateTableJSON  `json:"table"`
	Shortcuts  []DeductionShortcutDTO `json:"deduction_shortcuts"`
	InForceNow bool                   `json:"in_force_now"`
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// ClockRequest records a clock event. An empty At means now.
type ClockRequest struct {
	At string `json:"at,omitempty"` // RFC3339
}

// ManualDayRequest enters a day by hand with clock times on the day's date.
// "22:00" to "06:00" is an overnight shift.
type ManualDayRequest struct {
	Date     string `json:"date"`      // YYYY-MM-DD
	CheckIn  string `json:"check_in"`  // HH:MM
	CheckOut string `json:"check_out"` // HH:MM
}

// StatusRequest marks absence, leave or holiday.
type StatusRequest struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

// DayDTO is an attendance record.
type DayDTO struct {
	ID            string         `json:"id"`
	EmployeeID    string         `json:"employee_id"`
	Date          string         `json:"date"`
	CheckIn       *string        `json:"check_in,omitempty"`
	CheckOut      *string        `json:"check_out,omitempty"`
	TotalHours    generic.Amount `json:"total_hours"`
	OvertimeHours generic.Amount `json:"overtime_hours"`
	Status        string         `json:"status"`
	State         string         `json:"state"`
	Anomaly       string         `json:"anomaly,omitempty"`
}

func toDayDTO(d attendance.Day) DayDTO {
	dto := DayDTO{
		ID:            d.ID,
		EmployeeID:    d.EmployeeID,
		Date:          d.Date.String(),
		TotalHours:    d.TotalHours,
		OvertimeHours: d.OvertimeHours,
		Status:        string(d.Status),
		State:         string(d.State()),
		Anomaly:       string(d.Anomaly),
	}
	if d.CheckIn != nil {
		s := d.CheckIn.Format(time.RFC3339)
		dto.CheckIn = &s
	}
	if d.CheckOut != nil {
		s := d.CheckOut.Format(time.RFC3339)
		dto.CheckOut = &s
	}
	return dto
}

// DayHoursDTO is a date and its worked hours.
type DayHoursDTO struct {
	Date       string         `json:"date"`
	TotalHours generic.Amount `json:"total_hours"`
}

// WeekDTO is the week-to-date aggregate.
type WeekDTO struct {
	EmployeeID    string         `json:"employee_id"`
	WeekStart     string         `json:"week_start"`
	AsOf          string         `json:"as_of"`
	TotalHours    generic.Amount `json:"total_hours"`
	OvertimeHours generic.Amount `json:"overtime_hours"`
	Days          []DayHoursDTO  `json:"days"`
}

func toWeekDTO(w attendance.WeeklyAggregate) WeekDTO {
	dto := WeekDTO{
		EmployeeID:    w.EmployeeID,
		WeekStart:     w.Week.Start.String(),
		AsOf:          w.Week.End.String(),
		TotalHours:    w.TotalHours,
		OvertimeHours: w.OvertimeHours,
		Days:          make([]DayHoursDTO, len(w.Days)),
	}
	for i, d := range w.Days {
		dto.Days[i] = DayHoursDTO{Date: d.Date.String(), TotalHours: d.TotalHours}
	}
	return dto
}

// MonthSummaryDTO is the monthly rollup.
type MonthSummaryDTO struct {
	EmployeeID    string         `json:"employee_id"`
	PeriodStart   string         `json:"period_start"`
	PeriodEnd     string         `json:"period_end"`
	TotalHours    generic.Amount `json:"total_hours"`
	OvertimeHours generic.Amount `json:"overtime_hours"`
	DaysPresent   int            `json:"days_present"`
	DaysAbsent    int            `json:"days_absent"`
	DaysOnLeave   int            `json:"days_on_leave"`
	DaysHoliday   int            `json:"days_holiday"`
	DaysRemote    int            `json:"days_remote"`
	OpenDays      int            `json:"open_days"`
	ReviewDates   []string       `json:"review_dates"`
}

func toMonthSummaryDTO(s attendance.MonthlySummary) MonthSummaryDTO {
	dto := MonthSummaryDTO{
		EmployeeID:    s.EmployeeID,
		PeriodStart:   s.Period.Start.String(),
		PeriodEnd:     s.Period.End.String(),
		TotalHours:    s.TotalHours,
		OvertimeHours: s.OvertimeHours,
		DaysPresent:   s.DaysPresent,
		DaysAbsent:    s.DaysAbsent,
		DaysOnLeave:   s.DaysOnLeave,
		DaysHoliday:   s.DaysHoliday,
		DaysRemote:    s.DaysRemote,
		OpenDays:      s.OpenDays,
		ReviewDates:   make([]string, len(s.ReviewDates)),
	}
	for i, d := range s.ReviewDates {
		dto.ReviewDates[i] = d.String()
	}
	return dto
}

// HoursRequest asks the pure hours calculator about one shift. Week holds
// the other days of the same week, if known.
type HoursRequest struct {
	CheckIn  string        `json:"check_in"`  // RFC3339
	CheckOut string        `json:"check_out"` // RFC3339
	Week     []DayHoursDTO `json:"week,omitempty"`
}

// HoursDTO is the calculator's answer.
type HoursDTO struct {
	WorkedHours      generic.Amount `json:"worked_hours"`
	Overnight        bool           `json:"overnight"`
	Anomaly          string         `json:"anomaly,omitempty"`
	DailyOvertime    generic.Amount `json:"daily_overtime"`
	WeeklyOvertime   generic.Amount `json:"weekly_overtime"`
	CreditedOvertime generic.Amount `json:"credited_overtime"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
