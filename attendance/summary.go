package attendance

import (
	"sort"

	"github.com/warp/paie-engine/generic"
)

// =============================================================================
// WEEKLY AGGREGATE - Transient, never stored
// =============================================================================

// WeeklyAggregate is the week-to-date view for one employee: Monday of the
// date's week through the date itself.
type WeeklyAggregate struct {
	EmployeeID    string
	Week          generic.Period
	TotalHours    generic.Amount
	OvertimeHours generic.Amount
	Days          []DayHours
}

// SummarizeWeek builds the week-to-date aggregate from the employee's records.
func SummarizeWeek(engine HoursEngine, employeeID string, asOf generic.TimePoint, days []Day) WeeklyAggregate {
	week := generic.WeekToDate(asOf)
	var inWeek []DayHours
	for _, d := range days {
		if d.EmployeeID == employeeID && week.Contains(d.Date) {
			inWeek = append(inWeek, d.Hours())
		}
	}
	sort.Slice(inWeek, func(i, j int) bool { return inWeek[i].Date.Before(inWeek[j].Date) })

	return WeeklyAggregate{
		EmployeeID:    employeeID,
		Week:          week,
		TotalHours:    engine.WeekToDateHours(inWeek, asOf),
		OvertimeHours: engine.WeeklyOvertime(inWeek, asOf),
		Days:          inWeek,
	}
}

// =============================================================================
// MONTHLY SUMMARY - Month-end rollup feeding payroll
// =============================================================================

// MonthlySummary totals one employee's month. OvertimeHours is the sum of
// the overtime credited on each closed day and is what payroll receives as
// PayrollInput.OvertimeHours.
//
// Each day's credit uses the week-to-date excess over the weekly threshold,
// so that excess is counted again on every later day of the week. Six 9h
// days (54h) sum to 15h of overtime although only 10h are above 44.
type MonthlySummary struct {
	EmployeeID    string
	Period        generic.Period
	TotalHours    generic.Amount
	OvertimeHours generic.Amount
	DaysPresent   int
	DaysAbsent    int
	DaysOnLeave   int
	DaysHoliday   int
	DaysRemote    int
	OpenDays      int // clocked in, never clocked out
	ReviewDates   []generic.TimePoint
}

// SummarizeMonth aggregates the records of one employee inside period.
func SummarizeMonth(employeeID string, period generic.Period, days []Day) MonthlySummary {
	s := MonthlySummary{
		EmployeeID:    employeeID,
		Period:        period,
		TotalHours:    generic.ZeroHours(),
		OvertimeHours: generic.ZeroHours(),
	}
	for _, d := range days {
		if d.EmployeeID != employeeID || !period.Contains(d.Date) {
			continue
		}
		switch d.Status {
		case StatusPresent:
			s.DaysPresent++
		case StatusAbsent:
			s.DaysAbsent++
		case StatusOnLeave:
			s.DaysOnLeave++
		case StatusHoliday:
			s.DaysHoliday++
		case StatusRemote:
			s.DaysRemote++
		}
		if d.State() == StateClockedIn {
			s.OpenDays++
		}
		if d.NeedsReview() {
			s.ReviewDates = append(s.ReviewDates, d.Date)
		}
		s.TotalHours = s.TotalHours.Add(d.TotalHours)
		s.OvertimeHours = s.OvertimeHours.Add(d.OvertimeHours)
	}
	sort.Slice(s.ReviewDates, func(i, j int) bool { return s.ReviewDates[i].Before(s.ReviewDates[j]) })
	return s
}
