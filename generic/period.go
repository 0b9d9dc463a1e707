package generic

import "time"

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

// Period is an inclusive range of calendar dates [Start, End].
//
// Examples:
//   - Pay month March 2025: Mar 1 - Mar 31
//   - Week to date on Thursday Mar 13 2025: Mon Mar 10 - Thu Mar 13
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Validate rejects periods whose end precedes their start.
func (p Period) Validate() error {
	if p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// WeekToDate returns Monday of the date's week through the date itself.
func WeekToDate(date TimePoint) Period {
	return Period{Start: date.StartOfWeek(), End: date}
}

// MonthPeriod returns the full calendar month.
func MonthPeriod(year int, month time.Month) Period {
	return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}
}

// PreviousMonth returns the calendar month before the one containing date.
func PreviousMonth(date TimePoint) Period {
	first := StartOfMonth(date.Year(), date.Month()).AddMonths(-1)
	return MonthPeriod(first.Year(), first.Month())
}
