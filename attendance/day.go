package attendance

import (
	"time"

	"github.com/warp/paie-engine/generic"
)

// =============================================================================
// DAY STATUS & STATE
// =============================================================================

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusOnLeave Status = "on_leave"
	StatusHoliday Status = "holiday"
	StatusRemote  Status = "remote"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusOnLeave, StatusHoliday, StatusRemote:
		return true
	}
	return false
}

// Worked reports a status that may carry clock events.
func (s Status) Worked() bool {
	return s == StatusPresent || s == StatusRemote
}

// State is the clock state of a day: NoClockIn -> ClockedIn -> ClockedOut.
type State string

const (
	StateNoClockIn  State = "no_clock_in"
	StateClockedIn  State = "clocked_in"
	StateClockedOut State = "clocked_out"
)

// =============================================================================
// DAY - One employee, one calendar date
// =============================================================================

// Day is the attendance record keyed by (EmployeeID, Date). TotalHours and
// OvertimeHours are recomputed by Close once both clock events are known;
// a day that is only clocked in has TotalHours 0.
type Day struct {
	ID            string
	EmployeeID    string
	Date          generic.TimePoint
	CheckIn       *time.Time
	CheckOut      *time.Time
	TotalHours    generic.Amount
	OvertimeHours generic.Amount
	Status        Status
	Anomaly       Anomaly
	UpdatedAt     time.Time
}

// NewDay returns an empty record with zeroed hours.
func NewDay(employeeID string, date generic.TimePoint) Day {
	return Day{
		EmployeeID:    employeeID,
		Date:          date,
		TotalHours:    generic.ZeroHours(),
		OvertimeHours: generic.ZeroHours(),
		Status:        StatusAbsent,
	}
}

func (d Day) State() State {
	switch {
	case d.CheckIn == nil:
		return StateNoClockIn
	case d.CheckOut == nil:
		return StateClockedIn
	default:
		return StateClockedOut
	}
}

// ClockIn moves NoClockIn -> ClockedIn.
func (d *Day) ClockIn(at time.Time) error {
	switch d.State() {
	case StateClockedIn:
		return generic.ErrAlreadyClockedIn
	case StateClockedOut:
		return generic.ErrAlreadyClockedOut
	}
	d.CheckIn = &at
	if !d.Status.Worked() {
		d.Status = StatusPresent
	}
	d.TotalHours = generic.ZeroHours()
	d.OvertimeHours = generic.ZeroHours()
	d.Anomaly = AnomalyNone
	return nil
}

// ClockOut moves ClockedIn -> ClockedOut. Hours are filled by Close.
func (d *Day) ClockOut(at time.Time) error {
	switch d.State() {
	case StateNoClockIn:
		return generic.ErrNotClockedIn
	case StateClockedOut:
		return generic.ErrAlreadyClockedOut
	}
	d.CheckOut = &at
	return nil
}

// Close recomputes TotalHours and the credited OvertimeHours. week holds the
// employee's other records for the same week; this day's own entry in it,
// if any, is replaced by the freshly computed total.
func (d *Day) Close(engine HoursEngine, week []DayHours) {
	if d.State() != StateClockedOut {
		return
	}

	shift := engine.MeasureShift(*d.CheckIn, *d.CheckOut)
	d.TotalHours = shift.Hours
	d.Anomaly = shift.Anomaly

	records := make([]DayHours, 0, len(week)+1)
	for _, r := range week {
		if !r.Date.Equal(d.Date) {
			records = append(records, r)
		}
	}
	records = append(records, d.Hours())

	daily := engine.DailyOvertime(d.TotalHours)
	weekly := engine.WeeklyOvertime(records, d.Date)
	d.OvertimeHours = engine.CreditedOvertime(daily, weekly)
}

// Hours projects the record onto what the weekly computation needs.
func (d Day) Hours() DayHours {
	return DayHours{Date: d.Date, TotalHours: d.TotalHours}
}

// NeedsReview reports a clock anomaly that zeroed the day's hours.
func (d Day) NeedsReview() bool {
	return d.Anomaly != AnomalyNone
}

// ToDayHours projects records for the weekly computation.
func ToDayHours(days []Day) []DayHours {
	out := make([]DayHours, len(days))
	for i, d := range days {
		out[i] = d.Hours()
	}
	return out
}
