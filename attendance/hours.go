/*
Package attendance turns raw clock events into worked hours and overtime.

PURPOSE:
  The HoursEngine is a set of pure functions: a clock-in/clock-out pair
  becomes worked hours, a day's hours become daily overtime, and the week's
  records so far become weekly overtime. The Recorder is the owning caller
  that keeps Day records, serializes updates per employee and asks the
  engine to recompute when a day closes.

KEY CONCEPTS IN THIS FILE (hours.go):
  - WorkedHours: checkOut - checkIn, with a single 24h wraparound for
    overnight shifts entered as same-day clock times
  - DailyOvertime: hours above the daily threshold (8h)
  - WeeklyOvertime: week-to-date hours above the weekly threshold (44h),
    where the week starts on Monday
  - CreditedOvertime: max(daily, weekly). Never the sum.

OVERNIGHT SHIFTS:
  22:00 -> 06:00 on the same calendar date is a negative difference; adding
  24h yields 8h, the same as the absolute 22:00 -> 06:00 next day. Only one
  midnight crossing is assumed.

ANOMALIES:
  A duration still negative after the wraparound, or longer than 24h, is
  clamped to 0 and reported as an Anomaly so the caller can flag the
  record. Clock-derived problems never return an error.

SEE ALSO:
  - day.go: Per-day state machine
  - recorder.go: The caller that persists days
*/
package attendance

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/paie-engine/generic"
)

// =============================================================================
// THRESHOLDS
// =============================================================================

// Thresholds are the overtime limits. The zero value means the statutory
// defaults.
type Thresholds struct {
	Daily  generic.Amount
	Weekly generic.Amount
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Daily:  generic.Hours(8),
		Weekly: generic.Hours(44),
	}
}

// =============================================================================
// ANOMALIES
// =============================================================================

type Anomaly string

const (
	AnomalyNone             Anomaly = ""
	AnomalyNegativeDuration Anomaly = "negative_duration"
	AnomalyExceedsDay       Anomaly = "exceeds_24h"
)

// Shift is a measured clock-in/clock-out pair.
type Shift struct {
	Hours     generic.Amount
	Overnight bool
	Anomaly   Anomaly
}

// =============================================================================
// HOURS ENGINE
// =============================================================================

// HoursEngine holds the thresholds; every method is a pure function.
type HoursEngine struct {
	Thresholds Thresholds
}

func NewHoursEngine() HoursEngine {
	return HoursEngine{Thresholds: DefaultThresholds()}
}

func (e HoursEngine) thresholds() Thresholds {
	t := e.Thresholds
	d := DefaultThresholds()
	if t.Daily.Value.IsZero() {
		t.Daily = d.Daily
	}
	if t.Weekly.Value.IsZero() {
		t.Weekly = d.Weekly
	}
	return t
}

var nanosPerHour = decimal.NewFromInt(int64(time.Hour))

// MeasureShift computes worked hours and reports anomalies.
func (e HoursEngine) MeasureShift(checkIn, checkOut time.Time) Shift {
	diff := checkOut.Sub(checkIn)
	shift := Shift{}
	if diff < 0 {
		diff += 24 * time.Hour
		shift.Overnight = true
	}

	switch {
	case diff < 0:
		shift.Anomaly = AnomalyNegativeDuration
		diff = 0
	case diff > 24*time.Hour:
		shift.Anomaly = AnomalyExceedsDay
		diff = 0
	}

	hours := decimal.NewFromInt(int64(diff)).Div(nanosPerHour)
	shift.Hours = generic.NewAmountFromDecimal(hours, generic.UnitHours).Round2().ClampZero()
	return shift
}

// WorkedHours returns the rounded hours between two clock events.
func (e HoursEngine) WorkedHours(checkIn, checkOut time.Time) generic.Amount {
	return e.MeasureShift(checkIn, checkOut).Hours
}

// DailyOvertime is max(0, total - daily threshold).
func (e HoursEngine) DailyOvertime(totalHours generic.Amount) generic.Amount {
	return totalHours.Sub(e.thresholds().Daily).ClampZero()
}

// DayHours is the slice of a Day record the weekly computation needs.
type DayHours struct {
	Date       generic.TimePoint
	TotalHours generic.Amount
}

// WeekToDateHours sums records dated from Monday of asOf through asOf.
// Records outside that window are ignored.
func (e HoursEngine) WeekToDateHours(records []DayHours, asOf generic.TimePoint) generic.Amount {
	window := generic.WeekToDate(asOf)
	sum := generic.ZeroHours()
	for _, r := range records {
		if window.Contains(r.Date) {
			sum = sum.Add(r.TotalHours)
		}
	}
	return sum
}

// WeeklyOvertime is max(0, week-to-date hours - weekly threshold).
func (e HoursEngine) WeeklyOvertime(records []DayHours, asOf generic.TimePoint) generic.Amount {
	return e.WeekToDateHours(records, asOf).Sub(e.thresholds().Weekly).ClampZero()
}

// CreditedOvertime is the overtime credited for a day: the larger of daily
// and weekly overtime, not their sum.
func (e HoursEngine) CreditedOvertime(daily, weekly generic.Amount) generic.Amount {
	return daily.Max(weekly)
}
