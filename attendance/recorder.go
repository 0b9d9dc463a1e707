/*
recorder.go - The owning caller of attendance days

PURPOSE:
  Applies clock events to Day records and persists them. The HoursEngine
  never fetches anything; the Recorder reads the week's records from the
  Store and hands them over when a day closes.

CONCURRENCY:
  Two clock-outs for the same employee racing (double submit) must not
  both close the day. The Recorder serializes every update per employee;
  different employees proceed in parallel. The Store's upsert keyed by
  (EmployeeID, Date) is the second line of defence.

OVERNIGHT CLOCK-OUT:
  A clock-out at 06:00 closes the day that was opened at 22:00 the
  previous evening: if today has no open record, yesterday's is tried.

SEE ALSO:
  - hours.go: The pure computations
  - store.go: Persistence interface
*/
package attendance

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/paie-engine/generic"
)

// Recorder applies clock events and keeps per-employee updates serialized.
type Recorder struct {
	Store  Store
	Engine HoursEngine
	Now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRecorder(store Store, engine HoursEngine) *Recorder {
	return &Recorder{
		Store:  store,
		Engine: engine,
		Now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (r *Recorder) lock(employeeID string) func() {
	r.mu.Lock()
	if r.locks == nil {
		r.locks = make(map[string]*sync.Mutex)
	}
	l, ok := r.locks[employeeID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[employeeID] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (r *Recorder) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// =============================================================================
// CLOCK EVENTS
// =============================================================================

// ClockIn opens the day of at.
func (r *Recorder) ClockIn(ctx context.Context, employeeID string, at time.Time) (*Day, error) {
	if employeeID == "" {
		return nil, &generic.InvalidInputError{Field: "employee_id", Reason: "required"}
	}
	defer r.lock(employeeID)()

	date := generic.DateOf(at)
	day, err := r.loadOrNew(ctx, employeeID, date)
	if err != nil {
		return nil, err
	}
	if err := day.ClockIn(at); err != nil {
		return nil, err
	}
	if err := r.save(ctx, day); err != nil {
		return nil, err
	}
	return day, nil
}

// ClockOut closes the open day: the day of at, or the previous day for an
// overnight shift.
func (r *Recorder) ClockOut(ctx context.Context, employeeID string, at time.Time) (*Day, error) {
	if employeeID == "" {
		return nil, &generic.InvalidInputError{Field: "employee_id", Reason: "required"}
	}
	defer r.lock(employeeID)()

	date := generic.DateOf(at)
	day, err := r.Store.GetDay(ctx, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load day: %w", err)
	}
	if day == nil || day.State() != StateClockedIn {
		prev, err := r.Store.GetDay(ctx, employeeID, date.AddDays(-1))
		if err != nil {
			return nil, fmt.Errorf("failed to load previous day: %w", err)
		}
		if prev != nil && prev.State() == StateClockedIn {
			day = prev
		}
	}
	if day == nil {
		return nil, generic.ErrNotClockedIn
	}

	if err := day.ClockOut(at); err != nil {
		return nil, err
	}
	if err := r.close(ctx, day); err != nil {
		return nil, err
	}
	return day, nil
}

// RecordManual stores a day entered by hand. checkIn and checkOut are
// usually built from clock times on the same date, so an overnight shift
// shows up as a negative difference and is corrected by the engine.
func (r *Recorder) RecordManual(ctx context.Context, employeeID string, date generic.TimePoint, checkIn, checkOut time.Time) (*Day, error) {
	if employeeID == "" {
		return nil, &generic.InvalidInputError{Field: "employee_id", Reason: "required"}
	}
	defer r.lock(employeeID)()

	day, err := r.loadOrNew(ctx, employeeID, date)
	if err != nil {
		return nil, err
	}
	day.CheckIn = &checkIn
	day.CheckOut = &checkOut
	if !day.Status.Worked() {
		day.Status = StatusPresent
	}
	if err := r.close(ctx, day); err != nil {
		return nil, err
	}
	return day, nil
}

// MarkStatus records an absence, leave or holiday on a day without clock
// events. Present and remote may be set on any day.
func (r *Recorder) MarkStatus(ctx context.Context, employeeID string, date generic.TimePoint, status Status) (*Day, error) {
	if !status.Valid() {
		return nil, &generic.InvalidInputError{Field: "status", Value: string(status), Reason: "unknown status"}
	}
	defer r.lock(employeeID)()

	day, err := r.loadOrNew(ctx, employeeID, date)
	if err != nil {
		return nil, err
	}
	if day.State() != StateNoClockIn && !status.Worked() {
		return nil, &generic.InvalidInputError{Field: "status", Value: string(status), Reason: "day already has clock events"}
	}
	day.Status = status
	if err := r.save(ctx, day); err != nil {
		return nil, err
	}
	return day, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Week returns the week-to-date aggregate for asOf.
func (r *Recorder) Week(ctx context.Context, employeeID string, asOf generic.TimePoint) (WeeklyAggregate, error) {
	days, err := r.Store.DaysInRange(ctx, employeeID, generic.WeekToDate(asOf))
	if err != nil {
		return WeeklyAggregate{}, fmt.Errorf("failed to load week: %w", err)
	}
	return SummarizeWeek(r.Engine, employeeID, asOf, days), nil
}

// Month returns the monthly rollup for one employee.
func (r *Recorder) Month(ctx context.Context, employeeID string, period generic.Period) (MonthlySummary, error) {
	if err := period.Validate(); err != nil {
		return MonthlySummary{}, err
	}
	days, err := r.Store.DaysInRange(ctx, employeeID, period)
	if err != nil {
		return MonthlySummary{}, fmt.Errorf("failed to load month: %w", err)
	}
	return SummarizeMonth(employeeID, period, days), nil
}

// MonthAll returns the rollup for every employee with records in period.
func (r *Recorder) MonthAll(ctx context.Context, period generic.Period) ([]MonthlySummary, error) {
	ids, err := r.Store.EmployeesWithDays(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	out := make([]MonthlySummary, 0, len(ids))
	for _, id := range ids {
		s, err := r.Month(ctx, id, period)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (r *Recorder) loadOrNew(ctx context.Context, employeeID string, date generic.TimePoint) (*Day, error) {
	day, err := r.Store.GetDay(ctx, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load day: %w", err)
	}
	if day == nil {
		d := NewDay(employeeID, date)
		d.ID = uuid.NewString()
		day = &d
	}
	return day, nil
}

// close recomputes the day's hours against the stored week and saves it.
// Closed days later in the same week were credited against the old
// week-to-date total, so they are recomputed and saved too, in date order.
// Callers hold the employee lock.
func (r *Recorder) close(ctx context.Context, day *Day) error {
	monday := day.Date.StartOfWeek()
	week, err := r.Store.DaysInRange(ctx, day.EmployeeID, generic.Period{Start: monday, End: monday.AddDays(6)})
	if err != nil {
		return fmt.Errorf("failed to load week: %w", err)
	}
	sort.Slice(week, func(i, j int) bool { return week[i].Date.Before(week[j].Date) })

	records := ToDayHours(week)
	day.Close(r.Engine, records)
	if err := r.save(ctx, day); err != nil {
		return err
	}
	records = replaceDayHours(records, day.Hours())

	for i := range week {
		later := &week[i]
		if !later.Date.After(day.Date) || later.State() != StateClockedOut {
			continue
		}
		later.Close(r.Engine, records)
		if err := r.save(ctx, later); err != nil {
			return err
		}
		records = replaceDayHours(records, later.Hours())
	}
	return nil
}

func replaceDayHours(records []DayHours, h DayHours) []DayHours {
	for i := range records {
		if records[i].Date.Equal(h.Date) {
			records[i] = h
			return records
		}
	}
	return append(records, h)
}

func (r *Recorder) save(ctx context.Context, day *Day) error {
	day.UpdatedAt = r.now()
	if err := r.Store.UpsertDay(ctx, *day); err != nil {
		return fmt.Errorf("failed to save day: %w", err)
	}
	return nil
}
