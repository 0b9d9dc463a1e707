/*
scheduler.go - Month-end payroll scheduler

PURPOSE:
  On a cron schedule (default: 02:00 on the 1st of each month) rolls up the
  previous month's attendance and runs payroll for every employee.

DESIGN:
  - robfig/cron drives the schedule; the job itself is RunOnce
  - A month that already has a persisted run is skipped, so a restart or a
    manual trigger on the same day does not pay twice
  - Attendance problems (open days, anomalies) are logged, never fatal

CONFIGURATION:
  - Schedule: Standard 5-field cron spec (ROLLUP_SCHEDULE)
  - Enabled:  Whether the scheduler starts at all

USAGE:
  scheduler := NewMonthEndScheduler(payRunner, logger)
  if err := scheduler.Start(); err != nil { ... }
  defer scheduler.Stop()

SEE ALSO:
  - payrun.go: RunMonth, the work done on each tick
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/warp/paie-engine/generic"
	"github.com/warp/paie-engine/payroll"
)

// DefaultMonthEndSchedule runs at 02:00 on the first day of every month.
const DefaultMonthEndSchedule = "0 2 1 * *"

// MonthEndScheduler handles automated month-end payroll.
type MonthEndScheduler struct {
	Payroll  *PayRunner
	Schedule string
	Enabled  bool
	Logger   *slog.Logger
	Now      func() time.Time

	cron    *cron.Cron
	entryID cron.EntryID
	mu      sync.Mutex
}

// NewMonthEndScheduler creates a new scheduler.
func NewMonthEndScheduler(runner *PayRunner, logger *slog.Logger) *MonthEndScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MonthEndScheduler{
		Payroll:  runner,
		Schedule: DefaultMonthEndSchedule,
		Enabled:  true,
		Logger:   logger.With(slog.String("component", "month_end_scheduler")),
		Now:      time.Now,
	}
}

// Start registers the job and begins the scheduler.
func (s *MonthEndScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.Logger.Info("disabled, not starting")
		return nil
	}

	c := cron.New()
	id, err := c.AddFunc(s.Schedule, s.tick)
	if err != nil {
		return err
	}
	c.Start()
	s.cron = c
	s.entryID = id

	s.Logger.Info("started", slog.String("schedule", s.Schedule), slog.Time("next_run", s.nextRunLocked()))
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *MonthEndScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.cron = nil
		s.Logger.Info("stopped")
	}
}

func (s *MonthEndScheduler) tick() {
	if _, err := s.RunOnce(context.Background()); err != nil {
		s.Logger.Error("month-end run failed", slog.Any("error", err))
	}
}

// RunOnce pays the month before today. It returns (nil, nil) when that
// month already has a run.
func (s *MonthEndScheduler) RunOnce(ctx context.Context) (*payroll.Run, error) {
	period := generic.PreviousMonth(generic.DateOf(s.now()))

	done, err := s.alreadyRun(ctx, period)
	if err != nil {
		return nil, err
	}
	if done {
		s.Logger.Info("period already paid, skipping", slog.String("period", period.String()))
		return nil, nil
	}

	if rec := s.Payroll.Attendance; rec != nil {
		summaries, err := rec.MonthAll(ctx, period)
		if err != nil {
			return nil, err
		}
		s.Logger.Info("attendance rolled up",
			slog.String("period", period.String()),
			slog.Int("employees", len(summaries)),
		)
	}

	return s.Payroll.RunMonth(ctx, period, nil)
}

func (s *MonthEndScheduler) alreadyRun(ctx context.Context, period generic.Period) (bool, error) {
	runs, err := s.Payroll.Runs.ListRuns(ctx)
	if err != nil {
		return false, err
	}
	for _, r := range runs {
		if r.Period.Start.Equal(period.Start) && r.Period.End.Equal(period.End) {
			return true, nil
		}
	}
	return false, nil
}

// GetNextRunTime returns when the next scheduled run will occur, or the
// zero time when the scheduler is not running.
func (s *MonthEndScheduler) GetNextRunTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRunLocked()
}

func (s *MonthEndScheduler) nextRunLocked() time.Time {
	if s.cron == nil {
		return time.Time{}
	}
	if next := s.cron.Entry(s.entryID).Next; !next.IsZero() {
		return next
	}
	// the cron goroutine fills Entry.Next only once it has started
	sched, err := cron.ParseStandard(s.Schedule)
	if err != nil {
		return time.Time{}
	}
	return sched.Next(s.now())
}

func (s *MonthEndScheduler) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
