/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for demos. Each scenario creates employees and last month's
	attendance so that a batch run shows a specific feature.

AVAILABLE SCENARIOS:

	single-employee:   One single employee at 12,000 MAD, no overtime
	overtime-week:     A week where weekly overtime beats daily overtime
	night-shift:       Overnight shifts entered as same-day clock times
	family-deductions: Married with children, spouse rule, children cap
	review-needed:     A forgotten clock-out and a 26h shift

HOW SCENARIOS WORK:
 1. Reset database (rate tables are kept)
 2. Create employees
 3. Record attendance for the first full week of last month
 4. POST /api/payroll/batch for last month to see the effect

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "overtime-week"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Payroll and attendance handlers
  - payrun.go: RunMonth
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/paie-engine/attendance"
	"github.com/warp/paie-engine/generic"
	"github.com/warp/paie-engine/payroll"
)

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "single-employee",
		Name:        "Single Employee",
		Description: "12,000 MAD base salary, single, no children, no overtime",
		Category:    "payroll",
	},
	{
		ID:          "overtime-week",
		Name:        "Overtime Week",
		Description: "Four 10h days then a 9h Friday: weekly overtime credited instead of daily",
		Category:    "attendance",
	},
	{
		ID:          "night-shift",
		Name:        "Night Shift",
		Description: "22:00 to 06:00 shifts entered on the same date",
		Category:    "attendance",
	},
	{
		ID:          "family-deductions",
		Name:        "Family Deductions",
		Description: "Married with two children, divorced with eight (capped at six)",
		Category:    "payroll",
	},
	{
		ID:          "review-needed",
		Name:        "Review Needed",
		Description: "A forgotten clock-out and a 26h shift flagged for review",
		Category:    "attendance",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.Lock()
	current := h.currentScenario
	h.scenarioMu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	loader, ok := h.scenarioLoaders()[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	if err := loader(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID

	period := h.scenarioMonth()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "loaded",
		"scenario": req.ScenarioID,
		"year":     period.Start.Year(),
		"month":    int(period.Start.Month()),
	})
}

// ResetDatabase clears employees, attendance and payroll runs. Rate tables
// stay, matching the registry.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) scenarioLoaders() map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		"single-employee":   h.loadSingleEmployeeScenario,
		"overtime-week":     h.loadOvertimeWeekScenario,
		"night-shift":       h.loadNightShiftScenario,
		"family-deductions": h.loadFamilyDeductionsScenario,
		"review-needed":     h.loadReviewNeededScenario,
	}
}

// scenarioMonth is last month, the month a batch run would pay.
func (h *Handler) scenarioMonth() generic.Period {
	return generic.PreviousMonth(generic.DateOf(h.now()))
}

// scenarioWeek returns Monday..Friday of the first full week of last month.
func (h *Handler) scenarioWeek() []generic.TimePoint {
	start := h.scenarioMonth().Start
	for start.Weekday() != time.Monday {
		start = start.AddDays(1)
	}
	days := make([]generic.TimePoint, 5)
	for i := range days {
		days[i] = start.AddDays(i)
	}
	return days
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadSingleEmployeeScenario(ctx context.Context) error {
	return h.Store.SaveEmployee(ctx, payroll.Employee{
		ID:            "emp-001",
		Name:          "Youssef El Amrani",
		BaseSalary:    generic.MustDirhams("12000"),
		MaritalStatus: payroll.StatusSingle,
		CreatedAt:     h.now(),
	})
}

func (h *Handler) loadOvertimeWeekScenario(ctx context.Context) error {
	if err := h.Store.SaveEmployee(ctx, payroll.Employee{
		ID:            "emp-001",
		Name:          "Khadija Berrada",
		BaseSalary:    generic.MustDirhams("9550"),
		MaritalStatus: payroll.StatusSingle,
		CreatedAt:     h.now(),
	}); err != nil {
		return err
	}

	// Mon-Thu 08:00-18:00 (2h daily overtime each), Fri 08:00-17:00
	// (1h daily, but 49h week => 5h weekly overtime credited)
	for i, date := range h.scenarioWeek() {
		end := 18
		if i == 4 {
			end = 17
		}
		if err := h.clockDay(ctx, "emp-001", date, 8, end); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadNightShiftScenario(ctx context.Context) error {
	if err := h.Store.SaveEmployee(ctx, payroll.Employee{
		ID:            "emp-001",
		Name:          "Omar Tazi",
		BaseSalary:    generic.MustDirhams("7000"),
		MaritalStatus: payroll.StatusMarried,
		CreatedAt:     h.now(),
	}); err != nil {
		return err
	}

	for _, date := range h.scenarioWeek() {
		checkIn, _ := h.clockTimeOn(date, "22:00")
		checkOut, _ := h.clockTimeOn(date, "06:00")
		if _, err := h.Recorder.RecordManual(ctx, "emp-001", date, checkIn, checkOut); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadFamilyDeductionsScenario(ctx context.Context) error {
	employees := []payroll.Employee{
		{ID: "emp-001", Name: "Nadia Chraibi", BaseSalary: generic.MustDirhams("15000"), MaritalStatus: payroll.StatusMarried, DependentChildren: 2},
		{ID: "emp-002", Name: "Hicham Idrissi", BaseSalary: generic.MustDirhams("15000"), MaritalStatus: payroll.StatusDivorced, DependentChildren: 8},
		{ID: "emp-003", Name: "Salma Fassi", BaseSalary: generic.MustDirhams("15000"), MaritalStatus: payroll.StatusSingle},
	}
	for _, emp := range employees {
		emp.CreatedAt = h.now()
		if err := h.Store.SaveEmployee(ctx, emp); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadReviewNeededScenario(ctx context.Context) error {
	if err := h.Store.SaveEmployee(ctx, payroll.Employee{
		ID:            "emp-001",
		Name:          "Rachid Bennis",
		BaseSalary:    generic.MustDirhams("8000"),
		MaritalStatus: payroll.StatusSingle,
		CreatedAt:     h.now(),
	}); err != nil {
		return err
	}

	week := h.scenarioWeek()
	if err := h.clockDay(ctx, "emp-001", week[0], 8, 17); err != nil {
		return err
	}

	// Forgot to clock out
	in, _ := h.clockTimeOn(week[1], "08:00")
	if _, err := h.Recorder.ClockIn(ctx, "emp-001", in); err != nil {
		return err
	}

	// 08:00 to 10:00 the next day
	in, _ = h.clockTimeOn(week[2], "08:00")
	out, _ := h.clockTimeOn(week[3], "10:00")
	if _, err := h.Recorder.RecordManual(ctx, "emp-001", week[2], in, out); err != nil {
		return err
	}

	_, err := h.Recorder.MarkStatus(ctx, "emp-001", week[4], attendance.StatusOnLeave)
	return err
}

// clockDay records a same-day shift between two whole hours.
func (h *Handler) clockDay(ctx context.Context, employeeID string, date generic.TimePoint, startHour, endHour int) error {
	in, _ := h.clockTimeOn(date, fmt.Sprintf("%02d:00", startHour))
	out, _ := h.clockTimeOn(date, fmt.Sprintf("%02d:00", endHour))
	if _, err := h.Recorder.ClockIn(ctx, employeeID, in); err != nil {
		return err
	}
	_, err := h.Recorder.ClockOut(ctx, employeeID, out)
	return err
}
