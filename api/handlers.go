/*
handlers.go - HTTP API handlers for the payroll and attendance engines

PURPOSE:
  Exposes the payroll engine and the attendance recorder via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees                          List all employees
    POST   /api/employees                          Create or update employee
    GET    /api/employees/{id}                     Get employee details

  Payroll:
    POST   /api/payroll/compute                    One employee, one month (pure)
    POST   /api/payroll/batch                      Run and persist a month
    GET    /api/payroll/runs                       List runs
    GET    /api/payroll/runs/{id}                  Run with all lines

  Rate tables:
    GET    /api/rate-tables                        List registered tables
    POST   /api/rate-tables                        Register a new version
    GET    /api/rate-tables/{version}              Table and derived deductions

  Scenarios:
    GET    /api/scenarios                          List demo scenarios
    POST   /api/scenarios/load                     Load a demo scenario

  Attendance:
    POST   /api/attendance/{employeeID}/check-in   Clock in
    POST   /api/attendance/{employeeID}/check-out  Clock out
    POST   /api/attendance/{employeeID}/manual     Enter a day by hand
    POST   /api/attendance/{employeeID}/status     Mark absence/leave/holiday
    GET    /api/attendance/{employeeID}/week       Week-to-date (?date=)
    GET    /api/attendance/{employeeID}/month      Monthly rollup (?year=&month=)
    POST   /api/attendance/hours                   Pure hours calculator

ERROR HANDLING:
  Errors are returned as JSON with the HTTP status derived from the
  generic error classification:
  - 400: Validation errors, invalid input, malformed rate table
  - 404: Employee, run or rate table not found
  - 409: Clock state conflicts, duplicate rate table version
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - payrun.go: Month payroll orchestration
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/warp/paie-engine/attendance"
	"github.com/warp/paie-engine/factory"
	"github.com/warp/paie-engine/generic"
	"github.com/warp/paie-engine/payroll"
	"github.com/warp/paie-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Registry *payroll.Registry
	Recorder *attendance.Recorder
	Payroll  *PayRunner
	Tables   *factory.RateTableFactory
	Hours    attendance.HoursEngine
	Logger   *slog.Logger
	Location *time.Location // zone for manual HH:MM entries
	Now      func() time.Time

	// Track currently loaded demo scenario. scenarioMu also serializes
	// loads and resets.
	scenarioMu      sync.Mutex
	currentScenario string

	tablesMu sync.Mutex // serializes rate table registration
}

// NewHandler wires the engines to the store.
func NewHandler(store *sqlite.Store, registry *payroll.Registry, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	hours := attendance.NewHoursEngine()
	recorder := attendance.NewRecorder(store, hours)
	return &Handler{
		Store:    store,
		Registry: registry,
		Recorder: recorder,
		Payroll: &PayRunner{
			Registry:   registry,
			Employees:  store,
			Runs:       store,
			Attendance: recorder,
			Logger:     logger,
		},
		Tables:   factory.NewRateTableFactory(),
		Hours:    hours,
		Logger:   logger,
		Location: time.UTC,
		Now:      time.Now,
	}
}

// LoadRateTables registers the tables stored in the database.
func (h *Handler) LoadRateTables(ctx context.Context) error {
	tables, err := h.Store.ListRateTables(ctx)
	if err != nil {
		return err
	}
	for _, t := range tables {
		if err := h.Registry.Register(t); err != nil {
			if errors.Is(err, generic.ErrDuplicateRateTable) {
				continue // built-in table also persisted
			}
			return err
		}
	}
	return nil
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// CreateEmployee creates or updates an employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	status, err := payroll.ParseMaritalStatus(req.MaritalStatus)
	if err != nil {
		writeDomainError(w, "Invalid employee", err)
		return
	}
	emp := payroll.Employee{
		ID:                req.ID,
		Name:              req.Name,
		BaseSalary:        req.BaseSalary.WithUnit(generic.UnitDirham),
		MaritalStatus:     status,
		DependentChildren: req.DependentChildren,
		CreatedAt:         h.now(),
	}
	if emp.ID == "" {
		emp.ID = uuid.NewString()
	}
	if err := emp.Validate(); err != nil {
		writeDomainError(w, "Invalid employee", err)
		return
	}

	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// ComputePayroll computes one payslip without storing anything.
func (h *Handler) ComputePayroll(w http.ResponseWriter, r *http.Request) {
	var req ComputePayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	payDate := generic.DateOf(h.now())
	if req.PayDate != "" {
		d, err := generic.ParseDate(req.PayDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid pay_date format (use YYYY-MM-DD)", err)
			return
		}
		payDate = d
	}

	in, err := req.toInput()
	if err != nil {
		writeDomainError(w, "Invalid payroll input", err)
		return
	}
	engine, err := h.Registry.EngineFor(payDate)
	if err != nil {
		writeDomainError(w, "No rate table in force", err)
		return
	}
	result, err := engine.Compute(in)
	if err != nil {
		writeDomainError(w, "Invalid payroll input", err)
		return
	}
	writeJSON(w, http.StatusOK, toPayrollResultDTO(result))
}

// RunBatch runs payroll for a month and persists the run.
func (h *Handler) RunBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchPayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Month < 1 || req.Month > 12 || req.Year < 1 {
		writeError(w, http.StatusBadRequest, "year and month are required", nil)
		return
	}
	period := generic.MonthPeriod(req.Year, time.Month(req.Month))

	var (
		run *payroll.Run
		err error
	)
	if len(req.Employees) == 0 {
		bonuses := make(map[string]generic.Amount, len(req.Bonuses))
		for id, b := range req.Bonuses {
			bonuses[id] = b.WithUnit(generic.UnitDirham)
		}
		run, err = h.Payroll.RunMonth(r.Context(), period, bonuses)
	} else {
		inputs := make([]payroll.EmployeeInput, 0, len(req.Employees))
		for i, e := range req.Employees {
			if e.EmployeeID == "" {
				writeError(w, http.StatusBadRequest, "employee_id is required on line "+strconv.Itoa(i), nil)
				return
			}
			// a bad marital status fails only that line
			in, convErr := e.toInput()
			if convErr != nil {
				in = payroll.PayrollInput{MaritalStatus: payroll.MaritalStatus(e.MaritalStatus)}
			}
			inputs = append(inputs, payroll.EmployeeInput{EmployeeID: e.EmployeeID, Input: in})
		}
		run, err = h.Payroll.RunInputs(r.Context(), period, inputs)
	}
	if err != nil {
		writeDomainError(w, "Payroll run failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRunDTO(*run))
}

// ListRuns returns run headers, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}
	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRun returns a run with its lines.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get run", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(*run))
}

// =============================================================================
// RATE TABLE HANDLERS
// =============================================================================

// ListRateTables returns every registered table, oldest first.
func (h *Handler) ListRateTables(w http.ResponseWriter, r *http.Request) {
	tables := h.Registry.List()
	dtos := make([]factory.RateTableJSON, len(tables))
	for i, t := range tables {
		dtos[i] = h.Tables.ToJSON(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRateTable returns a table with its derived deduction constants.
func (h *Handler) GetRateTable(w http.ResponseWriter, r *http.Request) {
	t, err := h.Registry.Version(chi.URLParam(r, "version"))
	if err != nil {
		writeDomainError(w, "Rate table not found", err)
		return
	}

	dto := RateTableDetailDTO{Table: h.Tables.ToJSON(t)}
	for _, s := range t.DeductionShortcuts() {
		dto.Shortcuts = append(dto.Shortcuts, DeductionShortcutDTO{
			Lower:     s.Bracket.LowerBound,
			Upper:     s.Bracket.UpperBound,
			Rate:      s.Bracket.Rate,
			Deduction: s.Deduction,
		})
	}
	if current, err := h.Registry.InForce(generic.DateOf(h.now())); err == nil {
		dto.InForceNow = current.Version == t.Version
	}
	writeJSON(w, http.StatusOK, dto)
}

// CreateRateTable persists a new table version, then registers it.
func (h *Handler) CreateRateTable(w http.ResponseWriter, r *http.Request) {
	var rj factory.RateTableJSON
	if err := json.NewDecoder(r.Body).Decode(&rj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	t, err := h.Tables.FromJSON(rj)
	if err != nil {
		writeDomainError(w, "Invalid rate table", err)
		return
	}

	// Only a persisted table joins the registry.
	h.tablesMu.Lock()
	defer h.tablesMu.Unlock()
	if err := h.Registry.Check(t); err != nil {
		writeDomainError(w, "Rate table rejected", err)
		return
	}
	if err := h.Store.SaveRateTable(r.Context(), t); err != nil {
		writeDomainError(w, "Failed to save rate table", err)
		return
	}
	if err := h.Registry.Register(t); err != nil {
		writeDomainError(w, "Rate table rejected", err)
		return
	}

	h.Logger.Info("rate table registered",
		slog.String("version", t.Version),
		slog.String("effective_from", t.EffectiveFrom.String()),
	)
	writeJSON(w, http.StatusCreated, h.Tables.ToJSON(t))
}

// =============================================================================
// ATTENDANCE HANDLERS
// =============================================================================

// decodeClock reads an optional ClockRequest body; an empty body means now.
func (h *Handler) decodeClock(r *http.Request) (time.Time, error) {
	var req ClockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return time.Time{}, &generic.InvalidInputError{Field: "body", Reason: err.Error()}
	}
	if req.At == "" {
		return h.now(), nil
	}
	at, err := time.Parse(time.RFC3339, req.At)
	if err != nil {
		return time.Time{}, &generic.InvalidInputError{Field: "at", Value: req.At, Reason: "use RFC3339"}
	}
	return at, nil
}

// ClockIn opens the day.
func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	at, err := h.decodeClock(r)
	if err != nil {
		writeDomainError(w, "Invalid clock event", err)
		return
	}
	day, err := h.Recorder.ClockIn(r.Context(), chi.URLParam(r, "employeeID"), at)
	if err != nil {
		writeDomainError(w, "Check-in rejected", err)
		return
	}
	writeJSON(w, http.StatusOK, toDayDTO(*day))
}

// ClockOut closes the open day, computing hours and overtime.
func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	at, err := h.decodeClock(r)
	if err != nil {
		writeDomainError(w, "Invalid clock event", err)
		return
	}
	day, err := h.Recorder.ClockOut(r.Context(), chi.URLParam(r, "employeeID"), at)
	if err != nil {
		writeDomainError(w, "Check-out rejected", err)
		return
	}
	if day.NeedsReview() {
		h.Logger.Warn("attendance anomaly",
			slog.String("employee_id", day.EmployeeID),
			slog.String("date", day.Date.String()),
			slog.String("anomaly", string(day.Anomaly)),
		)
	}
	writeJSON(w, http.StatusOK, toDayDTO(*day))
}

// RecordManual enters a full day from HH:MM clock times.
func (h *Handler) RecordManual(w http.ResponseWriter, r *http.Request) {
	var req ManualDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	checkIn, err := h.clockTimeOn(date, req.CheckIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid check_in (use HH:MM)", err)
		return
	}
	checkOut, err := h.clockTimeOn(date, req.CheckOut)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid check_out (use HH:MM)", err)
		return
	}

	day, err := h.Recorder.RecordManual(r.Context(), chi.URLParam(r, "employeeID"), date, checkIn, checkOut)
	if err != nil {
		writeDomainError(w, "Manual entry rejected", err)
		return
	}
	writeJSON(w, http.StatusOK, toDayDTO(*day))
}

func (h *Handler) clockTimeOn(date generic.TimePoint, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	loc := h.Location
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// MarkStatus records an absence, leave or holiday.
func (h *Handler) MarkStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	day, err := h.Recorder.MarkStatus(r.Context(), chi.URLParam(r, "employeeID"), date, attendance.Status(req.Status))
	if err != nil {
		writeDomainError(w, "Status rejected", err)
		return
	}
	writeJSON(w, http.StatusOK, toDayDTO(*day))
}

// GetWeek returns the week-to-date aggregate.
func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	asOf := generic.DateOf(h.now())
	if s := r.URL.Query().Get("date"); s != "" {
		d, err := generic.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		asOf = d
	}
	week, err := h.Recorder.Week(r.Context(), chi.URLParam(r, "employeeID"), asOf)
	if err != nil {
		writeDomainError(w, "Failed to load week", err)
		return
	}
	writeJSON(w, http.StatusOK, toWeekDTO(week))
}

// GetMonth returns the monthly rollup; defaults to the current month.
func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	today := generic.DateOf(h.now())
	year, month := today.Year(), int(today.Month())
	q := r.URL.Query()
	if s := q.Get("year"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = v
	}
	if s := q.Get("month"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > 12 {
			writeError(w, http.StatusBadRequest, "Invalid month (1-12)", err)
			return
		}
		month = v
	}

	summary, err := h.Recorder.Month(r.Context(), chi.URLParam(r, "employeeID"), generic.MonthPeriod(year, time.Month(month)))
	if err != nil {
		writeDomainError(w, "Failed to load month", err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthSummaryDTO(summary))
}

// CalculateHours runs the pure hours engine on one shift.
func (h *Handler) CalculateHours(w http.ResponseWriter, r *http.Request) {
	var req HoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	checkIn, err := time.Parse(time.RFC3339, req.CheckIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid check_in (use RFC3339)", err)
		return
	}
	checkOut, err := time.Parse(time.RFC3339, req.CheckOut)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid check_out (use RFC3339)", err)
		return
	}

	date := generic.DateOf(checkIn)
	day := attendance.NewDay("", date)
	day.CheckIn = &checkIn
	day.CheckOut = &checkOut

	week := make([]attendance.DayHours, 0, len(req.Week)+1)
	for _, d := range req.Week {
		wd, err := generic.ParseDate(d.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid week date (use YYYY-MM-DD)", err)
			return
		}
		if wd.Equal(date) {
			continue // replaced by this shift
		}
		week = append(week, attendance.DayHours{Date: wd, TotalHours: d.TotalHours.WithUnit(generic.UnitHours)})
	}
	day.Close(h.Hours, week)

	shift := h.Hours.MeasureShift(checkIn, checkOut)
	records := append(week, day.Hours())
	writeJSON(w, http.StatusOK, HoursDTO{
		WorkedHours:      shift.Hours,
		Overnight:        shift.Overnight,
		Anomaly:          string(shift.Anomaly),
		DailyOvertime:    h.Hours.DailyOvertime(shift.Hours),
		WeeklyOvertime:   h.Hours.WeeklyOvertime(records, date),
		CreditedOvertime: day.OvertimeHours,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError picks the status from the error classification.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case generic.IsConflict(err):
		return http.StatusConflict
	case generic.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
