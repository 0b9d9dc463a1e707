package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/paie-engine/factory"
	"github.com/warp/paie-engine/generic"
	"github.com/warp/paie-engine/payroll"
	"github.com/warp/paie-engine/store/sqlite"
)

// 2025-04-15 (Tuesday): the month paid by a scheduled run is March 2025.
var testNow = time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC)

type testServer struct {
	handler *Handler
	router  http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	registry, err := payroll.NewRegistry(payroll.MoroccoRateTable2024())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(store, registry, logger)
	clock := func() time.Time { return testNow }
	h.Now = clock
	h.Recorder.Now = clock
	h.Payroll.Now = clock

	return &testServer{handler: h, router: NewRouter(h, RouterOptions{Logger: logger})}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func mustAmount(s string) generic.Amount {
	return generic.Amount{Value: generic.MustParseDecimal(s)}
}

func (s *testServer) createEmployee(t *testing.T, req CreateEmployeeRequest) EmployeeDTO {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/employees", req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[EmployeeDTO](t, rec)
}

func (s *testServer) manual(t *testing.T, employeeID, date, in, out string) DayDTO {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/attendance/"+employeeID+"/manual", ManualDayRequest{Date: date, CheckIn: in, CheckOut: out})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody[DayDTO](t, rec)
}

// =============================================================================
// PAYROLL
// =============================================================================

func TestComputePayroll_SingleEmployee(t *testing.T) {
	// GIVEN: 12,000 MAD, single, no children, no overtime
	// WHEN: Computing the payslip
	// THEN: The reference figures come back as two-decimal strings
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/payroll/compute", `{"base_salary": "12000", "marital_status": "single"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "12000.00", raw["gross_salary"])
	assert.Equal(t, "268.80", raw["social_contribution_employee"])
	assert.Equal(t, "271.20", raw["health_contribution_employee"])
	assert.Equal(t, "2463.07", raw["income_tax"])
	assert.Equal(t, "8996.93", raw["net_salary"])
	assert.Equal(t, "MA-2024", raw["rate_table_version"])
}

func TestComputePayroll_RejectsInvalidInput(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"negative salary", `{"base_salary": "-1", "marital_status": "single"}`},
		{"unknown marital status", `{"base_salary": "5000", "marital_status": "engaged"}`},
		{"negative children", `{"base_salary": "5000", "marital_status": "married", "dependent_children": -1}`},
		{"malformed body", `{"base_salary": `},
		{"bad pay date", `{"base_salary": "5000", "marital_status": "single", "pay_date": "15/04/2025"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/payroll/compute", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decodeBody[ErrorResponse](t, rec).Error)
		})
	}
}

func TestComputePayroll_NoRateTableInForce(t *testing.T) {
	// GIVEN: A pay date before the first table's effective date
	// THEN: 404
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/payroll/compute", `{"base_salary": "5000", "marital_status": "single", "pay_date": "2023-06-30"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func TestBatch_RunMonthFromStoredEmployees(t *testing.T) {
	// GIVEN: Two employees, one with overtime recorded in March
	// WHEN: Running March
	// THEN: The run is persisted and overtime reaches the payslip
	s := newTestServer(t)
	s.createEmployee(t, CreateEmployeeRequest{ID: "emp-1", Name: "Amina", BaseSalary: mustAmount("12000"), MaritalStatus: "single"})
	s.createEmployee(t, CreateEmployeeRequest{ID: "emp-2", Name: "Brahim", BaseSalary: mustAmount("9550"), MaritalStatus: "married"})
	s.manual(t, "emp-2", "2025-03-03", "08:00", "18:00") // 2h overtime

	rec := s.do(t, http.MethodPost, "/api/payroll/batch", BatchPayrollRequest{Year: 2025, Month: 3})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	run := decodeBody[RunDTO](t, rec)

	assert.Equal(t, "2025-03-01", run.PeriodStart)
	assert.Equal(t, "2025-03-31", run.PeriodEnd)
	assert.Equal(t, "MA-2024", run.RateTableVersion)
	assert.Equal(t, 2, run.Summary.EmployeeCount)
	assert.Zero(t, run.Summary.FailedCount)
	require.Len(t, run.Lines, 2)

	byID := map[string]RunLineDTO{}
	for _, l := range run.Lines {
		byID[l.EmployeeID] = l
	}
	require.NotNil(t, byID["emp-1"].Result)
	assert.Equal(t, "8996.93", byID["emp-1"].Result.NetSalary.Value.StringFixed(2))
	require.NotNil(t, byID["emp-2"].Result)
	// 9550 / 191 = 50/h, 2h at 1.25
	assert.Equal(t, "125.00", byID["emp-2"].Result.OvertimePay.Value.StringFixed(2))

	// WHEN: Reading it back
	rec = s.do(t, http.MethodGet, "/api/payroll/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	runs := decodeBody[[]RunDTO](t, rec)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)

	rec = s.do(t, http.MethodGet, "/api/payroll/runs/"+run.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[RunDTO](t, rec).Lines, 2)
}

func TestBatch_ExplicitInputsFailPerLine(t *testing.T) {
	// GIVEN: Explicit inputs, one with an unknown marital status
	// THEN: That line fails, the other is paid
	s := newTestServer(t)
	body := `{
		"year": 2025, "month": 3,
		"employees": [
			{"employee_id": "a", "base_salary": "12000", "marital_status": "single"},
			{"employee_id": "b", "base_salary": "8000", "marital_status": "complicated"}
		]
	}`
	rec := s.do(t, http.MethodPost, "/api/payroll/batch", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	run := decodeBody[RunDTO](t, rec)

	assert.Equal(t, 1, run.Summary.EmployeeCount)
	assert.Equal(t, 1, run.Summary.FailedCount)
	assert.Equal(t, "8996.93", run.Summary.TotalNet.Value.StringFixed(2))
	require.Len(t, run.Lines, 2)
	assert.Equal(t, "a", run.Lines[0].EmployeeID)
	assert.Empty(t, run.Lines[0].Error)
	assert.Equal(t, "b", run.Lines[1].EmployeeID)
	assert.Contains(t, run.Lines[1].Error, "marital_status")
	assert.Nil(t, run.Lines[1].Result)
}

func TestBatch_Validation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/payroll/batch", `{"year": 2025, "month": 13}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/payroll/batch", `{"year": 2025, "month": 3, "employees": [{"base_salary": "1"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/payroll/runs/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployees_CreateAndGet(t *testing.T) {
	s := newTestServer(t)

	// GIVEN: No ID in the request
	// THEN: One is generated
	created := s.createEmployee(t, CreateEmployeeRequest{Name: "Leila", BaseSalary: mustAmount("15000"), MaritalStatus: "Married", DependentChildren: 2})
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "married", created.MaritalStatus)

	rec := s.do(t, http.MethodGet, "/api/employees/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[EmployeeDTO](t, rec)
	assert.Equal(t, "Leila", got.Name)
	assert.Equal(t, "15000.00", got.BaseSalary.Value.StringFixed(2))
	assert.Equal(t, 2, got.DependentChildren)

	rec = s.do(t, http.MethodGet, "/api/employees", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]EmployeeDTO](t, rec), 1)

	rec = s.do(t, http.MethodGet, "/api/employees/nobody", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmployees_RejectsInvalid(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/employees", CreateEmployeeRequest{BaseSalary: mustAmount("1000"), MaritalStatus: "single"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "name is required")

	rec = s.do(t, http.MethodPost, "/api/employees", CreateEmployeeRequest{Name: "X", BaseSalary: mustAmount("-1"), MaritalStatus: "single"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// RATE TABLES
// =============================================================================

func table2025() factory.RateTableJSON {
	rj := factory.NewRateTableFactory().ToJSON(payroll.MoroccoRateTable2024())
	rj.Version = "MA-2025"
	rj.EffectiveFrom = "2025-01-01"
	rj.FamilyDeductionPerDependent = "40"
	return rj
}

func TestRateTables_CreateListGet(t *testing.T) {
	s := newTestServer(t)

	// WHEN: Registering a 2025 table
	rec := s.do(t, http.MethodPost, "/api/rate-tables", table2025())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// THEN: It is listed after the built-in one
	rec = s.do(t, http.MethodGet, "/api/rate-tables", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tables := decodeBody[[]factory.RateTableJSON](t, rec)
	require.Len(t, tables, 2)
	assert.Equal(t, "MA-2024", tables[0].Version)
	assert.Equal(t, "MA-2025", tables[1].Version)

	// AND: It is the one in force on 2025-04-15
	rec = s.do(t, http.MethodGet, "/api/rate-tables/MA-2025", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decodeBody[RateTableDetailDTO](t, rec)
	assert.True(t, detail.InForceNow)
	require.Len(t, detail.Shortcuts, 6)
	// 30000-50000 at 10%: 30000 * 0.10
	assert.Equal(t, "3000.00", detail.Shortcuts[1].Deduction.Value.StringFixed(2))

	rec = s.do(t, http.MethodGet, "/api/rate-tables/MA-2024", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[RateTableDetailDTO](t, rec).InForceNow)

	// AND: It is persisted
	stored, err := s.handler.Store.ListRateTables(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "MA-2025", stored[0].Version)

	// AND: Payslips dated in 2025 use it
	rec = s.do(t, http.MethodPost, "/api/payroll/compute", `{"base_salary": "12000", "marital_status": "single"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MA-2025", decodeBody[PayrollResultDTO](t, rec).RateTableVersion)
}

func TestRateTables_Rejections(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/rate-tables", table2025())
	require.Equal(t, http.StatusCreated, rec.Code)

	// Duplicate version
	rec = s.do(t, http.MethodPost, "/api/rate-tables", table2025())
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	// Gap between brackets
	gap := table2025()
	gap.Version = "MA-2026"
	gap.EffectiveFrom = "2026-01-01"
	gap.Brackets[2].Lower = "55000"
	rec = s.do(t, http.MethodPost, "/api/rate-tables", gap)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/rate-tables/MA-1999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateTables_FailedSaveIsNotRegistered(t *testing.T) {
	// GIVEN: A store that can no longer write
	s := newTestServer(t)
	require.NoError(t, s.handler.Store.Close())

	// WHEN: Registering a 2025 table
	rec := s.do(t, http.MethodPost, "/api/rate-tables", table2025())

	// THEN: The request fails and the registry does not hold the table
	assert.Equal(t, http.StatusInternalServerError, rec.Code, rec.Body.String())
	_, err := s.handler.Registry.Version("MA-2025")
	assert.ErrorIs(t, err, generic.ErrRateTableNotFound)
	assert.Len(t, s.handler.Registry.List(), 1)
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func TestAttendance_CheckInCheckOut(t *testing.T) {
	s := newTestServer(t)

	// GIVEN: 08:00 to 18:30
	rec := s.do(t, http.MethodPost, "/api/attendance/emp-1/check-in", ClockRequest{At: "2025-04-14T08:00:00Z"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "clocked_in", decodeBody[DayDTO](t, rec).State)

	rec = s.do(t, http.MethodPost, "/api/attendance/emp-1/check-out", ClockRequest{At: "2025-04-14T18:30:00Z"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	day := decodeBody[DayDTO](t, rec)

	// THEN: 10.5h worked, 2.5h over the 8h day
	assert.Equal(t, "2025-04-14", day.Date)
	assert.Equal(t, "clocked_out", day.State)
	assert.Equal(t, "10.50", day.TotalHours.Value.StringFixed(2))
	assert.Equal(t, "2.50", day.OvertimeHours.Value.StringFixed(2))

	// AND: A second check-out conflicts
	rec = s.do(t, http.MethodPost, "/api/attendance/emp-1/check-out", ClockRequest{At: "2025-04-14T19:00:00Z"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// AND: So does a second check-in
	rec = s.do(t, http.MethodPost, "/api/attendance/emp-1/check-in", ClockRequest{At: "2025-04-14T20:00:00Z"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAttendance_ClockEdgeCases(t *testing.T) {
	s := newTestServer(t)

	// Check-out without check-in
	rec := s.do(t, http.MethodPost, "/api/attendance/emp-2/check-out", ClockRequest{At: "2025-04-14T18:00:00Z"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Empty body clocks in now
	rec = s.do(t, http.MethodPost, "/api/attendance/emp-2/check-in", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2025-04-15", decodeBody[DayDTO](t, rec).Date)

	// Bad timestamp
	rec = s.do(t, http.MethodPost, "/api/attendance/emp-3/check-in", ClockRequest{At: "yesterday"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendance_ManualOvernight(t *testing.T) {
	// GIVEN: 22:00 to 06:00 entered on the same date
	// THEN: 8h, no anomaly
	s := newTestServer(t)
	day := s.manual(t, "emp-1", "2025-04-14", "22:00", "06:00")
	assert.Equal(t, "8.00", day.TotalHours.Value.StringFixed(2))
	assert.Equal(t, "0.00", day.OvertimeHours.Value.StringFixed(2))
	assert.Empty(t, day.Anomaly)

	rec := s.do(t, http.MethodPost, "/api/attendance/emp-1/manual", ManualDayRequest{Date: "2025-04-14", CheckIn: "25:00", CheckOut: "06:00"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendance_WeekAndMonth(t *testing.T) {
	// GIVEN: Mon-Thu 10h, Fri 9h in the week of 2025-04-07
	s := newTestServer(t)
	for _, d := range []string{"2025-04-07", "2025-04-08", "2025-04-09", "2025-04-10"} {
		s.manual(t, "emp-1", d, "08:00", "18:00")
	}
	friday := s.manual(t, "emp-1", "2025-04-11", "08:00", "17:00")

	// THEN: Friday is credited the 5h weekly overtime, not its 1h daily
	assert.Equal(t, "5.00", friday.OvertimeHours.Value.StringFixed(2))

	rec := s.do(t, http.MethodGet, "/api/attendance/emp-1/week?date=2025-04-11", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	week := decodeBody[WeekDTO](t, rec)
	assert.Equal(t, "2025-04-07", week.WeekStart)
	assert.Equal(t, "49.00", week.TotalHours.Value.StringFixed(2))
	assert.Equal(t, "5.00", week.OvertimeHours.Value.StringFixed(2))
	assert.Len(t, week.Days, 5)

	// GIVEN: A holiday on Monday of the next week
	rec = s.do(t, http.MethodPost, "/api/attendance/emp-1/status", StatusRequest{Date: "2025-04-14", Status: "holiday"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/attendance/emp-1/month?year=2025&month=4", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	month := decodeBody[MonthSummaryDTO](t, rec)
	assert.Equal(t, "49.00", month.TotalHours.Value.StringFixed(2))
	// 4 x 2h daily + 5h weekly on Friday
	assert.Equal(t, "13.00", month.OvertimeHours.Value.StringFixed(2))
	assert.Equal(t, 5, month.DaysPresent)
	assert.Equal(t, 1, month.DaysHoliday)

	rec = s.do(t, http.MethodGet, "/api/attendance/emp-1/month?month=13", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/attendance/emp-1/status", StatusRequest{Date: "2025-04-07", Status: "holiday"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "day already has clock events")
}

func TestAttendance_HoursCalculator(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name      string
		req       HoursRequest
		worked    string
		overnight bool
		anomaly   string
		credited  string
	}{
		{
			name:   "regular day with daily overtime",
			req:    HoursRequest{CheckIn: "2025-04-14T08:00:00Z", CheckOut: "2025-04-14T18:00:00Z"},
			worked: "10.00", credited: "2.00",
		},
		{
			name:   "overnight on the same date",
			req:    HoursRequest{CheckIn: "2025-04-14T22:00:00Z", CheckOut: "2025-04-14T06:00:00Z"},
			worked: "8.00", overnight: true, credited: "0.00",
		},
		{
			name:   "more than a day",
			req:    HoursRequest{CheckIn: "2025-04-14T08:00:00Z", CheckOut: "2025-04-15T10:00:00Z"},
			worked: "0.00", anomaly: "exceeds_24h", credited: "0.00",
		},
		{
			name: "weekly overtime from earlier days",
			req: HoursRequest{
				CheckIn:  "2025-04-11T08:00:00Z",
				CheckOut: "2025-04-11T17:00:00Z",
				Week: []DayHoursDTO{
					{Date: "2025-04-07", TotalHours: mustAmount("10")},
					{Date: "2025-04-08", TotalHours: mustAmount("10")},
					{Date: "2025-04-09", TotalHours: mustAmount("10")},
					{Date: "2025-04-10", TotalHours: mustAmount("10")},
				},
			},
			worked: "9.00", credited: "5.00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/attendance/hours", tt.req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			got := decodeBody[HoursDTO](t, rec)
			assert.Equal(t, tt.worked, got.WorkedHours.Value.StringFixed(2))
			assert.Equal(t, tt.overnight, got.Overnight)
			assert.Equal(t, tt.anomaly, got.Anomaly)
			assert.Equal(t, tt.credited, got.CreditedOvertime.Value.StringFixed(2))
		})
	}

	rec := s.do(t, http.MethodPost, "/api/attendance/hours", HoursRequest{CheckIn: "08:00", CheckOut: "17:00"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
