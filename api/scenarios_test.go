package api

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *testServer) loadScenario(t *testing.T, id string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/scenarios/load", map[string]string{"scenario_id": id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

// testNow is in April 2025, so scenarios fill March 2025; its first
// Monday is the 3rd.
func (s *testServer) march(t *testing.T, employeeID string) MonthSummaryDTO {
	t.Helper()
	rec := s.do(t, http.MethodGet, "/api/attendance/"+employeeID+"/month?year=2025&month=3", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody[MonthSummaryDTO](t, rec)
}

func TestScenarios_List(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]ScenarioDTO](t, rec)
	assert.Len(t, list, 5)

	rec = s.do(t, http.MethodPost, "/api/scenarios/load", map[string]string{"scenario_id": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScenarios_SingleEmployee(t *testing.T) {
	s := newTestServer(t)
	s.loadScenario(t, "single-employee")

	rec := s.do(t, http.MethodGet, "/api/scenarios/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "single-employee", decodeBody[ScenarioDTO](t, rec).ID)

	rec = s.do(t, http.MethodPost, "/api/payroll/batch", BatchPayrollRequest{Year: 2025, Month: 3})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	run := decodeBody[RunDTO](t, rec)
	assert.Equal(t, "8996.93", run.Summary.TotalNet.Value.StringFixed(2))
}

func TestScenarios_OvertimeWeek(t *testing.T) {
	// THEN: 4 x 2h daily + 5h weekly on Friday
	s := newTestServer(t)
	s.loadScenario(t, "overtime-week")

	month := s.march(t, "emp-001")
	assert.Equal(t, "49.00", month.TotalHours.Value.StringFixed(2))
	assert.Equal(t, "13.00", month.OvertimeHours.Value.StringFixed(2))
	assert.Equal(t, 5, month.DaysPresent)
}

func TestScenarios_NightShift(t *testing.T) {
	s := newTestServer(t)
	s.loadScenario(t, "night-shift")

	month := s.march(t, "emp-001")
	assert.Equal(t, "40.00", month.TotalHours.Value.StringFixed(2))
	assert.Equal(t, "0.00", month.OvertimeHours.Value.StringFixed(2))
	assert.Empty(t, month.ReviewDates)
}

func TestScenarios_FamilyDeductions(t *testing.T) {
	// THEN: Same gross, less tax with more dependents
	s := newTestServer(t)
	s.loadScenario(t, "family-deductions")

	rec := s.do(t, http.MethodPost, "/api/payroll/batch", BatchPayrollRequest{Year: 2025, Month: 3})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	run := decodeBody[RunDTO](t, rec)
	require.Len(t, run.Lines, 3)

	tax := map[string]string{}
	for _, l := range run.Lines {
		require.NotNil(t, l.Result, l.Error)
		tax[l.EmployeeID] = l.Result.IncomeTax.Value.StringFixed(2)
	}
	single, married, capped := tax["emp-003"], tax["emp-001"], tax["emp-002"]
	assert.NotEqual(t, single, married)
	assert.NotEqual(t, married, capped)
}

func TestScenarios_ReviewNeeded(t *testing.T) {
	s := newTestServer(t)
	s.loadScenario(t, "review-needed")

	month := s.march(t, "emp-001")
	assert.Equal(t, 1, month.OpenDays)
	assert.Equal(t, []string{"2025-03-05"}, month.ReviewDates)
	assert.Equal(t, 1, month.DaysOnLeave)
	assert.Equal(t, "9.00", month.TotalHours.Value.StringFixed(2))
}

func TestScenarios_LoadReplacesAndReset(t *testing.T) {
	s := newTestServer(t)
	s.loadScenario(t, "family-deductions")
	s.loadScenario(t, "single-employee")

	rec := s.do(t, http.MethodGet, "/api/employees", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]EmployeeDTO](t, rec), 1)

	rec = s.do(t, http.MethodPost, "/api/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/employees", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]EmployeeDTO](t, rec))

	rec = s.do(t, http.MethodGet, "/api/scenarios/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))
}

func TestScenarios_ResetKeepsRateTables(t *testing.T) {
	// GIVEN: A table registered at runtime
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/rate-tables", table2025())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// WHEN: The database is reset and a scenario is loaded
	rec = s.do(t, http.MethodPost, "/api/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	s.loadScenario(t, "single-employee")

	// THEN: Store and registry still agree
	stored, err := s.handler.Store.ListRateTables(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "MA-2025", stored[0].Version)
	assert.Len(t, s.handler.Registry.List(), 2)
}

func TestScenarios_ConcurrentLoadsAndReads(t *testing.T) {
	s := newTestServer(t)
	ids := []string{"single-employee", "night-shift", "family-deductions"}

	var wg sync.WaitGroup
	for _, id := range ids {
		id := id
		wg.Add(2)
		go func() {
			defer wg.Done()
			rec := s.do(t, http.MethodPost, "/api/scenarios/load", map[string]string{"scenario_id": id})
			assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		}()
		go func() {
			defer wg.Done()
			rec := s.do(t, http.MethodGet, "/api/scenarios/current", nil)
			assert.Equal(t, http.StatusOK, rec.Code)
		}()
	}
	wg.Wait()

	rec := s.do(t, http.MethodGet, "/api/scenarios/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, ids, decodeBody[ScenarioDTO](t, rec).ID)
}
