// Package memory provides an in-memory attendance store for tests and development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/paie-engine/attendance"
	"github.com/warp/paie-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation of attendance.Store
// =============================================================================

type Memory struct {
	mu   sync.RWMutex
	days map[key]attendance.Day
}

type key struct {
	EmployeeID string
	Date       string
}

var _ attendance.Store = (*Memory)(nil)

func New() *Memory {
	return &Memory{days: make(map[key]attendance.Day)}
}

func keyOf(employeeID string, date generic.TimePoint) key {
	return key{EmployeeID: employeeID, Date: date.String()}
}

func (m *Memory) GetDay(_ context.Context, employeeID string, date generic.TimePoint) (*attendance.Day, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.days[keyOf(employeeID, date)]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

// UpsertDay replaces any record with the same (EmployeeID, Date).
func (m *Memory) UpsertDay(_ context.Context, day attendance.Day) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := keyOf(day.EmployeeID, day.Date)
	if existing, ok := m.days[k]; ok && day.ID == "" {
		day.ID = existing.ID
	}
	m.days[k] = day
	return nil
}

func (m *Memory) DaysInRange(_ context.Context, employeeID string, period generic.Period) ([]attendance.Day, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []attendance.Day
	for k, d := range m.days {
		if k.EmployeeID == employeeID && period.Contains(d.Date) {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (m *Memory) EmployeesWithDays(_ context.Context, period generic.Period) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var ids []string
	for k, d := range m.days {
		if period.Contains(d.Date) && !seen[k.EmployeeID] {
			seen[k.EmployeeID] = true
			ids = append(ids, k.EmployeeID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
