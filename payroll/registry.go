package payroll

import (
	"fmt"
	"sort"
	"sync"

	"github.com/warp/paie-engine/generic"
)

// =============================================================================
// RATE TABLE REGISTRY
// =============================================================================

// Registry keeps every rate table version so that a pay period is always
// computed with the table that was in force on its date.
type Registry struct {
	mu     sync.RWMutex
	tables []TaxRateTable // sorted by EffectiveFrom ascending
}

// NewRegistry validates and registers the given tables.
func NewRegistry(tables ...TaxRateTable) (*Registry, error) {
	r := &Registry{}
	for _, t := range tables {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a table. Versions and effective dates must be unique.
func (r *Registry) Register(t TaxRateTable) error {
	if err := t.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.conflict(t); err != nil {
		return err
	}

	r.tables = append(r.tables, t)
	sort.Slice(r.tables, func(i, j int) bool {
		return r.tables[i].EffectiveFrom.Before(r.tables[j].EffectiveFrom)
	})
	return nil
}

// Check returns the error Register would return for t, without adding it.
func (r *Registry) Check(t TaxRateTable) error {
	if err := t.Validate(); err != nil {
		return err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conflict(t)
}

func (r *Registry) conflict(t TaxRateTable) error {
	for _, existing := range r.tables {
		if existing.Version == t.Version {
			return fmt.Errorf("%w: %s", generic.ErrDuplicateRateTable, t.Version)
		}
		if existing.EffectiveFrom.Equal(t.EffectiveFrom) {
			return fmt.Errorf("%w: %s and %s both start on %s",
				generic.ErrDuplicateRateTable, existing.Version, t.Version, t.EffectiveFrom)
		}
	}
	return nil
}

// InForce returns the latest table whose EffectiveFrom is on or before date.
func (r *Registry) InForce(date generic.TimePoint) (TaxRateTable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.tables) - 1; i >= 0; i-- {
		if r.tables[i].EffectiveFrom.BeforeOrEqual(date) {
			return r.tables[i], nil
		}
	}
	return TaxRateTable{}, fmt.Errorf("%w: no table in force on %s", generic.ErrRateTableNotFound, date)
}

// Version looks a table up by its version string.
func (r *Registry) Version(version string) (TaxRateTable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.tables {
		if t.Version == version {
			return t, nil
		}
	}
	return TaxRateTable{}, fmt.Errorf("%w: %s", generic.ErrRateTableNotFound, version)
}

// List returns all tables, oldest first.
func (r *Registry) List() []TaxRateTable {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]TaxRateTable, len(r.tables))
	copy(out, r.tables)
	return out
}

// EngineFor returns an engine bound to the table in force on date.
func (r *Registry) EngineFor(date generic.TimePoint) (*Engine, error) {
	t, err := r.InForce(date)
	if err != nil {
		return nil, err
	}
	return NewEngine(t), nil
}
