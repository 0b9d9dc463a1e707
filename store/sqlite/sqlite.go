/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists everything the payroll and attendance engines need between
  requests. The engines themselves stay pure; this package only maps rows
  to domain values.

INTERFACES IMPLEMENTED:
  attendance.Store:       Day records keyed by (employee_id, work_date)
  payroll.EmployeeStore:  Employee payroll snapshots
  payroll.RunStore:       Persisted batch runs and their lines
  payroll.RateTableStore: Rate tables registered at runtime

KEY TABLES:
  attendance_days: One row per employee per date, upserted on every event
  employees:       Base salary and family situation
  rate_tables:     JSON config per version
  payroll_runs:    Run header with totals
  payroll_lines:   One row per employee in a run, in input order

DECIMALS:
  Money and hours are stored as TEXT and parsed back with shopspring/decimal,
  so no value ever passes through a float.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. The UNIQUE(employee_id, work_date)
  constraint guarantees at most one record per employee per day even if two
  writers slip past the application lock.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/paie.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  recorder := attendance.NewRecorder(store, attendance.NewHoursEngine())

SEE ALSO:
  - attendance/store.go: Attendance interface
  - payroll/run.go: Employee, run and rate table interfaces
  - store/memory: In-memory attendance store for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/warp/paie-engine/attendance"
	"github.com/warp/paie-engine/factory"
	"github.com/warp/paie-engine/generic"
	"github.com/warp/paie-engine/payroll"
)

const dateLayout = "2006-01-02"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex

	tables *factory.RateTableFactory
}

var (
	_ attendance.Store       = (*Store)(nil)
	_ payroll.EmployeeStore  = (*Store)(nil)
	_ payroll.RunStore       = (*Store)(nil)
	_ payroll.RateTableStore = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, tables: factory.NewRateTableFactory()}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Attendance (one record per employee per day)
	CREATE TABLE IF NOT EXISTS attendance_days (
		id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		work_date TEXT NOT NULL,
		check_in TEXT,
		check_out TEXT,
		total_hours TEXT NOT NULL DEFAULT '0',
		overtime_hours TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL,
		anomaly TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL,
		UNIQUE(employee_id, work_date)
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_work_date
		ON attendance_days(work_date);

	-- Employees
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		base_salary TEXT NOT NULL,
		marital_status TEXT NOT NULL,
		dependent_children INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	-- Rate tables (versioned statutory constants)
	CREATE TABLE IF NOT EXISTS rate_tables (
		version TEXT PRIMARY KEY,
		effective_from TEXT NOT NULL UNIQUE,
		config_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Payroll runs
	CREATE TABLE IF NOT EXISTS payroll_runs (
		id TEXT PRIMARY KEY,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		rate_table_version TEXT NOT NULL,
		employee_count INTEGER NOT NULL,
		failed_count INTEGER NOT NULL,
		total_gross TEXT NOT NULL,
		total_net TEXT NOT NULL,
		total_income_tax TEXT NOT NULL,
		total_social TEXT NOT NULL,
		total_health TEXT NOT NULL,
		total_employer_cost TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payroll_runs_period
		ON payroll_runs(period_start, period_end);

	CREATE TABLE IF NOT EXISTS payroll_lines (
		run_id TEXT NOT NULL REFERENCES payroll_runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		employee_id TEXT NOT NULL,
		gross_salary TEXT NOT NULL DEFAULT '0',
		social_employee TEXT NOT NULL DEFAULT '0',
		social_employer TEXT NOT NULL DEFAULT '0',
		health_employee TEXT NOT NULL DEFAULT '0',
		health_employer TEXT NOT NULL DEFAULT '0',
		taxable_income TEXT NOT NULL DEFAULT '0',
		income_tax TEXT NOT NULL DEFAULT '0',
		net_salary TEXT NOT NULL DEFAULT '0',
		employer_cost TEXT NOT NULL DEFAULT '0',
		overtime_pay TEXT NOT NULL DEFAULT '0',
		flags TEXT NOT NULL DEFAULT '',
		error TEXT,
		PRIMARY KEY (run_id, position)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ATTENDANCE STORE (attendance.Store interface)
// =============================================================================

const dayColumns = `id, employee_id, work_date, check_in, check_out,
	total_hours, overtime_hours, status, anomaly, updated_at`

// GetDay returns the record, or (nil, nil) when none exists.
func (s *Store) GetDay(ctx context.Context, employeeID string, date generic.TimePoint) (*attendance.Day, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+dayColumns+" FROM attendance_days WHERE employee_id = ? AND work_date = ?",
		employeeID, date.String(),
	)
	day, err := scanDay(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load day: %w", err)
	}
	return &day, nil
}

// UpsertDay inserts or replaces the record for (EmployeeID, Date). The
// original row ID is kept on update.
func (s *Store) UpsertDay(ctx context.Context, day attendance.Day) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO attendance_days (` + dayColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, work_date) DO UPDATE SET
			check_in = excluded.check_in,
			check_out = excluded.check_out,
			total_hours = excluded.total_hours,
			overtime_hours = excluded.overtime_hours,
			status = excluded.status,
			anomaly = excluded.anomaly,
			updated_at = excluded.updated_at
	`

	updatedAt := day.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		day.ID,
		day.EmployeeID,
		day.Date.String(),
		nullTime(day.CheckIn),
		nullTime(day.CheckOut),
		day.TotalHours.Value.String(),
		day.OvertimeHours.Value.String(),
		string(day.Status),
		string(day.Anomaly),
		updatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert day: %w", err)
	}
	return nil
}

// DaysInRange returns the employee's records in [period.Start, period.End].
func (s *Store) DaysInRange(ctx context.Context, employeeID string, period generic.Period) ([]attendance.Day, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+dayColumns+` FROM attendance_days
		WHERE employee_id = ? AND work_date >= ? AND work_date <= ?
		ORDER BY work_date ASC`,
		employeeID, period.Start.String(), period.End.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query days: %w", err)
	}
	defer rows.Close()

	var days []attendance.Day
	for rows.Next() {
		day, err := scanDay(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan day: %w", err)
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

// EmployeesWithDays lists employees with at least one record in period.
func (s *Store) EmployeesWithDays(ctx context.Context, period generic.Period) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT employee_id FROM attendance_days
		WHERE work_date >= ? AND work_date <= ?
		ORDER BY employee_id`,
		period.Start.String(), period.End.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDay(row scanner) (attendance.Day, error) {
	var (
		d                       attendance.Day
		workDate, updatedAt     string
		checkIn, checkOut       sql.NullString
		totalHours, overtimeHrs string
		status, anomaly         string
	)
	if err := row.Scan(&d.ID, &d.EmployeeID, &workDate, &checkIn, &checkOut,
		&totalHours, &overtimeHrs, &status, &anomaly, &updatedAt); err != nil {
		return attendance.Day{}, err
	}

	date, err := generic.ParseDate(workDate)
	if err != nil {
		return attendance.Day{}, fmt.Errorf("invalid work_date %q: %w", workDate, err)
	}
	d.Date = date
	d.CheckIn = parseNullTime(checkIn)
	d.CheckOut = parseNullTime(checkOut)
	d.TotalHours = parseAmount(totalHours, generic.UnitHours)
	d.OvertimeHours = parseAmount(overtimeHrs, generic.UnitHours)
	d.Status = attendance.Status(status)
	d.Anomaly = attendance.Anomaly(anomaly)
	d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return d, nil
}

// =============================================================================
// EMPLOYEE STORE (payroll.EmployeeStore interface)
// =============================================================================

// SaveEmployee inserts or updates an employee.
func (s *Store) SaveEmployee(ctx context.Context, emp payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, name, base_salary, marital_status, dependent_children, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			base_salary = excluded.base_salary,
			marital_status = excluded.marital_status,
			dependent_children = excluded.dependent_children
	`

	createdAt := emp.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		emp.ID, emp.Name,
		emp.BaseSalary.Value.String(),
		string(emp.MaritalStatus),
		emp.DependentChildren,
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id string) (*payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, base_salary, marital_status, dependent_children, created_at FROM employees WHERE id = ?",
		id,
	)
	emp, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("employee %q: %w", id, generic.ErrEmployeeNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

// ListEmployees returns all employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, base_salary, marital_status, dependent_children, created_at FROM employees ORDER BY name, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []payroll.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func scanEmployee(row scanner) (payroll.Employee, error) {
	var emp payroll.Employee
	var baseSalary, status, createdAt string
	if err := row.Scan(&emp.ID, &emp.Name, &baseSalary, &status, &emp.DependentChildren, &createdAt); err != nil {
		return payroll.Employee{}, err
	}
	emp.BaseSalary = parseAmount(baseSalary, generic.UnitDirham)
	emp.MaritalStatus = payroll.MaritalStatus(status)
	emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return emp, nil
}

// =============================================================================
// RATE TABLE STORE (payroll.RateTableStore interface)
// =============================================================================

// SaveRateTable stores a table as JSON. Versions are immutable: saving an
// existing version or effective date returns ErrDuplicateRateTable.
func (s *Store) SaveRateTable(ctx context.Context, table payroll.TaxRateTable) error {
	data, err := s.tables.MarshalRateTable(table)
	if err != nil {
		return fmt.Errorf("failed to encode rate table: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO rate_tables (version, effective_from, config_json, created_at) VALUES (?, ?, ?, ?)",
		table.Version, table.EffectiveFrom.String(), string(data),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("rate table %q: %w", table.Version, generic.ErrDuplicateRateTable)
		}
		return fmt.Errorf("failed to save rate table: %w", err)
	}
	return nil
}

// ListRateTables returns stored tables ordered by effective date.
func (s *Store) ListRateTables(ctx context.Context) ([]payroll.TaxRateTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT config_json FROM rate_tables ORDER BY effective_from")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []payroll.TaxRateTable
	for rows.Next() {
		var config string
		if err := rows.Scan(&config); err != nil {
			return nil, err
		}
		t, err := s.tables.ParseRateTable([]byte(config))
		if err != nil {
			return nil, fmt.Errorf("stored rate table is invalid: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// =============================================================================
// RUN STORE (payroll.RunStore interface)
// =============================================================================

// SaveRun writes the run header and all lines atomically.
func (s *Store) SaveRun(ctx context.Context, run payroll.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sum := run.Summary
	_, err = tx.ExecContext(ctx, `
		INSERT INTO payroll_runs (id, period_start, period_end, rate_table_version,
			employee_count, failed_count, total_gross, total_net, total_income_tax,
			total_social, total_health, total_employer_cost, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Period.Start.String(), run.Period.End.String(), run.RateTableVersion,
		sum.EmployeeCount, sum.FailedCount,
		sum.TotalGross.Value.String(), sum.TotalNet.Value.String(), sum.TotalIncomeTax.Value.String(),
		sum.TotalSocial.Value.String(), sum.TotalHealth.Value.String(), sum.TotalEmployerCost.Value.String(),
		run.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO payroll_lines (run_id, position, employee_id, gross_salary,
			social_employee, social_employer, health_employee, health_employer,
			taxable_income, income_tax, net_salary, employer_cost, overtime_pay, flags, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare line insert: %w", err)
	}
	defer stmt.Close()

	for i, line := range run.Lines {
		r := line.Result
		var lineErr sql.NullString
		if line.Err != nil {
			lineErr = sql.NullString{String: line.Err.Error(), Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			run.ID, i, line.EmployeeID,
			decimalText(r.GrossSalary),
			decimalText(r.SocialContributionEmployee), decimalText(r.SocialContributionEmployer),
			decimalText(r.HealthContributionEmployee), decimalText(r.HealthContributionEmployer),
			decimalText(r.TaxableIncome), decimalText(r.IncomeTax), decimalText(r.NetSalary),
			decimalText(r.TotalEmployerCost), decimalText(r.OvertimePay),
			joinFlags(r.Flags), lineErr,
		)
		if err != nil {
			return fmt.Errorf("failed to save line %d: %w", i, err)
		}
	}

	return tx.Commit()
}

const runColumns = `id, period_start, period_end, rate_table_version, employee_count,
	failed_count, total_gross, total_net, total_income_tax, total_social, total_health,
	total_employer_cost, created_at`

// GetRun loads a run with its lines.
func (s *Store) GetRun(ctx context.Context, id string) (*payroll.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM payroll_runs WHERE id = ?", id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %q: %w", id, generic.ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, gross_salary, social_employee, social_employer,
			health_employee, health_employer, taxable_income, income_tax,
			net_salary, employer_cost, overtime_pay, flags, error
		FROM payroll_lines WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			line                                          payroll.BatchLine
			gross, se, sr, he, hr, taxable, tax, net, emp string
			overtime, flags                               string
			lineErr                                       sql.NullString
		)
		if err := rows.Scan(&line.EmployeeID, &gross, &se, &sr, &he, &hr,
			&taxable, &tax, &net, &emp, &overtime, &flags, &lineErr); err != nil {
			return nil, err
		}
		if lineErr.Valid {
			line.Err = errors.New(lineErr.String)
		} else {
			line.Result = payroll.PayrollResult{
				GrossSalary:                parseAmount(gross, generic.UnitDirham),
				SocialContributionEmployee: parseAmount(se, generic.UnitDirham),
				SocialContributionEmployer: parseAmount(sr, generic.UnitDirham),
				HealthContributionEmployee: parseAmount(he, generic.UnitDirham),
				HealthContributionEmployer: parseAmount(hr, generic.UnitDirham),
				TaxableIncome:              parseAmount(taxable, generic.UnitDirham),
				IncomeTax:                  parseAmount(tax, generic.UnitDirham),
				NetSalary:                  parseAmount(net, generic.UnitDirham),
				TotalEmployerCost:          parseAmount(emp, generic.UnitDirham),
				OvertimePay:                parseAmount(overtime, generic.UnitDirham),
				RateTableVersion:           run.RateTableVersion,
				Flags:                      splitFlags(flags),
			}
		}
		run.Lines = append(run.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns run headers newest first.
func (s *Store) ListRuns(ctx context.Context) ([]payroll.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+runColumns+" FROM payroll_runs ORDER BY created_at DESC, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []payroll.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(row scanner) (payroll.Run, error) {
	var (
		run                                   payroll.Run
		start, end, createdAt                 string
		gross, net, tax, social, health, cost string
	)
	if err := row.Scan(&run.ID, &start, &end, &run.RateTableVersion,
		&run.Summary.EmployeeCount, &run.Summary.FailedCount,
		&gross, &net, &tax, &social, &health, &cost, &createdAt); err != nil {
		return payroll.Run{}, err
	}
	run.Period.Start, _ = generic.ParseDate(start)
	run.Period.End, _ = generic.ParseDate(end)
	run.Summary.TotalGross = parseAmount(gross, generic.UnitDirham)
	run.Summary.TotalNet = parseAmount(net, generic.UnitDirham)
	run.Summary.TotalIncomeTax = parseAmount(tax, generic.UnitDirham)
	run.Summary.TotalSocial = parseAmount(social, generic.UnitDirham)
	run.Summary.TotalHealth = parseAmount(health, generic.UnitDirham)
	run.Summary.TotalEmployerCost = parseAmount(cost, generic.UnitDirham)
	run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return run, nil
}

// Reset clears employees, attendance and payroll runs. Rate tables are
// configuration loaded into the registry at startup, so they are kept.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"payroll_lines", "payroll_runs", "attendance_days", "employees"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// Helper functions

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func parseAmount(value string, unit generic.Unit) generic.Amount {
	return generic.Amount{
		Value: generic.MustParseDecimal(value),
		Unit:  unit,
	}
}

func decimalText(a generic.Amount) string {
	return a.Value.String()
}

func joinFlags(flags []payroll.Flag) string {
	parts := make([]string, len(flags))
	for i, f := range flags {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}

func splitFlags(s string) []payroll.Flag {
	if s == "" {
		return nil
	}
	var flags []payroll.Flag
	for _, part := range strings.Split(s, ",") {
		flags = append(flags, payroll.Flag(part))
	}
	return flags
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
