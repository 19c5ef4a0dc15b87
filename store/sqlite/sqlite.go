/*
Package sqlite provides the SQLite-backed implementation of the scheduling
engine's storage interfaces.

PURPOSE:
  Persists the roster, availability, staffing requirements, and generated
  schedules. In production, the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  schedule.EmployeeDirectory: roster, positions, both availability encodings
  schedule.TimeOffSource:     approved time-off lookups
  schedule.RequirementSource: active staffing requirements
  schedule.TxStore:           period/shift/template/notification persistence

KEY TABLES:
  employees, employee_positions:      the roster and position capabilities
  employee_availability:              structured recurring availability rows
  employee_availability_legacy:       old per-weekday JSON encoding
  time_off_requests:                  approved ranges block scheduling
  schedule_requirements:              staffing needs compiled into day blocks
  schedule_periods, scheduled_shifts: generated schedules and their shifts
  schedule_templates:                 reusable period snapshots
  schedule_notifications:             publish fan-out
  schedule_changes:                   audit trail

INVARIANT ENFORCEMENT:
  A partial unique index on schedule_periods(week_start) WHERE status !=
  'archived' backs the one-non-archived-period-per-week rule at the
  database level, in addition to the manager's own collision check.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite is opened in WAL mode:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/schedule.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  manager := schedule.NewManager(store, store, store, store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - schedule/store.go: Interface definitions
  - schedule/manager.go: Higher-level lifecycle manager using Store
  - schedule/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/shift-engine/schedule"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite allows a single writer, and ":memory:" databases
	// are per-connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
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

func (s *Store) migrate() error {
	schemaSQL := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1,
		max_hours_per_week REAL NOT NULL DEFAULT 0,
		min_hours_per_week REAL NOT NULL DEFAULT 0,
		employment_type TEXT NOT NULL DEFAULT 'full_time',
		hourly_rate TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS employee_positions (
		employee_id TEXT NOT NULL,
		position_name TEXT NOT NULL,
		PRIMARY KEY (employee_id, position_name)
	);

	-- Structured availability encoding: one row per employee/weekday rule.
	CREATE TABLE IF NOT EXISTS employee_availability (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		day_of_week TEXT NOT NULL,
		start_time TEXT,
		end_time TEXT,
		availability_type TEXT NOT NULL DEFAULT 'available',
		is_recurring INTEGER NOT NULL DEFAULT 1,
		effective_date TEXT,
		end_date TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_availability_employee
		ON employee_availability(employee_id);

	-- Legacy availability encoding: one JSON blob per weekday column.
	CREATE TABLE IF NOT EXISTS employee_availability_legacy (
		employee_id TEXT PRIMARY KEY,
		monday TEXT, tuesday TEXT, wednesday TEXT, thursday TEXT,
		friday TEXT, saturday TEXT, sunday TEXT
	);

	CREATE TABLE IF NOT EXISTS time_off_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending'
	);

	CREATE INDEX IF NOT EXISTS idx_time_off_employee_range
		ON time_off_requests(employee_id, start_date, end_date);

	CREATE TABLE IF NOT EXISTS schedule_requirements (
		id TEXT PRIMARY KEY,
		day_of_week TEXT NOT NULL,
		time_block_start TEXT NOT NULL,
		time_block_end TEXT NOT NULL,
		min_employees INTEGER NOT NULL DEFAULT 1,
		max_employees INTEGER NOT NULL DEFAULT 0,
		preferred_positions TEXT,
		priority TEXT NOT NULL DEFAULT 'medium',
		is_active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS schedule_periods (
		id TEXT PRIMARY KEY,
		week_start TEXT NOT NULL,
		week_end TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		generation_method TEXT NOT NULL DEFAULT 'auto',
		settings_json TEXT NOT NULL DEFAULT '{}',
		total_labor_hours REAL NOT NULL DEFAULT 0,
		estimated_labor_cost TEXT NOT NULL DEFAULT '0',
		template_id TEXT,
		created_by TEXT,
		published_by TEXT,
		published_at TEXT,
		created_at TEXT NOT NULL
	);

	-- Backs the one-non-archived-period-per-week invariant.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_periods_active_week
		ON schedule_periods(week_start) WHERE status != 'archived';
	CREATE INDEX IF NOT EXISTS idx_periods_template
		ON schedule_periods(template_id) WHERE template_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS scheduled_shifts (
		id TEXT PRIMARY KEY,
		period_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		shift_date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		break_minutes INTEGER NOT NULL DEFAULT 0,
		position TEXT NOT NULL DEFAULT 'general',
		is_draft INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_shifts_period
		ON scheduled_shifts(period_id, shift_date, start_time);
	CREATE INDEX IF NOT EXISTS idx_shifts_employee_date
		ON scheduled_shifts(employee_id, shift_date);

	CREATE TABLE IF NOT EXISTS schedule_templates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_by TEXT,
		use_count INTEGER NOT NULL DEFAULT 0,
		last_used TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS schedule_notifications (
		id TEXT PRIMARY KEY,
		period_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		notification_type TEXT NOT NULL,
		sent_via TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_period
		ON schedule_notifications(period_id);

	CREATE TABLE IF NOT EXISTS schedule_changes (
		id TEXT PRIMARY KEY,
		period_id TEXT NOT NULL,
		change_type TEXT NOT NULL,
		changed_by TEXT,
		reason TEXT,
		created_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schemaSQL)
	return err
}

// execer abstracts *sql.DB and *sql.Tx so the same helpers work inside and
// outside WithTx. Reads inside a transaction must go through the transaction:
// the pool holds a single connection and it belongs to the open tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// =============================================================================
// EMPLOYEE DIRECTORY (schedule.EmployeeDirectory)
// =============================================================================

// SaveEmployee inserts or replaces an employee and its position links.
func (s *Store) SaveEmployee(ctx context.Context, emp schedule.Employee, positions ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO employees
		(id, first_name, last_name, active, max_hours_per_week, min_hours_per_week,
		 employment_type, hourly_rate, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		emp.ID, emp.FirstName, emp.LastName, boolInt(emp.Active),
		emp.MaxHoursPerWeek, emp.MinHoursPerWeek,
		string(emp.EmploymentType), emp.HourlyRate.String(),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}

	for _, pos := range positions {
		if _, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO employee_positions (employee_id, position_name)
			VALUES (?, ?)`, emp.ID, pos); err != nil {
			return fmt.Errorf("failed to save position: %w", err)
		}
	}
	return nil
}

func (s *Store) ListActive(ctx context.Context) ([]schedule.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, active, max_hours_per_week,
		       min_hours_per_week, employment_type, hourly_rate
		FROM employees WHERE active = 1 ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []schedule.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func (s *Store) Get(ctx context.Context, id schedule.EmployeeID) (*schedule.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, active, max_hours_per_week,
		       min_hours_per_week, employment_type, hourly_rate
		FROM employees WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query employee: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	emp, err := scanEmployee(rows)
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func scanEmployee(rows *sql.Rows) (schedule.Employee, error) {
	var (
		emp        schedule.Employee
		active     int
		empType    string
		hourlyRate string
	)
	err := rows.Scan(&emp.ID, &emp.FirstName, &emp.LastName, &active,
		&emp.MaxHoursPerWeek, &emp.MinHoursPerWeek, &empType, &hourlyRate)
	if err != nil {
		return emp, fmt.Errorf("failed to scan employee: %w", err)
	}
	emp.Active = active != 0
	emp.EmploymentType = schedule.EmploymentType(empType)
	emp.HourlyRate, _ = decimal.NewFromString(hourlyRate)
	return emp, nil
}

func (s *Store) Positions(ctx context.Context, id schedule.EmployeeID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT position_name FROM employee_positions
		WHERE employee_id = ? ORDER BY position_name`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []string
	for rows.Next() {
		var pos string
		if err := rows.Scan(&pos); err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

// SaveAvailabilityRow stores one structured availability rule.
func (s *Store) SaveAvailabilityRow(ctx context.Context, id string, employeeID schedule.EmployeeID, row schedule.AvailabilityRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO employee_availability
		(id, employee_id, day_of_week, start_time, end_time, availability_type,
		 is_recurring, effective_date, end_date)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		id, employeeID, row.DayOfWeek,
		nullString(row.StartTime), nullString(row.EndTime),
		orDefault(row.Type, "available"),
		nullString(row.EffectiveDate), nullString(row.EndDate),
	)
	if err != nil {
		return fmt.Errorf("failed to save availability: %w", err)
	}
	return nil
}

func (s *Store) AvailabilityRows(ctx context.Context, id schedule.EmployeeID, period schedule.Period) ([]schedule.AvailabilityRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT day_of_week, start_time, end_time, availability_type,
		       effective_date, end_date
		FROM employee_availability
		WHERE employee_id = ?
		  AND is_recurring = 1
		  AND (effective_date IS NULL OR effective_date <= ?)
		  AND (end_date IS NULL OR end_date >= ?)
		ORDER BY day_of_week, start_time`,
		id, period.End.String(), period.Start.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query availability: %w", err)
	}
	defer rows.Close()

	var out []schedule.AvailabilityRow
	for rows.Next() {
		var (
			row                  schedule.AvailabilityRow
			start, end           sql.NullString
			effectiveDate, until sql.NullString
		)
		if err := rows.Scan(&row.DayOfWeek, &start, &end, &row.Type, &effectiveDate, &until); err != nil {
			return nil, fmt.Errorf("failed to scan availability: %w", err)
		}
		row.StartTime = start.String
		row.EndTime = end.String
		row.EffectiveDate = effectiveDate.String
		row.EndDate = until.String
		out = append(out, row)
	}
	return out, rows.Err()
}

// SaveLegacyAvailability stores a per-weekday JSON row (old encoding).
// Each value is a JSON object like {"available":true,"start":"09:00","end":"17:00"}.
func (s *Store) SaveLegacyAvailability(ctx context.Context, id schedule.EmployeeID, week map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO employee_availability_legacy
		(employee_id, monday, tuesday, wednesday, thursday, friday, saturday, sunday)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		nullString(week["monday"]), nullString(week["tuesday"]),
		nullString(week["wednesday"]), nullString(week["thursday"]),
		nullString(week["friday"]), nullString(week["saturday"]),
		nullString(week["sunday"]),
	)
	if err != nil {
		return fmt.Errorf("failed to save legacy availability: %w", err)
	}
	return nil
}

func (s *Store) LegacyAvailability(ctx context.Context, id schedule.EmployeeID) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT monday, tuesday, wednesday, thursday, friday, saturday, sunday
		FROM employee_availability_legacy WHERE employee_id = ?`, id)

	days := make([]sql.NullString, 7)
	err := row.Scan(&days[0], &days[1], &days[2], &days[3], &days[4], &days[5], &days[6])
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan legacy availability: %w", err)
	}

	names := []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	week := make(map[string]string, 7)
	for i, name := range names {
		if days[i].Valid {
			week[name] = days[i].String
		}
	}
	return week, nil
}

// =============================================================================
// TIME OFF (schedule.TimeOffSource)
// =============================================================================

// SaveTimeOff stores a time-off request.
func (s *Store) SaveTimeOff(ctx context.Context, req schedule.TimeOffRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO time_off_requests
		(id, employee_id, start_date, end_date, status)
		VALUES (?, ?, ?, ?, ?)`,
		req.ID, req.EmployeeID, req.Start.String(), req.End.String(), string(req.Status))
	if err != nil {
		return fmt.Errorf("failed to save time off: %w", err)
	}
	return nil
}

func (s *Store) ApprovedInRange(ctx context.Context, from, to schedule.Date) ([]schedule.TimeOffRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, start_date, end_date, status
		FROM time_off_requests
		WHERE status = 'approved' AND start_date <= ? AND end_date >= ?
		ORDER BY start_date, id`,
		to.String(), from.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query time off: %w", err)
	}
	defer rows.Close()

	var out []schedule.TimeOffRequest
	for rows.Next() {
		var (
			req        schedule.TimeOffRequest
			start, end string
			status     string
		)
		if err := rows.Scan(&req.ID, &req.EmployeeID, &start, &end, &status); err != nil {
			return nil, fmt.Errorf("failed to scan time off: %w", err)
		}
		if req.Start, err = schedule.ParseDate(start); err != nil {
			return nil, err
		}
		if req.End, err = schedule.ParseDate(end); err != nil {
			return nil, err
		}
		req.Status = schedule.TimeOffStatus(status)
		out = append(out, req)
	}
	return out, rows.Err()
}

// =============================================================================
// REQUIREMENTS (schedule.RequirementSource)
// =============================================================================

// SaveRequirement stores a staffing requirement.
func (s *Store) SaveRequirement(ctx context.Context, req schedule.Requirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	positionsJSON, err := json.Marshal(req.PreferredPositions)
	if err != nil {
		return fmt.Errorf("failed to encode positions: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO schedule_requirements
		(id, day_of_week, time_block_start, time_block_end, min_employees,
		 max_employees, preferred_positions, priority, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, schedule.WeekdayName(req.Day),
		req.BlockStart.String(), req.BlockEnd.String(),
		req.MinEmployees, req.MaxEmployees,
		string(positionsJSON), orDefault(req.Priority, "medium"), boolInt(req.Active))
	if err != nil {
		return fmt.Errorf("failed to save requirement: %w", err)
	}
	return nil
}

func (s *Store) ActiveRequirements(ctx context.Context) ([]schedule.Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, day_of_week, time_block_start, time_block_end, min_employees,
		       max_employees, preferred_positions, priority
		FROM schedule_requirements
		WHERE is_active = 1
		ORDER BY day_of_week, time_block_start`)
	if err != nil {
		return nil, fmt.Errorf("failed to query requirements: %w", err)
	}
	defer rows.Close()

	var out []schedule.Requirement
	for rows.Next() {
		var (
			req           schedule.Requirement
			day           string
			start, end    string
			positionsJSON sql.NullString
		)
		if err := rows.Scan(&req.ID, &day, &start, &end, &req.MinEmployees,
			&req.MaxEmployees, &positionsJSON, &req.Priority); err != nil {
			return nil, fmt.Errorf("failed to scan requirement: %w", err)
		}
		if req.Day, err = schedule.ParseWeekday(day); err != nil {
			return nil, err
		}
		if req.BlockStart, err = schedule.ParseClock(start); err != nil {
			return nil, err
		}
		if req.BlockEnd, err = schedule.ParseClock(end); err != nil {
			return nil, err
		}
		if positionsJSON.Valid && positionsJSON.String != "" {
			if err := json.Unmarshal([]byte(positionsJSON.String), &req.PreferredPositions); err != nil {
				return nil, fmt.Errorf("failed to decode positions: %w", err)
			}
		}
		req.Active = true
		out = append(out, req)
	}
	return out, rows.Err()
}

// =============================================================================
// SCHEDULE STORE (schedule.Store)
// =============================================================================

func (s *Store) FindPeriodByWeekStart(ctx context.Context, weekStart schedule.Date) (*schedule.SchedulePeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryPeriod(ctx, s.db, `WHERE week_start = ? AND status != 'archived'`, weekStart.String())
}

func (s *Store) GetPeriod(ctx context.Context, id string) (*schedule.SchedulePeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryPeriod(ctx, s.db, `WHERE id = ?`, id)
}

func (s *Store) PeriodByTemplate(ctx context.Context, templateID string) (*schedule.SchedulePeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryPeriod(ctx, s.db, `WHERE template_id = ? ORDER BY created_at LIMIT 1`, templateID)
}

const periodColumns = `id, week_start, week_end, status, generation_method,
	settings_json, total_labor_hours, estimated_labor_cost, template_id,
	created_by, published_by, published_at, created_at`

// queryPeriod returns nil, nil when no period matches.
func queryPeriod(ctx context.Context, db execer, where string, args ...any) (*schedule.SchedulePeriod, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+periodColumns+` FROM schedule_periods `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query period: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	period, err := scanPeriod(rows)
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func scanPeriod(rows *sql.Rows) (schedule.SchedulePeriod, error) {
	var (
		p                     schedule.SchedulePeriod
		weekStart, weekEnd    string
		status, method        string
		settingsJSON          string
		cost                  string
		templateID, createdBy sql.NullString
		publishedBy           sql.NullString
		publishedAt           sql.NullString
		createdAt             string
	)
	err := rows.Scan(&p.ID, &weekStart, &weekEnd, &status, &method, &settingsJSON,
		&p.TotalLaborHours, &cost, &templateID, &createdBy, &publishedBy,
		&publishedAt, &createdAt)
	if err != nil {
		return p, fmt.Errorf("failed to scan period: %w", err)
	}

	if p.WeekStart, err = schedule.ParseDate(weekStart); err != nil {
		return p, err
	}
	if p.WeekEnd, err = schedule.ParseDate(weekEnd); err != nil {
		return p, err
	}
	p.Status = schedule.PeriodStatus(status)
	p.Method = schedule.GenerationMethod(method)
	if err := json.Unmarshal([]byte(settingsJSON), &p.Settings); err != nil {
		return p, fmt.Errorf("failed to decode period settings: %w", err)
	}
	p.EstimatedLaborCost, _ = decimal.NewFromString(cost)
	p.TemplateID = templateID.String
	p.CreatedBy = createdBy.String
	p.PublishedBy = publishedBy.String
	if publishedAt.Valid {
		if t, err := time.Parse(time.RFC3339, publishedAt.String); err == nil {
			p.PublishedAt = &t
		}
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		p.CreatedAt = t
	}
	return p, nil
}

func (s *Store) SavePeriod(ctx context.Context, p schedule.SchedulePeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return savePeriod(ctx, s.db, p)
}

func savePeriod(ctx context.Context, db execer, p schedule.SchedulePeriod) error {
	settingsJSON, err := json.Marshal(p.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	var publishedAt any
	if p.PublishedAt != nil {
		publishedAt = p.PublishedAt.UTC().Format(time.RFC3339)
	}

	// Upsert keyed on id. OR REPLACE would also resolve collisions on the
	// active-week unique index by deleting the other period; this must fail
	// instead.
	_, err = db.ExecContext(ctx, `
		INSERT INTO schedule_periods
		(id, week_start, week_end, status, generation_method, settings_json,
		 total_labor_hours, estimated_labor_cost, template_id, created_by,
		 published_by, published_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			week_start = excluded.week_start,
			week_end = excluded.week_end,
			status = excluded.status,
			generation_method = excluded.generation_method,
			settings_json = excluded.settings_json,
			total_labor_hours = excluded.total_labor_hours,
			estimated_labor_cost = excluded.estimated_labor_cost,
			template_id = excluded.template_id,
			created_by = excluded.created_by,
			published_by = excluded.published_by,
			published_at = excluded.published_at`,
		p.ID, p.WeekStart.String(), p.WeekEnd.String(), string(p.Status),
		string(p.Method), string(settingsJSON), p.TotalLaborHours,
		p.EstimatedLaborCost.String(), nullString(p.TemplateID),
		nullString(p.CreatedBy), nullString(p.PublishedBy), publishedAt,
		p.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save period: %w", err)
	}
	return nil
}

func (s *Store) DeletePeriod(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deletePeriod(ctx, s.db, id)
}

func deletePeriod(ctx context.Context, db execer, id string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM scheduled_shifts WHERE period_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete shifts: %w", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM schedule_periods WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete period: %w", err)
	}
	return nil
}

func (s *Store) UpdatePeriodTotals(ctx context.Context, id string, hours float64, cost decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updatePeriodTotals(ctx, s.db, id, hours, cost)
}

func updatePeriodTotals(ctx context.Context, db execer, id string, hours float64, cost decimal.Decimal) error {
	_, err := db.ExecContext(ctx, `
		UPDATE schedule_periods
		SET total_labor_hours = ?, estimated_labor_cost = ?
		WHERE id = ?`, hours, cost.String(), id)
	if err != nil {
		return fmt.Errorf("failed to update totals: %w", err)
	}
	return nil
}

func (s *Store) SaveShifts(ctx context.Context, shifts []schedule.ScheduledShift) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveShifts(ctx, s.db, shifts)
}

func saveShifts(ctx context.Context, db execer, shifts []schedule.ScheduledShift) error {
	for _, shift := range shifts {
		_, err := db.ExecContext(ctx, `
			INSERT OR REPLACE INTO scheduled_shifts
			(id, period_id, employee_id, shift_date, start_time, end_time,
			 break_minutes, position, is_draft)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			shift.ID, shift.PeriodID, shift.EmployeeID, shift.Date.String(),
			shift.Start.String(), shift.End.String(), shift.BreakMinutes,
			shift.Position, boolInt(shift.IsDraft))
		if err != nil {
			return fmt.Errorf("failed to save shift: %w", err)
		}
	}
	return nil
}

func (s *Store) ShiftsByPeriod(ctx context.Context, periodID string) ([]schedule.ScheduledShift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return shiftsByPeriod(ctx, s.db, periodID)
}

func shiftsByPeriod(ctx context.Context, db execer, periodID string) ([]schedule.ScheduledShift, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, period_id, employee_id, shift_date, start_time, end_time,
		       break_minutes, position, is_draft
		FROM scheduled_shifts
		WHERE period_id = ?
		ORDER BY shift_date, start_time, id`, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	var out []schedule.ScheduledShift
	for rows.Next() {
		var (
			shift      schedule.ScheduledShift
			date       string
			start, end string
			isDraft    int
		)
		if err := rows.Scan(&shift.ID, &shift.PeriodID, &shift.EmployeeID, &date,
			&start, &end, &shift.BreakMinutes, &shift.Position, &isDraft); err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		if shift.Date, err = schedule.ParseDate(date); err != nil {
			return nil, err
		}
		if shift.Start, err = schedule.ParseClock(start); err != nil {
			return nil, err
		}
		if shift.End, err = schedule.ParseClock(end); err != nil {
			return nil, err
		}
		shift.IsDraft = isDraft != 0
		out = append(out, shift)
	}
	return out, rows.Err()
}

func (s *Store) MarkShiftsPublished(ctx context.Context, periodID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return markShiftsPublished(ctx, s.db, periodID)
}

func markShiftsPublished(ctx context.Context, db execer, periodID string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE scheduled_shifts SET is_draft = 0 WHERE period_id = ?`, periodID)
	if err != nil {
		return fmt.Errorf("failed to publish shifts: %w", err)
	}
	return nil
}

func (s *Store) GetTemplate(ctx context.Context, id string) (*schedule.ScheduleTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getTemplate(ctx, s.db, id)
}

// getTemplate returns nil, nil when the template does not exist.
func getTemplate(ctx context.Context, db execer, id string) (*schedule.ScheduleTemplate, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, description, created_by, use_count, last_used, created_at
		FROM schedule_templates WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query template: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var (
		t         schedule.ScheduleTemplate
		createdBy sql.NullString
		lastUsed  sql.NullString
		createdAt string
	)
	if err := rows.Scan(&t.ID, &t.Name, &t.Description, &createdBy, &t.UseCount,
		&lastUsed, &createdAt); err != nil {
		return nil, fmt.Errorf("failed to scan template: %w", err)
	}
	t.CreatedBy = createdBy.String
	if lastUsed.Valid {
		if at, err := time.Parse(time.RFC3339, lastUsed.String); err == nil {
			t.LastUsed = &at
		}
	}
	if at, err := time.Parse(time.RFC3339, createdAt); err == nil {
		t.CreatedAt = at
	}
	return &t, nil
}

func (s *Store) SaveTemplate(ctx context.Context, t schedule.ScheduleTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveTemplate(ctx, s.db, t)
}

func saveTemplate(ctx context.Context, db execer, t schedule.ScheduleTemplate) error {
	var lastUsed any
	if t.LastUsed != nil {
		lastUsed = t.LastUsed.UTC().Format(time.RFC3339)
	}
	_, err := db.ExecContext(ctx, `
		INSERT OR REPLACE INTO schedule_templates
		(id, name, description, created_by, use_count, last_used, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Description, nullString(t.CreatedBy), t.UseCount,
		lastUsed, t.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}
	return nil
}

func (s *Store) LinkTemplate(ctx context.Context, periodID, templateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return linkTemplate(ctx, s.db, periodID, templateID)
}

func linkTemplate(ctx context.Context, db execer, periodID, templateID string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE schedule_periods SET template_id = ? WHERE id = ?`, templateID, periodID)
	if err != nil {
		return fmt.Errorf("failed to link template: %w", err)
	}
	return nil
}

func (s *Store) TouchTemplate(ctx context.Context, templateID string, usedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return touchTemplate(ctx, s.db, templateID, usedAt)
}

func touchTemplate(ctx context.Context, db execer, templateID string, usedAt time.Time) error {
	_, err := db.ExecContext(ctx, `
		UPDATE schedule_templates
		SET use_count = use_count + 1, last_used = ?
		WHERE id = ?`, usedAt.UTC().Format(time.RFC3339), templateID)
	if err != nil {
		return fmt.Errorf("failed to touch template: %w", err)
	}
	return nil
}

func (s *Store) SaveNotification(ctx context.Context, n schedule.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveNotification(ctx, s.db, n)
}

func saveNotification(ctx context.Context, db execer, n schedule.Notification) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO schedule_notifications
		(id, period_id, employee_id, notification_type, sent_via, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.PeriodID, n.EmployeeID, n.Type, n.SentVia,
		n.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

func (s *Store) NotificationsByPeriod(ctx context.Context, periodID string) ([]schedule.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return notificationsByPeriod(ctx, s.db, periodID)
}

func notificationsByPeriod(ctx context.Context, db execer, periodID string) ([]schedule.Notification, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, period_id, employee_id, notification_type, sent_via, created_at
		FROM schedule_notifications WHERE period_id = ? ORDER BY created_at, id`, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var out []schedule.Notification
	for rows.Next() {
		var (
			n         schedule.Notification
			createdAt string
		)
		if err := rows.Scan(&n.ID, &n.PeriodID, &n.EmployeeID, &n.Type, &n.SentVia, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if at, err := time.Parse(time.RFC3339, createdAt); err == nil {
			n.CreatedAt = at
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) SaveChange(ctx context.Context, c schedule.ChangeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveChange(ctx, s.db, c)
}

func saveChange(ctx context.Context, db execer, c schedule.ChangeRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO schedule_changes
		(id, period_id, change_type, changed_by, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.PeriodID, c.Type, nullString(c.ChangedBy), nullString(c.Reason),
		c.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save change record: %w", err)
	}
	return nil
}

// ChangesByPeriod returns the audit trail for a period, oldest first.
func (s *Store) ChangesByPeriod(ctx context.Context, periodID string) ([]schedule.ChangeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, period_id, change_type, changed_by, reason, created_at
		FROM schedule_changes WHERE period_id = ? ORDER BY created_at, id`, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query changes: %w", err)
	}
	defer rows.Close()

	var out []schedule.ChangeRecord
	for rows.Next() {
		var (
			c                 schedule.ChangeRecord
			changedBy, reason sql.NullString
			createdAt         string
		)
		if err := rows.Scan(&c.ID, &c.PeriodID, &c.Type, &changedBy, &reason, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan change record: %w", err)
		}
		c.ChangedBy = changedBy.String
		c.Reason = reason.String
		if at, err := time.Parse(time.RFC3339, createdAt); err == nil {
			c.CreatedAt = at
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// =============================================================================
// TRANSACTIONS (schedule.TxStore)
// =============================================================================

// WithTx executes fn inside one database transaction. Both reads and writes
// go through the transaction's connection.
func (s *Store) WithTx(ctx context.Context, fn func(schedule.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore routes every operation through an open transaction.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) FindPeriodByWeekStart(ctx context.Context, weekStart schedule.Date) (*schedule.SchedulePeriod, error) {
	return queryPeriod(ctx, ts.tx, `WHERE week_start = ? AND status != 'archived'`, weekStart.String())
}

func (ts *txStore) GetPeriod(ctx context.Context, id string) (*schedule.SchedulePeriod, error) {
	return queryPeriod(ctx, ts.tx, `WHERE id = ?`, id)
}

func (ts *txStore) PeriodByTemplate(ctx context.Context, templateID string) (*schedule.SchedulePeriod, error) {
	return queryPeriod(ctx, ts.tx, `WHERE template_id = ? ORDER BY created_at LIMIT 1`, templateID)
}

func (ts *txStore) SavePeriod(ctx context.Context, p schedule.SchedulePeriod) error {
	return savePeriod(ctx, ts.tx, p)
}

func (ts *txStore) DeletePeriod(ctx context.Context, id string) error {
	return deletePeriod(ctx, ts.tx, id)
}

func (ts *txStore) UpdatePeriodTotals(ctx context.Context, id string, hours float64, cost decimal.Decimal) error {
	return updatePeriodTotals(ctx, ts.tx, id, hours, cost)
}

func (ts *txStore) SaveShifts(ctx context.Context, shifts []schedule.ScheduledShift) error {
	return saveShifts(ctx, ts.tx, shifts)
}

func (ts *txStore) ShiftsByPeriod(ctx context.Context, periodID string) ([]schedule.ScheduledShift, error) {
	return shiftsByPeriod(ctx, ts.tx, periodID)
}

func (ts *txStore) MarkShiftsPublished(ctx context.Context, periodID string) error {
	return markShiftsPublished(ctx, ts.tx, periodID)
}

func (ts *txStore) GetTemplate(ctx context.Context, id string) (*schedule.ScheduleTemplate, error) {
	return getTemplate(ctx, ts.tx, id)
}

func (ts *txStore) SaveTemplate(ctx context.Context, t schedule.ScheduleTemplate) error {
	return saveTemplate(ctx, ts.tx, t)
}

func (ts *txStore) LinkTemplate(ctx context.Context, periodID, templateID string) error {
	return linkTemplate(ctx, ts.tx, periodID, templateID)
}

func (ts *txStore) TouchTemplate(ctx context.Context, templateID string, usedAt time.Time) error {
	return touchTemplate(ctx, ts.tx, templateID, usedAt)
}

func (ts *txStore) SaveNotification(ctx context.Context, n schedule.Notification) error {
	return saveNotification(ctx, ts.tx, n)
}

func (ts *txStore) NotificationsByPeriod(ctx context.Context, periodID string) ([]schedule.Notification, error) {
	return notificationsByPeriod(ctx, ts.tx, periodID)
}

func (ts *txStore) SaveChange(ctx context.Context, c schedule.ChangeRecord) error {
	return saveChange(ctx, ts.tx, c)
}

// =============================================================================
// HELPERS
// =============================================================================

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
