/*
store.go - Persistence interfaces between the engine and the database

KEY INTERFACES:
  EmployeeDirectory: read-only roster, positions, raw availability
  TimeOffSource:     read-only approved time-off lookups
  RequirementSource: read-only active staffing requirements
  Store:             schedule period/shift/template/notification writes
  TxStore:           Store plus atomic multi-write transactions

ATOMICITY CONTRACT:
  Generate persists its entire period (period row + every shift + totals) in
  ONE WithTx call; any failure rolls the whole unit back. Publish is a second
  smaller unit (status flip + shift flags + notifications + audit record).
  The engine never retries; retry policy belongs to the caller.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go:  production SQLite
  - schedule/store/memory.go: in-memory for tests
*/
package schedule

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// READ-ONLY SOURCES
// =============================================================================

// EmployeeDirectory exposes the employee roster. Availability comes back in
// whichever legacy encoding the store holds; the resolver normalizes both.
type EmployeeDirectory interface {
	// ListActive returns active employees with base fields only.
	ListActive(ctx context.Context) ([]Employee, error)

	// Get returns any employee (active or not) for name lookups.
	Get(ctx context.Context, id EmployeeID) (*Employee, error)

	// Positions returns the registered position capabilities, possibly empty.
	Positions(ctx context.Context, id EmployeeID) ([]string, error)

	// AvailabilityRows returns structured recurring availability rows whose
	// effective range overlaps the period. Empty means this employee has no
	// structured records.
	AvailabilityRows(ctx context.Context, id EmployeeID, period Period) ([]AvailabilityRow, error)

	// LegacyAvailability returns the per-weekday JSON row, keyed by lowercase
	// weekday name. A nil map means no legacy record exists.
	LegacyAvailability(ctx context.Context, id EmployeeID) (map[string]string, error)
}

// TimeOffSource returns approved requests overlapping [from, to].
type TimeOffSource interface {
	ApprovedInRange(ctx context.Context, from, to Date) ([]TimeOffRequest, error)
}

// RequirementSource returns active staffing requirements.
type RequirementSource interface {
	ActiveRequirements(ctx context.Context) ([]Requirement, error)
}

// =============================================================================
// SCHEDULE STORE - The only component that persists state
// =============================================================================

type Store interface {
	// FindPeriodByWeekStart returns the non-archived period for a week start,
	// or nil if none exists.
	FindPeriodByWeekStart(ctx context.Context, weekStart Date) (*SchedulePeriod, error)

	GetPeriod(ctx context.Context, id string) (*SchedulePeriod, error)

	// SavePeriod inserts or fully replaces a period row.
	SavePeriod(ctx context.Context, p SchedulePeriod) error

	// DeletePeriod removes a period and all of its shifts.
	DeletePeriod(ctx context.Context, id string) error

	// UpdatePeriodTotals stores computed labor totals on the period.
	UpdatePeriodTotals(ctx context.Context, id string, hours float64, cost decimal.Decimal) error

	SaveShifts(ctx context.Context, shifts []ScheduledShift) error

	// ShiftsByPeriod returns shifts ordered by date then start time.
	ShiftsByPeriod(ctx context.Context, periodID string) ([]ScheduledShift, error)

	// MarkShiftsPublished clears IsDraft on every shift in the period.
	MarkShiftsPublished(ctx context.Context, periodID string) error

	GetTemplate(ctx context.Context, id string) (*ScheduleTemplate, error)
	SaveTemplate(ctx context.Context, t ScheduleTemplate) error

	// PeriodByTemplate returns the origin period linked to a template,
	// or nil if the template was never linked.
	PeriodByTemplate(ctx context.Context, templateID string) (*SchedulePeriod, error)

	// LinkTemplate sets the template reference on a period.
	LinkTemplate(ctx context.Context, periodID, templateID string) error

	// TouchTemplate increments use_count and sets last_used.
	TouchTemplate(ctx context.Context, templateID string, usedAt time.Time) error

	SaveNotification(ctx context.Context, n Notification) error
	NotificationsByPeriod(ctx context.Context, periodID string) ([]Notification, error)

	SaveChange(ctx context.Context, c ChangeRecord) error
}

// TxStore wraps Store with transaction support. If fn returns an error the
// transaction is rolled back, otherwise it is committed.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}
