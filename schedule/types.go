/*
Package schedule implements the automated workforce shift-scheduling engine.

PURPOSE:
  Given a roster of employees, their availability, approved time off, and
  staffing requirements, the engine produces a week-long (or custom-range)
  assignment of employees to shifts. It tracks a draft -> published -> archived
  lifecycle, detects scheduling conflicts, and supports saving and replaying
  schedules as templates.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee: roster entry with hour bounds, positions, and availability
  - AvailabilityWindow: when an employee can (or prefers to) work
  - Requirement / TimeBlock: a staffing need with employee-count bounds
  - SchedulePeriod / ScheduledShift: the generated schedule itself
  - Conflict / Shortage: derived diagnostics, never persisted

DESIGN PRINCIPLES:
  1. Determinism: stable sorts and fixed tie-breaks so a given input always
     produces the same schedule
  2. Precision: decimal.Decimal for money (hourly rates, labor cost)
  3. Explicit state: per-run employee hour/history state is threaded through
     scheduling calls, never global
  4. Greedy by intent: this is a scoring heuristic, not an optimal solver

SEE ALSO:
  - availability.go: legacy-encoding normalization
  - dayschedule.go:  per-day shift construction
  - manager.go:      generation, publish, templates, summaries
*/
package schedule

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS & DEFAULTS
// =============================================================================

type EmployeeID string

const (
	// DefaultMaxHoursPerWeek applies when an employee has no explicit cap.
	DefaultMaxHoursPerWeek = 40.0

	// DefaultPosition is assigned when an employee has no registered positions.
	DefaultPosition = "general"
)

// DefaultHourlyRate is used for cost estimation when an employee has no rate.
var DefaultHourlyRate = decimal.NewFromInt(15)

// =============================================================================
// EMPLOYEE
// =============================================================================

type EmploymentType string

const (
	EmploymentFullTime EmploymentType = "full_time"
	EmploymentPartTime EmploymentType = "part_time"
)

// Employee is a roster entry. Availability and Positions are filled in by the
// availability resolver; stores only need to supply the base fields.
type Employee struct {
	ID             EmployeeID
	FirstName      string
	LastName       string
	Active         bool
	MaxHoursPerWeek float64 // 0 means "use DefaultMaxHoursPerWeek"
	MinHoursPerWeek float64
	EmploymentType EmploymentType
	HourlyRate     decimal.Decimal // zero means "use DefaultHourlyRate"

	Positions    []string
	Availability []AvailabilityWindow
}

func (e Employee) Name() string {
	if e.FirstName == "" {
		return e.LastName
	}
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// MaxHours returns the weekly hour cap with the default applied.
func (e Employee) MaxHours() float64 {
	if e.MaxHoursPerWeek <= 0 {
		return DefaultMaxHoursPerWeek
	}
	return e.MaxHoursPerWeek
}

// Rate returns the hourly rate with the default applied.
func (e Employee) Rate() decimal.Decimal {
	if e.HourlyRate.IsZero() {
		return DefaultHourlyRate
	}
	return e.HourlyRate
}

// =============================================================================
// AVAILABILITY
// =============================================================================

type AvailabilityType string

const (
	AvailabilityAvailable   AvailabilityType = "available"
	AvailabilityPreferred   AvailabilityType = "preferred"
	AvailabilityUnavailable AvailabilityType = "unavailable"
)

// AvailabilityWindow is the normalized shape both legacy encodings map onto.
// End may be ClockNone for open-ended windows; those cannot cover a
// requirement block but do seed the no-requirement fallback.
type AvailabilityWindow struct {
	Day   time.Weekday
	Start ClockTime
	End   ClockTime
	Type  AvailabilityType

	EffectiveFrom  *Date
	EffectiveUntil *Date
}

// Covers reports whether the window fully contains the block's time range.
func (w AvailabilityWindow) Covers(start, end ClockTime) bool {
	if w.End == ClockNone {
		return false
	}
	return w.Start <= start && w.End >= end
}

// InEffect reports whether the window's optional effective range overlaps the
// scheduling period.
func (w AvailabilityWindow) InEffect(p Period) bool {
	if w.EffectiveFrom != nil && w.EffectiveFrom.After(p.End) {
		return false
	}
	if w.EffectiveUntil != nil && w.EffectiveUntil.Before(p.Start) {
		return false
	}
	return true
}

// AvailabilityRow is the raw structured-table encoding as stores hold it.
// The resolver parses and validates it into AvailabilityWindow.
type AvailabilityRow struct {
	DayOfWeek     string // "monday" .. "sunday"
	StartTime     string // HH:MM or HH:MM:SS; "" means open start 09:00
	EndTime       string // "" means open-ended
	Type          string // available/preferred/unavailable; "" means available
	EffectiveDate string // YYYY-MM-DD; "" means always
	EndDate       string // YYYY-MM-DD; "" means always
}

// =============================================================================
// TIME OFF
// =============================================================================

type TimeOffStatus string

const TimeOffApproved TimeOffStatus = "approved"

// TimeOffRequest covers a date range. Only approved requests are honored.
type TimeOffRequest struct {
	ID         string
	EmployeeID EmployeeID
	Start      Date
	End        Date
	Status     TimeOffStatus
}

// CoversDate reports whether the request spans the given day.
func (r TimeOffRequest) CoversDate(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// =============================================================================
// STAFFING REQUIREMENTS
// =============================================================================

// Requirement is a recurring staffing need for one weekday.
type Requirement struct {
	ID                 string
	Day                time.Weekday
	BlockStart         ClockTime
	BlockEnd           ClockTime
	MinEmployees       int
	MaxEmployees       int // 0 = no upper bound
	PreferredPositions []string
	Priority           string // defaults to "medium"
	Active             bool
}

// TimeBlock is a compiled per-day staffing block, ordered by start time.
type TimeBlock struct {
	Start              ClockTime
	End                ClockTime
	MinEmployees       int
	MaxEmployees       int
	PreferredPositions []string
	Priority           string
}

// =============================================================================
// SCHEDULE PERIOD & SHIFTS
// =============================================================================

type PeriodStatus string

const (
	StatusDraft     PeriodStatus = "draft"
	StatusPublished PeriodStatus = "published"
	StatusArchived  PeriodStatus = "archived"
)

type GenerationMethod string

const (
	MethodAuto     GenerationMethod = "auto"
	MethodTemplate GenerationMethod = "template"
)

// SchedulePeriod is one schedule-generation unit covering a date range.
// Invariant: at most one non-archived period per WeekStart. A published
// period is immutable except via Archive.
type SchedulePeriod struct {
	ID        string
	WeekStart Date
	WeekEnd   Date
	Status    PeriodStatus
	Method    GenerationMethod
	Settings  Settings

	TotalLaborHours    float64
	EstimatedLaborCost decimal.Decimal

	TemplateID  string // set when saved as / generated from a template
	CreatedBy   string
	PublishedBy string
	PublishedAt *time.Time
	CreatedAt   time.Time
}

// Range returns the period's inclusive date range.
func (p SchedulePeriod) Range() Period {
	return Period{Start: p.WeekStart, End: p.WeekEnd}
}

// ScheduledShift is one employee-day assignment.
// Invariant: BreakMinutes is a pure function of shift length (see shift.go).
type ScheduledShift struct {
	ID           string
	PeriodID     string
	EmployeeID   EmployeeID
	Date         Date
	Start        ClockTime
	End          ClockTime
	BreakMinutes int
	Position     string
	IsDraft      bool
}

// WorkingHours is gross shift length minus the break.
func (s ScheduledShift) WorkingHours() float64 {
	return float64(spanMinutes(s.Start, s.End)-s.BreakMinutes) / 60
}

// Overlaps reports whether two shifts on the same date overlap in time.
func (s ScheduledShift) Overlaps(other ScheduledShift) bool {
	if !s.Date.Equal(other.Date) {
		return false
	}
	return s.Start < other.End && s.End > other.Start
}

// =============================================================================
// TEMPLATES, NOTIFICATIONS, AUDIT
// =============================================================================

// ScheduleTemplate lets a period be replayed into future weeks.
type ScheduleTemplate struct {
	ID          string
	Name        string
	Description string
	CreatedBy   string
	UseCount    int
	LastUsed    *time.Time
	CreatedAt   time.Time
}

// Notification is created once per distinct employee when a period is
// published. Delivery transport is external.
type Notification struct {
	ID         string
	PeriodID   string
	EmployeeID EmployeeID
	Type       string // "new_schedule"
	SentVia    string // "all"
	CreatedAt  time.Time
}

// ChangeRecord is an audit entry for period lifecycle transitions.
type ChangeRecord struct {
	ID        string
	PeriodID  string
	Type      string // "published", "archived"
	ChangedBy string
	Reason    string
	CreatedAt time.Time
}

// =============================================================================
// DERIVED DIAGNOSTICS (never persisted)
// =============================================================================

type ConflictType string

const (
	ConflictDoubleBooking ConflictType = "double_booking"
	ConflictOverMaxHours  ConflictType = "over_max_hours"
)

type ConflictSeverity string

const (
	SeverityCritical ConflictSeverity = "critical"
	SeverityHigh     ConflictSeverity = "high"
)

// Conflict is recomputed from current shift rows on every inspection.
type Conflict struct {
	Type     ConflictType
	Severity ConflictSeverity
	Employee string
	Date     Date // zero for period-wide conflicts
	Message  string
}

// Shortage records an understaffed block. Understaffing is never an error;
// generation continues and the shortage is reported on the result.
type Shortage struct {
	Date       Date
	BlockStart ClockTime
	BlockEnd   ClockTime
	Assigned   int
	Required   int
}
