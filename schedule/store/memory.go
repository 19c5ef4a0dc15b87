// Package store provides schedule store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/shift-engine/schedule"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements every engine interface: EmployeeDirectory,
// TimeOffSource, RequirementSource, and TxStore.
type Memory struct {
	mu sync.RWMutex

	employees     map[schedule.EmployeeID]schedule.Employee
	employeeOrder []schedule.EmployeeID
	positions     map[schedule.EmployeeID][]string
	structured    map[schedule.EmployeeID][]schedule.AvailabilityRow
	legacy        map[schedule.EmployeeID]map[string]string

	timeOff      []schedule.TimeOffRequest
	requirements []schedule.Requirement

	periods       map[string]schedule.SchedulePeriod
	shifts        map[string][]schedule.ScheduledShift // keyed by period ID
	templates     map[string]schedule.ScheduleTemplate
	notifications []schedule.Notification
	changes       []schedule.ChangeRecord
}

func NewMemory() *Memory {
	return &Memory{
		employees:  make(map[schedule.EmployeeID]schedule.Employee),
		positions:  make(map[schedule.EmployeeID][]string),
		structured: make(map[schedule.EmployeeID][]schedule.AvailabilityRow),
		legacy:     make(map[schedule.EmployeeID]map[string]string),
		periods:    make(map[string]schedule.SchedulePeriod),
		shifts:     make(map[string][]schedule.ScheduledShift),
		templates:  make(map[string]schedule.ScheduleTemplate),
	}
}

// =============================================================================
// SEEDING HELPERS (tests and demos)
// =============================================================================

func (m *Memory) AddEmployee(emp schedule.Employee, positions ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.employees[emp.ID]; !exists {
		m.employeeOrder = append(m.employeeOrder, emp.ID)
	}
	m.employees[emp.ID] = emp
	if len(positions) > 0 {
		m.positions[emp.ID] = positions
	}
}

func (m *Memory) AddAvailabilityRows(id schedule.EmployeeID, rows ...schedule.AvailabilityRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.structured[id] = append(m.structured[id], rows...)
}

func (m *Memory) SetLegacyAvailability(id schedule.EmployeeID, week map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.legacy[id] = week
}

func (m *Memory) AddTimeOff(req schedule.TimeOffRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeOff = append(m.timeOff, req)
}

func (m *Memory) AddRequirement(req schedule.Requirement) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requirements = append(m.requirements, req)
}

// NotificationCount reports notifications recorded for a period.
func (m *Memory) NotificationCount(periodID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, n := range m.notifications {
		if n.PeriodID == periodID {
			count++
		}
	}
	return count
}

// Changes returns all recorded change entries.
func (m *Memory) Changes() []schedule.ChangeRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]schedule.ChangeRecord, len(m.changes))
	copy(out, m.changes)
	return out
}

// =============================================================================
// EMPLOYEE DIRECTORY
// =============================================================================

func (m *Memory) ListActive(_ context.Context) ([]schedule.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []schedule.Employee
	for _, id := range m.employeeOrder {
		emp := m.employees[id]
		if emp.Active {
			out = append(out, emp)
		}
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, id schedule.EmployeeID) (*schedule.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[id]
	if !ok {
		return nil, nil
	}
	return &emp, nil
}

func (m *Memory) Positions(_ context.Context, id schedule.EmployeeID) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.positions[id]...), nil
}

func (m *Memory) AvailabilityRows(_ context.Context, id schedule.EmployeeID, _ schedule.Period) ([]schedule.AvailabilityRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]schedule.AvailabilityRow(nil), m.structured[id]...), nil
}

func (m *Memory) LegacyAvailability(_ context.Context, id schedule.EmployeeID) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	week, ok := m.legacy[id]
	if !ok {
		return nil, nil
	}
	out := make(map[string]string, len(week))
	for k, v := range week {
		out[k] = v
	}
	return out, nil
}

// =============================================================================
// TIME OFF & REQUIREMENTS
// =============================================================================

func (m *Memory) ApprovedInRange(_ context.Context, from, to schedule.Date) ([]schedule.TimeOffRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []schedule.TimeOffRequest
	for _, req := range m.timeOff {
		if req.Status != schedule.TimeOffApproved {
			continue
		}
		if req.Start.After(to) || req.End.Before(from) {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func (m *Memory) ActiveRequirements(_ context.Context) ([]schedule.Requirement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []schedule.Requirement
	for _, req := range m.requirements {
		if req.Active {
			out = append(out, req)
		}
	}
	return out, nil
}

// =============================================================================
// SCHEDULE STORE
// =============================================================================

func (m *Memory) FindPeriodByWeekStart(_ context.Context, weekStart schedule.Date) (*schedule.SchedulePeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.periods {
		if p.WeekStart.Equal(weekStart) && p.Status != schedule.StatusArchived {
			period := p
			return &period, nil
		}
	}
	return nil, nil
}

func (m *Memory) GetPeriod(_ context.Context, id string) (*schedule.SchedulePeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.periods[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) SavePeriod(_ context.Context, p schedule.SchedulePeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.periods[p.ID] = p
	return nil
}

func (m *Memory) DeletePeriod(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.periods, id)
	delete(m.shifts, id)
	return nil
}

func (m *Memory) UpdatePeriodTotals(_ context.Context, id string, hours float64, cost decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.periods[id]
	if !ok {
		return schedule.ErrPeriodNotFound
	}
	p.TotalLaborHours = hours
	p.EstimatedLaborCost = cost
	m.periods[id] = p
	return nil
}

func (m *Memory) SaveShifts(_ context.Context, shifts []schedule.ScheduledShift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range shifts {
		m.shifts[s.PeriodID] = append(m.shifts[s.PeriodID], s)
	}
	return nil
}

func (m *Memory) ShiftsByPeriod(_ context.Context, periodID string) ([]schedule.ScheduledShift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]schedule.ScheduledShift(nil), m.shifts[periodID]...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Start < out[j].Start
	})
	return out, nil
}

func (m *Memory) MarkShiftsPublished(_ context.Context, periodID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	shifts := m.shifts[periodID]
	for i := range shifts {
		shifts[i].IsDraft = false
	}
	return nil
}

func (m *Memory) GetTemplate(_ context.Context, id string) (*schedule.ScheduleTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.templates[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *Memory) SaveTemplate(_ context.Context, t schedule.ScheduleTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[t.ID] = t
	return nil
}

func (m *Memory) PeriodByTemplate(_ context.Context, templateID string) (*schedule.SchedulePeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.periods {
		if p.TemplateID == templateID {
			period := p
			return &period, nil
		}
	}
	return nil, nil
}

func (m *Memory) LinkTemplate(_ context.Context, periodID, templateID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.periods[periodID]
	if !ok {
		return schedule.ErrPeriodNotFound
	}
	p.TemplateID = templateID
	m.periods[periodID] = p
	return nil
}

func (m *Memory) TouchTemplate(_ context.Context, templateID string, usedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[templateID]
	if !ok {
		return schedule.ErrTemplateNotFound
	}
	t.UseCount++
	t.LastUsed = &usedAt
	m.templates[templateID] = t
	return nil
}

func (m *Memory) SaveNotification(_ context.Context, n schedule.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *Memory) NotificationsByPeriod(_ context.Context, periodID string) ([]schedule.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []schedule.Notification
	for _, n := range m.notifications {
		if n.PeriodID == periodID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *Memory) SaveChange(_ context.Context, c schedule.ChangeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, c)
	return nil
}

// =============================================================================
// TRANSACTIONS - Snapshot + rollback on error
// =============================================================================

// WithTx executes fn against the store. On error the schedule tables are
// restored from a snapshot, simulating a database rollback.
func (m *Memory) WithTx(_ context.Context, fn func(schedule.Store) error) error {
	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	periods       map[string]schedule.SchedulePeriod
	shifts        map[string][]schedule.ScheduledShift
	templates     map[string]schedule.ScheduleTemplate
	notifications []schedule.Notification
	changes       []schedule.ChangeRecord
}

func (m *Memory) snapshot() memorySnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := memorySnapshot{
		periods:       make(map[string]schedule.SchedulePeriod, len(m.periods)),
		shifts:        make(map[string][]schedule.ScheduledShift, len(m.shifts)),
		templates:     make(map[string]schedule.ScheduleTemplate, len(m.templates)),
		notifications: append([]schedule.Notification(nil), m.notifications...),
		changes:       append([]schedule.ChangeRecord(nil), m.changes...),
	}
	for k, v := range m.periods {
		snap.periods[k] = v
	}
	for k, v := range m.shifts {
		snap.shifts[k] = append([]schedule.ScheduledShift(nil), v...)
	}
	for k, v := range m.templates {
		snap.templates[k] = v
	}
	return snap
}

func (m *Memory) restore(snap memorySnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.periods = snap.periods
	m.shifts = snap.shifts
	m.templates = snap.templates
	m.notifications = snap.notifications
	m.changes = snap.changes
}
