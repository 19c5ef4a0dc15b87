/*
manager.go - Period Manager

PURPOSE:
  Orchestrates schedule generation, the draft -> published -> archived
  lifecycle, template save/replay, and summary assembly. This is the ONLY
  component that persists state.

OPERATIONS:
  Generate:         resolve roster -> compile requirements -> schedule every
                    day chronologically -> persist period + shifts + totals
                    as one atomic unit
  Publish:          draft -> published, clear draft flags, notify each
                    distinct employee once, record the change
  Archive:          retire a period so its week can be regenerated
  CopyFromTemplate: replay a template's origin period into a new week
  SaveAsTemplate:   capture a period as a reusable template
  Summary:          period + shifts (with names) + per-employee stats +
                    freshly computed conflicts

CONCURRENCY:
  Single-threaded per invocation. Concurrent Generate calls for the same
  week_start must be serialized by the caller (or caught by the store's
  unique week_start constraint).
*/
package schedule

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newID() string { return uuid.NewString() }

// Manager wires the read-only sources to the write store.
type Manager struct {
	Directory    EmployeeDirectory
	TimeOff      TimeOffSource
	Requirements RequirementSource
	Store        TxStore

	Logger *log.Logger
	Now    func() time.Time // injectable for tests
}

func NewManager(dir EmployeeDirectory, timeOff TimeOffSource, reqs RequirementSource, store TxStore) *Manager {
	return &Manager{
		Directory:    dir,
		TimeOff:      timeOff,
		Requirements: reqs,
		Store:        store,
		Logger:       log.Default(),
		Now:          time.Now,
	}
}

// =============================================================================
// GENERATE
// =============================================================================

// GenerationResult is returned to the caller after a successful run.
type GenerationResult struct {
	PeriodID        string
	TotalHours      float64
	EstimatedCost   decimal.Decimal
	ShiftsGenerated int
	Shortages       []Shortage
}

// Generate produces a draft schedule for the week starting at weekStart.
// An existing draft for the same week is replaced; an existing published
// period is a conflict and nothing is touched.
func (m *Manager) Generate(ctx context.Context, weekStart Date, patch SettingsPatch, createdBy string) (*GenerationResult, error) {
	settings := patch.Apply(DefaultSettings())

	weekEnd := weekStart.AddDays(6)
	if settings.WeekEnd != nil && !settings.WeekEnd.IsZero() {
		weekEnd = *settings.WeekEnd
	}
	period := Period{Start: weekStart, End: weekEnd}

	existing, err := m.Store.FindPeriodByWeekStart(ctx, weekStart)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == StatusPublished {
		return nil, &PublishedPeriodError{WeekStart: weekStart}
	}

	resolver := &Resolver{Directory: m.Directory, TimeOff: m.TimeOff}
	roster, timeOff, err := resolver.Resolve(ctx, period, settings)
	if err != nil {
		return nil, err
	}

	requirements, err := m.Requirements.ActiveRequirements(ctx)
	if err != nil {
		return nil, err
	}
	blocks := CompileRequirements(requirements)

	newPeriod := SchedulePeriod{
		ID:        newID(),
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
		Status:    StatusDraft,
		Method:    MethodAuto,
		Settings:  settings,
		CreatedBy: createdBy,
		CreatedAt: m.Now().UTC(),
	}

	scheduler := &dayScheduler{settings: settings, state: newRunState(), logger: m.Logger}

	var shifts []ScheduledShift
	var shortages []Shortage
	for _, day := range period.Days() {
		eligible := eligibleOn(day, roster, timeOff)
		dayShifts, dayShortages := scheduler.scheduleDay(newPeriod.ID, day, eligible, blocks[day.Weekday()])
		shifts = append(shifts, dayShifts...)
		shortages = append(shortages, dayShortages...)
	}

	totalHours, totalCost := laborTotals(shifts, roster)

	err = m.Store.WithTx(ctx, func(tx Store) error {
		if existing != nil {
			if err := tx.DeletePeriod(ctx, existing.ID); err != nil {
				return err
			}
		}
		if err := tx.SavePeriod(ctx, newPeriod); err != nil {
			return err
		}
		if err := tx.SaveShifts(ctx, shifts); err != nil {
			return err
		}
		return tx.UpdatePeriodTotals(ctx, newPeriod.ID, totalHours, totalCost)
	})
	if err != nil {
		return nil, err
	}

	m.Logger.Printf("[Generator] week %s: %d shifts, %.1f hours, cost %s",
		weekStart, len(shifts), totalHours, totalCost.StringFixed(2))

	return &GenerationResult{
		PeriodID:        newPeriod.ID,
		TotalHours:      totalHours,
		EstimatedCost:   totalCost,
		ShiftsGenerated: len(shifts),
		Shortages:       shortages,
	}, nil
}

// laborTotals sums working hours and cost at each employee's hourly rate.
func laborTotals(shifts []ScheduledShift, roster []Employee) (float64, decimal.Decimal) {
	rates := make(map[EmployeeID]decimal.Decimal, len(roster))
	for _, emp := range roster {
		rates[emp.ID] = emp.Rate()
	}

	totalHours := 0.0
	totalCost := decimal.Zero
	for _, s := range shifts {
		hours := s.WorkingHours()
		totalHours += hours

		rate, ok := rates[s.EmployeeID]
		if !ok {
			rate = DefaultHourlyRate
		}
		totalCost = totalCost.Add(decimal.NewFromFloat(hours).Mul(rate))
	}
	return totalHours, totalCost
}

// =============================================================================
// PUBLISH / ARCHIVE
// =============================================================================

// Publish transitions a draft to published, clears every shift's draft flag,
// creates one notification per distinct employee, and records the change.
// Publishing an already-published period is a no-op: no duplicate
// notifications are ever created.
func (m *Manager) Publish(ctx context.Context, periodID, publishedBy string) error {
	period, err := m.Store.GetPeriod(ctx, periodID)
	if err != nil {
		return err
	}
	if period == nil {
		return ErrPeriodNotFound
	}
	if period.Status == StatusPublished {
		return nil
	}
	if period.Status != StatusDraft {
		return ErrNotDraft
	}

	shifts, err := m.Store.ShiftsByPeriod(ctx, periodID)
	if err != nil {
		return err
	}

	now := m.Now().UTC()
	period.Status = StatusPublished
	period.PublishedBy = publishedBy
	period.PublishedAt = &now

	return m.Store.WithTx(ctx, func(tx Store) error {
		if err := tx.SavePeriod(ctx, *period); err != nil {
			return err
		}
		if err := tx.MarkShiftsPublished(ctx, periodID); err != nil {
			return err
		}

		seen := make(map[EmployeeID]bool)
		for _, s := range shifts {
			if seen[s.EmployeeID] {
				continue
			}
			seen[s.EmployeeID] = true
			notification := Notification{
				ID:         newID(),
				PeriodID:   periodID,
				EmployeeID: s.EmployeeID,
				Type:       "new_schedule",
				SentVia:    "all",
				CreatedAt:  now,
			}
			if err := tx.SaveNotification(ctx, notification); err != nil {
				return err
			}
		}

		return tx.SaveChange(ctx, ChangeRecord{
			ID:        newID(),
			PeriodID:  periodID,
			Type:      "published",
			ChangedBy: publishedBy,
			Reason:    "Schedule published to all employees",
			CreatedAt: now,
		})
	})
}

// Archive retires a period so its week_start can be used again. This is the
// only mutation allowed on a published period.
func (m *Manager) Archive(ctx context.Context, periodID, archivedBy string) error {
	period, err := m.Store.GetPeriod(ctx, periodID)
	if err != nil {
		return err
	}
	if period == nil {
		return ErrPeriodNotFound
	}
	if period.Status == StatusArchived {
		return nil
	}

	now := m.Now().UTC()
	period.Status = StatusArchived

	return m.Store.WithTx(ctx, func(tx Store) error {
		if err := tx.SavePeriod(ctx, *period); err != nil {
			return err
		}
		return tx.SaveChange(ctx, ChangeRecord{
			ID:        newID(),
			PeriodID:  periodID,
			Type:      "archived",
			ChangedBy: archivedBy,
			CreatedAt: now,
		})
	})
}

// =============================================================================
// TEMPLATES
// =============================================================================

// SaveAsTemplate captures a period as a reusable template and links the
// period to it.
func (m *Manager) SaveAsTemplate(ctx context.Context, periodID, name, description, createdBy string) (string, error) {
	period, err := m.Store.GetPeriod(ctx, periodID)
	if err != nil {
		return "", err
	}
	if period == nil {
		return "", ErrPeriodNotFound
	}

	template := ScheduleTemplate{
		ID:          newID(),
		Name:        name,
		Description: description,
		CreatedBy:   createdBy,
		CreatedAt:   m.Now().UTC(),
	}

	err = m.Store.WithTx(ctx, func(tx Store) error {
		if err := tx.SaveTemplate(ctx, template); err != nil {
			return err
		}
		return tx.LinkTemplate(ctx, periodID, template.ID)
	})
	if err != nil {
		return "", err
	}
	return template.ID, nil
}

// CopyFromTemplate creates a new draft period from a template's origin
// period, shifting every shift by the delta between the two week starts.
// The week collision rules match Generate: published weeks conflict, drafts
// are replaced.
func (m *Manager) CopyFromTemplate(ctx context.Context, templateID string, weekStart Date, createdBy string) (string, error) {
	template, err := m.Store.GetTemplate(ctx, templateID)
	if err != nil {
		return "", err
	}
	if template == nil {
		return "", ErrTemplateNotFound
	}

	origin, err := m.Store.PeriodByTemplate(ctx, templateID)
	if err != nil {
		return "", err
	}
	if origin == nil {
		return "", ErrPeriodNotFound
	}

	existing, err := m.Store.FindPeriodByWeekStart(ctx, weekStart)
	if err != nil {
		return "", err
	}
	if existing != nil && existing.Status == StatusPublished {
		return "", &PublishedPeriodError{WeekStart: weekStart}
	}

	originShifts, err := m.Store.ShiftsByPeriod(ctx, origin.ID)
	if err != nil {
		return "", err
	}

	now := m.Now().UTC()
	offset := DaysBetween(origin.WeekStart, weekStart)

	newPeriod := SchedulePeriod{
		ID:         newID(),
		WeekStart:  weekStart,
		WeekEnd:    weekStart.AddDays(DaysBetween(origin.WeekStart, origin.WeekEnd)),
		Status:     StatusDraft,
		Method:     MethodTemplate,
		Settings:   origin.Settings,
		TemplateID: templateID,
		CreatedBy:  createdBy,
		CreatedAt:  now,
	}

	copied := make([]ScheduledShift, 0, len(originShifts))
	totalHours := 0.0
	for _, s := range originShifts {
		shift := s
		shift.ID = newID()
		shift.PeriodID = newPeriod.ID
		shift.Date = s.Date.AddDays(offset)
		shift.IsDraft = true
		copied = append(copied, shift)
		totalHours += shift.WorkingHours()
	}

	err = m.Store.WithTx(ctx, func(tx Store) error {
		if existing != nil {
			if err := tx.DeletePeriod(ctx, existing.ID); err != nil {
				return err
			}
		}
		if err := tx.SavePeriod(ctx, newPeriod); err != nil {
			return err
		}
		if err := tx.SaveShifts(ctx, copied); err != nil {
			return err
		}
		if err := tx.UpdatePeriodTotals(ctx, newPeriod.ID, totalHours, origin.EstimatedLaborCost); err != nil {
			return err
		}
		return tx.TouchTemplate(ctx, templateID, now)
	})
	if err != nil {
		return "", err
	}
	return newPeriod.ID, nil
}

// =============================================================================
// SUMMARY
// =============================================================================

// ShiftDetail is a shift annotated with the employee's name.
type ShiftDetail struct {
	ScheduledShift
	EmployeeName string
}

// EmployeeStats aggregates one employee's share of a period.
type EmployeeStats struct {
	EmployeeID EmployeeID
	Name       string
	ShiftCount int
	TotalHours float64
}

// PeriodSummary is everything a caller needs to review a schedule.
type PeriodSummary struct {
	Period        SchedulePeriod
	Shifts        []ShiftDetail
	EmployeeStats []EmployeeStats
	Conflicts     []Conflict
}

// Summary assembles period metadata, the shift list with employee names,
// per-employee aggregates, and freshly computed conflicts.
func (m *Manager) Summary(ctx context.Context, periodID string) (*PeriodSummary, error) {
	period, err := m.Store.GetPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, ErrPeriodNotFound
	}

	shifts, err := m.Store.ShiftsByPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}

	employees := make(map[EmployeeID]Employee)
	for _, s := range shifts {
		if _, ok := employees[s.EmployeeID]; ok {
			continue
		}
		emp, err := m.Directory.Get(ctx, s.EmployeeID)
		if err != nil {
			return nil, err
		}
		if emp != nil {
			employees[s.EmployeeID] = *emp
		}
	}

	details := make([]ShiftDetail, 0, len(shifts))
	statsByID := make(map[EmployeeID]*EmployeeStats)
	var statOrder []EmployeeID
	for _, s := range shifts {
		details = append(details, ShiftDetail{
			ScheduledShift: s,
			EmployeeName:   employeeName(employees, s.EmployeeID),
		})

		stats, ok := statsByID[s.EmployeeID]
		if !ok {
			stats = &EmployeeStats{
				EmployeeID: s.EmployeeID,
				Name:       employeeName(employees, s.EmployeeID),
			}
			statsByID[s.EmployeeID] = stats
			statOrder = append(statOrder, s.EmployeeID)
		}
		stats.ShiftCount++
		stats.TotalHours += s.WorkingHours()
	}

	allStats := make([]EmployeeStats, 0, len(statOrder))
	for _, id := range statOrder {
		allStats = append(allStats, *statsByID[id])
	}

	return &PeriodSummary{
		Period:        *period,
		Shifts:        details,
		EmployeeStats: allStats,
		Conflicts:     DetectConflicts(shifts, employees),
	}, nil
}
