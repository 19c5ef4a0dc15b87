/*
availability.go - Availability Resolver

PURPOSE:
  Gathers active employees and normalizes the two legacy availability
  encodings into one AvailabilityWindow shape, at ingestion, so the
  scheduling logic never sees raw rows:

  1. Structured table rows: one row per (employee, weekday) with explicit
     start/end, availability type, and optional effective date range.
  2. Per-weekday JSON: one row per employee with a JSON blob per weekday
     column, e.g. {"available": true, "start": "09:00", "end": "17:00"}.

  Also resolves registered positions (defaulting to one generic position)
  and approved time-off requests overlapping the period. Read-only.

NORMALIZATION RULES:
  - Structured rows with malformed times or dates fail fast; the caller
    gets a MalformedTimeError/MalformedDateError before anything persists.
  - Legacy JSON blobs that do not parse are skipped, matching the tolerant
    behavior the legacy encoding always had.
  - An employee with structured rows uses those; otherwise the legacy row;
    otherwise no availability records at all (which later means implicitly
    eligible every day, 09:00-17:00).
*/
package schedule

import (
	"context"
	"encoding/json"
	"fmt"
)

// Resolver annotates the active roster with normalized availability and
// resolves approved time off for a period.
type Resolver struct {
	Directory EmployeeDirectory
	TimeOff   TimeOffSource
}

// Resolve returns the filtered roster and the approved time-off requests
// overlapping the period. ErrNoEligibleEmployees when the filters leave
// nobody to schedule.
func (r *Resolver) Resolve(ctx context.Context, period Period, settings Settings) ([]Employee, []TimeOffRequest, error) {
	employees, err := r.Directory.ListActive(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list active employees: %w", err)
	}

	employees = filterRoster(employees, settings.SelectedEmployees, settings.ExcludedEmployees)
	if len(employees) == 0 {
		return nil, nil, ErrNoEligibleEmployees
	}

	for i := range employees {
		emp := &employees[i]
		if emp.EmploymentType == "" {
			emp.EmploymentType = EmploymentFullTime
		}

		windows, err := r.resolveWindows(ctx, emp.ID, period)
		if err != nil {
			return nil, nil, err
		}
		emp.Availability = windows

		positions, err := r.Directory.Positions(ctx, emp.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("positions for %s: %w", emp.ID, err)
		}
		if len(positions) == 0 {
			positions = []string{DefaultPosition}
		}
		emp.Positions = positions
	}

	timeOff, err := r.TimeOff.ApprovedInRange(ctx, period.Start, period.End)
	if err != nil {
		return nil, nil, fmt.Errorf("time off for %s: %w", period, err)
	}

	return employees, timeOff, nil
}

func filterRoster(employees []Employee, selected, excluded []EmployeeID) []Employee {
	keep := employees
	if len(selected) > 0 {
		include := make(map[EmployeeID]bool, len(selected))
		for _, id := range selected {
			include[id] = true
		}
		keep = keep[:0:0]
		for _, e := range employees {
			if include[e.ID] {
				keep = append(keep, e)
			}
		}
	}
	if len(excluded) > 0 {
		skip := make(map[EmployeeID]bool, len(excluded))
		for _, id := range excluded {
			skip[id] = true
		}
		filtered := keep[:0:0]
		for _, e := range keep {
			if !skip[e.ID] {
				filtered = append(filtered, e)
			}
		}
		keep = filtered
	}
	return keep
}

// resolveWindows prefers the structured encoding, then the legacy row.
func (r *Resolver) resolveWindows(ctx context.Context, id EmployeeID, period Period) ([]AvailabilityWindow, error) {
	rows, err := r.Directory.AvailabilityRows(ctx, id, period)
	if err != nil {
		return nil, fmt.Errorf("availability for %s: %w", id, err)
	}
	if len(rows) > 0 {
		return normalizeStructured(rows, period)
	}

	legacy, err := r.Directory.LegacyAvailability(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("legacy availability for %s: %w", id, err)
	}
	if legacy == nil {
		return nil, nil
	}
	return normalizeLegacy(legacy), nil
}

// normalizeStructured converts structured rows, failing fast on malformed
// times or dates and dropping rows outside their effective range.
func normalizeStructured(rows []AvailabilityRow, period Period) ([]AvailabilityWindow, error) {
	var windows []AvailabilityWindow
	for _, row := range rows {
		day, err := ParseWeekday(row.DayOfWeek)
		if err != nil {
			return nil, err
		}

		start := MustClock("09:00")
		if row.StartTime != "" {
			if start, err = ParseClock(row.StartTime); err != nil {
				return nil, err
			}
		}

		end := ClockNone
		if row.EndTime != "" {
			if end, err = ParseClock(row.EndTime); err != nil {
				return nil, err
			}
		}

		w := AvailabilityWindow{
			Day:   day,
			Start: start,
			End:   end,
			Type:  AvailabilityType(row.Type),
		}
		if w.Type == "" {
			w.Type = AvailabilityAvailable
		}

		if row.EffectiveDate != "" {
			from, err := ParseDate(row.EffectiveDate)
			if err != nil {
				return nil, err
			}
			w.EffectiveFrom = &from
		}
		if row.EndDate != "" {
			until, err := ParseDate(row.EndDate)
			if err != nil {
				return nil, err
			}
			w.EffectiveUntil = &until
		}

		if !w.InEffect(period) {
			continue
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// legacyDay is the JSON blob stored per weekday column in the old encoding.
type legacyDay struct {
	Available bool   `json:"available"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

// normalizeLegacy converts the per-weekday JSON row. Blobs that fail to parse
// are skipped; missing times default to 09:00-17:00.
func normalizeLegacy(row map[string]string) []AvailabilityWindow {
	var windows []AvailabilityWindow
	for _, day := range weekOrder {
		blob, ok := row[WeekdayName(day)]
		if !ok || blob == "" {
			continue
		}

		var parsed legacyDay
		if err := json.Unmarshal([]byte(blob), &parsed); err != nil {
			continue
		}
		if !parsed.Available {
			continue
		}

		start, err := ParseClock(orDefault(parsed.Start, "09:00"))
		if err != nil {
			continue
		}
		end, err := ParseClock(orDefault(parsed.End, "17:00"))
		if err != nil {
			continue
		}

		windows = append(windows, AvailabilityWindow{
			Day:   day,
			Start: start,
			End:   end,
			Type:  AvailabilityAvailable,
		})
	}
	return windows
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
