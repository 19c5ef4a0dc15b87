/*
conflicts.go - Conflict Detector

Read-only scan over current shift rows. Never cached: callers always see
conflicts for the shifts as they exist right now.

  double_booking: two shifts for the same employee on the same date with
                  overlapping time ranges (start1 < end2 AND end1 > start2),
                  reported once per overlapping pair. Severity critical.
  over_max_hours: summed period working hours exceed the employee's weekly
                  cap. Severity high.
*/
package schedule

import (
	"fmt"
	"sort"
)

// DetectConflicts scans the given shifts. The employee map supplies names and
// hour caps; unknown employees fall back to their ID and the default cap.
func DetectConflicts(shifts []ScheduledShift, employees map[EmployeeID]Employee) []Conflict {
	var conflicts []Conflict

	// Double bookings, per overlapping pair.
	for i := 0; i < len(shifts); i++ {
		for j := i + 1; j < len(shifts); j++ {
			a, b := shifts[i], shifts[j]
			if a.EmployeeID != b.EmployeeID || !a.Overlaps(b) {
				continue
			}
			conflicts = append(conflicts, Conflict{
				Type:     ConflictDoubleBooking,
				Severity: SeverityCritical,
				Employee: employeeName(employees, a.EmployeeID),
				Date:     a.Date,
				Message: fmt.Sprintf("Overlapping shifts: %s-%s and %s-%s",
					a.Start, a.End, b.Start, b.End),
			})
		}
	}

	// Over weekly hour cap.
	totals := make(map[EmployeeID]float64)
	for _, s := range shifts {
		totals[s.EmployeeID] += s.WorkingHours()
	}

	ids := make([]EmployeeID, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		maxHours := DefaultMaxHoursPerWeek
		if emp, ok := employees[id]; ok {
			maxHours = emp.MaxHours()
		}
		if totals[id] > maxHours {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictOverMaxHours,
				Severity: SeverityHigh,
				Employee: employeeName(employees, id),
				Message:  fmt.Sprintf("Scheduled %.1f hours (max: %.0f)", totals[id], maxHours),
			})
		}
	}

	return conflicts
}

func employeeName(employees map[EmployeeID]Employee, id EmployeeID) string {
	if emp, ok := employees[id]; ok {
		return emp.Name()
	}
	return string(id)
}
