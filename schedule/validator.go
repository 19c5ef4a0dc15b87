/*
validator.go - Constraint Validator

Accepts or rejects a candidate assignment against labor rules. A candidate
is rejected when any of the following holds:

  1. Consecutive days: walking backward day-by-day from the shift date
     (7-day lookback, stopping at the first gap), the employee has already
     worked max_consecutive_days in a row.
  2. Clopening: avoid_clopening is set and the gap between the employee's
     latest shift end yesterday and this block's start is shorter than
     min_time_between_shifts hours.
  3. Weekly cap: hours already scheduled this run plus this block's working
     hours would exceed max_hours_per_week.

Working hours are gross block length minus the mandated break.
*/
package schedule

// checkConstraints reports whether assigning emp to the block on date would
// violate any labor rule, given the running per-employee state.
func checkConstraints(emp *Employee, date Date, block TimeBlock, state *runState, settings Settings) bool {
	records := state.history[emp.ID]

	// Max consecutive worked days, walking backward until the first gap.
	consecutive := 0
	limit := date.AddDays(-7)
	for check := date.AddDays(-1); !check.Before(limit); check = check.AddDays(-1) {
		if !hasShiftOn(records, check) {
			break
		}
		consecutive++
	}
	if consecutive >= settings.MaxConsecutiveDays {
		return false
	}

	// Clopening: closing shift followed too soon by an opening shift.
	if settings.AvoidClopening {
		yesterday := date.AddDays(-1)
		lastEnd := ClockNone
		for _, rec := range records {
			if rec.date.Equal(yesterday) && rec.end > lastEnd {
				lastEnd = rec.end
			}
		}
		if lastEnd != ClockNone {
			gapHours := float64(int(block.Start)+24*60-int(lastEnd)) / 60
			if gapHours < settings.MinTimeBetweenShifts {
				return false
			}
		}
	}

	// Weekly hour cap against the running total for this generation run.
	if state.hours[emp.ID]+blockWorkingHours(block.Start, block.End) > emp.MaxHours() {
		return false
	}

	return true
}

func hasShiftOn(records []shiftRecord, d Date) bool {
	for _, rec := range records {
		if rec.date.Equal(d) {
			return true
		}
	}
	return false
}
