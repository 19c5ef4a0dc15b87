/*
dayschedule.go - Day Scheduler

For one day, turns the compiled time blocks (or, when a day has none,
availability-inferred shift groups) into concrete shifts using the scorer and
validator, updating the shared per-employee running state as it goes.

ELIGIBILITY (per day):
  - excluded when covered by an approved time-off request
  - eligible with an explicit non-unavailable window for that weekday
  - implicitly eligible 09:00-17:00 when the employee has NO availability
    records at all (an employee with records but none for this weekday has
    restrictions and is skipped)

The run state (hours + shift history) is shared across the whole generation
run, so assignments made on Monday constrain what Tuesday can do.
*/
package schedule

import (
	"log"
)

// =============================================================================
// RUN STATE - Shared mutable per-employee state for one generation run
// =============================================================================

type shiftRecord struct {
	date  Date
	start ClockTime
	end   ClockTime
}

// runState is threaded explicitly through scheduler, scorer, and validator.
type runState struct {
	hours   map[EmployeeID]float64
	history map[EmployeeID][]shiftRecord
}

func newRunState() *runState {
	return &runState{
		hours:   make(map[EmployeeID]float64),
		history: make(map[EmployeeID][]shiftRecord),
	}
}

func (s *runState) record(id EmployeeID, date Date, start, end ClockTime, workingHours float64) {
	s.hours[id] += workingHours
	s.history[id] = append(s.history[id], shiftRecord{date: date, start: start, end: end})
}

// dayCandidate is an employee eligible on a specific day, with the windows
// that make them eligible.
type dayCandidate struct {
	Employee *Employee
	Windows  []AvailabilityWindow
}

var implicitWindow = AvailabilityWindow{
	Start: MustClock("09:00"),
	End:   MustClock("17:00"),
	Type:  AvailabilityAvailable,
}

// eligibleOn filters the roster down to employees schedulable on one day.
func eligibleOn(date Date, roster []Employee, timeOff []TimeOffRequest) []dayCandidate {
	var eligible []dayCandidate

	for i := range roster {
		emp := &roster[i]

		onTimeOff := false
		for _, req := range timeOff {
			if req.EmployeeID == emp.ID && req.CoversDate(date) {
				onTimeOff = true
				break
			}
		}
		if onTimeOff {
			continue
		}

		var windows []AvailabilityWindow
		for _, w := range emp.Availability {
			if w.Day == date.Weekday() && w.Type != AvailabilityUnavailable {
				windows = append(windows, w)
			}
		}

		switch {
		case len(windows) > 0:
			eligible = append(eligible, dayCandidate{Employee: emp, Windows: windows})
		case len(emp.Availability) == 0:
			w := implicitWindow
			w.Day = date.Weekday()
			eligible = append(eligible, dayCandidate{Employee: emp, Windows: []AvailabilityWindow{w}})
		}
	}
	return eligible
}

// =============================================================================
// DAY SCHEDULER
// =============================================================================

type dayScheduler struct {
	settings Settings
	state    *runState
	logger   *log.Logger
}

// scheduleDay produces the day's shifts. Understaffed blocks are reported as
// shortages, never errors.
func (d *dayScheduler) scheduleDay(periodID string, date Date, eligible []dayCandidate, blocks []TimeBlock) ([]ScheduledShift, []Shortage) {
	if len(blocks) == 0 {
		return d.scheduleWithoutRequirements(periodID, date, eligible), nil
	}

	var shifts []ScheduledShift
	var shortages []Shortage

	for _, block := range blocks {
		needed := block.MinEmployees
		if block.MaxEmployees > 0 && needed > block.MaxEmployees {
			needed = block.MaxEmployees
		}

		candidates := scoreCandidates(eligible, block, date, d.state, d.settings)

		assigned := 0
		for _, cand := range candidates {
			if assigned >= needed {
				break
			}
			emp := cand.candidate.Employee
			if !checkConstraints(emp, date, block, d.state, d.settings) {
				continue
			}

			shift := d.buildShift(periodID, emp, date, block.Start, block.End, block.PreferredPositions)
			shifts = append(shifts, shift)
			assigned++
		}

		if assigned < needed {
			d.logger.Printf("[Generator] understaffed block %s %s-%s: assigned %d/%d",
				date, block.Start, block.End, assigned, needed)
			shortages = append(shortages, Shortage{
				Date:       date,
				BlockStart: block.Start,
				BlockEnd:   block.End,
				Assigned:   assigned,
				Required:   needed,
			})
		}
	}

	return shifts, shortages
}

// shiftGroup collects employees sharing an inferred shift time. Groups keep
// first-seen order so generation stays deterministic.
type shiftGroup struct {
	start   ClockTime
	end     ClockTime
	members []*dayCandidate
}

// scheduleWithoutRequirements guarantees coverage on days with no staffing
// requirements: employees are grouped by inferred shift time and one shift is
// created per employee per group, bounded by the per-shift settings.
func (d *dayScheduler) scheduleWithoutRequirements(periodID string, date Date, eligible []dayCandidate) []ScheduledShift {
	if len(eligible) == 0 {
		return nil
	}

	minPerShift := d.settings.MinEmployeesPerShift
	if minPerShift < 1 {
		minPerShift = 1
	}
	maxPerShift := d.settings.MaxEmployeesPerShift
	if maxPerShift <= 0 {
		maxPerShift = len(eligible)
	}

	var groups []*shiftGroup
	index := make(map[string]*shiftGroup)

	for i := range eligible {
		cand := &eligible[i]
		w := cand.Windows[0]

		start := w.Start
		end := w.End
		if end == ClockNone {
			end = start.AddHours(d.settings.DefaultShiftLength)
		}

		key := start.String() + "-" + end.String()
		group, ok := index[key]
		if !ok {
			group = &shiftGroup{start: start, end: end}
			index[key] = group
			groups = append(groups, group)
		}
		group.members = append(group.members, cand)
	}

	var shifts []ScheduledShift
	for _, group := range groups {
		count := len(group.members)
		if count < minPerShift {
			count = minPerShift
		}
		if count > maxPerShift {
			count = maxPerShift
		}
		if count > len(group.members) {
			count = len(group.members)
		}

		for _, cand := range group.members[:count] {
			shifts = append(shifts, d.buildShift(periodID, cand.Employee, date, group.start, group.end, nil))
		}
	}
	return shifts
}

// buildShift creates the shift, applies the break policy, and updates the
// running per-employee state.
func (d *dayScheduler) buildShift(periodID string, emp *Employee, date Date, start, end ClockTime, preferred []string) ScheduledShift {
	breakMin := BreakMinutes(start, end)
	shift := ScheduledShift{
		ID:           newID(),
		PeriodID:     periodID,
		EmployeeID:   emp.ID,
		Date:         date,
		Start:        start,
		End:          end,
		BreakMinutes: breakMin,
		Position:     selectPosition(emp, preferred),
		IsDraft:      true,
	}
	d.state.record(emp.ID, date, start, end, shift.WorkingHours())
	return shift
}
