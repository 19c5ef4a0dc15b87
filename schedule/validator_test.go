package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func stateWithShifts(id EmployeeID, hours float64, records ...shiftRecord) *runState {
	state := newRunState()
	state.hours[id] = hours
	state.history[id] = records
	return state
}

func worked(date string, start, end string) shiftRecord {
	return shiftRecord{
		date:  MustDate(date),
		start: MustClock(start),
		end:   MustClock(end),
	}
}

// =============================================================================
// WEEKLY HOUR CAP
// =============================================================================

func TestCheckConstraints_WeeklyCap(t *testing.T) {
	// GIVEN: a 20h/week employee with 10h already scheduled
	// WHEN: offering an 8h block (7h working after the break)
	// THEN: accepted at 17h total, rejected when it would cross 20h

	emp := &Employee{ID: "alice", MaxHoursPerWeek: 20}
	block := TimeBlock{Start: MustClock("09:00"), End: MustClock("17:00")} // 7h working

	ok := checkConstraints(emp, MustDate("2025-06-04"), block, stateWithShifts("alice", 10), DefaultSettings())
	assert.True(t, ok, "10h + 7h fits under 20h")

	rejected := checkConstraints(emp, MustDate("2025-06-04"), block, stateWithShifts("alice", 15), DefaultSettings())
	assert.False(t, rejected, "15h + 7h exceeds 20h")
}

// =============================================================================
// CLOPENING
// =============================================================================

func TestCheckConstraints_Clopening(t *testing.T) {
	// GIVEN: a closing shift ending 22:00 yesterday and min gap of 10h
	// THEN: a 06:00 opener (8h gap) is rejected, a 10:00 start (12h) is fine

	emp := &Employee{ID: "alice", MaxHoursPerWeek: 40}
	state := stateWithShifts("alice", 7, worked("2025-06-02", "14:00", "22:00"))

	opener := TimeBlock{Start: MustClock("06:00"), End: MustClock("12:00")}
	assert.False(t, checkConstraints(emp, MustDate("2025-06-03"), opener, state, DefaultSettings()))

	later := TimeBlock{Start: MustClock("10:00"), End: MustClock("16:00")}
	assert.True(t, checkConstraints(emp, MustDate("2025-06-03"), later, state, DefaultSettings()))
}

func TestCheckConstraints_ClopeningShorterGapAllowed(t *testing.T) {
	// The same 8h overnight gap passes once the minimum is lowered to 6h.
	emp := &Employee{ID: "alice", MaxHoursPerWeek: 40}
	state := stateWithShifts("alice", 7, worked("2025-06-02", "14:00", "22:00"))

	settings := DefaultSettings()
	settings.MinTimeBetweenShifts = 6

	opener := TimeBlock{Start: MustClock("06:00"), End: MustClock("12:00")}
	assert.True(t, checkConstraints(emp, MustDate("2025-06-03"), opener, state, settings))
}

func TestCheckConstraints_ClopeningDisabled(t *testing.T) {
	emp := &Employee{ID: "alice", MaxHoursPerWeek: 40}
	state := stateWithShifts("alice", 7, worked("2025-06-02", "14:00", "22:00"))

	settings := DefaultSettings()
	settings.AvoidClopening = false

	opener := TimeBlock{Start: MustClock("06:00"), End: MustClock("12:00")}
	assert.True(t, checkConstraints(emp, MustDate("2025-06-03"), opener, state, settings))
}

// =============================================================================
// CONSECUTIVE DAYS
// =============================================================================

func TestCheckConstraints_ConsecutiveDays(t *testing.T) {
	// GIVEN: six consecutive worked days ending yesterday, limit 6
	// THEN: a seventh straight day is rejected

	emp := &Employee{ID: "alice", MaxHoursPerWeek: 60}
	state := stateWithShifts("alice", 0,
		worked("2025-06-02", "09:00", "13:00"),
		worked("2025-06-03", "09:00", "13:00"),
		worked("2025-06-04", "09:00", "13:00"),
		worked("2025-06-05", "09:00", "13:00"),
		worked("2025-06-06", "09:00", "13:00"),
		worked("2025-06-07", "09:00", "13:00"),
	)

	block := TimeBlock{Start: MustClock("09:00"), End: MustClock("13:00")}
	settings := DefaultSettings()
	settings.AvoidClopening = false

	assert.False(t, checkConstraints(emp, MustDate("2025-06-08"), block, state, settings))
}

func TestCheckConstraints_GapResetsConsecutiveCount(t *testing.T) {
	// A day off mid-streak resets the walk-back: only the run touching
	// yesterday counts.
	emp := &Employee{ID: "alice", MaxHoursPerWeek: 60}
	state := stateWithShifts("alice", 0,
		worked("2025-06-02", "09:00", "13:00"),
		worked("2025-06-03", "09:00", "13:00"),
		worked("2025-06-04", "09:00", "13:00"),
		// 2025-06-05 off
		worked("2025-06-06", "09:00", "13:00"),
		worked("2025-06-07", "09:00", "13:00"),
	)

	block := TimeBlock{Start: MustClock("09:00"), End: MustClock("13:00")}
	settings := DefaultSettings()
	settings.AvoidClopening = false

	assert.True(t, checkConstraints(emp, MustDate("2025-06-08"), block, state, settings))
}

func TestCheckConstraints_NoHistoryAccepted(t *testing.T) {
	emp := &Employee{ID: "alice"}
	block := TimeBlock{Start: MustClock("09:00"), End: MustClock("17:00")}
	assert.True(t, checkConstraints(emp, MustDate("2025-06-02"), block, newRunState(), DefaultSettings()))
}
