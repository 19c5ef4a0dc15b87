package schedule

import (
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ELIGIBILITY
// =============================================================================

func TestEligibleOn_TimeOffExcludes(t *testing.T) {
	roster := []Employee{{ID: "alice", Active: true}}
	timeOff := []TimeOffRequest{{
		EmployeeID: "alice",
		Start:      MustDate("2025-06-02"),
		End:        MustDate("2025-06-03"),
		Status:     TimeOffApproved,
	}}

	assert.Empty(t, eligibleOn(MustDate("2025-06-02"), roster, timeOff))
	assert.Len(t, eligibleOn(MustDate("2025-06-04"), roster, timeOff), 1)
}

func TestEligibleOn_ImplicitWindowOnlyWithoutRecords(t *testing.T) {
	// GIVEN: alice has no records, bob has a Tuesday-only window
	// WHEN: checking Monday
	// THEN: alice gets the implicit 09:00-17:00 window; bob is skipped
	//       because his records represent restrictions

	monday := MustDate("2025-06-02")
	roster := []Employee{
		{ID: "alice"},
		{ID: "bob", Availability: []AvailabilityWindow{{
			Day:   monday.AddDays(1).Weekday(),
			Start: MustClock("09:00"),
			End:   MustClock("17:00"),
			Type:  AvailabilityAvailable,
		}}},
	}

	eligible := eligibleOn(monday, roster, nil)
	require.Len(t, eligible, 1)
	assert.Equal(t, EmployeeID("alice"), eligible[0].Employee.ID)
	assert.Equal(t, MustClock("09:00"), eligible[0].Windows[0].Start)
	assert.Equal(t, MustClock("17:00"), eligible[0].Windows[0].End)
}

func TestEligibleOn_UnavailableWindowSkipped(t *testing.T) {
	monday := MustDate("2025-06-02")
	roster := []Employee{{ID: "alice", Availability: []AvailabilityWindow{{
		Day:   monday.Weekday(),
		Start: MustClock("09:00"),
		End:   MustClock("17:00"),
		Type:  AvailabilityUnavailable,
	}}}}

	assert.Empty(t, eligibleOn(monday, roster, nil))
}

// =============================================================================
// FALLBACK SCHEDULING (no requirements)
// =============================================================================

func newTestScheduler(settings Settings) *dayScheduler {
	return &dayScheduler{settings: settings, state: newRunState(), logger: log.Default()}
}

func TestScheduleWithoutRequirements_GroupsByWindow(t *testing.T) {
	// GIVEN: two employees sharing a window and one on a different window
	// THEN: one shift per employee, grouped times intact

	monday := MustDate("2025-06-02")
	morning := AvailabilityWindow{Day: monday.Weekday(), Start: MustClock("08:00"), End: MustClock("16:00"), Type: AvailabilityAvailable}
	evening := AvailabilityWindow{Day: monday.Weekday(), Start: MustClock("14:00"), End: MustClock("22:00"), Type: AvailabilityAvailable}

	roster := []Employee{
		{ID: "alice", Availability: []AvailabilityWindow{morning}},
		{ID: "bob", Availability: []AvailabilityWindow{morning}},
		{ID: "carol", Availability: []AvailabilityWindow{evening}},
	}

	scheduler := newTestScheduler(DefaultSettings())
	shifts, shortages := scheduler.scheduleDay("p1", monday, eligibleOn(monday, roster, nil), nil)

	require.Empty(t, shortages)
	require.Len(t, shifts, 3)
	assert.Equal(t, MustClock("08:00"), shifts[0].Start)
	assert.Equal(t, MustClock("08:00"), shifts[1].Start)
	assert.Equal(t, MustClock("14:00"), shifts[2].Start)
}

func TestScheduleWithoutRequirements_OpenEndedWindowUsesDefaultLength(t *testing.T) {
	monday := MustDate("2025-06-02")
	roster := []Employee{{ID: "alice", Availability: []AvailabilityWindow{{
		Day:   monday.Weekday(),
		Start: MustClock("10:00"),
		End:   ClockNone,
		Type:  AvailabilityAvailable,
	}}}}

	settings := DefaultSettings()
	settings.DefaultShiftLength = 6

	scheduler := newTestScheduler(settings)
	shifts, _ := scheduler.scheduleDay("p1", monday, eligibleOn(monday, roster, nil), nil)

	require.Len(t, shifts, 1)
	assert.Equal(t, MustClock("16:00"), shifts[0].End)
}

func TestScheduleWithoutRequirements_MaxPerShiftCaps(t *testing.T) {
	monday := MustDate("2025-06-02")
	w := AvailabilityWindow{Day: monday.Weekday(), Start: MustClock("09:00"), End: MustClock("17:00"), Type: AvailabilityAvailable}
	roster := []Employee{
		{ID: "a", Availability: []AvailabilityWindow{w}},
		{ID: "b", Availability: []AvailabilityWindow{w}},
		{ID: "c", Availability: []AvailabilityWindow{w}},
	}

	settings := DefaultSettings()
	settings.MaxEmployeesPerShift = 2

	scheduler := newTestScheduler(settings)
	shifts, _ := scheduler.scheduleDay("p1", monday, eligibleOn(monday, roster, nil), nil)
	assert.Len(t, shifts, 2)
}

// =============================================================================
// REQUIREMENT SCHEDULING
// =============================================================================

func TestScheduleDay_ShortageReported(t *testing.T) {
	// GIVEN: a block needing 3 but only 1 eligible employee
	// THEN: the shift is created and a shortage is reported, never an error

	monday := MustDate("2025-06-02")
	roster := []Employee{{ID: "alice"}}
	blocks := []TimeBlock{{
		Start:        MustClock("09:00"),
		End:          MustClock("17:00"),
		MinEmployees: 3,
	}}

	scheduler := newTestScheduler(DefaultSettings())
	shifts, shortages := scheduler.scheduleDay("p1", monday, eligibleOn(monday, roster, nil), blocks)

	require.Len(t, shifts, 1)
	require.Len(t, shortages, 1)
	assert.Equal(t, 1, shortages[0].Assigned)
	assert.Equal(t, 3, shortages[0].Required)
}

func TestScheduleDay_MaxEmployeesClampsNeeded(t *testing.T) {
	monday := MustDate("2025-06-02")
	roster := []Employee{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	blocks := []TimeBlock{{
		Start:        MustClock("09:00"),
		End:          MustClock("17:00"),
		MinEmployees: 3,
		MaxEmployees: 2,
	}}

	scheduler := newTestScheduler(DefaultSettings())
	shifts, shortages := scheduler.scheduleDay("p1", monday, eligibleOn(monday, roster, nil), blocks)

	assert.Len(t, shifts, 2)
	assert.Empty(t, shortages)
}

func TestScheduleDay_StateCarriesAcrossBlocks(t *testing.T) {
	// A morning assignment counts against the weekly cap when the same
	// employee is considered for the evening block.
	monday := MustDate("2025-06-02")
	roster := []Employee{{ID: "alice", MaxHoursPerWeek: 10, Availability: []AvailabilityWindow{{
		Day:   monday.Weekday(),
		Start: MustClock("08:00"),
		End:   MustClock("23:00"),
		Type:  AvailabilityAvailable,
	}}}}
	blocks := []TimeBlock{
		{Start: MustClock("08:00"), End: MustClock("16:00"), MinEmployees: 1}, // 7h working
		{Start: MustClock("16:00"), End: MustClock("23:00"), MinEmployees: 1}, // 6.5h working
	}

	settings := DefaultSettings()
	settings.AvoidClopening = false

	scheduler := newTestScheduler(settings)
	shifts, shortages := scheduler.scheduleDay("p1", monday, eligibleOn(monday, roster, nil), blocks)

	assert.Len(t, shifts, 1)
	require.Len(t, shortages, 1)
	assert.Equal(t, MustClock("16:00"), shortages[0].BlockStart)
}
