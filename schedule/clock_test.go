package schedule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-engine/schedule"
)

// =============================================================================
// CLOCK PARSING
// =============================================================================

func TestParseClock_Formats(t *testing.T) {
	// GIVEN: both accepted time formats
	// WHEN: parsing
	// THEN: seconds are discarded, minutes-since-midnight are exact

	c, err := schedule.ParseClock("09:00")
	require.NoError(t, err)
	assert.Equal(t, schedule.ClockTime(9*60), c)

	c, err = schedule.ParseClock("17:30:45")
	require.NoError(t, err)
	assert.Equal(t, schedule.ClockTime(17*60+30), c)

	c, err = schedule.ParseClock("00:00")
	require.NoError(t, err)
	assert.Equal(t, schedule.ClockTime(0), c)
}

func TestParseClock_Malformed(t *testing.T) {
	for _, bad := range []string{"", "9am", "25:00", "12:61", "12", "a:b"} {
		_, err := schedule.ParseClock(bad)
		require.Error(t, err, "input %q", bad)
		assert.ErrorIs(t, err, schedule.ErrMalformedTime)
	}
}

func TestClockTime_String(t *testing.T) {
	assert.Equal(t, "09:05", schedule.MustClock("09:05").String())
	assert.Equal(t, "", schedule.ClockNone.String())
}

func TestClockTime_AddHours_WrapsMidnight(t *testing.T) {
	// 22:00 + 8h = 06:00 next day
	assert.Equal(t, schedule.MustClock("06:00"), schedule.MustClock("22:00").AddHours(8))
}

// =============================================================================
// DATES AND PERIODS
// =============================================================================

func TestParseDate_Malformed(t *testing.T) {
	_, err := schedule.ParseDate("06/02/2025")
	require.Error(t, err)
	assert.ErrorIs(t, err, schedule.ErrMalformedDate)
}

func TestDaysBetween(t *testing.T) {
	a := schedule.MustDate("2025-06-02")
	b := schedule.MustDate("2025-06-09")
	assert.Equal(t, 7, schedule.DaysBetween(a, b))
	assert.Equal(t, -7, schedule.DaysBetween(b, a))
	assert.Equal(t, 0, schedule.DaysBetween(a, a))
}

func TestPeriod_Days_Inclusive(t *testing.T) {
	p := schedule.Period{
		Start: schedule.MustDate("2025-06-02"),
		End:   schedule.MustDate("2025-06-08"),
	}
	days := p.Days()
	require.Len(t, days, 7)
	assert.Equal(t, schedule.MustDate("2025-06-02"), days[0])
	assert.Equal(t, schedule.MustDate("2025-06-08"), days[6])
}

// =============================================================================
// BREAK POLICY
// =============================================================================

func TestBreakMinutes_Policy(t *testing.T) {
	// Break length is a pure function of gross shift length:
	// >=8h -> 60, >=6h -> 30, >=4h -> 15, else 0.
	cases := []struct {
		start, end string
		want       int
	}{
		{"09:00", "17:00", 60}, // exactly 8h
		{"09:00", "19:00", 60}, // 10h
		{"09:00", "15:00", 30}, // exactly 6h
		{"09:00", "14:00", 15}, // 5h is under the 6h threshold
		{"09:00", "13:00", 15}, // exactly 4h
		{"09:00", "12:00", 0},  // 3h
	}
	for _, tc := range cases {
		got := schedule.BreakMinutes(schedule.MustClock(tc.start), schedule.MustClock(tc.end))
		assert.Equal(t, tc.want, got, "%s-%s", tc.start, tc.end)
	}
}

func TestScheduledShift_WorkingHours(t *testing.T) {
	// GIVEN: an 8-hour shift with the mandated 60-minute break
	// THEN: working hours are net of the break
	shift := schedule.ScheduledShift{
		Start:        schedule.MustClock("09:00"),
		End:          schedule.MustClock("17:00"),
		BreakMinutes: 60,
	}
	assert.InDelta(t, 7.0, shift.WorkingHours(), 0.001)
}

func TestScheduledShift_WorkingHours_OvernightSpan(t *testing.T) {
	// A shift that wraps past midnight still has a positive length.
	shift := schedule.ScheduledShift{
		Date:         schedule.MustDate("2025-06-02"),
		Start:        schedule.MustClock("22:00"),
		End:          schedule.MustClock("06:00"),
		BreakMinutes: 60,
	}
	assert.InDelta(t, 7.0, shift.WorkingHours(), 0.001)
}

func TestScheduledShift_Overlaps(t *testing.T) {
	day := schedule.MustDate("2025-06-02")
	a := schedule.ScheduledShift{Date: day, Start: schedule.MustClock("09:00"), End: schedule.MustClock("17:00")}
	b := schedule.ScheduledShift{Date: day, Start: schedule.MustClock("16:00"), End: schedule.MustClock("22:00")}
	c := schedule.ScheduledShift{Date: day, Start: schedule.MustClock("17:00"), End: schedule.MustClock("22:00")}
	other := schedule.ScheduledShift{Date: day.AddDays(1), Start: schedule.MustClock("09:00"), End: schedule.MustClock("17:00")}

	assert.True(t, a.Overlaps(b))
	assert.False(t, a.Overlaps(c), "touching boundaries do not overlap")
	assert.False(t, a.Overlaps(other), "different dates never overlap")
}
