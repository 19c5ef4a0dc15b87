package schedule

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// CLOCK TIME - Minutes since midnight
// =============================================================================

// ClockTime is a time of day in minutes since midnight. Shift and block
// boundaries never need more than minute precision.
type ClockTime int

// ClockNone marks an absent time (open-ended availability windows).
const ClockNone ClockTime = -1

// ParseClock accepts HH:MM and HH:MM:SS. Anything else fails fast.
func ParseClock(s string) (ClockTime, error) {
	var h, m, sec int
	switch strings.Count(s, ":") {
	case 1:
		if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
			return 0, &MalformedTimeError{Value: s}
		}
	case 2:
		if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
			return 0, &MalformedTimeError{Value: s}
		}
	default:
		return 0, &MalformedTimeError{Value: s}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, &MalformedTimeError{Value: s}
	}
	return ClockTime(h*60 + m), nil
}

// MustClock panics on malformed input. For constants and tests.
func MustClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c ClockTime) String() string {
	if c == ClockNone {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// AddHours adds whole hours, wrapping past midnight.
func (c ClockTime) AddHours(h int) ClockTime {
	return ClockTime((int(c) + h*60) % (24 * 60))
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

func (c *ClockTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*c = ClockNone
		return nil
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// spanMinutes is the gross length of a start..end span. A span that ends at or
// before its start is treated as wrapping past midnight.
func spanMinutes(start, end ClockTime) int {
	m := int(end) - int(start)
	if m < 0 {
		m += 24 * 60
	}
	return m
}

// =============================================================================
// DATE - Calendar day, UTC, no time component
// =============================================================================

const dateLayout = "2006-01-02"

type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD and fails fast on anything else.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, &MalformedDateError{Value: s}
	}
	return Date{t: t}, nil
}

func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) AddDays(n int) Date        { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) Before(other Date) bool    { return d.t.Before(other.t) }
func (d Date) After(other Date) bool     { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool     { return d.t.Equal(other.t) }
func (d Date) Weekday() time.Weekday     { return d.t.Weekday() }
func (d Date) IsZero() bool              { return d.t.IsZero() }
func (d Date) Time() time.Time           { return d.t }
func (d Date) String() string            { return d.t.Format(dateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysBetween returns to minus from in whole days.
func DaysBetween(from, to Date) int {
	return int(to.t.Sub(from.t).Hours() / 24)
}

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

type Period struct {
	Start Date
	End   Date
}

func (p Period) Contains(d Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// Days returns every day in the period, in chronological order.
// A one-week period yields (end-start)+1 = 7 days.
func (p Period) Days() []Date {
	var days []Date
	for d := p.Start; !d.After(p.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// WEEKDAY NAMES - Lowercase names used by both legacy encodings
// =============================================================================

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// weekOrder is monday-first, matching the legacy per-weekday JSON columns.
var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

func ParseWeekday(s string) (time.Weekday, error) {
	d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown day of week %q", s)
	}
	return d, nil
}

func WeekdayName(d time.Weekday) string {
	return strings.ToLower(d.String())
}
