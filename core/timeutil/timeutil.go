// Package timeutil provides day-granular date arithmetic for the planning
// engine. All dates are normalized to midnight UTC so they can be used
// directly as map keys.
package timeutil

import (
	"fmt"
	"time"
)

// DayLayout is the wire format for calendar days.
const DayLayout = "2006-01-02"

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a day in DayLayout.
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return t, nil
}

// MustParseDay parses a day and panics on failure. Intended for tests and
// static fixtures.
func MustParseDay(s string) time.Time {
	t, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// FormatDay renders t in DayLayout.
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// AddDays returns the day n days after t (negative n moves backwards).
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// DayRange returns every day in [start, end] inclusive. Returns nil when
// start is after end.
func DayRange(start, end time.Time) []time.Time {
	start, end = Day(start), Day(end)
	if start.After(end) {
		return nil
	}
	days := make([]time.Time, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// WeekRange splits [start, end] into ISO weeks (Monday start). Weeks at the
// interval boundary are truncated to the interval.
func WeekRange(start, end time.Time) [][]time.Time {
	start, end = Day(start), Day(end)
	if start.After(end) {
		return nil
	}
	var weeks [][]time.Time
	cur := start
	for !cur.After(end) {
		// days remaining until Sunday, inclusive
		offset := 7 - isoWeekday(cur)
		weekEnd := AddDays(cur, offset)
		if weekEnd.After(end) {
			weekEnd = end
		}
		weeks = append(weeks, DayRange(cur, weekEnd))
		cur = AddDays(weekEnd, 1)
	}
	return weeks
}

// isoWeekday maps Monday..Sunday to 1..7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// MonthRange splits [start, end] into calendar months, truncated to the
// interval at both edges.
func MonthRange(start, end time.Time) [][]time.Time {
	start, end = Day(start), Day(end)
	if start.After(end) {
		return nil
	}
	var months [][]time.Time
	cur := start
	for !cur.After(end) {
		firstOfNext := time.Date(cur.Year(), cur.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		monthEnd := firstOfNext.AddDate(0, 0, -1)
		if monthEnd.After(end) {
			monthEnd = end
		}
		months = append(months, DayRange(cur, monthEnd))
		cur = AddDays(monthEnd, 1)
	}
	return months
}

// YearRange returns the calendar years overlapped by [start, end].
func YearRange(start, end time.Time) []int {
	if Day(start).After(Day(end)) {
		return nil
	}
	var years []int
	for y := start.Year(); y <= end.Year(); y++ {
		years = append(years, y)
	}
	return years
}

// DaysInYear returns 365 or 366.
func DaysInYear(year int) int {
	first := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return int(first.AddDate(1, 0, 0).Sub(first).Hours() / 24)
}

// HalfYearRanges splits [start, end] into half-year segments. The split day
// is the round(daysInYear/2)-1:th day of the year, an approximation kept for
// compatibility rather than calendar accuracy.
func HalfYearRanges(start, end time.Time) [][]time.Time {
	start, end = Day(start), Day(end)
	if start.After(end) {
		return nil
	}
	var ranges [][]time.Time
	for _, year := range YearRange(start, end) {
		center := yearCenterDay(year)
		firstStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		secondEnd := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
		if r := clipRange(firstStart, center, start, end); r != nil {
			ranges = append(ranges, r)
		}
		if r := clipRange(AddDays(center, 1), secondEnd, start, end); r != nil {
			ranges = append(ranges, r)
		}
	}
	return ranges
}

// yearCenterDay returns the approximate mid-year day used as the half-year
// boundary.
func yearCenterDay(year int) time.Time {
	half := int(float64(DaysInYear(year))/2.0+0.5) - 1
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, half)
}

// YearRanges splits [start, end] at Jan-1 boundaries, truncated to the
// interval.
func YearRanges(start, end time.Time) [][]time.Time {
	start, end = Day(start), Day(end)
	if start.After(end) {
		return nil
	}
	var ranges [][]time.Time
	for _, year := range YearRange(start, end) {
		first := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		last := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
		if r := clipRange(first, last, start, end); r != nil {
			ranges = append(ranges, r)
		}
	}
	return ranges
}

func clipRange(rangeStart, rangeEnd, clipStart, clipEnd time.Time) []time.Time {
	if rangeStart.Before(clipStart) {
		rangeStart = clipStart
	}
	if rangeEnd.After(clipEnd) {
		rangeEnd = clipEnd
	}
	if rangeStart.After(rangeEnd) {
		return nil
	}
	return DayRange(rangeStart, rangeEnd)
}

// Quarter returns the calendar quarter of t, 1..4.
func Quarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

var weekdayShort = [...]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// WeekdayShort returns the lowercase three-letter weekday name of t.
func WeekdayShort(t time.Time) string {
	return weekdayShort[int(t.Weekday())]
}

// WeekdayShortNames returns all lowercase three-letter weekday names.
func WeekdayShortNames() []string {
	return []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}
}
