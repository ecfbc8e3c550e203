// Package window computes calendar-week and rolling time windows in local time.
//
// Day and week boundaries come from the calendar fields of now's location, so a
// week always resets at local midnight regardless of the UTC offset.
package window

import (
	"fmt"
	"time"
)

// Day is the fixed length used for rolling windows and calendar-week ends.
const Day = 24 * time.Hour

// DefaultWeekStartDay is Monday.
const DefaultWeekStartDay = time.Monday

// Range is the half-open interval [Start, End).
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls in [Start, End).
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// ContainsInclusive reports whether t falls in [Start, End]. The rolling
// reflection cache is matched against both ends of its window.
func (r Range) ContainsInclusive(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Shift moves both ends by d.
func (r Range) Shift(d time.Duration) Range {
	return Range{Start: r.Start.Add(d), End: r.End.Add(d)}
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
}

// NormalizeWeekStart maps out-of-range values onto [0,6].
func NormalizeWeekStart(day int) time.Weekday {
	return time.Weekday(((day % 7) + 7) % 7)
}

// StartOfDay truncates now to local midnight.
func StartOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// StartOfWeek returns local midnight of the most recent weekStart on or before now.
func StartOfWeek(now time.Time, weekStart time.Weekday) time.Time {
	diff := (int(now.Weekday()) - int(weekStart) + 7) % 7
	return StartOfDay(now).AddDate(0, 0, -diff)
}

// CurrentWeek is [StartOfWeek, StartOfWeek + 7 days).
func CurrentWeek(now time.Time, weekStart time.Weekday) Range {
	start := StartOfWeek(now, weekStart)
	return Range{Start: start, End: start.Add(7 * Day)}
}

// PreviousWeek is CurrentWeek shifted back by exactly seven days.
func PreviousWeek(now time.Time, weekStart time.Weekday) Range {
	return CurrentWeek(now, weekStart).Shift(-7 * Day)
}

// Rolling is [now - days, now].
func Rolling(days int, now time.Time) Range {
	return Range{Start: now.Add(-time.Duration(days) * Day), End: now}
}

// LastDayOfWeek returns the weekday that closes a week starting on weekStart.
func LastDayOfWeek(weekStart time.Weekday) time.Weekday {
	return (weekStart + 6) % 7
}

// IsLastDayOfWeek reports whether now falls on the closing day of its week.
func IsLastDayOfWeek(now time.Time, weekStart time.Weekday) bool {
	return now.Weekday() == LastDayOfWeek(weekStart)
}

// StartOfLastDay returns local midnight of the closing day of now's week.
func StartOfLastDay(now time.Time, weekStart time.Weekday) time.Time {
	return StartOfWeek(now, weekStart).AddDate(0, 0, 6)
}

// WeekID labels a week by the ISO week of its start, e.g. "2024-W10".
func WeekID(weekStart time.Time) string {
	y, w := weekStart.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", y, w)
}

// ISO formats t as a UTC timestamp with millisecond precision.
func ISO(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// DaysIn splits r into consecutive local days, starting at r.Start's midnight.
func DaysIn(r Range) []time.Time {
	var days []time.Time
	for d := StartOfDay(r.Start); d.Before(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
