package store

import "time"

// TimeRange is an inclusive date-bounded filter: a record matches when
// Start <= t <= End. The canonical range constructors below bake in the exact
// boundary policy the dashboard and reports depend on: day and week ranges
// stop one instant short of the next period's midnight, while month and year
// ranges end at 23:59:59.999 of their last day.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range, bounds included.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Today covers [midnight, next midnight). A sale stamped exactly at the next
// midnight belongs to tomorrow.
func Today(now time.Time) TimeRange {
	start := midnight(now)
	return TimeRange{Start: start, End: start.AddDate(0, 0, 1).Add(-time.Nanosecond)}
}

// ThisWeek covers [midnight of the most recent Sunday, +7 days).
func ThisWeek(now time.Time) TimeRange {
	start := midnight(now).AddDate(0, 0, -int(now.Weekday()))
	return TimeRange{Start: start, End: start.AddDate(0, 0, 7).Add(-time.Nanosecond)}
}

// ThisMonth covers the first of the month through 23:59:59.999 of its last day.
func ThisMonth(now time.Time) TimeRange {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return TimeRange{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Millisecond)}
}

// ThisYear covers Jan 1 00:00 through Dec 31 23:59:59.999.
func ThisYear(now time.Time) TimeRange {
	start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	return TimeRange{Start: start, End: start.AddDate(1, 0, 0).Add(-time.Millisecond)}
}

// Between builds a report range from two calendar dates: midnight of start
// through 23:59:59.999 of end.
func Between(start, end time.Time) TimeRange {
	return TimeRange{
		Start: midnight(start),
		End:   midnight(end).AddDate(0, 0, 1).Add(-time.Millisecond),
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
