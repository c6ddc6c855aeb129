package models

import "time"

const DateLayout = "2006-01-02"

// DateRange is a closed interval of calendar dates. Both ends are inclusive.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange truncates both bounds to UTC calendar dates.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: TruncateToDate(start), End: TruncateToDate(end)}
}

// Valid reports whether the range ends strictly after it starts.
func (r DateRange) Valid() bool {
	return r.Start.Before(r.End)
}

// Overlaps uses closed-interval semantics: a range ending on the day another
// starts is a conflict.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.Start.After(other.End) && !other.Start.After(r.End)
}

// TruncateToDate drops the time-of-day component, keeping the calendar date
// as observed in the value's own location.
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
