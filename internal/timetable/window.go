package timetable

import (
	"fmt"
	"time"
)

// DateFormat is the wire format for calendar dates.
const DateFormat = "2006-01-02"

// lookbackDays is how far behind "today" a served window starts. The
// look-back re-surfaces late-announced cancellations and edits to lessons
// that already took place.
const lookbackDays = 7

// Date is a calendar date without a time component. It is a comparable
// value type so that windows can be compared with ==.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Time returns midnight of the date in the given location.
func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns the date n days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time(time.UTC).AddDate(0, 0, n))
}

func (d Date) String() string {
	return d.Time(time.UTC).Format(DateFormat)
}

// Window is an inclusive date range. Equality is by value, which is what
// the cache keys on.
type Window struct {
	Start Date
	End   Date
}

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.Start, w.End)
}

// ForwardWindow computes the window served for a feed request: from one
// week before today through weeks weeks ahead.
func ForwardWindow(today Date, weeks int) Window {
	return Window{
		Start: today.AddDays(-lookbackDays),
		End:   today.AddDays(weeks * 7),
	}
}
