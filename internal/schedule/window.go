// Package schedule contains the pure date-window math behind the dashboard
// aggregates. Every function takes "now" as an argument so views and tests
// share one clock.
//
// Dates and clock times travel as strings ("2006-01-02", "15:04") and are
// ordered by plain string comparison. That is correct only because both
// sides are always zero-padded ISO strings; the formatting helpers here are
// the single source of that format.
package schedule

import "time"

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// DateString formats t as the backend's zero-padded date form.
func DateString(t time.Time) string {
	return t.Format(dateLayout)
}

// ClockString formats t as a zero-padded 24h clock ("09:05").
func ClockString(t time.Time) string {
	return t.Format(clockLayout)
}

// WeekWindow returns the week containing now: Monday 00:00:00.000 through
// Sunday 23:59:59.999 in now's location. Sunday counts as the last day of
// the previous Monday-started week.
func WeekWindow(now time.Time) (start, end time.Time) {
	diff := int(now.Weekday()) - 1
	if now.Weekday() == time.Sunday {
		diff = 6
	}
	start = time.Date(now.Year(), now.Month(), now.Day()-diff, 0, 0, 0, 0, now.Location())
	end = time.Date(start.Year(), start.Month(), start.Day()+6, 23, 59, 59, int(999*time.Millisecond), start.Location())
	return start, end
}
