package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mbctherapy/clinic-dashboard/internal/clinicapi"
)

// NoteTypeTreatmentPlan is the note type counted as an active care plan.
const NoteTypeTreatmentPlan = "Treatment Plan"

// WeekStats counts appointments inside the current Monday-started week.
type WeekStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// WeekSessions counts appointments whose datetime falls inside the week
// containing now. Completed counts the subset with status "completed".
// Appointments with unparseable datetimes are skipped.
func WeekSessions(appts []clinicapi.Appointment, now time.Time) WeekStats {
	start, end := WeekWindow(now)
	var stats WeekStats
	for _, appt := range appts {
		at, err := time.Parse(time.RFC3339, appt.Datetime)
		if err != nil {
			continue
		}
		if at.Before(start) || at.After(end) {
			continue
		}
		stats.Total++
		if appt.Status == "completed" {
			stats.Completed++
		}
	}
	return stats
}

// ActivePlans returns the Treatment Plan notes.
func ActivePlans(notes []clinicapi.Note) []clinicapi.Note {
	var plans []clinicapi.Note
	for _, n := range notes {
		if n.NoteType == NoteTypeTreatmentPlan {
			plans = append(plans, n)
		}
	}
	return plans
}

// PlansEndingThisWeek counts Treatment Plans whose reminder date (the
// review/end date proxy) falls within [today, today+7], by string compare.
func PlansEndingThisWeek(plans []clinicapi.Note, now time.Time) int {
	today := DateString(now)
	nextWeek := DateString(now.AddDate(0, 0, 7))
	count := 0
	for _, p := range plans {
		if p.ReminderDate == "" {
			continue
		}
		if p.ReminderDate >= today && p.ReminderDate <= nextWeek {
			count++
		}
	}
	return count
}

// Session is an appointment shaped for schedule display.
type Session struct {
	ID      string `json:"id"`
	Client  string `json:"client"`
	Time    string `json:"time"`
	Type    string `json:"type"`
	Status  string `json:"status"`
	Doctor  string `json:"doctor"`
	Minutes int    `json:"duration_minutes"`
}

// TodaySessions returns the appointments dated today, with a 12-hour
// display time. Status is shown as "upcoming" regardless of the stored
// value; the stored status only feeds the completed-this-week count.
func TodaySessions(appts []clinicapi.Appointment, now time.Time) []Session {
	today := DateString(now)
	var sessions []Session
	for _, appt := range appts {
		date, clock, ok := splitDatetime(appt.Datetime)
		if !ok || date != today {
			continue
		}
		sessions = append(sessions, Session{
			ID:      appt.ID,
			Client:  appt.Client,
			Time:    displayClock(clock),
			Type:    appt.Purpose,
			Status:  "upcoming",
			Doctor:  appt.Doctor,
			Minutes: appt.Duration,
		})
	}
	return sessions
}

// TodayReminders returns uncompleted notes whose reminder date is today
// and whose reminder time, when set, has not yet passed.
func TodayReminders(notes []clinicapi.Note, now time.Time) []clinicapi.Note {
	today := DateString(now)
	clock := ClockString(now)
	var out []clinicapi.Note
	for _, n := range notes {
		if n.Completed {
			continue
		}
		if n.ReminderDate != today {
			continue
		}
		if n.ReminderTime != "" && n.ReminderTime < clock {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Day is one column of the doctor's weekday strip.
type Day struct {
	Name     string    `json:"name"`
	Date     string    `json:"date"`
	Sessions []Session `json:"sessions"`
}

// WeekdayStrip returns Monday..Friday of the week containing now, each
// carrying that day's appointments sorted by time.
func WeekdayStrip(appts []clinicapi.Appointment, now time.Time) []Day {
	start, _ := WeekWindow(now)
	days := make([]Day, 0, 5)
	for i := 0; i < 5; i++ {
		d := start.AddDate(0, 0, i)
		date := DateString(d)

		type timed struct {
			clock   string
			session Session
		}
		var matched []timed
		for _, appt := range appts {
			apptDate, clock, ok := splitDatetime(appt.Datetime)
			if !ok || apptDate != date {
				continue
			}
			matched = append(matched, timed{clock: clock, session: Session{
				ID:      appt.ID,
				Client:  appt.Client,
				Time:    displayClock(clock),
				Type:    appt.Purpose,
				Status:  appt.Status,
				Doctor:  appt.Doctor,
				Minutes: appt.Duration,
			}})
		}
		sort.Slice(matched, func(a, b int) bool { return matched[a].clock < matched[b].clock })
		sessions := make([]Session, 0, len(matched))
		for _, m := range matched {
			sessions = append(sessions, m.session)
		}

		days = append(days, Day{
			Name:     d.Format("Mon"),
			Date:     date,
			Sessions: sessions,
		})
	}
	return days
}

// FilterByDoctor returns the appointments assigned to the named doctor.
func FilterByDoctor(appts []clinicapi.Appointment, doctor string) []clinicapi.Appointment {
	var mine []clinicapi.Appointment
	for _, a := range appts {
		if a.Doctor == doctor {
			mine = append(mine, a)
		}
	}
	return mine
}

// splitDatetime breaks "2006-01-02T15:04:05Z" into its date and HH:MM
// parts without parsing, preserving the stored wall-clock values.
func splitDatetime(datetime string) (date, clock string, ok bool) {
	parts := strings.SplitN(datetime, "T", 2)
	if len(parts) != 2 || len(parts[1]) < 5 {
		return "", "", false
	}
	return parts[0], parts[1][:5], true
}

// displayClock converts "14:30" to "2:30 PM".
func displayClock(clock string) string {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return clock
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return clock
	}
	ampm := "AM"
	if hour >= 12 {
		ampm = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%s %s", display, parts[1], ampm)
}
