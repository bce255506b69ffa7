package reminder

import (
	"fmt"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Reminder mirrors a record in the remote reminder store. Everything except
// Completed is read-only to this daemon; Category and Priority are display
// metadata the scheduling logic never looks at.
type Reminder struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Date      string `json:"date"`           // calendar date, local zone
	Time      string `json:"time,omitempty"` // optional HH:MM; empty means all-day
	Completed bool   `json:"completed"`
	Category  string `json:"category,omitempty"`
	Priority  string `json:"priority,omitempty"`
}

// AllDay reports whether the reminder has no clock time.
func (r Reminder) AllDay() bool { return r.Time == "" }

// TimeKey identifies a reminder's schedule. It changes whenever the user
// edits the date or time, which is what invalidates tracked notification
// state for the reminder.
func (r Reminder) TimeKey() string { return r.Date + "T" + r.Time }

// DueTime composes the reminder's due instant in loc. All-day reminders are
// due at midnight of their date.
func (r Reminder) DueTime(loc *time.Location) (time.Time, error) {
	return DueTime(r.Date, r.Time, loc)
}

// DueTime parses date (2006-01-02) and an optional clock time (15:04) into an
// instant in loc. The date is interpreted in loc, never UTC-shifted, so a
// reminder for "2026-09-01 09:00" means 9am on the user's wall clock.
func DueTime(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reminder date %q: %w", date, err)
	}
	if clock == "" {
		return d, nil
	}
	t, err := time.ParseInLocation(TimeLayout, clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reminder time %q: %w", clock, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
