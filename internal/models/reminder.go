package models

import (
	"fmt"
	"strings"
	"time"

	"coo-bot/internal/fault"
)

// ReminderDefinition is a persisted reminder. Recurring definitions carry a
// local time of day plus a day-of-week set; one-off definitions carry a single
// FireAt instant. Only LastFiredAt, FailureCount and Suspended mutate after
// creation.
type ReminderDefinition struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	OwnerID int64 `gorm:"index"`
	ChatID  int64
	Text    string

	TimeOfDay  string `gorm:"size:5"`  // "15:04", recurring only
	DaysOfWeek string `gorm:"size:32"` // comma-separated: "mon,wed,fri"
	FireAt     *time.Time
	Timezone   string `gorm:"size:64"`

	LastFiredAt  *time.Time
	FailureCount int
	Suspended    bool
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// IsRecurring reports whether this definition repeats.
func (r *ReminderDefinition) IsRecurring() bool {
	return r.FireAt == nil
}

// Weekdays parses the day-of-week set.
func (r *ReminderDefinition) Weekdays() (map[time.Weekday]bool, error) {
	days := make(map[time.Weekday]bool)
	for _, name := range strings.Split(r.DaysOfWeek, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		day, ok := weekdayNames[name]
		if !ok {
			return nil, fault.Newf(fault.KindValidation, "unknown weekday %q", name)
		}
		days[day] = true
	}
	return days, nil
}

// Location resolves the definition's timezone.
func (r *ReminderDefinition) Location() (*time.Location, error) {
	if r.Timezone == "" || r.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fault.Newf(fault.KindValidation, "unknown timezone %q", r.Timezone)
	}
	return loc, nil
}

// Validate enforces the creation-time schema: exactly one of the recurring
// form (time of day + non-empty weekday set) or the one-off form (FireAt).
func (r *ReminderDefinition) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return fault.Newf(fault.KindValidation, "reminder text is required")
	}
	if r.FireAt != nil {
		if r.TimeOfDay != "" || r.DaysOfWeek != "" {
			return fault.Newf(fault.KindValidation, "one-off reminder must not set time_of_day or days_of_week")
		}
		return nil
	}
	if r.TimeOfDay == "" {
		return fault.Newf(fault.KindValidation, "recurring reminder requires time_of_day")
	}
	if _, err := time.Parse("15:04", r.TimeOfDay); err != nil {
		return fault.Newf(fault.KindValidation, "time_of_day must be HH:MM, got %q", r.TimeOfDay)
	}
	days, err := r.Weekdays()
	if err != nil {
		return err
	}
	if len(days) == 0 {
		return fault.Newf(fault.KindValidation, "recurring reminder requires at least one weekday")
	}
	if _, err := r.Location(); err != nil {
		return err
	}
	return nil
}

// Describe renders the definition for /reminders listings.
func (r *ReminderDefinition) Describe() string {
	state := ""
	if r.Suspended {
		state = " [приостановлено]"
	}
	if r.FireAt != nil {
		loc, err := r.Location()
		if err != nil {
			loc = time.Local
		}
		return fmt.Sprintf("#%d %s — %s%s", r.ID, r.FireAt.In(loc).Format("2006-01-02 15:04"), r.Text, state)
	}
	return fmt.Sprintf("#%d %s %s — %s%s", r.ID, r.TimeOfDay, r.DaysOfWeek, r.Text, state)
}
