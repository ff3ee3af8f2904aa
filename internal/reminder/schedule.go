package reminder

import (
	"time"

	"coo-bot/internal/models"
)

// latestOccurrence returns the most recent occurrence instant of def at or
// before now. For recurring definitions the time of day is resolved in the
// definition's timezone; the scan walks back at most a week, which always
// contains an occurrence when the weekday set is non-empty.
func latestOccurrence(def *models.ReminderDefinition, now time.Time) (time.Time, bool, error) {
	if def.FireAt != nil {
		if def.FireAt.After(now) {
			return time.Time{}, false, nil
		}
		return *def.FireAt, true, nil
	}

	loc, err := def.Location()
	if err != nil {
		return time.Time{}, false, err
	}
	days, err := def.Weekdays()
	if err != nil {
		return time.Time{}, false, err
	}
	timeOfDay, err := time.Parse("15:04", def.TimeOfDay)
	if err != nil {
		return time.Time{}, false, err
	}

	local := now.In(loc)
	for back := 0; back <= 7; back++ {
		day := local.AddDate(0, 0, -back)
		if !days[day.Weekday()] {
			continue
		}
		occurrence := time.Date(day.Year(), day.Month(), day.Day(),
			timeOfDay.Hour(), timeOfDay.Minute(), 0, 0, loc)
		if occurrence.After(now) {
			// today's slot hasn't arrived yet; keep walking back
			continue
		}
		return occurrence, true, nil
	}
	return time.Time{}, false, nil
}

// isDue reports whether the definition has an unfired occurrence at or before
// now. The LastFiredAt watermark is what makes every occurrence fire at most
// once: an occurrence already covered by the watermark is never due again.
func isDue(def *models.ReminderDefinition, now time.Time) (time.Time, bool, error) {
	occurrence, ok, err := latestOccurrence(def, now)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	if def.LastFiredAt != nil && !def.LastFiredAt.Before(occurrence) {
		return time.Time{}, false, nil
	}
	return occurrence, true, nil
}
