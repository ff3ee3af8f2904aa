package handler

import (
	"regexp"
	"strings"
	"time"

	"coo-bot/internal/fault"
	"coo-bot/internal/models"
)

const remindUsage = `Использование:
/remind 09:30 mon,wed,fri Проверить почту
/remind 09:30 daily Планёрка
/remind 2026-09-01 15:00 Позвонить юристу
Дни: mon tue wed thu fri sat sun, daily, weekdays`

var (
	timeOfDayPattern = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
	datePattern      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// parseRemind turns /remind arguments into a reminder definition. Two forms
// are accepted: "HH:MM days text" for recurring and "YYYY-MM-DD HH:MM text"
// for one-off reminders.
func parseRemind(args string, ownerID, chatID int64, defaultTimezone string) (*models.ReminderDefinition, error) {
	fields := strings.Fields(args)
	if len(fields) < 3 {
		return nil, fault.Newf(fault.KindValidation, "недостаточно аргументов")
	}

	def := &models.ReminderDefinition{
		OwnerID:  ownerID,
		ChatID:   chatID,
		Timezone: defaultTimezone,
	}

	switch {
	case datePattern.MatchString(fields[0]):
		if !timeOfDayPattern.MatchString(fields[1]) {
			return nil, fault.Newf(fault.KindValidation, "после даты ожидается время в формате HH:MM")
		}
		loc, err := def.Location()
		if err != nil {
			return nil, fault.Newf(fault.KindValidation, "неизвестный часовой пояс %s", def.Timezone)
		}
		fireAt, err := time.ParseInLocation("2006-01-02 15:04", fields[0]+" "+fields[1], loc)
		if err != nil {
			return nil, fault.Newf(fault.KindValidation, "не удалось разобрать дату и время")
		}
		def.FireAt = &fireAt
		def.Text = strings.Join(fields[2:], " ")

	case timeOfDayPattern.MatchString(fields[0]):
		days, err := normalizeDays(fields[1])
		if err != nil {
			return nil, err
		}
		if _, err := time.Parse("15:04", fields[0]); err != nil {
			return nil, fault.Newf(fault.KindValidation, "время должно быть в формате HH:MM")
		}
		def.TimeOfDay = fields[0]
		def.DaysOfWeek = days
		def.Text = strings.Join(fields[2:], " ")

	default:
		return nil, fault.Newf(fault.KindValidation, "первый аргумент должен быть временем HH:MM или датой YYYY-MM-DD")
	}

	if strings.TrimSpace(def.Text) == "" {
		return nil, fault.Newf(fault.KindValidation, "текст напоминания пуст")
	}
	return def, nil
}

// normalizeDays expands shortcuts and validates the weekday list.
func normalizeDays(raw string) (string, error) {
	switch strings.ToLower(raw) {
	case "daily", "every", "everyday":
		return "mon,tue,wed,thu,fri,sat,sun", nil
	case "weekdays":
		return "mon,tue,wed,thu,fri", nil
	}

	known := map[string]bool{
		"mon": true, "tue": true, "wed": true, "thu": true,
		"fri": true, "sat": true, "sun": true,
	}
	parts := strings.Split(strings.ToLower(raw), ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		day := strings.TrimSpace(part)
		if day == "" {
			continue
		}
		if !known[day] {
			return "", fault.Newf(fault.KindValidation, "неизвестный день недели: %s", day)
		}
		cleaned = append(cleaned, day)
	}
	if len(cleaned) == 0 {
		return "", fault.Newf(fault.KindValidation, "не указаны дни недели")
	}
	return strings.Join(cleaned, ","), nil
}
