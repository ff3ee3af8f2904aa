package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coo-bot/internal/fault"
)

func TestReminderValidateRecurring(t *testing.T) {
	def := ReminderDefinition{
		OwnerID: 1, ChatID: 1, Text: "standup",
		TimeOfDay: "09:30", DaysOfWeek: "mon,wed,fri",
	}
	assert.NoError(t, def.Validate())

	def.TimeOfDay = "9:30am"
	assert.Error(t, def.Validate())

	def.TimeOfDay = "09:30"
	def.DaysOfWeek = "mon,someday"
	assert.Error(t, def.Validate())

	def.DaysOfWeek = ""
	assert.Error(t, def.Validate(), "recurring form requires at least one weekday")
}

func TestReminderValidateOneOff(t *testing.T) {
	at := time.Now().Add(time.Hour)
	def := ReminderDefinition{OwnerID: 1, ChatID: 1, Text: "call", FireAt: &at}
	assert.NoError(t, def.Validate())

	def.TimeOfDay = "09:30"
	err := def.Validate()
	require.Error(t, err, "one-off must not carry recurring fields")
	assert.True(t, fault.Is(err, fault.KindValidation))
}

func TestReminderValidateRequiresText(t *testing.T) {
	def := ReminderDefinition{OwnerID: 1, ChatID: 1, Text: "  ", TimeOfDay: "09:30", DaysOfWeek: "mon"}
	assert.Error(t, def.Validate())
}

func TestReminderValidateUnknownTimezone(t *testing.T) {
	def := ReminderDefinition{
		OwnerID: 1, ChatID: 1, Text: "standup",
		TimeOfDay: "09:30", DaysOfWeek: "mon", Timezone: "Nowhere/Invalid",
	}
	err := def.Validate()
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindValidation))
}

func TestWeekdays(t *testing.T) {
	def := ReminderDefinition{DaysOfWeek: "Mon, WED ,fri"}
	days, err := def.Weekdays()
	require.NoError(t, err)
	assert.Equal(t, map[time.Weekday]bool{
		time.Monday:    true,
		time.Wednesday: true,
		time.Friday:    true,
	}, days)
}

func TestDescribeMarksSuspended(t *testing.T) {
	def := ReminderDefinition{
		ID: 3, Text: "standup", TimeOfDay: "09:30", DaysOfWeek: "mon", Suspended: true,
	}
	assert.Contains(t, def.Describe(), "[приостановлено]")
	assert.Contains(t, def.Describe(), "#3")
}
