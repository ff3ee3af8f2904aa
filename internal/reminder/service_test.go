package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coo-bot/internal/fault"
	"coo-bot/internal/models"
)

type memoryRepo struct {
	nextID uint
	defs   map[uint]*models.ReminderDefinition
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, defs: make(map[uint]*models.ReminderDefinition)}
}

func (r *memoryRepo) Create(def *models.ReminderDefinition) error {
	def.ID = r.nextID
	r.nextID++
	r.defs[def.ID] = def
	return nil
}

func (r *memoryRepo) ListByOwner(ownerID int64) ([]*models.ReminderDefinition, error) {
	var out []*models.ReminderDefinition
	for id := uint(1); id < r.nextID; id++ {
		if def, ok := r.defs[id]; ok && def.OwnerID == ownerID {
			out = append(out, def)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListActive() ([]*models.ReminderDefinition, error) {
	var out []*models.ReminderDefinition
	for id := uint(1); id < r.nextID; id++ {
		if def, ok := r.defs[id]; ok && !def.Suspended {
			out = append(out, def)
		}
	}
	return out, nil
}

func (r *memoryRepo) Get(ownerID int64, id uint) (*models.ReminderDefinition, error) {
	def, ok := r.defs[id]
	if !ok || def.OwnerID != ownerID {
		return nil, fault.Newf(fault.KindNotFound, "reminder %d not found", id)
	}
	return def, nil
}

func (r *memoryRepo) Update(def *models.ReminderDefinition) error {
	r.defs[def.ID] = def
	return nil
}

func (r *memoryRepo) Delete(ownerID int64, id uint) error {
	def, ok := r.defs[id]
	if !ok || def.OwnerID != ownerID {
		return fault.Newf(fault.KindNotFound, "reminder %d not found", id)
	}
	delete(r.defs, id)
	return nil
}

type recordingDelivery struct {
	sent    []string
	failFor map[int64]error
}

func (d *recordingDelivery) SendReminder(_ context.Context, chatID int64, text string) error {
	if err, ok := d.failFor[chatID]; ok {
		return err
	}
	d.sent = append(d.sent, text)
	return nil
}

func TestCreateValidatesDefinition(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &recordingDelivery{}, "UTC", 5)

	id, err := svc.Create(&models.ReminderDefinition{
		OwnerID: 1, ChatID: 1, Text: "standup",
		TimeOfDay: "09:30", DaysOfWeek: "mon,wed",
	})
	require.NoError(t, err)
	assert.Equal(t, uint(1), id)

	// neither recurring nor one-off form
	_, err = svc.Create(&models.ReminderDefinition{OwnerID: 1, ChatID: 1, Text: "broken"})
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindValidation))

	// both forms at once
	at := wednesday
	_, err = svc.Create(&models.ReminderDefinition{
		OwnerID: 1, ChatID: 1, Text: "broken",
		TimeOfDay: "09:30", DaysOfWeek: "mon", FireAt: &at,
	})
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindValidation))
}

func TestCreateAppliesDefaultTimezone(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &recordingDelivery{}, "Europe/Moscow", 5)

	def := &models.ReminderDefinition{
		OwnerID: 1, ChatID: 1, Text: "standup",
		TimeOfDay: "09:30", DaysOfWeek: "mon",
	}
	_, err := svc.Create(def)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Moscow", def.Timezone)
}

func TestTickFiresOneOffOnceAndDeletesIt(t *testing.T) {
	repo := newMemoryRepo()
	delivery := &recordingDelivery{}
	svc := NewService(repo, delivery, "UTC", 5)

	at := wednesday.Add(-time.Hour)
	_, err := svc.Create(&models.ReminderDefinition{OwnerID: 1, ChatID: 10, Text: "call", FireAt: &at})
	require.NoError(t, err)

	svc.Tick(context.Background(), wednesday)
	require.Equal(t, []string{"⏰ call"}, delivery.sent)
	assert.Empty(t, repo.defs, "one-off is deleted after delivery")

	svc.Tick(context.Background(), wednesday.Add(time.Minute))
	assert.Len(t, delivery.sent, 1)
}

func TestTickFiresRecurringOncePerOccurrence(t *testing.T) {
	repo := newMemoryRepo()
	delivery := &recordingDelivery{}
	svc := NewService(repo, delivery, "UTC", 5)

	_, err := svc.Create(&models.ReminderDefinition{
		OwnerID: 1, ChatID: 10, Text: "standup",
		TimeOfDay: "09:30", DaysOfWeek: "wed", Timezone: "UTC",
	})
	require.NoError(t, err)

	// several ticks inside the same occurrence window fire exactly once
	svc.Tick(context.Background(), wednesday)
	svc.Tick(context.Background(), wednesday.Add(30*time.Second))
	svc.Tick(context.Background(), wednesday.Add(time.Hour))
	assert.Len(t, delivery.sent, 1)

	// next week's occurrence fires again
	svc.Tick(context.Background(), wednesday.AddDate(0, 0, 7))
	assert.Len(t, delivery.sent, 2)
}

func TestTickCatchesUpMissedOccurrence(t *testing.T) {
	repo := newMemoryRepo()
	delivery := &recordingDelivery{}
	svc := NewService(repo, delivery, "UTC", 5)

	def := &models.ReminderDefinition{
		OwnerID: 1, ChatID: 10, Text: "standup",
		TimeOfDay: "09:30", DaysOfWeek: "wed", Timezone: "UTC",
	}
	_, err := svc.Create(def)
	require.NoError(t, err)

	// first tick happens hours after the slot, as after a restart
	svc.Tick(context.Background(), wednesday.Add(6*time.Hour))
	require.Len(t, delivery.sent, 1)

	// the watermark records the occurrence instant, not the delivery instant
	require.NotNil(t, def.LastFiredAt)
	assert.Equal(t, time.Date(2026, 8, 26, 9, 30, 0, 0, time.UTC), *def.LastFiredAt)
}

func TestTickFailureIsolationAndSuspension(t *testing.T) {
	repo := newMemoryRepo()
	delivery := &recordingDelivery{failFor: map[int64]error{10: errors.New("chat blocked")}}
	svc := NewService(repo, delivery, "UTC", 3)

	broken := &models.ReminderDefinition{
		OwnerID: 1, ChatID: 10, Text: "broken",
		TimeOfDay: "09:30", DaysOfWeek: "wed", Timezone: "UTC",
	}
	healthy := &models.ReminderDefinition{
		OwnerID: 1, ChatID: 20, Text: "healthy",
		TimeOfDay: "09:30", DaysOfWeek: "wed", Timezone: "UTC",
	}
	_, err := svc.Create(broken)
	require.NoError(t, err)
	_, err = svc.Create(healthy)
	require.NoError(t, err)

	// a failing definition never blocks the healthy one
	svc.Tick(context.Background(), wednesday)
	assert.Equal(t, []string{"⏰ healthy"}, delivery.sent)
	assert.Equal(t, 1, broken.FailureCount)
	assert.Nil(t, broken.LastFiredAt, "failed delivery leaves the watermark untouched")

	// failures accumulate across ticks until suspension
	svc.Tick(context.Background(), wednesday.Add(time.Minute))
	svc.Tick(context.Background(), wednesday.Add(2*time.Minute))
	assert.True(t, broken.Suspended)
	assert.Equal(t, 3, broken.FailureCount)

	// suspended definitions are skipped entirely
	svc.Tick(context.Background(), wednesday.Add(3*time.Minute))
	assert.Equal(t, 3, broken.FailureCount)
}

func TestReactivateClearsSuspension(t *testing.T) {
	repo := newMemoryRepo()
	delivery := &recordingDelivery{failFor: map[int64]error{10: errors.New("chat blocked")}}
	svc := NewService(repo, delivery, "UTC", 1)

	def := &models.ReminderDefinition{
		OwnerID: 1, ChatID: 10, Text: "standup",
		TimeOfDay: "09:30", DaysOfWeek: "wed", Timezone: "UTC",
	}
	_, err := svc.Create(def)
	require.NoError(t, err)

	svc.Tick(context.Background(), wednesday)
	require.True(t, def.Suspended)

	require.NoError(t, svc.Reactivate(1, def.ID))
	assert.False(t, def.Suspended)
	assert.Equal(t, 0, def.FailureCount)

	delete(delivery.failFor, 10)
	svc.Tick(context.Background(), wednesday.Add(time.Minute))
	assert.Equal(t, []string{"⏰ standup"}, delivery.sent)
}

func TestDeleteScopedToOwner(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &recordingDelivery{}, "UTC", 5)

	def := &models.ReminderDefinition{
		OwnerID: 1, ChatID: 1, Text: "standup",
		TimeOfDay: "09:30", DaysOfWeek: "wed",
	}
	id, err := svc.Create(def)
	require.NoError(t, err)

	err = svc.Delete(2, id)
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindNotFound))

	require.NoError(t, svc.Delete(1, id))
}
