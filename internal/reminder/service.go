// Package reminder maintains persisted reminder definitions and fires due
// ones exactly once per occurrence, surviving restarts and missed ticks.
package reminder

import (
	"context"
	"time"

	"coo-bot/internal/logger"
	"coo-bot/internal/models"
)

// Repository is the persistence surface for definitions.
type Repository interface {
	Create(def *models.ReminderDefinition) error
	ListByOwner(ownerID int64) ([]*models.ReminderDefinition, error)
	ListActive() ([]*models.ReminderDefinition, error)
	Get(ownerID int64, id uint) (*models.ReminderDefinition, error)
	Update(def *models.ReminderDefinition) error
	Delete(ownerID int64, id uint) error
}

// Delivery sends a due reminder to its chat.
type Delivery interface {
	SendReminder(ctx context.Context, chatID int64, text string) error
}

// Service owns the reminder lifecycle and the per-tick due check.
type Service struct {
	repo            Repository
	delivery        Delivery
	defaultTimezone string
	maxFailures     int
}

func NewService(repo Repository, delivery Delivery, defaultTimezone string, maxFailures int) *Service {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	return &Service{
		repo:            repo,
		delivery:        delivery,
		defaultTimezone: defaultTimezone,
		maxFailures:     maxFailures,
	}
}

// Create validates and persists a definition, returning its assigned id.
func (s *Service) Create(def *models.ReminderDefinition) (uint, error) {
	if def.Timezone == "" {
		def.Timezone = s.defaultTimezone
	}
	if err := def.Validate(); err != nil {
		return 0, err
	}
	if err := s.repo.Create(def); err != nil {
		return 0, err
	}
	logger.Infof("Created reminder #%d for owner %d", def.ID, def.OwnerID)
	return def.ID, nil
}

// List returns the owner's definitions in creation order.
func (s *Service) List(ownerID int64) ([]*models.ReminderDefinition, error) {
	return s.repo.ListByOwner(ownerID)
}

// Delete removes one definition, NotFound if absent or foreign.
func (s *Service) Delete(ownerID int64, id uint) error {
	return s.repo.Delete(ownerID, id)
}

// Reactivate clears the suspension left by repeated delivery failures.
func (s *Service) Reactivate(ownerID int64, id uint) error {
	def, err := s.repo.Get(ownerID, id)
	if err != nil {
		return err
	}
	def.Suspended = false
	def.FailureCount = 0
	return s.repo.Update(def)
}

// Tick runs one due check at the given instant. A failing definition never
// blocks the others; its watermark stays untouched so the next tick retries,
// and after maxFailures consecutive failures it is suspended.
func (s *Service) Tick(ctx context.Context, now time.Time) {
	defs, err := s.repo.ListActive()
	if err != nil {
		logger.Errorf("reminder tick: listing definitions failed: %v", err)
		return
	}

	for _, def := range defs {
		occurrence, due, err := isDue(def, now)
		if err != nil {
			logger.Warningf("reminder #%d has an unschedulable definition: %v", def.ID, err)
			continue
		}
		if !due {
			continue
		}

		if err := s.delivery.SendReminder(ctx, def.ChatID, "⏰ "+def.Text); err != nil {
			def.FailureCount++
			logger.Warningf("reminder #%d delivery failed (%d/%d): %v",
				def.ID, def.FailureCount, s.maxFailures, err)
			if def.FailureCount >= s.maxFailures {
				def.Suspended = true
				logger.Errorf("reminder #%d suspended after %d failed deliveries", def.ID, def.FailureCount)
			}
			if err := s.repo.Update(def); err != nil {
				logger.Errorf("reminder #%d state update failed: %v", def.ID, err)
			}
			continue
		}

		if def.FireAt != nil {
			// one-off: gone after its single occurrence
			if err := s.repo.Delete(def.OwnerID, def.ID); err != nil {
				logger.Errorf("reminder #%d cleanup failed: %v", def.ID, err)
			}
			continue
		}

		fired := occurrence
		def.LastFiredAt = &fired
		def.FailureCount = 0
		if err := s.repo.Update(def); err != nil {
			logger.Errorf("reminder #%d watermark update failed: %v", def.ID, err)
		}
	}
}
