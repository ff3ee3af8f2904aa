package storage

import (
	"errors"

	"coo-bot/internal/fault"
	"coo-bot/internal/models"

	"gorm.io/gorm"
)

// ReminderRepository handles database operations for ReminderDefinition
type ReminderRepository struct {
	db *gorm.DB
}

// NewReminderRepository creates a new ReminderRepository
func NewReminderRepository(db *gorm.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// MigrateTable ensures the ReminderDefinition table exists
func (r *ReminderRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.ReminderDefinition{})
}

// Create persists a new definition and fills in its ID.
func (r *ReminderRepository) Create(def *models.ReminderDefinition) error {
	return r.db.Create(def).Error
}

// ListByOwner returns the owner's definitions in creation order.
func (r *ReminderRepository) ListByOwner(ownerID int64) ([]*models.ReminderDefinition, error) {
	var defs []*models.ReminderDefinition
	result := r.db.Where("owner_id = ?", ownerID).Order("id asc").Find(&defs)
	return defs, result.Error
}

// ListActive returns every non-suspended definition across owners.
func (r *ReminderRepository) ListActive() ([]*models.ReminderDefinition, error) {
	var defs []*models.ReminderDefinition
	result := r.db.Where("suspended = ?", false).Order("id asc").Find(&defs)
	return defs, result.Error
}

// Get fetches one definition scoped to its owner.
func (r *ReminderRepository) Get(ownerID int64, id uint) (*models.ReminderDefinition, error) {
	var def models.ReminderDefinition
	result := r.db.Where("owner_id = ? AND id = ?", ownerID, id).First(&def)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fault.Newf(fault.KindNotFound, "reminder %d not found", id)
		}
		return nil, result.Error
	}
	return &def, nil
}

// Update saves mutated scheduling state (last fire, failures, suspension).
func (r *ReminderRepository) Update(def *models.ReminderDefinition) error {
	return r.db.Save(def).Error
}

// Delete removes a definition; NotFound if absent or owned by another user.
func (r *ReminderRepository) Delete(ownerID int64, id uint) error {
	result := r.db.Where("owner_id = ? AND id = ?", ownerID, id).Delete(&models.ReminderDefinition{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fault.Newf(fault.KindNotFound, "reminder %d not found", id)
	}
	return nil
}
