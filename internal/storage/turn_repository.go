package storage

import (
	"coo-bot/internal/models"

	"gorm.io/gorm"
)

// TurnRepository handles database operations for ConversationTurn
type TurnRepository struct {
	db *gorm.DB
}

// NewTurnRepository creates a new TurnRepository
func NewTurnRepository(db *gorm.DB) *TurnRepository {
	return &TurnRepository{db: db}
}

// MigrateTable ensures the ConversationTurn table exists
func (r *TurnRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.ConversationTurn{})
}

// Append stores one turn.
func (r *TurnRepository) Append(turn *models.ConversationTurn) error {
	return r.db.Create(turn).Error
}

// Recent returns the owner's latest turns in chronological order.
func (r *TurnRepository) Recent(ownerID int64, limit int) ([]*models.ConversationTurn, error) {
	var turns []*models.ConversationTurn
	result := r.db.Where("owner_id = ?", ownerID).Order("id desc").Limit(limit).Find(&turns)
	if result.Error != nil {
		return nil, result.Error
	}
	// reverse into chronological order
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// TrimOlder deletes turns beyond the newest keep entries for the owner.
func (r *TurnRepository) TrimOlder(ownerID int64, keep int) error {
	var cutoff models.ConversationTurn
	result := r.db.Where("owner_id = ?", ownerID).Order("id desc").Offset(keep).First(&cutoff)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil
		}
		return result.Error
	}
	return r.db.Where("owner_id = ? AND id <= ?", ownerID, cutoff.ID).Delete(&models.ConversationTurn{}).Error
}
