package models

import "time"

// turn roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is one persisted message of the dialog, used to build the
// bounded history handed to the intent extractor.
type ConversationTurn struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time

	OwnerID int64  `gorm:"index"`
	Role    string `gorm:"size:16"`
	Content string
}
