// Package memory provides the bounded conversation history handed to the
// intent extractor. History is explicit: the state machine asks for it per
// request instead of reading ambient state.
package memory

import (
	"fmt"
	"strings"

	"coo-bot/internal/logger"
	"coo-bot/internal/models"
)

// turnStore is the persistence surface memory needs.
type turnStore interface {
	Append(turn *models.ConversationTurn) error
	Recent(ownerID int64, limit int) ([]*models.ConversationTurn, error)
	TrimOlder(ownerID int64, keep int) error
}

// Recorder persists dialog turns and serves the recent window.
type Recorder struct {
	store turnStore
	depth int
}

func NewRecorder(store turnStore, depth int) *Recorder {
	if depth <= 0 {
		depth = 12
	}
	return &Recorder{store: store, depth: depth}
}

const maxTurnLen = 2000

// Record stores one turn, clipped, and trims the tail. Persistence failures
// only degrade context, so they are logged rather than propagated.
func (r *Recorder) Record(ownerID int64, role, content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	if runes := []rune(content); len(runes) > maxTurnLen {
		content = string(runes[:maxTurnLen])
	}
	turn := &models.ConversationTurn{OwnerID: ownerID, Role: role, Content: content}
	if err := r.store.Append(turn); err != nil {
		logger.Warningf("failed to record conversation turn: %v", err)
		return
	}
	if err := r.store.TrimOlder(ownerID, r.depth); err != nil {
		logger.Warningf("failed to trim conversation history: %v", err)
	}
}

// Recent returns the owner's last turns, oldest first, formatted for prompts.
func (r *Recorder) Recent(ownerID int64) []string {
	turns, err := r.store.Recent(ownerID, r.depth)
	if err != nil {
		logger.Warningf("failed to load conversation history: %v", err)
		return nil
	}
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, fmt.Sprintf("%s: %s", t.Role, t.Content))
	}
	return lines
}
