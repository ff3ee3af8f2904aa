package handler

import (
	"sync"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"coo-bot/internal/logger"
)

// unlockList tracks users who passed the Notion access phrase.
type unlockList struct {
	mu    sync.RWMutex
	users map[int64]bool
}

func newUnlockList() *unlockList {
	return &unlockList{users: make(map[int64]bool)}
}

func (u *unlockList) Add(userID int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.users[userID] = true
}

func (u *unlockList) Has(userID int64) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.users[userID]
}

// guardUser enforces the allow-list before anything else runs. An empty
// allow-list permits everyone (single-tester setups).
func guardUser(ctx *th.Context, bot *telego.Bot, userID, chatID int64) bool {
	if allowedUser(userID) {
		return true
	}
	logger.Warningf("Blocked user_id=%d", userID)
	sendText(ctx, bot, chatID, "Доступ запрещён.")
	return false
}

// notionAllowed reports whether the user may touch the workspace: either no
// access phrase is configured, or the user has passed /unlock.
func notionAllowed(userID int64) bool {
	if globalConfig.Notion.AccessPhrase == "" {
		return true
	}
	return unlocked.Has(userID)
}

// guardNotion sends the unlock hint when workspace access is still locked.
func guardNotion(ctx *th.Context, bot *telego.Bot, userID, chatID int64) bool {
	if notionAllowed(userID) {
		return true
	}
	sendText(ctx, bot, chatID, "Сначала /unlock <секретная фраза>.")
	return false
}
