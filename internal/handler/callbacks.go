package handler

import (
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"coo-bot/internal/logger"
)

// HandleCallbackQuery processes the approve/reject buttons attached to staged
// plans. The callback is always answered so the client stops its spinner.
func HandleCallbackQuery(ctx *th.Context, bot *telego.Bot, query telego.CallbackQuery) error {
	if !strings.HasPrefix(query.Data, "plan:") {
		return nil
	}

	userID := query.From.ID
	if !allowedUser(userID) {
		answerCallback(ctx, bot, query.ID, "Доступ запрещён.")
		return nil
	}

	var result string
	switch query.Data {
	case "plan:approve":
		if !notionAllowed(userID) {
			result = "Сначала /unlock <секретная фраза>."
		} else {
			result = asst.Approve(ctx.Context(), userID)
		}
	case "plan:reject":
		result = asst.Reject(userID)
	default:
		logger.Warningf("Unknown plan callback data: %s", query.Data)
		answerCallback(ctx, bot, query.ID, "")
		return nil
	}

	answerCallback(ctx, bot, query.ID, "")

	message, ok := query.Message.(*telego.Message)
	if !ok {
		logger.Warningf("Plan callback without accessible message, user_id=%d", userID)
		return nil
	}

	// Drop the buttons so a settled plan cannot be clicked again.
	_, err := bot.EditMessageReplyMarkup(ctx.Context(), &telego.EditMessageReplyMarkupParams{
		ChatID:      telego.ChatID{ID: message.Chat.ID},
		MessageID:   message.MessageID,
		ReplyMarkup: &telego.InlineKeyboardMarkup{},
	})
	if err != nil {
		logger.Debugf("Failed to clear plan keyboard in chat %d: %v", message.Chat.ID, err)
	}

	sendText(ctx, bot, message.Chat.ID, result)
	return nil
}

func answerCallback(ctx *th.Context, bot *telego.Bot, queryID, text string) {
	err := bot.AnswerCallbackQuery(ctx.Context(), &telego.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
	})
	if err != nil {
		logger.Warningf("Failed to answer callback query: %v", err)
	}
}

// allowedUser mirrors guardUser without sending a chat reply; callbacks answer
// through the query instead.
func allowedUser(userID int64) bool {
	allowed := globalConfig.Bot.AllowedUserIDs
	if len(allowed) == 0 {
		return true
	}
	for _, id := range allowed {
		if id == userID {
			return true
		}
	}
	return false
}
