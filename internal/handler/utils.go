package handler

import (
	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"coo-bot/internal/logger"
)

// Telegram rejects messages above 4096 chars; clip with a little headroom.
const maxMessageLen = 4000

func clipMessage(text string) string {
	runes := []rune(text)
	if len(runes) > maxMessageLen {
		return string(runes[:maxMessageLen])
	}
	return text
}

// sendText sends a plain text message, logging instead of propagating errors
// so one failed send never aborts update processing.
func sendText(ctx *th.Context, bot *telego.Bot, chatID int64, text string) {
	_, err := bot.SendMessage(ctx.Context(), &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: chatID},
		Text:   clipMessage(text),
	})
	if err != nil {
		logger.Warningf("Failed to send message to chat %d: %v", chatID, err)
	}
}

// sendWithPlanKeyboard sends the staged plan with inline approve/reject buttons.
func sendWithPlanKeyboard(ctx *th.Context, bot *telego.Bot, chatID int64, text string) {
	keyboard := [][]telego.InlineKeyboardButton{
		{
			{Text: "✅ Применить", CallbackData: "plan:approve"},
			{Text: "❌ Отклонить", CallbackData: "plan:reject"},
		},
	}
	_, err := bot.SendMessage(ctx.Context(), &telego.SendMessageParams{
		ChatID:      telego.ChatID{ID: chatID},
		Text:        clipMessage(text),
		ReplyMarkup: &telego.InlineKeyboardMarkup{InlineKeyboard: keyboard},
	})
	if err != nil {
		logger.Warningf("Failed to send plan to chat %d: %v", chatID, err)
	}
}
