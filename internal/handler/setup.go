package handler

import (
	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"coo-bot/internal/agent"
	"coo-bot/internal/assistant"
	"coo-bot/internal/config"
	"coo-bot/internal/notion"
	"coo-bot/internal/reminder"
)

var (
	globalConfig *config.Config
	asst         *assistant.Assistant
	reminders    *reminder.Service
	transcriber  *agent.Transcriber
	workspace    *notion.Client
	unlocked     = newUnlockList()
)

// Initialize wires the handler package to its collaborators
func Initialize(cfg *config.Config, a *assistant.Assistant, r *reminder.Service, t *agent.Transcriber, w *notion.Client) {
	globalConfig = cfg
	asst = a
	reminders = r
	transcriber = t
	workspace = w
}

// SetupMessageHandlers configures all bot message and update handlers
func SetupMessageHandlers(bh *th.BotHandler, bot *telego.Bot) {
	bh.HandleMessage(func(ctx *th.Context, message telego.Message) error {
		if message.From == nil || message.From.IsBot {
			return nil
		}
		if !guardUser(ctx, bot, message.From.ID, message.Chat.ID) {
			return nil
		}

		ok, err := handleCommand(ctx, bot, message)
		if ok {
			return err
		}

		if message.Voice != nil {
			return handleVoiceMessage(ctx, bot, message)
		}
		return handleTextMessage(ctx, bot, message)
	})

	bh.HandleCallbackQuery(func(ctx *th.Context, query telego.CallbackQuery) error {
		return HandleCallbackQuery(ctx, bot, query)
	})
}
