package bot

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"coo-bot/internal/config"
	"coo-bot/internal/logger"
)

// BotService represents the Telegram bot service
type BotService struct {
	Bot     *telego.Bot
	Handler *th.BotHandler
}

// Start starts the bot handler
func (b *BotService) Start() {
	b.Handler.Start()
}

// Stop stops the bot handler
func (b *BotService) Stop() {
	b.Handler.Stop()
}

// Initialize initializes the bot in polling or webhook mode. The returned
// WebhookServer is nil in polling mode.
func Initialize(ctx context.Context, cfg *config.Config) (*BotService, *WebhookServer, error) {
	if cfg.Bot.Token == "" {
		return nil, nil, fmt.Errorf("bot token is required")
	}

	bot, err := telego.NewBot(cfg.Bot.Token, telego.WithDefaultLogger(false, true))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize bot: %w", err)
	}

	botUser, err := bot.GetMe(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get bot info: %w", err)
	}
	logger.Infof("Authorized on account %s", botUser.Username)

	setCommands(ctx, bot)

	// Any previously configured webhook interferes with both modes.
	if err := bot.DeleteWebhook(ctx, &telego.DeleteWebhookParams{}); err != nil {
		return nil, nil, fmt.Errorf("failed to delete existing webhook: %w", err)
	}

	if cfg.Bot.Mode == "webhook" {
		secretToken := "coo_webhook_token_" + cfg.Bot.Token[len(cfg.Bot.Token)-6:]
		bh, server, err := SetupWebhook(ctx, bot,
			cfg.Bot.Webhook.Endpoint, cfg.Bot.Webhook.ListenPort, cfg.Bot.Webhook.DebugPath,
			secretToken, cfg.Bot.Webhook.CertFile, cfg.Bot.Webhook.KeyFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to setup webhook: %w", err)
		}
		return &BotService{Bot: bot, Handler: bh}, server, nil
	}

	updates, err := bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start long polling: %w", err)
	}
	bh, err := th.NewBotHandler(bot, updates)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create bot handler: %w", err)
	}
	return &BotService{Bot: bot, Handler: bh}, nil, nil
}

// setCommands publishes the command menu
func setCommands(ctx context.Context, bot *telego.Bot) {
	commands := []telego.BotCommand{
		{Command: "help", Description: "Список команд"},
		{Command: "myid", Description: "Показать свой user_id"},
		{Command: "unlock", Description: "Открыть доступ к Notion"},
		{Command: "setup", Description: "Подготовить workspace в Notion"},
		{Command: "focus", Description: "Срез по задачам и проектам"},
		{Command: "newtask", Description: "Добавить задачу"},
		{Command: "newproject", Description: "Добавить проект"},
		{Command: "approve", Description: "Применить предложенный план"},
		{Command: "reject", Description: "Отклонить предложенный план"},
		{Command: "remind", Description: "Создать напоминание"},
		{Command: "reminders", Description: "Список напоминаний"},
		{Command: "delreminder", Description: "Удалить напоминание"},
		{Command: "resume", Description: "Возобновить напоминание"},
	}

	err := bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{Commands: commands})
	if err != nil {
		logger.Warningf("Failed to set bot commands: %v", err)
	}
}
