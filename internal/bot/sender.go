package bot

import (
	"context"

	"github.com/mymmrac/telego"
)

// Sender is the outbound delivery gateway used by the reminder scheduler.
type Sender struct {
	bot *telego.Bot
}

func NewSender(bot *telego.Bot) *Sender {
	return &Sender{bot: bot}
}

// SendReminder delivers one reminder text to its chat.
func (s *Sender) SendReminder(ctx context.Context, chatID int64, text string) error {
	_, err := s.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: chatID},
		Text:   text,
	})
	return err
}
