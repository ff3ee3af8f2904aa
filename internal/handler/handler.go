package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"coo-bot/internal/logger"
)

// handleTextMessage routes free-form text through the assistant. Typed and
// transcribed input share this path.
func handleTextMessage(ctx *th.Context, bot *telego.Bot, message telego.Message) error {
	text := strings.TrimSpace(message.Text)
	if text == "" {
		return nil
	}
	return processUserInput(ctx, bot, message, text)
}

// handleVoiceMessage transcribes a voice note and feeds the transcript into
// the same path as typed text.
func handleVoiceMessage(ctx *th.Context, bot *telego.Bot, message telego.Message) error {
	sendText(ctx, bot, message.Chat.ID, "Принял голосовое. Распознаю...")

	audio, err := downloadVoice(ctx.Context(), bot, message.Voice.FileID)
	if err != nil {
		logger.Warningf("Voice download failed for chat %d: %v", message.Chat.ID, err)
		sendText(ctx, bot, message.Chat.ID, "Не удалось получить голосовое. Попробуй ещё раз.")
		return nil
	}

	transcript, err := transcriber.Transcribe(ctx.Context(), audio, "audio/ogg")
	if err != nil {
		logger.Warningf("Transcription failed for chat %d: %v", message.Chat.ID, err)
		sendText(ctx, bot, message.Chat.ID, "Не удалось распознать голосовое. Попробуй ещё раз.")
		return nil
	}

	preview := transcript
	if len([]rune(preview)) > 800 {
		preview = string([]rune(preview)[:800])
	}
	sendText(ctx, bot, message.Chat.ID, "Распознал: "+preview)

	return processUserInput(ctx, bot, message, transcript)
}

// processUserInput runs one assistant turn and sends the reply, attaching the
// approve/reject keyboard when a plan was staged.
func processUserInput(ctx *th.Context, bot *telego.Bot, message telego.Message, text string) error {
	ownerID := message.From.ID
	reply := asst.HandleMessage(ctx.Context(), ownerID, message.Chat.ID, text, notionAllowed(ownerID))

	if asst.HasPending(ownerID) {
		sendWithPlanKeyboard(ctx, bot, message.Chat.ID, reply)
	} else {
		sendText(ctx, bot, message.Chat.ID, reply)
	}
	return nil
}

var voiceHTTPClient = &http.Client{Timeout: 30 * time.Second}

// downloadVoice fetches the raw voice payload from Telegram's file API.
func downloadVoice(ctx context.Context, bot *telego.Bot, fileID string) ([]byte, error) {
	file, err := bot.GetFile(ctx, &telego.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bot.FileDownloadURL(file.FilePath), nil)
	if err != nil {
		return nil, err
	}
	resp, err := voiceHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
