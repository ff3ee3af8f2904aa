package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"coo-bot/internal/config"
	"coo-bot/internal/fault"
)

// Transcriber turns a voice payload into plain text. It shares the Gemini
// client with the extractor so voice and typed input converge on the same
// downstream path.
type Transcriber struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewTranscriber(extractor *Extractor, cfg *config.AiConfig) *Transcriber {
	model := cfg.TranscribeModel
	if model == "" {
		model = cfg.GeminiModel
	}
	return &Transcriber{
		client:  extractor.client,
		model:   model,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

// Transcribe decodes the audio payload. mimeType is e.g. "audio/ogg" for
// Telegram voice notes.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", fault.Newf(fault.KindValidation, "empty voice payload")
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	contents := []*genai.Content{
		{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: audio}},
				{Text: transcribePrompt},
			},
		},
	}

	resp, err := t.client.Models.GenerateContent(ctx, t.model, contents, nil)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fault.Newf(fault.KindTransient, "transcription timed out after %s", t.timeout)
		}
		return "", fault.New(fault.KindTransient, fmt.Errorf("transcription backend: %w", err))
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fault.Newf(fault.KindTransient, "transcription returned no text")
	}
	return text, nil
}
