// Package agent wraps the Gemini reasoning backend: intent extraction from
// free text and voice transcription. Both are pure adapters; the confirmation
// state machine never sees raw API responses.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"coo-bot/internal/config"
	"coo-bot/internal/fault"
	"coo-bot/internal/models"
)

// Request carries everything the extractor needs for one turn: the message,
// the bounded dialog history and a workspace snapshot summary.
type Request struct {
	Text           string
	History        []string
	Snapshot       string
	AllowMutations bool
}

// Intent is the extractor's tagged result: either a direct answer, or an
// answer plus proposed mutations.
type Intent struct {
	Answer    string
	Mutations []*models.MutationIntent
}

// HasMutations reports whether the intent proposes workspace changes.
func (i *Intent) HasMutations() bool {
	return len(i.Mutations) > 0
}

// Extractor talks to Gemini through the genai SDK.
type Extractor struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewExtractor(ctx context.Context, cfg *config.AiConfig) (*Extractor, error) {
	if cfg.GeminiApiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiApiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Extractor{
		client:  client,
		model:   cfg.GeminiModel,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, nil
}

// Extract runs one reasoning turn. Timeouts and backend failures surface as
// transient faults; a response that violates the JSON envelope is transient
// too, since a retry usually produces a well-formed one.
func (e *Extractor) Extract(ctx context.Context, req Request) (*Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	prompt := buildPrompt(req)
	resp, err := e.client.Models.GenerateContent(ctx, e.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
			Temperature:       genai.Ptr[float32](0.4),
			ResponseMIMEType:  "application/json",
		},
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fault.Newf(fault.KindTransient, "reasoning backend timed out after %s", e.timeout)
		}
		return nil, fault.New(fault.KindTransient, fmt.Errorf("reasoning backend: %w", err))
	}

	intent, err := parsePlan(resp.Text())
	if err != nil {
		return nil, err
	}
	if !req.AllowMutations {
		intent.Mutations = nil
	}
	return intent, nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	if len(req.History) > 0 {
		b.WriteString("Краткая история диалога:\n")
		for _, line := range req.History {
			b.WriteString("- ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Контекст из Notion:\n")
	b.WriteString(req.Snapshot)
	b.WriteString("\n\n")
	if !req.AllowMutations {
		b.WriteString("Изменения Notion сейчас запрещены: список actions должен быть пустым.\n\n")
	}
	b.WriteString("Сообщение владельца:\n")
	b.WriteString(req.Text)
	return b.String()
}

// plan mirrors the JSON envelope the system prompt demands.
type plan struct {
	Reply   string                   `json:"reply"`
	Actions []map[string]interface{} `json:"actions"`
}

var actionKinds = map[string]models.MutationKind{
	"add_task":           models.MutationCreateTask,
	"add_project":        models.MutationCreateProject,
	"update_task_status": models.MutationUpdateTask,
	"create_task":        models.MutationCreateTask,
	"create_project":     models.MutationCreateProject,
}

// parsePlan decodes the model's JSON envelope into an Intent.
func parsePlan(raw string) (*Intent, error) {
	cleaned := stripFences(raw)
	var p plan
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		return nil, fault.Newf(fault.KindTransient, "malformed extractor response: %v", err)
	}

	intent := &Intent{Answer: strings.TrimSpace(p.Reply)}
	if intent.Answer == "" {
		intent.Answer = "Не удалось сформировать ответ."
	}

	for _, action := range p.Actions {
		kindRaw, _ := action["type"].(string)
		kind, ok := actionKinds[kindRaw]
		if !ok {
			return nil, fault.Newf(fault.KindValidation, "extractor proposed unknown action %q", kindRaw)
		}
		fields := make(map[string]string)
		for key, value := range action {
			if key == "type" {
				continue
			}
			if s, ok := value.(string); ok && s != "" {
				fields[key] = s
			}
		}
		intent.Mutations = append(intent.Mutations, &models.MutationIntent{Kind: kind, Fields: fields})
	}
	return intent, nil
}

// stripFences removes a markdown code fence if the model wrapped its JSON.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
