package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"coo-bot/internal/agent"
	"coo-bot/internal/config"
)

func main() {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		panic("GEMINI_API_KEY not set")
	}

	if len(os.Args) < 2 {
		panic("Usage: ./intent-test <message>")
	}

	message := os.Args[1]

	ctx := context.Background()
	extractor, err := agent.NewExtractor(ctx, &config.AiConfig{
		GeminiApiKey:   apiKey,
		GeminiModel:    "gemini-2.0-flash",
		TimeoutSeconds: 30,
	})
	if err != nil {
		panic(err)
	}

	intent, err := extractor.Extract(ctx, agent.Request{
		Text:           message,
		Snapshot:       "Snapshot недоступен (тестовый запуск).",
		AllowMutations: true,
	})
	if err != nil {
		panic(err)
	}

	fmt.Println("reply:", intent.Answer)
	for i, mutation := range intent.Mutations {
		fields, _ := json.Marshal(mutation.Fields)
		fmt.Printf("action %d: %s %s\n", i+1, mutation.Kind, fields)
	}
}
