package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"exam-bot/api/internal/llm"
)

// Engine is an alternative completion backend on the Gemini API. It serves
// the same two-message conversation contract as the YandexGPT engine.
type Engine struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, apiKey, model string) (*Engine, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Engine{client: client, model: model}, nil
}

func (e *Engine) Name() string { return "gemini" }

func (e *Engine) Close() error { return e.client.Close() }

func (e *Engine) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	model := e.client.GenerativeModel(e.model)
	model.SetTemperature(float32(opts.Temperature))
	model.SetMaxOutputTokens(int32(opts.MaxTokens))

	var user string
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(m.Text)}}
		case llm.RoleUser:
			user = m.Text
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: no candidates")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("gemini: empty candidate")
	}
	return text, nil
}
