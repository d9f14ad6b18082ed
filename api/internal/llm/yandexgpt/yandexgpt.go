package yandexgpt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"exam-bot/api/internal/llm"
	"exam-bot/api/internal/yandexcloud"
)

const completionURL = "https://llm.api.cloud.yandex.net/foundationModels/v1/completion"

type tokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// Engine calls the YandexGPT foundationModels completion API.
type Engine struct {
	iamc     tokenSource
	folderID string
	model    string // e.g. "yandexgpt/latest"
	url      string
	httpc    *http.Client
}

func New(iamc *yandexcloud.IAMClient, folderID, model string) *Engine {
	return &Engine{
		iamc:     iamc,
		folderID: folderID,
		model:    model,
		url:      completionURL,
		httpc:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *Engine) Name() string { return "yandexgpt" }

type completionOptions struct {
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
}

type request struct {
	ModelURI          string            `json:"modelUri"`
	CompletionOptions completionOptions `json:"completionOptions"`
	Messages          []llm.Message     `json:"messages"`
}

type response struct {
	Result *struct {
		Alternatives []struct {
			Message struct {
				Role string `json:"role"`
				Text string `json:"text"`
			} `json:"message"`
			Status string `json:"status,omitempty"`
		} `json:"alternatives,omitempty"`
	} `json:"result,omitempty"`
}

func (e *Engine) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	iamToken, err := e.iamc.Token(ctx)
	if err != nil {
		return "", err
	}

	payload, _ := json.Marshal(request{
		ModelURI: fmt.Sprintf("gpt://%s/%s", e.folderID, e.model),
		CompletionOptions: completionOptions{
			Stream:      false,
			Temperature: opts.Temperature,
			MaxTokens:   opts.MaxTokens,
		},
		Messages: messages,
	})

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+iamToken)
	req.Header.Set("x-folder-id", e.folderID)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// single retry with a fresh IAM token
		e.iamc.Invalidate()
		if iamToken, err = e.iamc.Token(ctx); err != nil {
			return "", err
		}
		req.Header.Set("Authorization", "Bearer "+iamToken)
		req.Body = io.NopCloser(bytes.NewReader(payload))
		resp, err = e.httpc.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()
	}
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("yandexgpt %d: %s", resp.StatusCode, string(x))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Result == nil || len(out.Result.Alternatives) == 0 {
		return "", fmt.Errorf("yandexgpt: no alternatives")
	}
	text := strings.TrimSpace(out.Result.Alternatives[0].Message.Text)
	if text == "" {
		return "", fmt.Errorf("yandexgpt: empty alternative")
	}
	return text, nil
}
