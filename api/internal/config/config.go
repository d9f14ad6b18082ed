package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`
	// WebhookURL is the public base URL (e.g. https://<app>.koyeb.app).
	// Empty means long polling.
	WebhookURL string `env:"WEBHOOK_URL"`

	TelegramBotToken string `env:"TG_BOT_TOKEN,required,notEmpty"`

	// Yandex Cloud
	OAuthToken string `env:"YANDEX_OAUTH_TOKEN,required,notEmpty"`
	FolderID   string `env:"FOLDER_ID,required,notEmpty"`
	BucketName string `env:"BUCKET_NAME,required,notEmpty"`
	GPTModel   string `env:"GPT_MODEL" envDefault:"yandexgpt/latest"`

	// Completion engine: "yandexgpt" | "gemini"
	LLMEngine    string `env:"LLM_ENGINE" envDefault:"yandexgpt"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	// Object names of the two prompt templates in the bucket.
	ClassificationObject string `env:"CLASSIFICATION_OBJECT" envDefault:"classification_instruction.txt"`
	AnswerObject         string `env:"ANSWER_OBJECT" envDefault:"answer_instruction.txt"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.LLMEngine == "gemini" && cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("LLM_ENGINE=gemini requires GEMINI_API_KEY")
	}
	return &cfg, nil
}
