package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/lmittmann/tint"

	"exam-bot/api/internal/config"
	"exam-bot/api/internal/exam"
	"exam-bot/api/internal/instructions"
	"exam-bot/api/internal/llm"
	"exam-bot/api/internal/llm/gemini"
	"exam-bot/api/internal/llm/yandexgpt"
	"exam-bot/api/internal/ocr/yandexvision"
	"exam-bot/api/internal/telegram"
	"exam-bot/api/internal/yandexcloud"
)

func main() {
	log := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.RFC3339,
	}))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Error("telegram auth", "err", err)
		os.Exit(1)
	}
	bot.Debug = false

	iamc := yandexcloud.NewIAMClient(cfg.OAuthToken)

	var completer llm.Completer
	switch cfg.LLMEngine {
	case "gemini":
		eng, err := gemini.New(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Error("gemini", "err", err)
			os.Exit(1)
		}
		defer eng.Close()
		completer = eng
		log.Info("completion engine", "name", eng.Name(), "model", cfg.GeminiModel)
	default:
		completer = yandexgpt.New(iamc, cfg.FolderID, cfg.GPTModel)
		log.Info("completion engine", "name", "yandexgpt", "model", cfg.GPTModel)
	}

	// Instructions are loaded once; a failed load stays absent for the whole
	// process and the router answers with the fixed fallback instead.
	classIns, answerIns := loadInstructions(cfg, log)

	router := &telegram.Router{
		Bot:        bot,
		Files:      telegram.NewBotFiles(bot),
		OCR:        yandexvision.New(iamc, cfg.FolderID),
		Classifier: exam.NewClassifier(completer, classIns, log),
		Answerer:   exam.NewAnswerer(completer, answerIns, log),
		Log:        log,
	}

	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	addr := "0.0.0.0:" + cfg.Port
	if strings.TrimSpace(cfg.WebhookURL) != "" {
		startWebhookMode(addr, bot, router, cfg.WebhookURL, log)
	} else {
		startPollingMode(addr, bot, router, log)
	}
}

func loadInstructions(cfg *config.Config, log *slog.Logger) (string, string) {
	prov := instructions.NewProvider(cfg.BucketName)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	classIns, err := prov.Load(ctx, cfg.ClassificationObject)
	if err != nil {
		log.Error("classification instruction unavailable", "err", err)
	}
	answerIns, err := prov.Load(ctx, cfg.AnswerObject)
	if err != nil {
		log.Error("answer instruction unavailable", "err", err)
	}
	return classIns, answerIns
}

// ---------------- Modes -----------------

func startWebhookMode(addr string, bot *tgbotapi.BotAPI, r *telegram.Router, baseURL string, log *slog.Logger) {
	// secret webhook path derived from the token
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		log.Error("webhook config", "err", err)
		os.Exit(1)
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		log.Error("webhook register", "err", err)
		os.Exit(1)
	}

	// ListenForWebhook registers on DefaultServeMux and acknowledges every
	// delivery with 200, so Telegram never redelivers on internal failures.
	updates := bot.ListenForWebhook(path)

	go func() {
		for upd := range updates {
			r.HandleUpdate(context.Background(), upd)
		}
		log.Warn("webhook updates channel closed")
	}()

	log.Info("webhook mode", "addr", addr, "path", path)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Error("http server", "err", err)
		os.Exit(1)
	}
}

func startPollingMode(addr string, bot *tgbotapi.BotAPI, r *telegram.Router, log *slog.Logger) {
	go func() {
		log.Info("health server", "addr", addr)
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Error("http server", "err", err)
			os.Exit(1)
		}
	}()

	log.Info("polling mode")
	runPolling(context.Background(), bot, log, func(upd tgbotapi.Update) {
		r.HandleUpdate(context.Background(), upd)
	})
}

// ---------------- Polling loop -----------------

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") { // HTTP 429 from Telegram
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

func runPolling(ctx context.Context, bot *tgbotapi.BotAPI, log *slog.Logger, handle func(tgbotapi.Update)) {
	offset := 0
	baseDelay := 1 * time.Second
	maxDelay := 15 * time.Second

	for {
		select {
		case <-ctx.Done():
			log.Info("polling: context cancelled")
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30 // long polling timeout (sec)

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := retryDelayFromError(err)
			if d < baseDelay {
				d = baseDelay
			}
			if d > maxDelay {
				d = maxDelay
			}
			log.Warn("polling error", "err", err, "retry_in", d)
			time.Sleep(d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}

		if len(updates) == 0 {
			time.Sleep(200 * time.Millisecond)
		}
	}
}

func shortHash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])[:16]
}
