package telegram

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"exam-bot/api/internal/exam"
	"exam-bot/api/internal/ocr"
)

// Notifier sends the outbound reply. *tgbotapi.BotAPI satisfies it; tests
// substitute a recorder. Delivery is best-effort: send errors are logged and
// never change the routing decision.
type Notifier interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// FileFetcher resolves a Telegram file ID to raw bytes (photo path only).
type FileFetcher interface {
	Fetch(ctx context.Context, fileID string) ([]byte, error)
}

// Router drives one update through the pipeline. It is stateless across
// updates; every invocation ends in exactly one send, or none when the
// update carries no message.
type Router struct {
	Bot        Notifier
	Files      FileFetcher
	OCR        ocr.Recognizer
	Classifier *exam.Classifier
	Answerer   *exam.Answerer
	Log        *slog.Logger
}

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	msg := upd.Message
	cid := msg.Chat.ID

	switch {
	case msg.Text != "":
		if msg.IsCommand() && (msg.Command() == "start" || msg.Command() == "help") {
			r.reply(cid, msgGreeting)
			return
		}
		r.textPipeline(ctx, cid, msg.Text)

	// json decodes "photo": [] into a non-nil empty slice, so a present but
	// empty photo list is distinguishable from an absent one.
	case msg.Photo != nil:
		r.handlePhoto(ctx, cid, msg.Photo)

	default:
		r.reply(cid, msgOnlyTextOrPhoto)
	}
}

// textPipeline runs classify → answer on typed or recognized text.
func (r *Router) textPipeline(ctx context.Context, cid int64, text string) {
	if !r.Classifier.Ready() || !r.Answerer.Ready() {
		r.reply(cid, msgCouldNotPrepare)
		return
	}

	switch r.Classifier.Classify(ctx, text) {
	case exam.Indeterminate:
		r.reply(cid, msgCouldNotPrepare)
	case exam.Irrelevant:
		r.reply(cid, msgNotAQuestion)
	case exam.Relevant:
		answer, ok := r.Answerer.Answer(ctx, text)
		if !ok {
			r.reply(cid, msgCouldNotPrepare)
			return
		}
		r.replyAnswer(cid, answer)
	}
}

func (r *Router) handlePhoto(ctx context.Context, cid int64, photos []tgbotapi.PhotoSize) {
	if len(photos) == 0 {
		r.reply(cid, msgCannotProcessPhoto)
		return
	}

	// last element is the highest resolution
	fileID := photos[len(photos)-1].FileID
	img, err := r.Files.Fetch(ctx, fileID)
	if err != nil {
		r.Log.Warn("photo fetch failed", "err", err)
		r.reply(cid, msgCannotProcessPhoto)
		return
	}

	text, err := r.OCR.Recognize(ctx, img)
	if err != nil {
		r.Log.Warn("ocr failed", "err", err)
		r.reply(cid, msgCannotProcessPhoto)
		return
	}
	r.textPipeline(ctx, cid, text)
}

// reply sends a fixed guidance string as plain text.
func (r *Router) reply(chatID int64, text string) {
	if _, err := r.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.Log.Error("send failed", "chat", chatID, "err", err)
	}
}

// replyAnswer sends a generated answer with HTML rendering enabled.
func (r *Router) replyAnswer(chatID int64, text string) {
	if len(text) > maxReplyLen {
		text = text[:maxReplyLen] + "…"
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := r.Bot.Send(msg); err != nil {
		r.Log.Error("send failed", "chat", chatID, "err", err)
	}
}
