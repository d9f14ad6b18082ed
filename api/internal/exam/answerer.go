package exam

import (
	"context"
	"log/slog"

	"exam-bot/api/internal/llm"
)

const (
	answerTemperature = 0.3
	answerMaxTokens   = 1000
)

type Answerer struct {
	completer   llm.Completer
	instruction string
	log         *slog.Logger
}

func NewAnswerer(completer llm.Completer, instruction string, log *slog.Logger) *Answerer {
	return &Answerer{completer: completer, instruction: instruction, log: log}
}

// Ready reports whether the answer instruction was loaded.
func (a *Answerer) Ready() bool { return a.instruction != "" }

// Answer produces the explanatory reply for an in-scope question. ok is
// false when the instruction is missing or the model produced nothing.
func (a *Answerer) Answer(ctx context.Context, text string) (string, bool) {
	if a.instruction == "" {
		return "", false
	}

	messages := llm.Conversation(a.instruction, "Вопрос: "+text)
	answer, err := a.completer.Complete(ctx, messages, llm.Options{
		Temperature: answerTemperature,
		MaxTokens:   answerMaxTokens,
	})
	if err != nil {
		a.log.Warn("answer generation failed", "err", err)
		return "", false
	}
	return answer, true
}
