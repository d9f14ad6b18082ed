// Package exam holds the two model-backed stages of the pipeline: deciding
// whether a text is an in-scope exam question, and answering it.
package exam

import (
	"context"
	"log/slog"
	"strings"

	"exam-bot/api/internal/llm"
)

// Verdict is the tri-state classification outcome. Indeterminate means
// "could not classify" and is never conflated with Irrelevant.
type Verdict int

const (
	Indeterminate Verdict = iota
	Relevant
	Irrelevant
)

func (v Verdict) String() string {
	switch v {
	case Relevant:
		return "relevant"
	case Irrelevant:
		return "irrelevant"
	default:
		return "indeterminate"
	}
}

const (
	yesToken = "ДА"
	noToken  = "НЕТ"

	classifyTemperature = 0.1
	classifyMaxTokens   = 10
)

type Classifier struct {
	completer   llm.Completer
	instruction string
	log         *slog.Logger
}

// NewClassifier takes the classification instruction as loaded at startup;
// an empty instruction makes every Classify call Indeterminate.
func NewClassifier(completer llm.Completer, instruction string, log *slog.Logger) *Classifier {
	return &Classifier{completer: completer, instruction: instruction, log: log}
}

// Ready reports whether the classification instruction was loaded.
func (c *Classifier) Ready() bool { return c.instruction != "" }

// Classify asks the model whether text is an in-scope exam question. The
// reply is matched case-insensitively; the affirmative token is checked
// before the negative one, so a reply containing both counts as Relevant.
func (c *Classifier) Classify(ctx context.Context, text string) Verdict {
	if c.instruction == "" {
		return Indeterminate
	}

	messages := llm.Conversation(c.instruction, "Текст: "+text)
	reply, err := c.completer.Complete(ctx, messages, llm.Options{
		Temperature: classifyTemperature,
		MaxTokens:   classifyMaxTokens,
	})
	if err != nil {
		c.log.Warn("classification failed", "err", err)
		return Indeterminate
	}

	upper := strings.ToUpper(reply)
	switch {
	case strings.Contains(upper, yesToken):
		return Relevant
	case strings.Contains(upper, noToken):
		return Irrelevant
	default:
		c.log.Warn("classifier reply has no verdict token", "reply", reply)
		return Indeterminate
	}
}
