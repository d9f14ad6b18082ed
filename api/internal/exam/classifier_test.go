package exam

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exam-bot/api/internal/llm"
)

type stubCompleter struct {
	reply string
	err   error

	calls    int
	messages []llm.Message
	opts     llm.Options
}

func (s *stubCompleter) Complete(_ context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	s.calls++
	s.messages = messages
	s.opts = opts
	return s.reply, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClassify_Verdicts(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
		want  Verdict
	}{
		{name: "affirmative", reply: "ДА", want: Relevant},
		{name: "affirmative lowercase", reply: "да, это вопрос", want: Relevant},
		{name: "negative", reply: "НЕТ", want: Irrelevant},
		{name: "negative lowercase", reply: "нет.", want: Irrelevant},
		// affirmative is checked first, so a reply with both tokens is relevant
		{name: "both tokens", reply: "ДА или НЕТ", want: Relevant},
		{name: "no token", reply: "возможно", want: Indeterminate},
		{name: "empty-ish reply", reply: "-", want: Indeterminate},
		{name: "transport failure", err: errors.New("boom"), want: Indeterminate},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			completer := &stubCompleter{reply: tc.reply, err: tc.err}
			c := NewClassifier(completer, "system prompt", discardLogger())
			assert.Equal(t, tc.want, c.Classify(context.Background(), "Что такое семафор?"))
		})
	}
}

func TestClassify_MissingInstruction(t *testing.T) {
	completer := &stubCompleter{reply: "ДА"}
	c := NewClassifier(completer, "", discardLogger())

	assert.Equal(t, Indeterminate, c.Classify(context.Background(), "любой текст"))
	assert.Zero(t, completer.calls, "model must not be called without an instruction")
	assert.False(t, c.Ready())
}

func TestClassify_ConversationShape(t *testing.T) {
	completer := &stubCompleter{reply: "НЕТ"}
	c := NewClassifier(completer, "инструкция", discardLogger())

	c.Classify(context.Background(), "привет")

	require.Len(t, completer.messages, 2)
	assert.Equal(t, llm.Message{Role: llm.RoleSystem, Text: "инструкция"}, completer.messages[0])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Text: "Текст: привет"}, completer.messages[1])
	assert.Equal(t, llm.Options{Temperature: 0.1, MaxTokens: 10}, completer.opts)
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "relevant", Relevant.String())
	assert.Equal(t, "irrelevant", Irrelevant.String())
	assert.Equal(t, "indeterminate", Indeterminate.String())
}
