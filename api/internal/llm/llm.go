// Package llm defines the conversation model shared by the completion
// engines. A request is always two messages: the system instruction and the
// user content.
package llm

import "context"

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type Options struct {
	Temperature float64
	MaxTokens   int
}

// Completer is the single choke point for model calls. Implementations
// return the trimmed text of the first generated alternative; any transport
// or parse failure, and a response with zero alternatives, is an error.
type Completer interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
}

// Conversation builds the fixed two-message request shape.
func Conversation(system, user string) []Message {
	return []Message{
		{Role: RoleSystem, Text: system},
		{Role: RoleUser, Text: user},
	}
}
