package agent

import (
	"github.com/crystaldolphin/pillpal/internal/schema"
)

// ContextBuilder assembles the message list sent to the LLM.
type ContextBuilder struct {
	systemPrompt string
}

// NewContextBuilder returns a builder that prepends prompt to every
// conversation. An empty prompt selects SystemPrompt.
func NewContextBuilder(prompt string) *ContextBuilder {
	if prompt == "" {
		prompt = SystemPrompt
	}
	return &ContextBuilder{systemPrompt: prompt}
}

func (cb *ContextBuilder) SystemPrompt() string { return cb.systemPrompt }

// BuildMessages returns [system prompt] + history. History order is kept and
// nothing is dropped; caller-supplied system messages follow the fixed prompt.
// history itself is not modified.
func (cb *ContextBuilder) BuildMessages(history schema.Messages) schema.Messages {
	msgs := make([]schema.Message, 0, history.Len()+1)
	msgs = append(msgs, schema.NewSystemMessage(cb.systemPrompt))
	msgs = append(msgs, history.Clone().Messages...)
	return schema.Messages{Messages: msgs}
}

// FromSingleTurn wraps a lone user message as a one-entry history.
func FromSingleTurn(message string) schema.Messages {
	return schema.NewMessages(schema.NewUserMessage(message))
}
