package schema

import (
	"context"
	"encoding/json"
)

// ChatOptions configures a single LLM chat request.
type ChatOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
	TopP        float64
	// StructuredReply asks the provider for a JSON object with a top-level
	// "reply" string instead of free text, where the backend supports it.
	StructuredReply bool
}

func NewChatOptions(model string, maxTokens int, temperature, topP float64, structured bool) ChatOptions {
	return ChatOptions{
		Model:           model,
		MaxTokens:       maxTokens,
		Temperature:     temperature,
		TopP:            topP,
		StructuredReply: structured,
	}
}

// ToolSpec is the provider-facing description of a tool.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  json.RawMessage // JSON Schema object
}

// AgentReply is the only externally guaranteed output shape.
type AgentReply struct {
	Text string `json:"reply"`
}

// FallbackReplyText is returned when the model produced nothing usable.
const FallbackReplyText = "I'm sorry, I couldn't put together a reply just now. Could you say that again?"

// ResponseKind tells which variant an LLMResponse holds.
type ResponseKind int

const (
	// ReplyResponse carries final reply text.
	ReplyResponse ResponseKind = iota
	// ToolCallsResponse carries tool invocations that need a follow-up call.
	ToolCallsResponse
)

func (k ResponseKind) String() string {
	switch k {
	case ReplyResponse:
		return "reply"
	case ToolCallsResponse:
		return "tool_calls"
	}
	return "unknown"
}

// Usage is token accounting reported by the provider, when available.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// LLMResponse is the normalised response from any LLM provider.
//
// Providers convert their wire format into one of the two variants before
// returning, so callers never branch on upstream JSON shapes.
type LLMResponse struct {
	Kind ResponseKind

	// Reply is set for ReplyResponse.
	Reply AgentReply

	// Content is any assistant text sent alongside ToolCalls.
	Content   string
	ToolCalls []ToolCallRequest

	FinishReason string
	Usage        Usage
}

func NewReplyResponse(text string) LLMResponse {
	return LLMResponse{Kind: ReplyResponse, Reply: AgentReply{Text: text}, FinishReason: "stop"}
}

func NewToolCallsResponse(content string, calls []ToolCallRequest) LLMResponse {
	return LLMResponse{Kind: ToolCallsResponse, Content: content, ToolCalls: calls, FinishReason: "tool_calls"}
}

// HasToolCalls reports whether the response contains at least one tool call.
func (r LLMResponse) HasToolCalls() bool {
	return r.Kind == ToolCallsResponse && len(r.ToolCalls) > 0
}

// LLMProvider is the interface every LLM backend must satisfy.
type LLMProvider interface {
	Chat(ctx context.Context, messages Messages, tools []ToolSpec, opts ChatOptions) (LLMResponse, error)
	DefaultModel() string
}
