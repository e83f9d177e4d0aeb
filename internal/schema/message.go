// Package schema holds the message, tool and provider contracts shared across
// pillpal packages, plus the error taxonomy surfaced at the HTTP boundary.
package schema

import (
	"encoding/json"
	"strings"
)

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCallRequest is one tool invocation requested by the model.
// RawArguments is the JSON-encoded argument object exactly as the provider sent it.
type ToolCallRequest struct {
	ID           string
	Name         string
	RawArguments string
}

// ToWireMap serialises a ToolCallRequest into the OpenAI wire-format map.
// Used by provider implementations when building the JSON request body.
func (tc ToolCallRequest) ToWireMap() map[string]any {
	args := strings.TrimSpace(tc.RawArguments)
	if args == "" {
		args = "{}"
	}
	return map[string]any{
		"id":   tc.ID,
		"type": "function",
		"function": map[string]any{
			"name":      tc.Name,
			"arguments": args,
		},
	}
}

// ToolResult is the serialised outcome of one ToolCallRequest, tagged with the
// originating call id and tool name so the provider can correlate it.
type ToolResult struct {
	CallID  string
	Name    string
	Content string
}

// NewToolResult serialises v to JSON. Values that cannot be encoded become an
// error object instead.
func NewToolResult(callID, name string, v any) ToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		data, _ = json.Marshal(map[string]any{"error": "unserialisable tool result: " + err.Error()})
	}
	return ToolResult{CallID: callID, Name: name, Content: string(data)}
}

// Message is one entry in the conversation history.
//
// Role is one of: "system", "user", "assistant", "tool".
//
// ToolCalls is populated for assistant messages that invoke tools.
// ToolCallID and ToolName are set for tool-result messages.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCallRequest
	ToolCallID string // "tool" role only
	ToolName   string // "tool" role only
}

func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func NewAssistantMessage(content string, toolCalls []ToolCallRequest) Message {
	var calls []ToolCallRequest
	if len(toolCalls) > 0 {
		calls = make([]ToolCallRequest, len(toolCalls))
		copy(calls, toolCalls)
	}
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

func NewToolResultMessage(r ToolResult) Message {
	return Message{
		Role:       RoleTool,
		Content:    r.Content,
		ToolCallID: r.CallID,
		ToolName:   r.Name,
	}
}
