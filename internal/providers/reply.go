package providers

import (
	"encoding/json"
	"strings"

	"github.com/crystaldolphin/pillpal/internal/schema"
	"github.com/crystaldolphin/pillpal/internal/shared/llmutils"
)

// replySchema is the structured-output contract: one object with a
// non-empty "reply" string.
var replySchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"reply": map[string]any{
			"type":        "string",
			"description": "The message to show the user.",
		},
	},
	"required":             []string{"reply"},
	"additionalProperties": false,
}

func replyResponseFormat() map[string]any {
	return map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name":   "agent_reply",
			"strict": true,
			"schema": replySchema,
		},
	}
}

// ExtractReply turns assistant content into reply text.
//
// With strict set the content must be a JSON object carrying a non-empty
// "reply"; anything else yields schema.FallbackReplyText. Without it a JSON
// reply object is still unwrapped, and any other text passes through.
func ExtractReply(content string, strict bool) string {
	text := llmutils.StripThink(content)

	if r, ok := decodeReply(text); ok {
		return llmutils.StringOrDefault(r, schema.FallbackReplyText)
	}
	if strict {
		return schema.FallbackReplyText
	}
	return llmutils.StringOrDefault(text, schema.FallbackReplyText)
}

// decodeReply reports ok when text is a JSON object with a "reply" key,
// even if the value is empty.
func decodeReply(text string) (string, bool) {
	text = stripCodeFence(text)
	if !strings.HasPrefix(text, "{") {
		return "", false
	}
	var r struct {
		Reply *string `json:"reply"`
	}
	if err := json.Unmarshal([]byte(text), &r); err != nil || r.Reply == nil {
		return "", false
	}
	return llmutils.StripThink(*r.Reply), true
}

// stripCodeFence removes a ```json … ``` wrapper some models add.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
