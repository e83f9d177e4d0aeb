package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/crystaldolphin/pillpal/internal/schema"
)

// MaxBodyBytes bounds the size of a /chat request body.
const MaxBodyBytes = 1 << 20

const chatRequestSchema = `{
  "type": "object",
  "properties": {
    "messages": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "properties": {
          "role":    {"type": "string", "enum": ["user", "assistant", "system"]},
          "content": {"type": "string", "minLength": 1, "pattern": "\\S"}
        },
        "required": ["role", "content"],
        "additionalProperties": false
      }
    },
    "userId": {"type": "string"}
  },
  "required": ["messages"],
  "additionalProperties": false
}`

var chatSchema = func() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(chatRequestSchema))
	if err != nil {
		panic("server: invalid chat request schema: " + err.Error())
	}
	return s
}()

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []chatMessage `json:"messages"`
	UserID   string        `json:"userId"`
}

func (r chatRequest) history() schema.Messages {
	msgs := make([]schema.Message, 0, len(r.Messages))
	for _, m := range r.Messages {
		msgs = append(msgs, schema.Message{Role: m.Role, Content: m.Content})
	}
	return schema.Messages{Messages: msgs}
}

// decodeChatRequest reads and validates a /chat body. Every failure is a
// *schema.ValidationError.
func decodeChatRequest(w http.ResponseWriter, r *http.Request) (chatRequest, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return chatRequest{}, &schema.ValidationError{Reason: fmt.Sprintf("body exceeds %d bytes", MaxBodyBytes)}
		}
		return chatRequest{}, &schema.ValidationError{Reason: "could not read body"}
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return chatRequest{}, &schema.ValidationError{Reason: "body is empty"}
	}
	if !json.Valid(body) {
		return chatRequest{}, &schema.ValidationError{Reason: "body is not valid JSON"}
	}

	result, err := chatSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return chatRequest{}, &schema.ValidationError{Reason: err.Error()}
	}
	if !result.Valid() {
		return chatRequest{}, &schema.ValidationError{Reason: describe(result.Errors())}
	}

	var req chatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return chatRequest{}, &schema.ValidationError{Reason: err.Error()}
	}
	return req, nil
}

func describe(errs []gojsonschema.ResultError) string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.Type() == "additional_property_not_allowed" && e.Details()["property"] == "message" {
			out = append(out, `use "messages": [{"role": "user", "content": ...}] instead of "message"`)
			continue
		}
		out = append(out, e.String())
	}
	sort.Strings(out)
	return strings.Join(out, "; ")
}
