package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/crystaldolphin/pillpal/internal/config/provider"
	"github.com/crystaldolphin/pillpal/internal/schema"
)

// OpenAIProvider makes direct HTTP calls to any OpenAI-compatible
// /chat/completions endpoint.
type OpenAIProvider struct {
	apiKey       string
	apiBase      string
	defaultModel string
	extraHeaders map[string]string
	httpClient   *http.Client
	log          zerolog.Logger
}

// NewOpenAIProvider constructs a provider from raw config values.
func NewOpenAIProvider(p Params) *OpenAIProvider {
	spec := FindByName(provider.APIChat)
	base := strings.TrimRight(p.APIBase, "/")
	if base == "" {
		base = spec.DefaultAPIBase
	}
	return &OpenAIProvider{
		apiKey:       p.APIKey,
		apiBase:      base,
		defaultModel: resolveModel(p.DefaultModel, spec.DefaultModel),
		extraHeaders: p.ExtraHeaders,
		httpClient:   p.httpClient(),
		log:          p.Logger.With().Str("component", "provider").Str("api", provider.APIChat).Logger(),
	}
}

func (p *OpenAIProvider) DefaultModel() string { return p.defaultModel }

// Chat implements schema.LLMProvider.
func (p *OpenAIProvider) Chat(
	ctx context.Context,
	messages schema.Messages,
	tools []schema.ToolSpec,
	opts schema.ChatOptions,
) (schema.LLMResponse, error) {
	if strings.TrimSpace(p.apiKey) == "" {
		return schema.LLMResponse{}, missingKey(provider.APIChat)
	}

	model := resolveModel(opts.Model, p.defaultModel)
	body := map[string]any{
		"model":       model,
		"messages":    sanitizeMessages(messages),
		"max_tokens":  maxTokens(opts.MaxTokens),
		"temperature": opts.Temperature,
	}
	if opts.TopP > 0 {
		body["top_p"] = opts.TopP
	}
	if len(tools) > 0 {
		body["tools"] = toolDefinitions(tools)
		body["tool_choice"] = "auto"
	}
	if opts.StructuredReply {
		body["response_format"] = replyResponseFormat()
	}

	data, err := json.Marshal(body)
	if err != nil {
		return schema.LLMResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.apiBase+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return schema.LLMResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	for k, v := range p.extraHeaders {
		req.Header.Set(k, v)
	}

	p.log.Debug().Str("model", model).Int("messages", messages.Len()).Int("tools", len(tools)).Msg("chat request")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return schema.LLMResponse{}, transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return schema.LLMResponse{}, transportError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return schema.LLMResponse{}, schema.NewProviderError(resp.StatusCode, string(raw))
	}

	return parseOpenAIResponse(raw, opts.StructuredReply)
}

// ---------------------------------------------------------------------------
// Request shaping
// ---------------------------------------------------------------------------

// messageToWireMap converts a typed Message to the OpenAI wire-format map.
func messageToWireMap(m schema.Message) map[string]any {
	wire := map[string]any{
		"role":    m.Role,
		"content": m.Content,
	}
	if m.Role == schema.RoleAssistant && len(m.ToolCalls) > 0 {
		// Strict providers want null content on tool-call-only turns.
		if m.Content == "" {
			wire["content"] = nil
		}
		raw := make([]map[string]any, len(m.ToolCalls))
		for i, tc := range m.ToolCalls {
			raw[i] = tc.ToWireMap()
		}
		wire["tool_calls"] = raw
	}
	if m.Role == schema.RoleTool {
		wire["tool_call_id"] = m.ToolCallID
		wire["name"] = m.ToolName
	}
	return wire
}

func sanitizeMessages(messages schema.Messages) []map[string]any {
	out := make([]map[string]any, 0, messages.Len())
	for _, m := range messages.Messages {
		out = append(out, messageToWireMap(m))
	}
	return out
}

// toolDefinitions renders tool specs in OpenAI function-calling format.
func toolDefinitions(tools []schema.ToolSpec) []map[string]any {
	list := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		var params any
		if err := json.Unmarshal(t.Parameters, &params); err != nil || params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		list = append(list, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  params,
			},
		})
	}
	return list
}

// ---------------------------------------------------------------------------
// Response parsing
// ---------------------------------------------------------------------------

// openAIRespBody is the subset of the OpenAI chat completion response we care about.
type openAIRespBody struct {
	Choices []struct {
		Message struct {
			Content   json.RawMessage `json:"content"`
			ToolCalls []struct {
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func parseOpenAIResponse(raw []byte, structured bool) (schema.LLMResponse, error) {
	var body openAIRespBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return schema.LLMResponse{}, &schema.MalformedResponseError{Reason: "decode chat completion", Err: err}
	}
	if len(body.Choices) == 0 {
		return schema.LLMResponse{}, &schema.MalformedResponseError{Reason: "empty choices in response"}
	}

	choice := body.Choices[0]
	content := contentText(choice.Message.Content)

	var out schema.LLMResponse
	if len(choice.Message.ToolCalls) > 0 {
		calls := make([]schema.ToolCallRequest, 0, len(choice.Message.ToolCalls))
		for _, tc := range choice.Message.ToolCalls {
			calls = append(calls, schema.ToolCallRequest{
				ID:           tc.ID,
				Name:         tc.Function.Name,
				RawArguments: tc.Function.Arguments,
			})
		}
		out = schema.NewToolCallsResponse(content, calls)
	} else {
		out = schema.NewReplyResponse(ExtractReply(content, structured))
	}

	if choice.FinishReason != "" {
		out.FinishReason = choice.FinishReason
	}
	out.Usage = schema.Usage{
		PromptTokens:     body.Usage.PromptTokens,
		CompletionTokens: body.Usage.CompletionTokens,
		TotalTokens:      body.Usage.TotalTokens,
	}
	return out, nil
}

// contentText accepts both the plain-string and the content-parts forms.
func contentText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var b strings.Builder
	for _, part := range parts {
		if part.Type == "text" || part.Type == "output_text" {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
