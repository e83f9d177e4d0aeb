package providers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	"github.com/crystaldolphin/pillpal/internal/config/provider"
	"github.com/crystaldolphin/pillpal/internal/schema"
)

// AnthropicProvider talks to the Anthropic Messages API through the official SDK.
type AnthropicProvider struct {
	apiKey       string
	defaultModel string
	client       anthropic.Client
	log          zerolog.Logger
}

func NewAnthropicProvider(p Params) *AnthropicProvider {
	spec := FindByName(provider.APIAnthropic)
	opts := []option.RequestOption{
		option.WithAPIKey(p.APIKey),
		option.WithHTTPClient(p.httpClient()),
		option.WithMaxRetries(0),
	}
	if p.APIBase != "" {
		opts = append(opts, option.WithBaseURL(p.APIBase))
	}
	for k, v := range p.ExtraHeaders {
		opts = append(opts, option.WithHeader(k, v))
	}

	return &AnthropicProvider{
		apiKey:       p.APIKey,
		defaultModel: resolveModel(p.DefaultModel, spec.DefaultModel),
		client:       anthropic.NewClient(opts...),
		log:          p.Logger.With().Str("component", "provider").Str("api", provider.APIAnthropic).Logger(),
	}
}

func (p *AnthropicProvider) DefaultModel() string { return p.defaultModel }

func (p *AnthropicProvider) Chat(
	ctx context.Context,
	messages schema.Messages,
	tools []schema.ToolSpec,
	opts schema.ChatOptions,
) (schema.LLMResponse, error) {
	if strings.TrimSpace(p.apiKey) == "" {
		return schema.LLMResponse{}, missingKey(provider.APIAnthropic)
	}

	model := resolveModel(opts.Model, p.defaultModel)
	system, converted := convertMessagesToAnthropic(messages)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(maxTokens(opts.MaxTokens)),
		Messages:    converted,
		Temperature: anthropic.Float(opts.Temperature),
	}
	if opts.TopP > 0 {
		params.TopP = anthropic.Float(opts.TopP)
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if len(tools) > 0 {
		params.Tools = convertToolsToAnthropic(tools)
	}

	p.log.Debug().Str("model", model).Int("messages", len(converted)).Int("tools", len(tools)).Msg("messages request")

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return schema.LLMResponse{}, classifyAnthropicError(err)
	}

	var text strings.Builder
	var calls []schema.ToolCallRequest
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(v.Text)
		case anthropic.ToolUseBlock:
			calls = append(calls, schema.ToolCallRequest{
				ID:           v.ID,
				Name:         v.Name,
				RawArguments: v.JSON.Input.Raw(),
			})
		}
	}

	var out schema.LLMResponse
	if len(calls) > 0 {
		out = schema.NewToolCallsResponse(text.String(), calls)
	} else {
		out = schema.NewReplyResponse(ExtractReply(text.String(), false))
	}
	if sr := string(msg.StopReason); sr != "" && sr != "end_turn" && sr != "tool_use" {
		out.FinishReason = sr
	}
	out.Usage = schema.Usage{
		PromptTokens:     int(msg.Usage.InputTokens),
		CompletionTokens: int(msg.Usage.OutputTokens),
		TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
	}
	return out, nil
}

// convertMessagesToAnthropic splits out system text and converts the rest
// into Messages API turns. Consecutive tool results merge into one user turn.
func convertMessagesToAnthropic(messages schema.Messages) (string, []anthropic.MessageParam) {
	var system []string
	var out []anthropic.MessageParam
	var pendingResults []anthropic.ContentBlockParamUnion

	flushResults := func() {
		if len(pendingResults) > 0 {
			out = append(out, anthropic.NewUserMessage(pendingResults...))
			pendingResults = nil
		}
	}

	for _, msg := range messages.Messages {
		switch msg.Role {
		case schema.RoleSystem:
			if msg.Content != "" {
				system = append(system, msg.Content)
			}

		case schema.RoleTool:
			pendingResults = append(pendingResults, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false))

		case schema.RoleUser:
			flushResults()
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))

		case schema.RoleAssistant:
			flushResults()
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{OfToolUse: &anthropic.ToolUseBlockParam{
					ID:    tc.ID,
					Name:  tc.Name,
					Input: toolInput(tc.RawArguments),
				}})
			}
			if len(blocks) == 0 {
				blocks = append(blocks, anthropic.NewTextBlock(""))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		}
	}
	flushResults()

	return strings.Join(system, "\n\n"), out
}

func toolInput(raw string) json.RawMessage {
	raw = strings.TrimSpace(raw)
	if raw == "" || !json.Valid([]byte(raw)) {
		return json.RawMessage(`{}`)
	}
	return json.RawMessage(raw)
}

// convertToolsToAnthropic maps JSON Schema parameters onto input_schema.
func convertToolsToAnthropic(tools []schema.ToolSpec) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		var s struct {
			Properties map[string]any `json:"properties"`
			Required   []string       `json:"required"`
		}
		_ = json.Unmarshal(t.Parameters, &s)
		if s.Properties == nil {
			s.Properties = map[string]any{}
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: s.Properties,
				Required:   s.Required,
			},
		}})
	}
	return out
}

func classifyAnthropicError(err error) error {
	var apiErr *anthropic.Error
	switch {
	case errors.As(err, &apiErr):
		return schema.NewProviderError(apiErr.StatusCode, apiErr.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return err
	case isTransport(err):
		return schema.NewProviderError(0, err.Error())
	}
	return &schema.MalformedResponseError{Reason: "decode response", Err: err}
}
