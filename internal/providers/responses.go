package providers

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
	"github.com/rs/zerolog"

	"github.com/crystaldolphin/pillpal/internal/config/provider"
	"github.com/crystaldolphin/pillpal/internal/schema"
)

// ResponsesProvider talks to the OpenAI Responses API. The conversation is
// sent as one flattened text input, so tool calling is not available and
// tool specs passed to Chat are ignored.
type ResponsesProvider struct {
	apiKey       string
	defaultModel string
	client       openai.Client
	log          zerolog.Logger
}

func NewResponsesProvider(p Params) *ResponsesProvider {
	spec := FindByName(provider.APIResponses)
	opts := []option.RequestOption{
		option.WithAPIKey(p.APIKey),
		option.WithHTTPClient(p.httpClient()),
		// Retries are handled by RetryingProvider.
		option.WithMaxRetries(0),
	}
	if p.APIBase != "" {
		opts = append(opts, option.WithBaseURL(p.APIBase))
	}
	for k, v := range p.ExtraHeaders {
		opts = append(opts, option.WithHeader(k, v))
	}

	return &ResponsesProvider{
		apiKey:       p.APIKey,
		defaultModel: resolveModel(p.DefaultModel, spec.DefaultModel),
		client:       openai.NewClient(opts...),
		log:          p.Logger.With().Str("component", "provider").Str("api", provider.APIResponses).Logger(),
	}
}

func (p *ResponsesProvider) DefaultModel() string { return p.defaultModel }

func (p *ResponsesProvider) Chat(
	ctx context.Context,
	messages schema.Messages,
	tools []schema.ToolSpec,
	opts schema.ChatOptions,
) (schema.LLMResponse, error) {
	if strings.TrimSpace(p.apiKey) == "" {
		return schema.LLMResponse{}, missingKey(provider.APIResponses)
	}

	model := resolveModel(opts.Model, p.defaultModel)
	params := responses.ResponseNewParams{
		Model:           shared.ResponsesModel(model),
		Input:           responses.ResponseNewParamsInputUnion{OfString: openai.String(messages.Flatten())},
		MaxOutputTokens: openai.Int(int64(maxTokens(opts.MaxTokens))),
		Temperature:     openai.Float(opts.Temperature),
	}
	if opts.TopP > 0 {
		params.TopP = openai.Float(opts.TopP)
	}

	p.log.Debug().Str("model", model).Int("messages", messages.Len()).Int("tools_ignored", len(tools)).Msg("responses request")

	resp, err := p.client.Responses.New(ctx, params)
	if err != nil {
		return schema.LLMResponse{}, classifyOpenAIError(err)
	}

	out := schema.NewReplyResponse(ExtractReply(resp.OutputText(), false))
	out.Usage = schema.Usage{
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}
	return out, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.Error
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
