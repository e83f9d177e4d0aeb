package providers

import (
	"fmt"

	"github.com/crystaldolphin/pillpal/internal/config/provider"
	"github.com/crystaldolphin/pillpal/internal/schema"
)

// New creates the schema.LLMProvider selected by p.API, wrapped with the
// timeout and retry policy.
//
// Rules:
//   - anthropic → AnthropicProvider (official SDK)
//   - responses → ResponsesProvider (openai-go, flattened transcript, no tools)
//   - chat      → OpenAIProvider (direct HTTP, any OpenAI-compatible endpoint)
//   - empty     → detected from APIBase, defaulting to chat
func New(p Params) (schema.LLMProvider, error) {
	spec := Resolve(p.API, p.APIBase)
	if spec == nil {
		return nil, &schema.ConfigurationError{Reason: fmt.Sprintf("unknown provider api %q", p.API)}
	}

	var inner schema.LLMProvider
	switch spec.Name {
	case provider.APIAnthropic:
		inner = NewAnthropicProvider(p)
	case provider.APIResponses:
		inner = NewResponsesProvider(p)
	default:
		inner = NewOpenAIProvider(p)
	}

	return NewRetryingProvider(inner, p.Timeout, p.MaxRetries, p.RetryBackoff, p.Logger), nil
}
