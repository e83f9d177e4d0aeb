package providers

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/crystaldolphin/pillpal/internal/schema"
)

// RetryingProvider bounds every call to an inner provider with a per-attempt
// deadline and retries transient ProviderErrors (no response, 429, 5xx) with
// exponential backoff.
type RetryingProvider struct {
	inner      schema.LLMProvider
	timeout    time.Duration
	maxRetries uint64
	backoff    time.Duration
	log        zerolog.Logger
}

func NewRetryingProvider(inner schema.LLMProvider, timeout time.Duration, maxRetries int, backoff time.Duration, log zerolog.Logger) *RetryingProvider {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}
	return &RetryingProvider{
		inner:      inner,
		timeout:    timeout,
		maxRetries: uint64(maxRetries),
		backoff:    backoff,
		log:        log.With().Str("component", "retry").Logger(),
	}
}

func (r *RetryingProvider) DefaultModel() string { return r.inner.DefaultModel() }

func (r *RetryingProvider) Chat(
	ctx context.Context,
	messages schema.Messages,
	tools []schema.ToolSpec,
	opts schema.ChatOptions,
) (schema.LLMResponse, error) {
	var resp schema.LLMResponse
	attempt := 0

	b := retry.WithMaxRetries(r.maxRetries, retry.NewExponential(r.backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		out, err := r.attempt(ctx, messages, tools, opts)
		if err == nil {
			resp = out
			return nil
		}

		var perr *schema.ProviderError
		if errors.As(err, &perr) && perr.Retryable() {
			r.log.Warn().Err(err).Int("attempt", attempt).Msg("provider call failed, will retry")
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return schema.LLMResponse{}, err
	}
	return resp, nil
}

func (r *RetryingProvider) attempt(
	ctx context.Context,
	messages schema.Messages,
	tools []schema.ToolSpec,
	opts schema.ChatOptions,
) (schema.LLMResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.inner.Chat(ctx, messages, tools, opts)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return schema.LLMResponse{}, &schema.TimeoutError{After: r.timeout}
	}
	return resp, err
}
