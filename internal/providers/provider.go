// Package providers implements schema.LLMProvider for the supported upstream
// APIs: OpenAI-compatible chat completions over plain HTTP, the OpenAI
// Responses API and the Anthropic Messages API.
package providers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/crystaldolphin/pillpal/internal/schema"
)

const (
	DefaultMaxTokens    = 1024
	DefaultTimeout      = 60 * time.Second
	DefaultMaxRetries   = 2
	DefaultRetryBackoff = 500 * time.Millisecond

	// maxResponseBytes bounds how much of an upstream body is read.
	maxResponseBytes = 4 << 20
)

// Params are the raw values needed to construct any schema.LLMProvider.
// Extracted from config.Config by the caller to avoid an import cycle.
type Params struct {
	API          string // "chat", "responses" or "anthropic"; empty means detect from APIBase
	APIKey       string
	APIBase      string
	DefaultModel string
	ExtraHeaders map[string]string

	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

func (p Params) httpClient() *http.Client {
	if p.HTTPClient != nil {
		return p.HTTPClient
	}
	return &http.Client{}
}

func missingKey(api string) error {
	reason := "provider API key is not set"
	if spec := FindByName(api); spec != nil && spec.EnvKey != "" {
		reason += " (set PILLPAL_PROVIDER_APIKEY or " + spec.EnvKey + ")"
	}
	return &schema.ConfigurationError{Reason: reason}
}

// transportError classifies an error returned by an HTTP round trip.
// Context expiry passes through untouched so the retry layer can report it.
func transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	return schema.NewProviderError(0, err.Error())
}

// isTransport reports whether err came from the network rather than from
// decoding a response.
func isTransport(err error) bool {
	var urlErr *url.Error
	var netErr net.Error
	return errors.As(err, &urlErr) || errors.As(err, &netErr)
}

func resolveModel(model, fallback string) string {
	if m := strings.TrimSpace(model); m != "" {
		return m
	}
	return fallback
}

func maxTokens(n int) int {
	if n <= 0 {
		return DefaultMaxTokens
	}
	return n
}
