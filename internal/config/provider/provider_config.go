package provider

import "time"

// Upstream API flavours accepted in provider.api.
const (
	APIChat      = "chat"
	APIResponses = "responses"
	APIAnthropic = "anthropic"
)

// ProviderConfig holds the credentials and sampling settings for the LLM backend.
type ProviderConfig struct {
	API             string            `mapstructure:"api" yaml:"api"`
	APIKey          string            `mapstructure:"apiKey" yaml:"apiKey"`
	APIBase         string            `mapstructure:"apiBase" yaml:"apiBase,omitempty"`
	Model           string            `mapstructure:"model" yaml:"model"` // empty selects the API's default
	Temperature     float64           `mapstructure:"temperature" yaml:"temperature"`
	TopP            float64           `mapstructure:"topP" yaml:"topP"`
	MaxTokens       int               `mapstructure:"maxTokens" yaml:"maxTokens"`
	Timeout         time.Duration     `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries      int               `mapstructure:"maxRetries" yaml:"maxRetries"`
	RetryBackoff    time.Duration     `mapstructure:"retryBackoff" yaml:"retryBackoff"`
	StructuredReply bool              `mapstructure:"structuredReply" yaml:"structuredReply"`
	ExtraHeaders    map[string]string `mapstructure:"extraHeaders" yaml:"extraHeaders,omitempty"`
}

func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		API:             APIChat,
		Temperature:     0.4,
		TopP:            1,
		MaxTokens:       1024,
		Timeout:         60 * time.Second,
		MaxRetries:      2,
		RetryBackoff:    500 * time.Millisecond,
		StructuredReply: true,
	}
}

// Supported reports whether api names a known upstream flavour.
func Supported(api string) bool {
	switch api {
	case APIChat, APIResponses, APIAnthropic:
		return true
	}
	return false
}
