package providers

import (
	"strings"

	"github.com/crystaldolphin/pillpal/internal/config/provider"
)

// APISpec is the metadata record for one upstream API flavour.
type APISpec struct {
	Name           string // config value of provider.api
	DisplayName    string // shown in `pillpal status`
	EnvKey         string // conventional env var holding the key
	DefaultAPIBase string
	DefaultModel   string
	// SupportsTools is false for backends that only see a flattened transcript.
	SupportsTools bool
	// DetectByBaseKeyword selects this API when provider.api is empty and the
	// configured base URL contains the keyword.
	DetectByBaseKeyword string
}

// APIS is the registry. Order = detection priority; the last entry is the default.
var APIS = []APISpec{
	{
		Name:                provider.APIAnthropic,
		DisplayName:         "Anthropic Messages",
		EnvKey:              "ANTHROPIC_API_KEY",
		DefaultAPIBase:      "https://api.anthropic.com",
		DefaultModel:        "claude-3-5-haiku-latest",
		SupportsTools:       true,
		DetectByBaseKeyword: "anthropic",
	},
	{
		Name:           provider.APIResponses,
		DisplayName:    "OpenAI Responses",
		EnvKey:         "OPENAI_API_KEY",
		DefaultAPIBase: "https://api.openai.com/v1",
		DefaultModel:   "gpt-4o-mini",
	},
	{
		Name:           provider.APIChat,
		DisplayName:    "OpenAI-compatible chat completions",
		EnvKey:         "OPENAI_API_KEY",
		DefaultAPIBase: "https://api.openai.com/v1",
		DefaultModel:   "gpt-4o-mini",
		SupportsTools:  true,
	},
}

// FindByName returns the spec for an API name, or nil.
func FindByName(name string) *APISpec {
	for i := range APIS {
		if APIS[i].Name == name {
			return &APIS[i]
		}
	}
	return nil
}

// Resolve picks the spec for name, detecting it from apiBase when name is
// empty. Unknown non-empty names return nil.
func Resolve(name, apiBase string) *APISpec {
	if name != "" {
		return FindByName(name)
	}
	base := strings.ToLower(apiBase)
	for i := range APIS {
		if kw := APIS[i].DetectByBaseKeyword; kw != "" && strings.Contains(base, kw) {
			return &APIS[i]
		}
	}
	return FindByName(provider.APIChat)
}
