package agent

import (
	"github.com/rs/zerolog"

	"github.com/crystaldolphin/pillpal/internal/schema"
	"github.com/crystaldolphin/pillpal/internal/tools"
)

// Settings are the per-call model parameters and loop bounds.
type Settings struct {
	Model           string
	MaxTokens       int
	Temperature     float64
	TopP            float64
	StructuredReply bool
	// MaxToolRounds caps how many tool batches one request may dispatch.
	MaxToolRounds   int
	ToolConcurrency int
}

func (s Settings) chatOptions() schema.ChatOptions {
	return schema.NewChatOptions(s.Model, s.MaxTokens, s.Temperature, s.TopP, s.StructuredReply)
}

// NewPipeline wires a Pipeline from a provider and the tool registry.
func NewPipeline(provider schema.LLMProvider, registry *tools.Registry, settings Settings, log zerolog.Logger) *Pipeline {
	if settings.MaxToolRounds <= 0 {
		settings.MaxToolRounds = 1
	}
	if settings.Model == "" {
		settings.Model = provider.DefaultModel()
	}
	tls := registry.AllTools()
	return &Pipeline{
		provider:   provider,
		context:    NewContextBuilder(""),
		tools:      tls,
		dispatcher: NewDispatcher(tls, settings.ToolConcurrency, log),
		settings:   settings,
		log:        log.With().Str("component", "pipeline").Logger(),
	}
}
