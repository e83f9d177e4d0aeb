// Package dependency wires core pillpal services using go.uber.org/dig.
package dependency

import (
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/dig"

	"github.com/crystaldolphin/pillpal/internal/agent"
	"github.com/crystaldolphin/pillpal/internal/config"
	"github.com/crystaldolphin/pillpal/internal/providers"
	"github.com/crystaldolphin/pillpal/internal/schema"
	"github.com/crystaldolphin/pillpal/internal/server"
	"github.com/crystaldolphin/pillpal/internal/tools"
)

// Container holds the resolved core service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	provider schema.LLMProvider
	pipeline *agent.Pipeline
	server   *server.Server
}

func (c *Container) Provider() schema.LLMProvider { return c.provider }
func (c *Container) Pipeline() *agent.Pipeline    { return c.pipeline }
func (c *Container) Server() *server.Server       { return c.server }

// Clock is the time source handed to the tools, named so dig can inject it.
type Clock func() time.Time

// New builds and wires all core services from cfg. log is the root logger;
// components derive their own children from it.
func New(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	return NewWithClock(cfg, log, time.Now)
}

// NewWithClock is New with an explicit tool clock.
func NewWithClock(cfg *config.Config, log zerolog.Logger, now Clock) (*Container, error) {
	d := dig.New()

	if err := d.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}
	if err := d.Provide(func() zerolog.Logger { return log }); err != nil {
		return nil, err
	}
	if err := d.Provide(func() Clock { return now }); err != nil {
		return nil, err
	}
	if err := d.Provide(newProvider); err != nil {
		return nil, err
	}
	if err := d.Provide(newToolRegistry); err != nil {
		return nil, err
	}
	if err := d.Provide(newPipeline); err != nil {
		return nil, err
	}
	if err := d.Provide(newChatHandler); err != nil {
		return nil, err
	}
	if err := d.Provide(newServer); err != nil {
		return nil, err
	}

	var result *Container
	err := d.Invoke(func(
		provider schema.LLMProvider,
		pipeline *agent.Pipeline,
		srv *server.Server,
	) {
		result = &Container{
			provider: provider,
			pipeline: pipeline,
			server:   srv,
		}
	})
	return result, err
}

func newProvider(cfg *config.Config, log zerolog.Logger) (schema.LLMProvider, error) {
	p := cfg.Provider
	return providers.New(providers.Params{
		API:          p.API,
		APIKey:       p.APIKey,
		APIBase:      p.APIBase,
		DefaultModel: p.Model,
		ExtraHeaders: p.ExtraHeaders,
		Timeout:      p.Timeout,
		MaxRetries:   p.MaxRetries,
		RetryBackoff: p.RetryBackoff,
		Logger:       log,
	})
}

func newToolRegistry(now Clock) *tools.Registry {
	return tools.NewRegistryBuilder().WithDefaults(now).Build()
}

func newPipeline(cfg *config.Config, p schema.LLMProvider, reg *tools.Registry, log zerolog.Logger) *agent.Pipeline {
	settings := agent.Settings{
		Model:           cfg.Provider.Model,
		MaxTokens:       cfg.Provider.MaxTokens,
		Temperature:     cfg.Provider.Temperature,
		TopP:            cfg.Provider.TopP,
		StructuredReply: cfg.Provider.StructuredReply,
		MaxToolRounds:   cfg.Tools.MaxRounds,
		ToolConcurrency: cfg.Tools.Concurrency,
	}
	return agent.NewPipeline(p, reg, settings, log)
}

func newChatHandler(pipeline *agent.Pipeline) *server.ChatHandler {
	return server.NewChatHandler(pipeline)
}

func newServer(cfg *config.Config, chat *server.ChatHandler, log zerolog.Logger) *server.Server {
	return server.New(cfg.Server, chat, log)
}
