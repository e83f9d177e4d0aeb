package tool

// ToolsConfig groups tool dispatch settings.
type ToolsConfig struct {
	// Concurrency bounds parallel tool calls within one batch.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
	// MaxRounds caps tool batches per request before a reply is forced.
	MaxRounds int `mapstructure:"maxRounds" yaml:"maxRounds"`
}

func DefaultToolsConfig() ToolsConfig {
	return ToolsConfig{Concurrency: 4, MaxRounds: 1}
}
