// Package config defines the configuration schema for pillpal.
//
// Keys are camelCase in the YAML file. Every key can be overridden from the
// environment as PILLPAL_<SECTION>_<KEY>, e.g. PILLPAL_PROVIDER_APIKEY.
package config

import (
	"github.com/crystaldolphin/pillpal/internal/config/provider"
	"github.com/crystaldolphin/pillpal/internal/config/server"
	"github.com/crystaldolphin/pillpal/internal/config/tool"
)

// LogConfig controls the zerolog output.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// Config is the root configuration object.
type Config struct {
	Provider provider.ProviderConfig `mapstructure:"provider" yaml:"provider"`
	Server   server.ServerConfig     `mapstructure:"server" yaml:"server"`
	Tools    tool.ToolsConfig        `mapstructure:"tools" yaml:"tools"`
	Log      LogConfig               `mapstructure:"log" yaml:"log"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() Config {
	return Config{
		Provider: provider.DefaultProviderConfig(),
		Server:   server.DefaultServerConfig(),
		Tools:    tool.DefaultToolsConfig(),
		Log:      LogConfig{Level: "info"},
	}
}
