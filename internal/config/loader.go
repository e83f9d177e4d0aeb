package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/crystaldolphin/pillpal/internal/config/provider"
	"github.com/crystaldolphin/pillpal/internal/providers"
	"github.com/crystaldolphin/pillpal/internal/schema"
)

// EnvPrefix namespaces environment overrides.
const EnvPrefix = "PILLPAL"

// ConfigPath returns the default configuration file path: ~/.pillpal/config.yaml.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

// DataDir returns the pillpal data directory: ~/.pillpal.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pillpal"
	}
	return filepath.Join(home, ".pillpal")
}

// Load builds the configuration from defaults, the config file at path (if it
// exists), a .env file in the working directory, and PILLPAL_* variables, in
// increasing order of precedence. If path is empty, ConfigPath() is used.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	cfg.Provider.APIKey = strings.TrimSpace(cfg.Provider.APIKey)
	if cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = fallbackAPIKey(cfg.Provider)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, def Config) {
	v.SetDefault("provider.api", def.Provider.API)
	v.SetDefault("provider.apiKey", def.Provider.APIKey)
	v.SetDefault("provider.apiBase", def.Provider.APIBase)
	v.SetDefault("provider.model", def.Provider.Model)
	v.SetDefault("provider.temperature", def.Provider.Temperature)
	v.SetDefault("provider.topP", def.Provider.TopP)
	v.SetDefault("provider.maxTokens", def.Provider.MaxTokens)
	v.SetDefault("provider.timeout", def.Provider.Timeout)
	v.SetDefault("provider.maxRetries", def.Provider.MaxRetries)
	v.SetDefault("provider.retryBackoff", def.Provider.RetryBackoff)
	v.SetDefault("provider.structuredReply", def.Provider.StructuredReply)

	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("server.cors.allowOrigin", def.Server.CORS.AllowOrigin)
	v.SetDefault("server.cors.allowMethods", def.Server.CORS.AllowMethods)
	v.SetDefault("server.cors.allowHeaders", def.Server.CORS.AllowHeaders)

	v.SetDefault("tools.concurrency", def.Tools.Concurrency)
	v.SetDefault("tools.maxRounds", def.Tools.MaxRounds)

	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.pretty", def.Log.Pretty)
}

// fallbackAPIKey reads the vendor's conventional variable, e.g. OPENAI_API_KEY.
func fallbackAPIKey(p provider.ProviderConfig) string {
	spec := providers.Resolve(p.API, p.APIBase)
	if spec == nil || spec.EnvKey == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(spec.EnvKey))
}

// Validate reports every setting that would stop the server from working,
// as a single *schema.ConfigurationError.
func (c *Config) Validate() error {
	var problems []string

	if c.Provider.API != "" && !provider.Supported(c.Provider.API) {
		problems = append(problems, fmt.Sprintf("provider.api %q is not one of chat, responses, anthropic", c.Provider.API))
	}
	if c.Provider.APIKey == "" {
		env := "OPENAI_API_KEY"
		if spec := providers.Resolve(c.Provider.API, c.Provider.APIBase); spec != nil && spec.EnvKey != "" {
			env = spec.EnvKey
		}
		problems = append(problems, "provider API key is not set (provider.apiKey, PILLPAL_PROVIDER_APIKEY or "+env+")")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if c.Tools.MaxRounds < 1 {
		problems = append(problems, "tools.maxRounds must be at least 1")
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, fmt.Sprintf("log.level %q is not a valid level", c.Log.Level))
	}

	if len(problems) == 0 {
		return nil
	}
	return &schema.ConfigurationError{Reason: strings.Join(problems, "; ")}
}

// Save writes cfg to path as YAML.
// If path is empty, ConfigPath() is used.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
