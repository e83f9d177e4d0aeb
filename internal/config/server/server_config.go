package server

import "fmt"

// CORSConfig holds the cross-origin headers sent on every response.
type CORSConfig struct {
	AllowOrigin  string `mapstructure:"allowOrigin" yaml:"allowOrigin"`
	AllowMethods string `mapstructure:"allowMethods" yaml:"allowMethods"`
	AllowHeaders string `mapstructure:"allowHeaders" yaml:"allowHeaders"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string     `mapstructure:"host" yaml:"host"`
	Port int        `mapstructure:"port" yaml:"port"`
	CORS CORSConfig `mapstructure:"cors" yaml:"cors"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host: "0.0.0.0",
		Port: 8080,
		CORS: CORSConfig{
			AllowOrigin:  "*",
			AllowMethods: "POST, OPTIONS",
			AllowHeaders: "Content-Type, Authorization",
		},
	}
}

// Addr returns host:port for net.Listen.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
