package common

import (
	"errors"
	"fmt"
	"os"

	"github.com/flashbots/onionnet/directory"
	"github.com/flashbots/onionnet/onion"
	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration shared by all onionnet commands.
//
//	log:
//	  level: info
//	  json: false
//	host: localhost
//	registry_url: http://localhost:8080
//	metrics_addr: ""
//	debug: false
//	relays: 10
//	users: 2
//	ports:
//	  registry: 8080
//	  base_relay: 4000
//	  base_user: 3000
//	  span: 1000
//	postgres:
//	  host: localhost
//	  port: 5432
//	  user: onionnet
//	  password: secret
//	  database: onionnet
type Config struct {
	Log            LogConfig                 `yaml:"log"`
	Host           string                    `yaml:"host"`
	RegistryURL    string                    `yaml:"registry_url"`
	MetricsAddr    string                    `yaml:"metrics_addr"`
	Debug          bool                      `yaml:"debug"`
	Relays         int                       `yaml:"relays"`
	Users          int                       `yaml:"users"`
	Ports          PortsConfig               `yaml:"ports"`
	KeyDir         string                    `yaml:"key_dir"`
	AllowedOrigins []string                  `yaml:"allowed_origins"`
	Postgres       *directory.PostgresConfig `yaml:"postgres"`
}

// LogConfig selects the log level and format.
type LogConfig struct {
	Level   string `yaml:"level"`
	JSON    bool   `yaml:"json"`
	Service string `yaml:"service"`
}

// PortsConfig places the registry and the relay and user address ranges.
type PortsConfig struct {
	Registry         int `yaml:"registry"`
	onion.PortLayout `yaml:",inline"`
}

// DefaultConfig returns the configuration of a local deployment.
func DefaultConfig() *Config {
	return &Config{
		Log:         LogConfig{Level: "info"},
		Host:        "localhost",
		RegistryURL: "http://localhost:8080",
		Relays:      10,
		Users:       2,
		Ports: PortsConfig{
			Registry:   8080,
			PortLayout: onion.DefaultPortLayout,
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML over DefaultConfig.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Validate checks that relay and user ranges fit their ports and do not overlap.
func (c *Config) Validate() error {
	layout := c.Ports.PortLayout
	span := layout.Span
	if span <= 0 {
		span = onion.DefaultPortSpan
	}
	if c.Relays < 0 || c.Users < 0 {
		return errors.New("relays and users must not be negative")
	}
	if c.Relays > span || c.Users > span {
		return fmt.Errorf("at most %d relays and %d users fit the port span", span, span)
	}
	if layout.BaseRelayPort <= 0 || layout.BaseUserPort <= 0 || layout.BaseRelayPort+span > 65536 || layout.BaseUserPort+span > 65536 {
		return errors.New("relay and user port ranges must be valid TCP ports")
	}
	if layout.BaseRelayPort < layout.BaseUserPort+span && layout.BaseUserPort < layout.BaseRelayPort+span {
		return errors.New("relay and user port ranges overlap")
	}
	if reg := c.Ports.Registry; reg >= layout.BaseRelayPort && reg < layout.BaseRelayPort+span ||
		reg >= layout.BaseUserPort && reg < layout.BaseUserPort+span {
		return errors.New("registry port falls inside the relay or user range")
	}
	return nil
}

// RelayKeyPath returns the key file of relay id, or "" when keys are not persisted.
func (c *Config) RelayKeyPath(id int) string {
	if c.KeyDir == "" {
		return ""
	}
	return fmt.Sprintf("%s/relay-%d.pem", c.KeyDir, id)
}
