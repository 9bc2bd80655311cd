package mediator

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the file form of the client, server and logging settings:
//
//	client:
//	  base_uri: http://localhost:8080/api
//	  timeout: 10s
//	server:
//	  addr: :8080
//	  api_base: /api
//	log:
//	  level: debug
//	  color: true
type Config struct {
	Client ClientConfig `yaml:"client"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Color  bool   `yaml:"color"`
	Prefix string `yaml:"prefix"`
}

const (
	DefaultAPIBase       = "/api"
	DefaultAddr          = ":8080"
	DefaultClientTimeout = 30 * time.Second
)

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(b)
}

// ParseConfig parses YAML configuration and fills in defaults for
// anything left out.
func ParseConfig(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.APIBase == "" {
		c.Server.APIBase = DefaultAPIBase
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Client.Timeout <= 0 {
		c.Client.Timeout = DefaultClientTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = LevelInfo.String()
	}
}

// Validate checks the settings needed by a client.  Servers need nothing
// beyond the defaults.
func (c Config) Validate() error {
	u, err := url.Parse(c.Client.BaseURI)
	if err != nil {
		return fmt.Errorf("client.base_uri: %w", err)
	}
	if !u.IsAbs() {
		return fmt.Errorf("client.base_uri: %q is not absolute", c.Client.BaseURI)
	}
	return nil
}

// Logger builds a StdLogger writing to os.Stderr from the log settings.
func (c LogConfig) Logger() Logger {
	return StdLogger{
		L:      log.New(os.Stderr, "", log.LstdFlags),
		Min:    LevelFromString(c.Level),
		Prefix: c.Prefix,
		Color:  c.Color,
	}
}
