package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. ADMINCTL_SERVER_URL.
const EnvPrefix = "ADMINCTL"

type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	URL     string        `yaml:"url" envconfig:"URL"`         // default "http://localhost:8080"
	Token   string        `yaml:"token" envconfig:"TOKEN"`     // bearer token, optional
	Session string        `yaml:"session" envconfig:"SESSION"` // JSESSIONID cookie, optional
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT"` // default 30s
}

type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`   // default "info"
	Format string `yaml:"format" envconfig:"FORMAT"` // "console" or "json"
	File   string `yaml:"file" envconfig:"FILE"`     // used by the terminal UI
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:     "http://localhost:8080",
			Timeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			File:   filepath.Join(defaultDir(), "adminctl.log"),
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (when
// it exists), then ADMINCTL_* environment variables. An empty path means
// DefaultPath().
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields Load cannot coerce.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server url %q must be absolute, e.g. http://localhost:8080", c.Server.URL)
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("server timeout must not be negative")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log format %q must be console or json", c.Log.Format)
	}
	return nil
}

// DefaultPath is ~/.adminctl/config.yaml.
func DefaultPath() string {
	return filepath.Join(defaultDir(), "config.yaml")
}

// defaultDir resolves the per-user directory, falling back to
// /tmp/adminctl when the home directory cannot be determined.
func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/tmp", "adminctl")
	}
	return filepath.Join(home, ".adminctl")
}
