// Package config loads the navwatch daemon configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Host kinds.
const (
	KindBrowser = "browser"
	KindScript  = "script"
)

// Sink types.
const (
	SinkStdout  = "stdout"
	SinkWebhook = "webhook"
	SinkJournal = "journal"
)

// Config is the top-level navwatch configuration.
type Config struct {
	LogLevel string       `yaml:"log_level"`
	Host     HostConfig   `yaml:"host"`
	Poll     PollConfig   `yaml:"poll"`
	Sinks    []SinkConfig `yaml:"sinks"`
	HTTP     HTTPConfig   `yaml:"http"`
	MCP      MCPConfig    `yaml:"mcp"`
}

// HostConfig selects and configures the observed environment.
type HostConfig struct {
	Kind             string        `yaml:"kind"` // browser | script
	URL              string        `yaml:"url"`
	Remote           string        `yaml:"remote"`
	Stealth          bool          `yaml:"stealth"`
	ResourceBlocking []string      `yaml:"resource_blocking"`
	NavigateTimeout  time.Duration `yaml:"navigate_timeout"`
	Script           string        `yaml:"script"` // for kind=script
}

// PollConfig controls the observer tick.
type PollConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// SinkConfig defines an output backend.
type SinkConfig struct {
	Type    string        `yaml:"type"`    // stdout | webhook | journal
	URL     string        `yaml:"url"`     // for webhook
	Retries int           `yaml:"retries"` // for webhook
	Backoff time.Duration `yaml:"backoff"` // for webhook
	Path    string        `yaml:"path"`    // for journal
}

// HTTPConfig enables the HTTP API when Addr is set.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// MCPConfig enables the MCP server on stdin/stdout.
type MCPConfig struct {
	Stdio bool `yaml:"stdio"`
}

// LoadFile reads, defaults and validates a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Host.Kind == "" {
		c.Host.Kind = KindBrowser
	}
	if c.Host.NavigateTimeout <= 0 {
		c.Host.NavigateTimeout = 30 * time.Second
	}
	if c.Poll.Interval <= 0 {
		c.Poll.Interval = 100 * time.Millisecond
	}
	if len(c.Sinks) == 0 && !c.MCP.Stdio {
		c.Sinks = []SinkConfig{{Type: SinkStdout}}
	}
	for i := range c.Sinks {
		s := &c.Sinks[i]
		if s.Type == SinkWebhook {
			if s.Retries <= 0 {
				s.Retries = 3
			}
			if s.Backoff <= 0 {
				s.Backoff = time.Second
			}
		}
	}
}

// Validate reports every configuration error at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	switch c.Host.Kind {
	case KindBrowser:
		if c.Host.URL == "" {
			errs = append(errs, errors.New("host: browser kind requires url"))
		}
	case KindScript:
		if c.Host.Script == "" {
			errs = append(errs, errors.New("host: script kind requires script"))
		}
	default:
		errs = append(errs, fmt.Errorf("host: unknown kind %q", c.Host.Kind))
	}

	for i, s := range c.Sinks {
		switch s.Type {
		case SinkStdout:
			if c.MCP.Stdio {
				errs = append(errs, fmt.Errorf("sinks[%d]: stdout sink conflicts with mcp.stdio", i))
			}
		case SinkWebhook:
			if s.URL == "" {
				errs = append(errs, fmt.Errorf("sinks[%d]: webhook requires url", i))
			}
		case SinkJournal:
			if s.Path == "" {
				errs = append(errs, fmt.Errorf("sinks[%d]: journal requires path", i))
			}
		default:
			errs = append(errs, fmt.Errorf("sinks[%d]: unknown type %q", i, s.Type))
		}
	}

	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// Source labels events from the configured host.
func (c *Config) Source() string {
	if c.Host.Kind == KindScript {
		return "script:" + c.Host.Script
	}
	return c.Host.URL
}
