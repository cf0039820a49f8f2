// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all signup configuration.
type Config struct {
	Submit  Submit  `yaml:"submit"`
	Display Display `yaml:"display"`
	Log     Log     `yaml:"log"`
}

// Submit holds simulated submission settings.
type Submit struct {
	Delay time.Duration `yaml:"delay"` // Simulated network latency.
}

// Display holds terminal output settings.
type Display struct {
	Plain bool `yaml:"plain"` // Force line prompts even on a TTY.
}

// Log holds logging settings. An empty Path disables logging.
type Log struct {
	Path   string `yaml:"path"`
	Level  string `yaml:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `yaml:"format"` // "console" | "json"
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Submit: Submit{
			Delay: time.Second,
		},
		Log: Log{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a single YAML config file at path and returns a Config.
// For merging multiple config sources, use LoadLayered instead.
// If the file does not exist, defaults are returned without error.
// If the file contains invalid YAML or unknown fields, an error is returned.
func Load(path string) (*Config, error) {
	return LoadLayered(path)
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if c.Submit.Delay < 0 {
		return fmt.Errorf("config: submit.delay must be non-negative, got %v", c.Submit.Delay)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: log.format must be \"console\" or \"json\", got %q", c.Log.Format)
	}
	return nil
}

// ApplyEnv applies environment variable overrides to the config.
// Supported variables: SIGNUP_SUBMIT_DELAY, SIGNUP_PLAIN, SIGNUP_LOG_PATH, SIGNUP_LOG_LEVEL.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("SIGNUP_SUBMIT_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid SIGNUP_SUBMIT_DELAY %q: %w", v, err)
		}
		c.Submit.Delay = d
	}
	if v := os.Getenv("SIGNUP_PLAIN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: invalid SIGNUP_PLAIN %q: %w", v, err)
		}
		c.Display.Plain = b
	}
	if v := os.Getenv("SIGNUP_LOG_PATH"); v != "" {
		c.Log.Path = v
	}
	if v := os.Getenv("SIGNUP_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	Submit  *rawSubmit  `yaml:"submit"`
	Display *rawDisplay `yaml:"display"`
	Log     *rawLog     `yaml:"log"`
}

type rawSubmit struct {
	Delay *time.Duration `yaml:"delay"`
}

type rawDisplay struct {
	Plain *bool `yaml:"plain"`
}

type rawLog struct {
	Path   *string `yaml:"path"`
	Level  *string `yaml:"level"`
	Format *string `yaml:"format"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		// Comment-only YAML files produce EOF with no decoded content.
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
func (c *Config) merge(layer *rawConfig) {
	if layer.Submit != nil && layer.Submit.Delay != nil {
		c.Submit.Delay = *layer.Submit.Delay
	}
	if layer.Display != nil && layer.Display.Plain != nil {
		c.Display.Plain = *layer.Display.Plain
	}
	if layer.Log != nil {
		if layer.Log.Path != nil {
			c.Log.Path = *layer.Log.Path
		}
		if layer.Log.Level != nil {
			c.Log.Level = *layer.Log.Level
		}
		if layer.Log.Format != nil {
			c.Log.Format = *layer.Log.Format
		}
	}
}
