// Package config loads the YAML configuration shared by every front end.
//
// The encoding itself has no knobs: canvas size, region layout, token format
// and background color are fixed by the encoder package. Configuration only
// covers the surfaces around it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvLogLevel = "IMAGE_TEXT_LOG_LEVEL"
	EnvHTTPPort = "IMAGE_TEXT_HTTP_PORT"
	EnvWorkers  = "IMAGE_TEXT_WORKERS"
)

// Config represents the application configuration
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Preview PreviewConfig `yaml:"preview"`
	Workers int           `yaml:"workers"`
	Watch   WatchConfig   `yaml:"watch"`
	Log     LogConfig     `yaml:"log"`
}

type HTTPConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	AllowOrigin    string `yaml:"allow_origin"`
}

// Addr returns the listen address in host:port form.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

type PreviewConfig struct {
	Format      string `yaml:"format"`
	JPEGQuality int    `yaml:"jpeg_quality"`
}

type WatchConfig struct {
	Extensions   []string      `yaml:"extensions"`
	Debounce     time.Duration `yaml:"debounce"`
	OutputSuffix string        `yaml:"output_suffix"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Host:           "0.0.0.0",
			Port:           3000,
			MaxUploadBytes: 10 << 20,
			AllowOrigin:    "*",
		},
		Preview: PreviewConfig{
			Format:      "png",
			JPEGQuality: 90,
		},
		Workers: 0,
		Watch: WatchConfig{
			Extensions:   []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".webp"},
			Debounce:     500 * time.Millisecond,
			OutputSuffix: ".txt",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads and parses the configuration file.
//
// Values missing from the file keep their defaults. Environment overrides are
// applied before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from the IMAGE_TEXT_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvHTTPPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvHTTPPort, v, err)
		}
		c.HTTP.Port = port
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvWorkers, v, err)
		}
		c.Workers = n
	}
	return nil
}

// Validate checks that every field holds a usable value
func (c *Config) Validate() error {
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		return fmt.Errorf("http.max_upload_bytes must be positive")
	}
	switch c.Preview.Format {
	case "png", "jpeg":
	default:
		return fmt.Errorf("preview.format must be png or jpeg, got %q", c.Preview.Format)
	}
	if c.Preview.JPEGQuality < 1 || c.Preview.JPEGQuality > 100 {
		return fmt.Errorf("preview.jpeg_quality must be between 1 and 100, got %d", c.Preview.JPEGQuality)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	if len(c.Watch.Extensions) == 0 {
		return fmt.Errorf("watch.extensions must not be empty")
	}
	for _, ext := range c.Watch.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("watch.extensions entry %q must start with a dot", ext)
		}
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if c.Watch.OutputSuffix == "" {
		return fmt.Errorf("watch.output_suffix is required")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}
