package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable, e.g. PATHTRACER_WIDTH
const Prefix = "PATHTRACER"

// Config holds the PATHTRACER_* settings shared by the CLI and the web server
type Config struct {
	Scene          string `envconfig:"SCENE" default:"default"`
	Width          int    `envconfig:"WIDTH" default:"400"`
	Samples        int    `envconfig:"SAMPLES" default:"100"`
	MaxDepth       int    `envconfig:"MAX_DEPTH" default:"50"`
	Seed           int64  `envconfig:"SEED" default:"42"`
	OutputDir      string `envconfig:"OUTPUT_DIR" default:"output"`
	Port           int    `envconfig:"PORT" default:"8080"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"localhost:*,127.0.0.1:*"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads the environment, fills defaults and validates the result
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no render could use
func (c *Config) Validate() error {
	if c.Width <= 0 {
		return fmt.Errorf("width must be positive, got %d", c.Width)
	}
	if c.Samples <= 0 {
		return fmt.Errorf("samples must be positive, got %d", c.Samples)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max depth must be positive, got %d", c.MaxDepth)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535, got %d", c.Port)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// Origins splits AllowedOrigins into websocket origin patterns
func (c *Config) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// SlogLevel parses LogLevel (debug, info, warn, error)
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
