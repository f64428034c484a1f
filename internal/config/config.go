// Package config loads the YAML settings shared by the CLI and the HTTP
// server, and builds the logger they use.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/simonhull/metaspector"
)

// EnvPath names the environment variable consulted when no --config flag
// is given.
const EnvPath = "METASPECTOR_CONFIG"

type Config struct {
	MaxDepth       int    `yaml:"max_depth"`
	MaxArtworkSize int64  `yaml:"max_artwork_size"`
	Concurrency    int    `yaml:"concurrency"`
	Strict         bool   `yaml:"strict"`
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"` // "text" or "json"
	Server         Server `yaml:"server"`
}

type Server struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxBodyBytes   int64    `yaml:"max_body_bytes"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		MaxDepth:    32,
		Concurrency: runtime.NumCPU(),
		LogLevel:    "info",
		LogFormat:   "text",
		Server: Server{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
			MaxBodyBytes:   512 << 20,
		},
	}
}

// Load reads the file at path over the defaults. An empty path falls back
// to $METASPECTOR_CONFIG; when neither names a file the defaults are
// returned as is.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cfg.decode(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// decode overlays YAML onto c, rejecting unknown keys.
func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validFormats = []string{"text", "json"}
)

func (c *Config) validate() error {
	if c.MaxDepth < 1 || c.MaxDepth > 1024 {
		return fmt.Errorf("invalid max_depth: %d (must be between 1-1024)", c.MaxDepth)
	}
	if c.MaxArtworkSize < 0 {
		return fmt.Errorf("invalid max_artwork_size: %d (must be non-negative)", c.MaxArtworkSize)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("invalid concurrency: %d (must be positive)", c.Concurrency)
	}
	if !slices.Contains(validLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("invalid log_level: %s (must be one of: %v)", c.LogLevel, validLevels)
	}
	if !slices.Contains(validFormats, strings.ToLower(c.LogFormat)) {
		return fmt.Errorf("invalid log_format: %s (must be one of: %v)", c.LogFormat, validFormats)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("invalid server.max_body_bytes: %d (must be positive)", c.Server.MaxBodyBytes)
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger builds the logger described by LogLevel and LogFormat. verbose
// forces debug level.
func (c *Config) Logger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Options converts the decode settings into library options.
func (c *Config) Options(logger *slog.Logger) []metaspector.Option {
	opts := []metaspector.Option{
		metaspector.WithMaxDepth(c.MaxDepth),
		metaspector.WithMaxArtworkSize(c.MaxArtworkSize),
		metaspector.WithConcurrency(c.Concurrency),
	}
	if c.Strict {
		opts = append(opts, metaspector.WithStrictParsing())
	}
	if logger != nil {
		opts = append(opts, metaspector.WithLogger(logger))
	}
	return opts
}
