// Package config loads halo's deployment configuration.
//
// Values are resolved in order: built-in defaults, an optional YAML file,
// then HALO_* environment variables. Command-line flags override the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/jmylchreest/halo/internal/colour"
	"github.com/jmylchreest/halo/internal/links"
)

// Environment variables read by ApplyEnv.
const (
	EnvBaseURL         = "HALO_BASE_URL"
	EnvSamplingTimeout = "HALO_SAMPLING_TIMEOUT"
	EnvCacheDir        = "HALO_CACHE_DIR"
	EnvListen          = "HALO_LISTEN"
)

// MaxFileSize limits the config file size (1 MiB).
const MaxFileSize = 1 << 20

var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrInvalidConfig  = errors.New("invalid config")
)

// Config holds the deployment settings.
type Config struct {
	// BaseURL is the path the site is deployed under, e.g. "/blog/".
	BaseURL  string         `yaml:"base_url"`
	Sampling SamplingConfig `yaml:"sampling"`
	Cache    CacheConfig    `yaml:"cache"`
	Server   ServerConfig   `yaml:"server"`
}

// SamplingConfig tunes dominant colour sampling.
type SamplingConfig struct {
	// Timeout bounds one sampling request, as a Go duration. "0" disables it.
	Timeout   string `yaml:"timeout"`
	Algorithm string `yaml:"algorithm"`
}

// CacheConfig controls the remote image cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"` // empty = user cache dir
}

// ServerConfig configures the preview server.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "/",
		Sampling: SamplingConfig{
			Timeout:   "10s",
			Algorithm: string(colour.AlgorithmDominant),
		},
		Server: ServerConfig{Listen: "127.0.0.1:8080"},
	}
}

// Load reads path over the defaults and applies the environment. An empty
// path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 - user-specified config path
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
			}
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	if len(data) > MaxFileSize {
		return fmt.Errorf("%w: file exceeds %d bytes", ErrConfigParse, MaxFileSize)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if err := yaml.UnmarshalWithOptions(data, c, yaml.Strict()); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigParse, err)
	}
	return nil
}

// ApplyEnv overrides fields from HALO_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvBaseURL); ok {
		c.BaseURL = v
	}
	if v, ok := lookup(EnvSamplingTimeout); ok {
		c.Sampling.Timeout = v
	}
	if v, ok := lookup(EnvCacheDir); ok && v != "" {
		c.Cache.Enabled = true
		c.Cache.Dir = v
	}
	if v, ok := lookup(EnvListen); ok && v != "" {
		c.Server.Listen = v
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.BaseURL != "" && !strings.HasPrefix(c.BaseURL, "/") {
		return fmt.Errorf("%w: base_url must start with '/', got %q", ErrInvalidConfig, c.BaseURL)
	}
	if _, err := c.SamplingTimeout(); err != nil {
		return err
	}
	if c.Sampling.Algorithm != "" && !colour.IsValidAlgorithm(colour.Algorithm(c.Sampling.Algorithm)) {
		return fmt.Errorf("%w: unknown sampling algorithm %q", ErrInvalidConfig, c.Sampling.Algorithm)
	}
	return nil
}

// BasePath is BaseURL without its trailing slash, "" for a root deployment.
func (c *Config) BasePath() string {
	return links.TrimBase(c.BaseURL)
}

// SamplingTimeout parses Sampling.Timeout. Empty means no timeout.
func (c *Config) SamplingTimeout() (time.Duration, error) {
	if c.Sampling.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Sampling.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: sampling timeout: %w", ErrInvalidConfig, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: sampling timeout must not be negative, got %s", ErrInvalidConfig, d)
	}
	return d, nil
}
