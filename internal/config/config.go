// Package config holds transfer configuration: explicit options, a YAML
// config file, S3MI_* environment variables, and host-RAM auto-tuning
// for the concurrency and memory caps.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines configuration for a transfer.
type Config struct {
	// SegmentSize is the number of bytes per range request.
	SegmentSize int64 `yaml:"segment_size"`

	// Concurrency is the maximum number of in-flight fetches.
	// Zero means auto-tune by host memory.
	Concurrency int `yaml:"concurrency"`

	// MaxBuffered is the maximum number of segments held in memory.
	// Zero means auto-tune by host memory.
	MaxBuffered int `yaml:"max_buffered"`

	// FetchTimeout is the per-fetch inactivity bound. A fetch that makes
	// no progress for this long is terminated and counted as a fault.
	FetchTimeout time.Duration `yaml:"fetch_timeout"`

	// RefreshMargin refreshes credentials when less than this remains
	// before their expiration.
	RefreshMargin time.Duration `yaml:"refresh_margin"`

	// Quiet suppresses informational output.
	Quiet bool `yaml:"quiet"`

	// MetricsAddr enables the Prometheus endpoint when non-empty.
	MetricsAddr string `yaml:"metrics_addr"`

	LogFormat string `yaml:"log_format"`
	LogLevel  string `yaml:"log_level"`
}

// Default returns a Config with sensible defaults. Concurrency and
// MaxBuffered are left zero for AutoTune to fill in.
func Default() Config {
	return Config{
		SegmentSize:   384 * 1024 * 1024, // 384MiB
		FetchTimeout:  120 * time.Second,
		RefreshMargin: 300 * time.Second,
		LogFormat:     "text",
		LogLevel:      "info",
	}
}

// yamlConfig is used for YAML unmarshaling with string sizes and durations.
type yamlConfig struct {
	SegmentSize   string `yaml:"segment_size"`
	Concurrency   int    `yaml:"concurrency"`
	MaxBuffered   int    `yaml:"max_buffered"`
	FetchTimeout  string `yaml:"fetch_timeout"`
	RefreshMargin string `yaml:"refresh_margin"`
	Quiet         bool   `yaml:"quiet"`
	MetricsAddr   string `yaml:"metrics_addr"`
	LogFormat     string `yaml:"log_format"`
	LogLevel      string `yaml:"log_level"`
}

// LoadFromFile loads configuration from a YAML file on top of defaults.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.SegmentSize != "" {
		size, err := ParseBytes(yc.SegmentSize)
		if err != nil {
			return Config{}, fmt.Errorf("parse segment_size: %w", err)
		}
		cfg.SegmentSize = size
	}
	if yc.Concurrency != 0 {
		cfg.Concurrency = yc.Concurrency
	}
	if yc.MaxBuffered != 0 {
		cfg.MaxBuffered = yc.MaxBuffered
	}
	if yc.FetchTimeout != "" {
		d, err := time.ParseDuration(yc.FetchTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse fetch_timeout: %w", err)
		}
		cfg.FetchTimeout = d
	}
	if yc.RefreshMargin != "" {
		d, err := time.ParseDuration(yc.RefreshMargin)
		if err != nil {
			return Config{}, fmt.Errorf("parse refresh_margin: %w", err)
		}
		cfg.RefreshMargin = d
	}
	cfg.Quiet = yc.Quiet
	if yc.MetricsAddr != "" {
		cfg.MetricsAddr = yc.MetricsAddr
	}
	if yc.LogFormat != "" {
		cfg.LogFormat = yc.LogFormat
	}
	if yc.LogLevel != "" {
		cfg.LogLevel = yc.LogLevel
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the S3MI_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("S3MI_SEGMENT_SIZE"); v != "" {
		size, err := ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse S3MI_SEGMENT_SIZE: %w", err)
		}
		c.SegmentSize = size
	}
	if v := os.Getenv("S3MI_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse S3MI_CONCURRENCY: %w", err)
		}
		c.Concurrency = n
	}
	if v := os.Getenv("S3MI_MAX_BUFFERED"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse S3MI_MAX_BUFFERED: %w", err)
		}
		c.MaxBuffered = n
	}
	if v := os.Getenv("S3MI_FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse S3MI_FETCH_TIMEOUT: %w", err)
		}
		c.FetchTimeout = d
	}
	if v := os.Getenv("S3MI_REFRESH_MARGIN"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse S3MI_REFRESH_MARGIN: %w", err)
		}
		c.RefreshMargin = d
	}
	if v := os.Getenv("S3MI_QUIET"); v != "" {
		c.Quiet = v == "true" || v == "1"
	}
	if v := os.Getenv("S3MI_METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
	}
	if v := os.Getenv("S3MI_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("S3MI_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	return nil
}

// Validate validates the configuration. Call after AutoTune.
func (c *Config) Validate() error {
	if c.SegmentSize <= 0 {
		return errors.New("config: segment_size must be positive")
	}
	if c.Concurrency <= 0 {
		return errors.New("config: concurrency must be positive")
	}
	if c.MaxBuffered <= 0 {
		return errors.New("config: max_buffered must be positive")
	}
	if c.FetchTimeout <= 0 {
		return errors.New("config: fetch_timeout must be positive")
	}
	if c.RefreshMargin <= 0 {
		return errors.New("config: refresh_margin must be positive")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.SegmentSize != 0 {
		c.SegmentSize = override.SegmentSize
	}
	if override.Concurrency != 0 {
		c.Concurrency = override.Concurrency
	}
	if override.MaxBuffered != 0 {
		c.MaxBuffered = override.MaxBuffered
	}
	if override.FetchTimeout != 0 {
		c.FetchTimeout = override.FetchTimeout
	}
	if override.RefreshMargin != 0 {
		c.RefreshMargin = override.RefreshMargin
	}
	if override.Quiet {
		c.Quiet = override.Quiet
	}
	if override.MetricsAddr != "" {
		c.MetricsAddr = override.MetricsAddr
	}
	if override.LogFormat != "" {
		c.LogFormat = override.LogFormat
	}
	if override.LogLevel != "" {
		c.LogLevel = override.LogLevel
	}
	return c
}
