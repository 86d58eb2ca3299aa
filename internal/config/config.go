// Package config provides configuration loading and validation for the
// syncpoint server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix is the prefix for environment variable overrides,
	// e.g. SYNCPOINT_WAIT_TIMEOUT=30.
	EnvPrefix = "SYNCPOINT"

	// DefaultAddress is the listen address used when none is configured.
	DefaultAddress = ":8080"

	// DefaultWaitTimeoutSeconds is how long a first party waits for its
	// counterpart before being released with a timeout.
	DefaultWaitTimeoutSeconds = 10

	// MinWaitTimeoutSeconds and MaxWaitTimeoutSeconds bound the
	// configurable wait timeout. Values outside the range are rejected at
	// load time.
	MinWaitTimeoutSeconds = 5
	MaxWaitTimeoutSeconds = 300
)

// Config is the root configuration for the syncpoint server.
type Config struct {
	// Address is the host:port the HTTP server listens on.
	Address string `yaml:"address,omitempty"`

	// WaitTimeoutSeconds is the rendezvous deadline in seconds.
	WaitTimeoutSeconds int `yaml:"waitTimeout,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"logLevel,omitempty"`
}

// Default returns a Config populated with the default values.
func Default() *Config {
	return &Config{
		Address:            DefaultAddress,
		WaitTimeoutSeconds: DefaultWaitTimeoutSeconds,
		LogLevel:           "info",
	}
}

// Load builds the effective configuration: defaults, then the optional YAML
// file at path, then SYNCPOINT_* environment overrides. The result is
// validated before being returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		realPath, err := validatePath(path)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(realPath) // #nosec G304 -- path validated above
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validatePath resolves symlinks and rejects non-local relative paths to
// prevent traversal outside the working directory.
func validatePath(path string) (string, error) {
	// Resolve symlinks to prevent symlink attacks.
	// Note that this calls filepath.Clean internally.
	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("failed to evaluate symlinks: %w", err)
	}

	if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
		return "", fmt.Errorf("path is not local or contains invalid traversal: %s", path)
	}
	return realPath, nil
}

func (c *Config) applyEnvOverrides() {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	_ = v.BindEnv("address", EnvPrefix+"_ADDRESS")
	_ = v.BindEnv("waitTimeout", EnvPrefix+"_WAIT_TIMEOUT")
	_ = v.BindEnv("logLevel", EnvPrefix+"_LOG_LEVEL")

	if s := v.GetString("address"); s != "" {
		c.Address = s
	}
	if s := v.GetString("waitTimeout"); s != "" {
		c.WaitTimeoutSeconds = v.GetInt("waitTimeout")
	}
	if s := v.GetString("logLevel"); s != "" {
		c.LogLevel = s
	}
}

// Validate checks the configuration for out-of-range values.
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("address is required")
	}
	if c.WaitTimeoutSeconds < MinWaitTimeoutSeconds {
		return fmt.Errorf("waitTimeout cannot be less than %d seconds", MinWaitTimeoutSeconds)
	}
	if c.WaitTimeoutSeconds > MaxWaitTimeoutSeconds {
		return fmt.Errorf("waitTimeout cannot exceed %d seconds", MaxWaitTimeoutSeconds)
	}
	return nil
}

// WaitTimeout returns the configured rendezvous deadline as a duration.
func (c *Config) WaitTimeout() time.Duration {
	return time.Duration(c.WaitTimeoutSeconds) * time.Second
}
