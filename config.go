/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagekit

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/suparena/storagekit/account"
	"github.com/suparena/storagekit/errors"
	"github.com/suparena/storagekit/storagemodels"
)

// Config selects the account and driver for each service. A nil service
// section leaves that helper without an account.
type Config struct {
	Tables *ServiceConfig `yaml:"tables,omitempty"`
	Queues *ServiceConfig `yaml:"queues,omitempty"`
	Blobs  *ServiceConfig `yaml:"blobs,omitempty"`
	Topics *ServiceConfig `yaml:"topics,omitempty"`

	Retry          RetryConfig   `yaml:"retry,omitempty"`
	PublicAccess   string        `yaml:"public_access,omitempty"`
	ReceiveTimeout time.Duration `yaml:"receive_timeout,omitempty"`

	// Metrics exports cache and creator counters on the default Prometheus registerer
	Metrics bool `yaml:"metrics,omitempty"`

	// EnvFiles are .env files consulted before the process environment
	EnvFiles []string `yaml:"env_files,omitempty"`
}

// ServiceConfig picks a driver and the account it connects with. An empty
// Driver is derived from the account provider.
type ServiceConfig struct {
	Driver         string `yaml:"driver,omitempty"`
	account.Source `yaml:",inline"`
}

// RetryConfig mirrors storagemodels.RetryPolicy. Zero values keep the defaults.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts,omitempty"`
	Interval    time.Duration `yaml:"interval,omitempty"`
	MaxDuration time.Duration `yaml:"max_duration,omitempty"`
	Forever     bool          `yaml:"forever,omitempty"`
}

// LoadConfig reads a YAML config file. ${VAR} references are expanded from
// the environment before parsing.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML config data
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, errors.NewInvalidFormatError("config", "failed to parse yaml", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that do not need an account to verify
func (c *Config) Validate() error {
	if c.PublicAccess != "" && !storagemodels.PublicAccess(c.PublicAccess).Valid() {
		return errors.NewInvalidArgumentError("public_access", fmt.Sprintf("unknown access level %q", c.PublicAccess))
	}
	if c.Retry.MaxAttempts < 0 || c.Retry.Interval < 0 || c.Retry.MaxDuration < 0 {
		return errors.NewInvalidArgumentError("retry", "values can not be negative")
	}
	if c.ReceiveTimeout < 0 {
		return errors.NewInvalidArgumentError("receive_timeout", "can not be negative")
	}
	return nil
}

// options turns the config into helper options
func (c *Config) options() []storagemodels.Option {
	var opts []storagemodels.Option

	retry := storagemodels.DefaultRetryPolicy()
	if c.Retry.Forever {
		retry = storagemodels.RetryForever()
	}
	if c.Retry.MaxAttempts > 0 {
		retry.MaxAttempts = c.Retry.MaxAttempts
	}
	if c.Retry.Interval > 0 {
		retry.Interval = c.Retry.Interval
	}
	if c.Retry.MaxDuration > 0 {
		retry.MaxDuration = c.Retry.MaxDuration
	}
	opts = append(opts, storagemodels.WithRetryPolicy(retry))

	if c.PublicAccess != "" {
		opts = append(opts, storagemodels.WithPublicAccess(storagemodels.PublicAccess(c.PublicAccess)))
	}
	if c.ReceiveTimeout > 0 {
		opts = append(opts, storagemodels.WithReceiveTimeout(c.ReceiveTimeout))
	}
	return opts
}
