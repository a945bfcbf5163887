// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of warp.
//
// warp is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package config loads the warp application configuration from YAML with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultServer is the sync server used when none is configured.
const DefaultServer = "https://api.warpgate.sh"

// DefaultPassphraseEnv names the variable holding the passphrase store secret.
const DefaultPassphraseEnv = "WARP_KEY_PASSPHRASE"

// Config represents the complete application configuration
type Config struct {
	DefaultServer string        `yaml:"default_server"`
	Key           KeyConfig     `yaml:"key"`
	Logging       LoggingConfig `yaml:"logging"`
}

// KeyConfig controls which keystores are enabled
type KeyConfig struct {
	// DefaultStorage enables the platform's native keystore.
	DefaultStorage bool             `yaml:"default_storage"`
	Passphrase     PassphraseConfig `yaml:"passphrase"`
}

// PassphraseConfig controls the passphrase-sealed keystore. The passphrase
// itself is never stored in the file; it is read from the named variable.
type PassphraseConfig struct {
	Enabled bool   `yaml:"enabled"`
	Env     string `yaml:"env"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DefaultServer: DefaultServer,
		Key: KeyConfig{
			DefaultStorage: true,
			Passphrase: PassphraseConfig{
				Env: DefaultPassphraseEnv,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from a YAML file and applies environment variable
// overrides. Settings absent from the file, or a missing file, keep their
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	// #nosec G304 - Config file path is provided by the user
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes cfg to path as YAML with owner-only permissions.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) {
	if server := os.Getenv("WARP_DEFAULT_SERVER"); server != "" {
		cfg.DefaultServer = server
	}
	if level := os.Getenv("WARP_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("WARP_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	u, err := url.Parse(c.DefaultServer)
	if err != nil {
		return fmt.Errorf("invalid default_server: %w", err)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("invalid default_server: %q (must be an http or https URL)", c.DefaultServer)
	}

	if !c.Key.DefaultStorage && !c.Key.Passphrase.Enabled {
		return fmt.Errorf("at least one keystore must be enabled")
	}
	if c.Key.Passphrase.Enabled && c.Key.Passphrase.Env == "" {
		return fmt.Errorf("key.passphrase.env is required when the passphrase keystore is enabled")
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"json": true, "text": true,
	}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}

	return nil
}

// Passphrase returns the passphrase store secret, or nil when that store
// is disabled.
func (c *Config) Passphrase() ([]byte, error) {
	if !c.Key.Passphrase.Enabled {
		return nil, nil
	}
	v, ok := os.LookupEnv(c.Key.Passphrase.Env)
	if !ok || v == "" {
		return nil, fmt.Errorf("passphrase keystore is enabled but %s is not set", c.Key.Passphrase.Env)
	}
	return []byte(v), nil
}
