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

package cli

import (
	"fmt"
	"io"

	"github.com/awnumar/memguard"

	"github.com/jeremyhahn/warp/internal/config"
	"github.com/jeremyhahn/warp/internal/home"
	"github.com/jeremyhahn/warp/pkg/keymgr"
	"github.com/jeremyhahn/warp/pkg/logging"
)

// Config holds global CLI configuration
type Config struct {
	// ConfigFile is the path to the configuration file. Empty means
	// config.yaml in the application home.
	ConfigFile string

	// OutputFormat controls output formatting (json, text, table)
	OutputFormat string

	// Verbose enables debug logging
	Verbose bool

	// Metrics dumps collected metrics to stderr on exit
	Metrics bool
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		OutputFormat: string(OutputFormatText),
	}
}

// configPath resolves the application home and the configuration file in
// use.
func (c *Config) configPath() (*home.Home, string, error) {
	h, err := home.New()
	if err != nil {
		return nil, "", err
	}
	if c.ConfigFile != "" {
		return h, c.ConfigFile, nil
	}
	return h, h.Config(), nil
}

// load resolves the application home and reads the configuration file.
func (c *Config) load() (*home.Home, *config.Config, error) {
	h, path, err := c.configPath()
	if err != nil {
		return nil, nil, err
	}
	appCfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	return h, appCfg, nil
}

// newLogger builds the logger described by appCfg. Verbose forces debug.
func (c *Config) newLogger(appCfg *config.Config, w io.Writer) (*logging.Logger, error) {
	level := appCfg.Logging.Level
	if c.Verbose {
		level = "debug"
	}
	return logging.New(logging.Options{
		Level:  level,
		Format: appCfg.Logging.Format,
		Writer: w,
	})
}

// OpenKeyMgr loads the configuration and opens every enabled keystore.
// Logs go to logw.
func (c *Config) OpenKeyMgr(logw io.Writer) (*keymgr.KeyMgr, error) {
	h, appCfg, err := c.load()
	if err != nil {
		return nil, err
	}

	logger, err := c.newLogger(appCfg, logw)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	passphrase, err := appCfg.Passphrase()
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(passphrase)

	logger.Debug("opening keystores",
		"home", h.Root(),
		"default_storage", appCfg.Key.DefaultStorage,
		"passphrase", appCfg.Key.Passphrase.Enabled)

	return keymgr.New(h, &keymgr.Config{
		DefaultStorage: appCfg.Key.DefaultStorage,
		Passphrase:     passphrase,
	}, logger)
}
