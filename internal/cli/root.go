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

// Package cli implements the warp command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/warp/pkg/metrics"
)

// NewRootCmd builds the warp command tree. Flags are bound to cfg.
func NewRootCmd(cfg *Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "warp",
		Short: "warp - encryption key management",
		Long: `warp manages the file encryption keys used to seal data before it
is synced. Keys live in the platform's native keystore:

  - macOS:   the login keychain
  - Windows: key files protected with DPAPI
  - Linux:   the Secret Service (GNOME Keyring, KWallet)

An optional passphrase keystore seals key files under ~/.warp/sealed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !OutputFormat(cfg.OutputFormat).Valid() {
				return fmt.Errorf("unknown output format: %s", cfg.OutputFormat)
			}
			return nil
		},
	}

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "",
		"config file (default is $HOME/.warp/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&cfg.OutputFormat, "output", "o", cfg.OutputFormat,
		"output format (text, json, table)")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", false,
		"verbose output")
	rootCmd.PersistentFlags().BoolVar(&cfg.Metrics, "metrics", false,
		"print collected metrics to stderr on exit")

	rootCmd.AddCommand(newVersionCmd(cfg))
	rootCmd.AddCommand(newInitCmd(cfg))
	rootCmd.AddCommand(newKeyCmd(cfg))
	rootCmd.AddCommand(newKeystoreCmd(cfg))
	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) error {
	cfg := NewConfig()
	rootCmd := NewRootCmd(cfg)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	if err != nil {
		handleError(cfg, stderr, err)
	}
	if cfg.Metrics {
		metrics.CollectOnce()
		if merr := metrics.WriteText(stderr, nil); merr != nil && err == nil {
			err = merr
		}
	}
	return err
}

// handleError prints err in the selected output format
func handleError(cfg *Config, w io.Writer, err error) {
	format := cfg.OutputFormat
	if !OutputFormat(format).Valid() {
		format = string(OutputFormatText)
	}
	_ = NewPrinter(format, w).PrintError(err) // best-effort
}

// printVerbose prints a message if verbose mode is enabled
func printVerbose(cfg *Config, w io.Writer, format string, args ...interface{}) {
	if cfg.Verbose {
		fmt.Fprintf(w, "[VERBOSE] "+format+"\n", args...)
	}
}
