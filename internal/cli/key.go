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
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/warp/pkg/key"
	"github.com/jeremyhahn/warp/pkg/keystore"
)

// ErrNoSuchKeystore is returned when a command names a keystore that is
// not enabled.
var ErrNoSuchKeystore = errors.New("no such keystore")

func newKeyCmd(cfg *Config) *cobra.Command {
	keyCmd := &cobra.Command{
		Use:   "key",
		Short: "Manage encryption keys",
	}
	keyCmd.AddCommand(newKeyListCmd(cfg))
	keyCmd.AddCommand(newKeyNewCmd(cfg))
	keyCmd.AddCommand(newKeyShowCmd(cfg))
	return keyCmd
}

func newKeyListCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List keys in every enabled keystore",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := cfg.OpenKeyMgr(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			keys := mgr.Keys()
			infos := make([]KeyInfo, 0, len(keys))
			for _, k := range keys {
				store, _ := mgr.StoreOf(k.ID())
				infos = append(infos, NewKeyInfo(k, store))
			}
			return NewPrinter(cfg.OutputFormat, cmd.OutOrStdout()).PrintKeyList(infos)
		},
	}
}

func newKeyNewCmd(cfg *Config) *cobra.Command {
	var storeID string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Generate a key",
		Long:  `Generate a fresh 128-bit key in the given keystore`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := cfg.OpenKeyMgr(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			printVerbose(cfg, cmd.ErrOrStderr(), "Generating key in %s keystore", storeID)

			k, err := mgr.Generate(storeID)
			if err != nil {
				return err
			}
			if k == nil {
				return fmt.Errorf("%w: %s", ErrNoSuchKeystore, storeID)
			}
			return NewPrinter(cfg.OutputFormat, cmd.OutOrStdout()).PrintKeyInfo("Generated key", NewKeyInfo(k, storeID))
		},
	}
	cmd.Flags().StringVar(&storeID, "store", keystore.DefaultStoreID, "keystore to generate the key in")
	return cmd
}

func newKeyShowCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show <key-id>",
		Short: "Show one key",
		Long: `Show the key with the given id. Keys created by another warp process
since the keystores were opened are picked up by a reload.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := key.ParseID(args[0])
			if err != nil {
				return err
			}

			mgr, err := cfg.OpenKeyMgr(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			k, storeID, err := mgr.Lookup(id)
			if err != nil {
				return err
			}
			return NewPrinter(cfg.OutputFormat, cmd.OutOrStdout()).PrintKeyInfo("Key", NewKeyInfo(k, storeID))
		},
	}
}
