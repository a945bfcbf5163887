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
	"github.com/spf13/cobra"
)

func newKeystoreCmd(cfg *Config) *cobra.Command {
	keystoreCmd := &cobra.Command{
		Use:   "keystore",
		Short: "Inspect enabled keystores",
	}
	keystoreCmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List enabled keystores",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := cfg.OpenKeyMgr(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			counts := make(map[string]int)
			for _, k := range mgr.Keys() {
				if store, ok := mgr.StoreOf(k.ID()); ok {
					counts[store]++
				}
			}

			stores := mgr.Stores()
			infos := make([]StoreInfo, 0, len(stores))
			for _, s := range stores {
				infos = append(infos, StoreInfo{ID: s.ID(), Keys: counts[s.ID()]})
			}
			return NewPrinter(cfg.OutputFormat, cmd.OutOrStdout()).PrintStoreList(infos)
		},
	})
	return keystoreCmd
}
