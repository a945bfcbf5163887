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

//go:build windows

package native

import (
	"github.com/jeremyhahn/warp/pkg/keystore"
	"github.com/jeremyhahn/warp/pkg/keystore/keyfile"
	"github.com/jeremyhahn/warp/pkg/logging"
	"github.com/jeremyhahn/warp/pkg/storage/file"
)

func newNative(home Home, logger *logging.Logger) (keystore.Keystore, error) {
	backend, err := file.New(home.Keys())
	if err != nil {
		return nil, err
	}
	return keyfile.New(keystore.DefaultStoreID, backend, keyfile.NewDPAPIProtector(), logger), nil
}
