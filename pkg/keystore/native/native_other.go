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

//go:build !(darwin && cgo) && !windows && !linux

package native

import (
	"runtime"

	"github.com/jeremyhahn/warp/pkg/keystore"
	"github.com/jeremyhahn/warp/pkg/logging"
)

func newNative(_ Home, logger *logging.Logger) (keystore.Keystore, error) {
	logger.Debug("no native keystore", "goos", runtime.GOOS)
	return nil, keystore.ErrNotSupported
}
