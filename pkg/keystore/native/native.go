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

// Package native selects the platform's own keystore as the "default"
// store at build time.
//
//	darwin (cgo)  keychain
//	windows       key files sealed with DPAPI
//	linux         Secret Service
//
// Other platforms have no default store and New returns
// keystore.ErrNotSupported.
package native

import (
	"github.com/jeremyhahn/warp/pkg/keystore"
	"github.com/jeremyhahn/warp/pkg/logging"
)

// Home is the part of the application home the native stores need.
type Home interface {
	// Keys returns the directory for key files.
	Keys() string
}

// New returns the default keystore for this platform, with id
// keystore.DefaultStoreID.
func New(home Home, logger *logging.Logger) (keystore.Keystore, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	return newNative(home, logger)
}
