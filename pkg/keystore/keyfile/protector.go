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

package keyfile

import "errors"

// ErrUnprotectFailed is returned when a payload cannot be unsealed, whether
// from tampering, a wrong secret or a different user session.
var ErrUnprotectFailed = errors.New("keyfile: unprotect failed")

// Protector seals key material at rest.
//
// entropy is non-secret context that must be presented again to unseal;
// a mismatch fails with ErrUnprotectFailed. Implementations must be safe
// for concurrent use.
type Protector interface {
	// Name identifies the protection scheme in logs.
	Name() string

	// Protect seals plain. plain is not retained.
	Protect(plain, entropy []byte) ([]byte, error)

	// Unprotect reverses Protect. The caller wipes the returned slice.
	Unprotect(sealed, entropy []byte) ([]byte, error)
}
