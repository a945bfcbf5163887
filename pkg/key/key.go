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

package key

import "time"

// Key is a file encryption key as seen by everything outside the keystore
// that holds its material. A Key is immutable.
type Key struct {
	id      ID
	created time.Time
}

// New returns a Key with the given ID and creation time.
func New(id ID, created time.Time) *Key {
	return &Key{id: id, created: created}
}

// ID returns the key's identifier.
func (k *Key) ID() ID {
	return k.id
}

// Created returns when the key was created, as reported by its keystore.
func (k *Key) Created() time.Time {
	return k.created
}

// String returns the key ID in hex form.
func (k *Key) String() string {
	return k.id.String()
}
