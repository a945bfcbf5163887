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

package keystore

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/awnumar/memguard"

	"github.com/jeremyhahn/warp/pkg/key"
)

// PersistFunc stores freshly generated material under id with metadata
// data. raw is only valid for the duration of the call and must not be
// retained.
//
// A non-zero returned time replaces data.Created as the key's creation time,
// for stores that assign their own.
type PersistFunc func(id key.ID, raw *[key.Size]byte, data *key.Data) (time.Time, error)

// randReader is swapped in tests.
var randReader = rand.Read

// Generate draws fresh key material, derives its id and hands both to
// persist. The material is wiped before Generate returns, whatever the
// outcome.
func Generate(persist PersistFunc) (*key.Key, error) {
	var raw [key.Size]byte
	defer memguard.WipeBytes(raw[:])

	if _, err := randReader(raw[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRandomFailed, err)
	}

	id := key.DeriveID(&raw)
	data := key.DefaultData(time.Now().UTC())

	created, err := persist(id, &raw, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	if created.IsZero() {
		created = data.Created
	}

	return key.New(id, created), nil
}
