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

// Package keystore defines the capability every key storage backend
// provides and the helpers backends share: one-shot listing sequences and
// secure key generation.
package keystore

import (
	"iter"

	"github.com/jeremyhahn/warp/pkg/key"
)

// DefaultStoreID is the id reserved for the platform's native keystore.
const DefaultStoreID = "default"

// Keystore is a backend that generates keys and persists their material.
//
// Implementations must be safe for concurrent use. The material never
// leaves the backend; callers only see key.Key values.
type Keystore interface {
	// ID returns the stable identifier of the store, unique within a
	// key manager.
	ID() string

	// List enumerates the keys in the store.
	//
	// The sequence is finite and may be ranged over only once; the native
	// query runs when iteration begins. A bad entry yields an error
	// wrapping ErrCorruptEntry and iteration continues. A query that
	// cannot run at all yields a single error wrapping ErrQueryFailed.
	List() iter.Seq2[*key.Key, error]

	// Generate creates, persists and returns a new key.
	Generate() (*key.Key, error)
}
