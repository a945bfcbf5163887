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

// Package key defines the identity and metadata of a file encryption key.
//
// A key is 16 bytes of random material used with AES-128. Callers never see
// the material itself after generation; they work with a Key, which carries
// the key's ID and creation time, and with Data, which records the
// algorithms the key was generated for.
//
// # Key IDs
//
// An ID is derived from the key material in two steps:
//
//  1. The key check value (KCV) is computed by encrypting the all-zero block
//     once with AES-128 under the key.
//  2. The KCV is fed to SHAKE-128 and the first 16 bytes of output become
//     the ID.
//
// The derivation is deterministic, so the same key always has the same ID,
// and it does not expose the key to a general purpose hash directly. IDs are
// printed as 32 lowercase hex characters and are used as storage names by
// every keystore backend.
//
// # Algorithm tags
//
// Data tags a stored key with its key derivation, encryption and MAC
// algorithms. New variants can be added without invalidating keys already
// on disk; a tag the running build does not recognize makes that one entry
// unreadable rather than the whole keystore.
package key
