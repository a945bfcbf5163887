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

import "errors"

var (
	// ErrQueryFailed is returned when a keystore cannot be enumerated at all.
	ErrQueryFailed = errors.New("keystore: query failed")

	// ErrCorruptEntry is returned for a single entry that cannot be read back.
	ErrCorruptEntry = errors.New("keystore: corrupt entry")

	// ErrRandomFailed is returned when the system random source fails.
	ErrRandomFailed = errors.New("keystore: random source failed")

	// ErrPersistFailed is returned when new key material cannot be stored.
	ErrPersistFailed = errors.New("keystore: persist failed")

	// ErrNotSupported is returned when no native keystore exists for the platform.
	ErrNotSupported = errors.New("keystore: not supported on this platform")

	// ErrIDMismatch is returned when stored material does not derive the
	// id it is stored under.
	ErrIDMismatch = errors.New("keystore: key id mismatch")
)
